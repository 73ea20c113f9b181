package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparsable is returned when no strategy yields valid JSON.
var ErrUnparsable = errors.New("unparsable model response")

var (
	fencedJSON = regexp.MustCompile("(?s)```json(.*?)```")
	outerBrace = regexp.MustCompile(`(?s)\{.*\}`)
)

// matcher locates a candidate JSON span in model output. ok is false when
// the matcher's pattern is absent from the text.
type matcher struct {
	name  string
	match func(text string) (span string, ok bool)
}

// Matchers run in order. The first one whose pattern is present decides the
// outcome; a span that fails to parse does not fall through to the next one.
var matchers = []matcher{
	{
		name: "fenced",
		match: func(text string) (string, bool) {
			m := fencedJSON.FindStringSubmatch(text)
			if m == nil {
				return "", false
			}
			return strings.TrimSpace(m[1]), true
		},
	},
	{
		name: "braces",
		match: func(text string) (string, bool) {
			span := outerBrace.FindString(text)
			return span, span != ""
		},
	},
	{
		name: "whole",
		match: func(text string) (string, bool) {
			return text, true
		},
	},
}

// JSON recovers a single JSON value from raw model output, which may wrap it
// in a ```json fence or surround it with prose. The returned bytes are the
// value as the model wrote it, with surrounding whitespace removed.
//
// No shape check is done here; callers that need an object use IsObject.
func JSON(text string) (json.RawMessage, error) {
	for _, m := range matchers {
		span, ok := m.match(text)
		if !ok {
			continue
		}
		var value json.RawMessage
		if err := json.Unmarshal([]byte(span), &value); err != nil {
			return nil, fmt.Errorf("%w: %s match: %v", ErrUnparsable, m.name, err)
		}
		return bytes.TrimSpace(value), nil
	}
	return nil, ErrUnparsable
}

// IsObject reports whether raw holds a JSON object at the top level.
func IsObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
