package evolution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/bizmatters/world-oracle/internal/config"
	"github.com/bizmatters/world-oracle/internal/endpoint"
	"github.com/bizmatters/world-oracle/internal/models"
)

// Request is a validated evolve request with defaults applied
type Request struct {
	// Endpoint is the normalized chat-completions URL
	Endpoint     string
	APIKey       string
	Model        string
	CurrentState json.RawMessage
	UserPrompt   string
	// Temperature is nil when the caller did not send one
	Temperature *float64
}

// Validate resolves body against defaults and checks it is complete.
//
// apiUrl, apiKey and model fall back to defaults when empty. current_state
// has no default and must not be null, false, 0 or "". Missing fields are
// reported before the URL is checked.
func Validate(body models.EvolveBody, defaults config.Defaults) (*Request, error) {
	req := &Request{
		APIKey:       firstNonEmpty(body.APIKey, defaults.APIKey),
		Model:        firstNonEmpty(body.Model, defaults.Model),
		CurrentState: bytes.TrimSpace(body.CurrentState),
		UserPrompt:   body.UserPrompt,
	}
	apiURL := firstNonEmpty(body.APIURL, defaults.APIURL)

	var missing []string
	if apiURL == "" {
		missing = append(missing, "apiUrl")
	}
	if req.APIKey == "" {
		missing = append(missing, "apiKey")
	}
	if req.Model == "" {
		missing = append(missing, "model")
	}
	if isFalsy(req.CurrentState) {
		missing = append(missing, "current_state")
	}
	if len(missing) > 0 {
		return nil, &Error{
			Kind:    KindMissingFields,
			Status:  http.StatusBadRequest,
			Message: "Missing required fields: " + strings.Join(missing, ", "),
			Missing: missing,
		}
	}

	endpointURL, err := endpoint.Normalize(apiURL)
	if err != nil {
		return nil, &Error{
			Kind:    KindInvalidAPIURL,
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Invalid API URL: %q is not an absolute URL", apiURL),
			Err:     err,
		}
	}
	req.Endpoint = endpointURL

	temperature, err := coerceTemperature(body.Temperature)
	if err != nil {
		return nil, &Error{
			Kind:    KindInvalidTemperature,
			Status:  http.StatusBadRequest,
			Message: "Invalid temperature: " + err.Error(),
			Err:     err,
		}
	}
	req.Temperature = temperature

	return req, nil
}

// isFalsy reports whether a JSON value counts as absent: missing, null,
// false, a zero number or an empty string. Objects and arrays never are.
func isFalsy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	switch raw[0] {
	case '{', '[':
		return false
	case 'n', 'f':
		return true
	case 't':
		return false
	case '"':
		return string(raw) == `""`
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	return err == nil && f == 0
}

// coerceTemperature converts the temperature field to a number. Numbers,
// numeric strings and booleans are accepted; null or absent yields nil.
func coerceTemperature(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("malformed value: %w", err)
	}

	var t float64
	switch v := value.(type) {
	case float64:
		t = v
	case bool:
		if v {
			t = 1
		}
	case string:
		s := strings.TrimSpace(v)
		if s != "" {
			parsed, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
				return nil, fmt.Errorf("%q is not a number", v)
			}
			t = parsed
		}
	default:
		return nil, fmt.Errorf("expected a number, got %s", raw)
	}
	return &t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
