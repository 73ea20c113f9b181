package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	versionPath     = "/v1"
	completionsPath = "/chat/completions"
)

// ErrInvalidURL is returned when the base URL is not an absolute URL.
var ErrInvalidURL = errors.New("invalid API URL")

// Normalize turns an API base URL into its chat-completions endpoint.
//
// Trailing slashes on the path are ignored. A path ending in
// /v1/chat/completions is kept, a path ending in /v1 gets /chat/completions
// appended and anything else gets /v1/chat/completions. Query and fragment
// are preserved, as are escaped characters in the path. Normalize(Normalize(x)) == Normalize(x).
func Normalize(base string) (string, error) {
	raw := strings.TrimSpace(base)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, base)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidURL, base)
	}

	// Match on the escaped path so an encoded "/" is never taken as a separator
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	switch {
	case strings.HasSuffix(escaped, versionPath+completionsPath):
	case strings.HasSuffix(escaped, versionPath):
		escaped += completionsPath
	default:
		escaped += versionPath + completionsPath
	}

	path, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, base, err)
	}
	u.Path, u.RawPath = path, escaped
	return u.String(), nil
}
