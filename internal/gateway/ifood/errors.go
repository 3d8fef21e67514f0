package ifood

import (
	"errors"
	"fmt"
	"strings"
)

const maxErrorBodyPreview = 200

// ErrUpstream indicates iFood API failure.
var ErrUpstream = errors.New("[iFood] error when trying to get response from ifood api")

// ErrNotLoggedIn is returned when the browser session carries no account state.
var ErrNotLoggedIn = errors.New("account info missing, make sure you are logged in to iFood")

// ErrNoAddress is returned when the session has no configured delivery address.
var ErrNoAddress = errors.New("delivery address is missing, set your address in iFood first")

// ErrCaptureTimeout is returned when no authenticated request was observed in time.
var ErrCaptureTimeout = errors.New("timed out waiting for an authenticated iFood request")

// ErrMissingAccessKeys is returned by the direct catalog path before any
// page-load catalog fetch populated access_key/secret_key.
var ErrMissingAccessKeys = errors.New("missing access credentials, open a merchant page once to initialize headers")

// ErrNotFound wraps lookup failures that name the missing query or item.
var ErrNotFound = errors.New("not found")

// UpstreamRequestError carries HTTP context for failed upstream calls.
type UpstreamRequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Cause      error
}

func (e *UpstreamRequestError) Error() string {
	parts := []string{ErrUpstream.Error()}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	method := strings.TrimSpace(e.Method)
	url := strings.TrimSpace(e.URL)
	if method != "" || url != "" {
		parts = append(parts, strings.TrimSpace(method+" "+url))
	}
	if trimmed := compactBodyPreview(e.Body); trimmed != "" {
		parts = append(parts, fmt.Sprintf("body=%q", trimmed))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}
	return strings.Join(parts, "; ")
}

func (e *UpstreamRequestError) Unwrap() error {
	return ErrUpstream
}

func compactBodyPreview(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	body = strings.ReplaceAll(body, "\n", " ")
	body = strings.ReplaceAll(body, "\r", " ")
	body = strings.Join(strings.Fields(body), " ")
	if len(body) > maxErrorBodyPreview {
		return body[:maxErrorBodyPreview] + "..."
	}
	return body
}
