package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// maxErrorBody caps how much of a failed response body is kept on an APIError.
const maxErrorBody = 64 * 1024

// ErrSessionExpired matches every error returned when the client gave up on the
// stored session and the user has to log in again.
var ErrSessionExpired = errors.New("session expired, please log in again")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Detail     string // the backend's human-readable message, if any
	Body       string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: unexpected HTTP status %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Message returns Detail, or fallback when the backend sent nothing readable.
func (e *APIError) Message(fallback string) string {
	if e.Detail != "" {
		return e.Detail
	}
	return fallback
}

// IsUnauthorized reports whether err carries a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// SessionError wraps the reason the stored session could not be recovered.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return "session expired: " + e.Err.Error()
}

func (e *SessionError) Unwrap() error { return e.Err }

func (e *SessionError) Is(target error) bool { return target == ErrSessionExpired }

// newAPIError drains and closes resp.Body.
func newAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	if resp.Request != nil {
		apiErr.Method = resp.Request.Method
		apiErr.URL = resp.Request.URL.String()
	}
	apiErr.Detail = extractDetail(body)
	return apiErr
}

// extractDetail understands both {"detail": "..."} and the field error maps
// produced by serializer validation ({"field": ["msg", ...]}).
func extractDetail(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
		return ""
	}

	if raw, ok := payload["detail"]; ok {
		var detail string
		if err := json.Unmarshal(raw, &detail); err == nil {
			return detail
		}
	}

	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var parts []string
	for _, field := range fields {
		var msgs []string
		if err := json.Unmarshal(payload[field], &msgs); err == nil && len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, " ")))
			continue
		}
		var msg string
		if err := json.Unmarshal(payload[field], &msg); err == nil && msg != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
		}
	}
	return strings.Join(parts, "; ")
}
