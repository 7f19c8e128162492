package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"prepcoach/internal/services"
)

// StatusError reports a non-2xx response. It unwraps to the services marker
// matching the status so callers can classify with errors.Is.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Body       string
	RetryAfter time.Duration
}

func newStatusError(method, path string, status int, body []byte, retryAfter time.Duration) *StatusError {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > maxErrorBody {
		trimmed = trimmed[:maxErrorBody]
	}
	return &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    extractMessage(body),
		Body:       trimmed,
		RetryAfter: retryAfter,
	}
}

func (e *StatusError) Error() string {
	detail := e.Message
	if detail == "" {
		detail = e.Body
	}
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("backend %s %s: http %d: %s", e.Method, e.Path, e.StatusCode, detail)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return services.ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return services.ErrNotFound
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusGatewayTimeout:
		return services.ErrTimeout
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= http.StatusInternalServerError:
		return services.ErrTransient
	default:
		return services.ErrValidation
	}
}

// Retryable reports whether repeating the same request may succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// extractMessage pulls a human-readable reason out of the usual error shapes:
// {"message": ...}, {"error": ...}, or a Spring-style {"error": ..., "message": ...}.
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}
