package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotFound matches any HTTPError with status 404.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict matches any HTTPError with status 409.
	ErrConflict = errors.New("resource conflict")
)

// FieldError is a single field complaint reported by the upstream API.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HTTPError is returned when the upstream answered with a non-2xx status.
// Message holds only what the upstream wrote and is empty otherwise.
type HTTPError struct {
	StatusCode int
	Message    string
	Path       string
	Fields     []FieldError
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream %s returned %d: %s", e.Path, e.StatusCode, e.Text())
}

// Text is the upstream message, or the status text when none was sent.
func (e *HTTPError) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// ServerSide reports whether the failure is on the upstream's side (5xx).
func (e *HTTPError) ServerSide() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// NetworkError means no response was received at all.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError means the request deadline passed before a response arrived.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
	}
	return fmt.Sprintf("request to %s timed out", e.URL)
}

// IsTransient reports whether err is worth retrying for an idempotent read:
// network failures, timeouts and 5xx responses.
func IsTransient(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.ServerSide()
	}
	return false
}

// upstreamError is the error body the library API sends with 4xx/5xx responses.
type upstreamError struct {
	Status  int          `json:"status"`
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Path    string       `json:"path"`
	Errors  []FieldError `json:"errors"`
}

// NewHTTPError builds the error for a non-2xx response from its raw body.
// A bare reason phrase in the error field is not treated as a message.
func NewHTTPError(statusCode int, path string, body []byte) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: statusCode,
		Path:       path,
	}

	var payload upstreamError
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		httpErr.Fields = payload.Errors
		switch {
		case payload.Message != "":
			httpErr.Message = payload.Message
		case payload.Error != "" && payload.Error != http.StatusText(statusCode):
			httpErr.Message = payload.Error
		}
	}
	return httpErr
}
