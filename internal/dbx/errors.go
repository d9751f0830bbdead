// Package dbx provides an HTTP client for the Dropbox API v2 with
// automatic retry, backoff, and error classification. It covers the
// upload-session batch surface: start_batch, append_v2, finish_batch,
// and finish_batch/check.
package dbx

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, dbx.ErrConflict) to check.
var (
	ErrBadRequest   = errors.New("dbx: bad request")
	ErrUnauthorized = errors.New("dbx: unauthorized")
	ErrForbidden    = errors.New("dbx: forbidden")
	ErrConflict     = errors.New("dbx: conflict")
	ErrThrottled    = errors.New("dbx: throttled")
	ErrServerError  = errors.New("dbx: server error")
)

// APIError wraps a sentinel error with HTTP status code, the
// X-Dropbox-Request-Id header, and the API error summary for debugging.
type APIError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("dbx: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("dbx: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
// Dropbox uses 429 for rate limiting and 5xx for transient server trouble.
// 409 carries an API error union and is never transient.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
