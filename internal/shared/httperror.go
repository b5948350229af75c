package shared

import (
	"fmt"
	"net/http"
	"time"
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
	RetryAfter time.Duration // provider-supplied retry hint, zero when absent
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, e.Message)
}

// AsHTTPError walks the error chain looking for an *HTTPError.
func AsHTTPError(err error) (*HTTPError, bool) {
	for err != nil {
		if httpErr, ok := err.(*HTTPError); ok {
			return httpErr, true
		}
		if unwrapped, ok := err.(interface{ Unwrap() error }); ok {
			err = unwrapped.Unwrap()
		} else {
			break
		}
	}
	return nil, false
}

// IsRateLimited checks if an error is a 429 from the provider
func IsRateLimited(err error) bool {
	httpErr, ok := AsHTTPError(err)
	return ok && httpErr.StatusCode == http.StatusTooManyRequests
}

// IsAuthExpired checks if an error is a 401 from the provider
func IsAuthExpired(err error) bool {
	httpErr, ok := AsHTTPError(err)
	return ok && httpErr.StatusCode == http.StatusUnauthorized
}

// IsRetryableHTTPError checks if an HTTP error is a transient server-side
// failure worth retrying on an idempotent call
func IsRetryableHTTPError(err error) bool {
	httpErr, ok := AsHTTPError(err)
	if !ok {
		return false
	}
	switch httpErr.StatusCode {
	case http.StatusServiceUnavailable, // 503
		http.StatusBadGateway,     // 502
		http.StatusGatewayTimeout: // 504
		return true
	}
	return false
}
