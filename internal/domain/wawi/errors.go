package wawi

import (
	"errors"
	"fmt"
)

// Errors surfaced by the WAWI integration
var (
	// ErrNotConfigured indicates missing credentials or base URL.
	// Configuration errors are fatal at the call site and never retried.
	ErrNotConfigured = errors.New("wawi: integration not configured")
	// ErrAuthFailed indicates the client-credentials exchange was rejected
	ErrAuthFailed = errors.New("wawi: authentication failed")
	// ErrRateLimited indicates the upstream rejected the call with HTTP 429
	ErrRateLimited = errors.New("wawi: rate limited")
	// ErrUnavailable indicates a network-level failure or upstream 5xx
	ErrUnavailable = errors.New("wawi: temporarily unavailable")
	// ErrInvalidResponse indicates an unparseable upstream payload
	ErrInvalidResponse = errors.New("wawi: invalid response")
)

// APIError carries a non-retryable upstream HTTP failure with the status
// code and the server-provided payload.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("wawi: API error %d: %s", e.StatusCode, e.Body)
}

// IsRetryable classifies an error for the client's bounded retry loop
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAuthFailed) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable)
}
