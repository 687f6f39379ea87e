package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrProfileIncomplete indicates a profile lacks url, username, or password.
	// Surfaced as a configuration error, distinct from network failures.
	ErrProfileIncomplete = errors.New("profile is missing url, username, or password")

	// ErrNoProfile indicates no profile is currently selected
	ErrNoProfile = errors.New("no profile selected")

	// ErrSeriesNotFound indicates the requested series does not exist
	ErrSeriesNotFound = errors.New("series not found")
)

// APIError is a failure talking to the remote catalog: a non-2xx response,
// an unparseable payload, or a payload of the wrong shape. It is recoverable
// and surfaced to the UI; a failed fetch never writes a cache entry.
type APIError struct {
	Message    string
	StatusCode int // zero when no HTTP status applies (network error, bad payload)
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("xtream api: %s (status %d)", e.Message, e.StatusCode)
	}
	return "xtream api: " + e.Message
}

// IsAPIError reports whether err is (or wraps) an APIError
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
