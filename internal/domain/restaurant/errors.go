// internal/domain/restaurant/errors.go

package restaurant

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable is returned when the place provider cannot be
	// reached or answers with a non-success status
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotConfigured is returned when a required credential is missing
	ErrNotConfigured = errors.New("not configured")
)

// ValidationError describes malformed client input on a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
