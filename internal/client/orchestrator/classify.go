// internal/client/orchestrator/classify.go

package orchestrator

import (
	"context"
	"errors"
	"net"
	"net/http"

	"miniregion/internal/client/backend"
)

// FailureKind classifies a failed fetch for the user message
type FailureKind string

// Failure kinds
const (
	FailurePermission   FailureKind = "permission"
	FailureUnreachable  FailureKind = "unreachable"
	FailureTimeout      FailureKind = "timeout"
	FailureConnectivity FailureKind = "connectivity"
	FailureGeneric      FailureKind = "generic"
)

var failureMessages = map[FailureKind]string{
	FailurePermission:   "Access denied (403). Check the API key.",
	FailureUnreachable:  "Backend server not reachable (404).",
	FailureTimeout:      "The request timed out.",
	FailureConnectivity: "Network error: backend not reachable.",
	FailureGeneric:      "Restaurants could not be loaded.",
}

// Message returns the user-facing text for the failure kind
func (k FailureKind) Message() string {
	return failureMessages[k] + " Showing sample data."
}

// Classify maps a fetch error to a failure kind
func Classify(err error) FailureKind {
	var serr *backend.StatusError
	if errors.As(err, &serr) {
		switch serr.Code {
		case http.StatusForbidden:
			return FailurePermission
		case http.StatusNotFound:
			return FailureUnreachable
		}
		return FailureGeneric
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return FailureTimeout
		}
		return FailureConnectivity
	}

	return FailureGeneric
}
