package services

import (
	"errors"
	"fmt"
)

// ErrUnsupportedRoute means no shipping rate exists for the requested route,
// or the parcel exceeds the carrier's weight ceiling.
var ErrUnsupportedRoute = errors.New("unsupported shipping route")

// ValidationError rejects a request before any write happens. Handlers map it
// to a 4xx response.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// UpstreamError wraps a failed payment provider call. Retryable tells the
// handler whether the caller should be prompted to try again.
type UpstreamError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
