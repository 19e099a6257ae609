package resilience

import (
	"errors"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
	"github.com/sony/gobreaker/v2"
)

// Configuration errors raised by the Builder. They are returned synchronously
// from the registration call that caused them, never deferred to Execute.
var (
	// ErrPositionTaken is returned when a behavior is registered at a
	// pipeline position that is already occupied.
	ErrPositionTaken = errors.New("resilience: position already registered")

	// ErrInvalidParameter is returned when a required numeric parameter is
	// missing, zero, or negative.
	ErrInvalidParameter = errors.New("resilience: invalid parameter")
)

// IsConfig reports whether err is a builder configuration error.
func IsConfig(err error) bool {
	return errors.Is(err, ErrPositionTaken) || errors.Is(err, ErrInvalidParameter)
}

// IsCircuitOpen reports whether err was synthesized by a circuit breaker
// rejecting the call without invoking the operation. It matches both the
// built-in CircuitBreaker and the gobreaker adapter, so callers can
// distinguish "downstream was never tried" from "downstream actually failed".
func IsCircuitOpen(err error) bool {
	return errors.Is(err, pkgerrors.ErrCircuitOpen) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

// IsTimeout reports whether err was synthesized by a Timeout unit whose
// deadline elapsed before the operation settled.
func IsTimeout(err error) bool {
	return pkgerrors.IsTimeout(err)
}
