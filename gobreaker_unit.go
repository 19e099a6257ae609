package resilience

import (
	"context"
	"errors"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
	"github.com/sony/gobreaker/v2"
)

// GoBreakerUnit adapts a sony/gobreaker circuit breaker as a Unit, for
// callers already standardized on gobreaker's rolling-count model instead of
// the leak-window CircuitBreaker in this package. Open-state rejections are
// mapped onto the same circuit-open error kind, so IsCircuitOpen works on
// either breaker.
type GoBreakerUnit[T any] struct {
	cb     *gobreaker.CircuitBreaker[T]
	logger Sink
}

// NewGoBreakerUnit wraps cb as a Unit. A nil logger discards breaker events.
//
// Example:
//
//	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{Name: "orders"})
//	unit := resilience.NewGoBreakerUnit(cb, resilience.NewSlogSink(nil))
func NewGoBreakerUnit[T any](cb *gobreaker.CircuitBreaker[T], logger Sink) *GoBreakerUnit[T] {
	if logger == nil {
		logger = NopSink{}
	}
	return &GoBreakerUnit[T]{cb: cb, logger: logger}
}

// Execute runs op through the gobreaker breaker. Rejections in the open and
// half-open states are rewrapped as circuit-open errors:
//   - gobreaker.ErrOpenState becomes a circuit-open error in state "open"
//   - gobreaker.ErrTooManyRequests becomes one in state "half-open"
func (u *GoBreakerUnit[T]) Execute(ctx context.Context, op Operation[T]) (T, error) {
	var zero T

	value, err := u.cb.Execute(func() (T, error) {
		return op(ctx)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState):
			counts := u.cb.Counts()
			u.logger.Log(LevelWarn, "circuit open, call rejected",
				"error", err,
				"state", u.cb.State().String())
			return zero, pkgerrors.NewCircuitBreakerError(
				"call rejected",
				"execute",
				"open",
				pkgerrors.WithCause(err),
				pkgerrors.WithCounts(gobreakerCounts(counts)),
			)
		case errors.Is(err, gobreaker.ErrTooManyRequests):
			u.logger.Log(LevelDebug, "too many requests in half-open state",
				"error", err)
			return zero, pkgerrors.NewCircuitBreakerError(
				"too many requests in half-open state",
				"execute",
				"half-open",
				pkgerrors.WithCause(err),
				pkgerrors.WithCounts(gobreakerCounts(u.cb.Counts())),
			)
		}
		return zero, err
	}

	return value, nil
}

// State returns the breaker state mapped onto this package's State values.
func (u *GoBreakerUnit[T]) State() State {
	switch u.cb.State() {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

func gobreakerCounts(counts gobreaker.Counts) pkgerrors.CircuitCounts {
	return pkgerrors.CircuitCounts{
		Requests:             counts.Requests,
		TotalSuccesses:       counts.TotalSuccesses,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
	}
}
