package resilience

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
)

// Timeout races an operation against a deadline. If the operation settles
// first its outcome passes through unchanged; if the deadline elapses first
// the call fails with a timeout error.
//
// The abandoned operation is not force-stopped: it keeps running in its own
// goroutine until it observes the canceled context or finishes on its own.
// The result channel is buffered so the goroutine never blocks on delivery.
type Timeout[T any] struct {
	timeout time.Duration
	logger  Sink
}

// NewTimeout creates a timeout unit. A non-positive duration falls back to
// DefaultTimeout.
func NewTimeout[T any](timeout time.Duration, opts ...TimeoutOption) *Timeout[T] {
	config := &timeoutConfig{logger: NopSink{}}
	for _, opt := range opts {
		opt(config)
	}
	if config.logger == nil {
		config.logger = NopSink{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Timeout[T]{
		timeout: timeout,
		logger:  config.logger,
	}
}

// Execute runs op with the configured deadline.
func (t *Timeout[T]) Execute(ctx context.Context, op Operation[T]) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		value, err := op(ctx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			t.logger.Log(LevelWarn, "operation timed out",
				"timeout", t.timeout)
			return zero, pkgerrors.NewTimeoutError("operation timed out", "execute", t.timeout)
		}
		// Caller's context was canceled; propagate as-is.
		return zero, ctx.Err()
	}
}
