package resilience

import (
	"fmt"
	"slices"
	"time"
)

// Builder assembles a Pipeline from behaviors addressed by integer position.
// Positions are unique identifiers controlling nesting order, not array
// indices: the lowest position ends up outermost, the highest innermost, and
// registration order is irrelevant. Registering two behaviors at the same
// position, or a built-in with a missing numeric parameter, fails immediately
// with a configuration error.
//
// Built-in units are instantiated at finalize time so they share the resolved
// logger aggregate. The builder is single-use: finalize once and discard it.
// Builder itself is not safe for concurrent use; the Pipeline it produces is.
type Builder[T any] struct {
	units map[int]func(logger Sink) Unit[T]
	sinks []Sink
}

// NewBuilder creates an empty pipeline builder.
//
// Example:
//
//	b := resilience.NewBuilder[string]()
//	_ = b.UseCircuitBreaker(2, 10*time.Second, 5, time.Minute)
//	_ = b.UseRetry(3, 2)
//	_ = b.UseTimeout(4, time.Second)
//	pipeline := b.AddSink(resilience.NewSlogSink(nil)).Build()
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{units: make(map[int]func(Sink) Unit[T])}
}

// Use registers a custom unit at the given position.
func (b *Builder[T]) Use(position int, unit Unit[T]) error {
	if unit == nil {
		return fmt.Errorf("%w: unit at position %d is nil", ErrInvalidParameter, position)
	}
	if err := b.claim(position); err != nil {
		return err
	}
	b.units[position] = func(Sink) Unit[T] { return unit }
	return nil
}

// UseCircuitBreaker registers a built-in circuit breaker at the given
// position. breakDuration, maxFailedCalls, and leakTimeSpan are required and
// must be positive; opts may add a state-change callback, an initial state,
// or a classifier.
func (b *Builder[T]) UseCircuitBreaker(
	position int,
	breakDuration time.Duration,
	maxFailedCalls int,
	leakTimeSpan time.Duration,
	opts ...CircuitBreakerOption,
) error {
	if breakDuration <= 0 {
		return fmt.Errorf("%w: breakDuration must be positive", ErrInvalidParameter)
	}
	if maxFailedCalls <= 0 {
		return fmt.Errorf("%w: maxFailedCalls must be positive", ErrInvalidParameter)
	}
	if leakTimeSpan <= 0 {
		return fmt.Errorf("%w: leakTimeSpan must be positive", ErrInvalidParameter)
	}
	if err := b.claim(position); err != nil {
		return err
	}

	b.units[position] = func(logger Sink) Unit[T] {
		all := append([]CircuitBreakerOption{
			WithCircuitBreakerLogger(logger),
			WithBreakDuration(breakDuration),
			WithMaxFailedCalls(maxFailedCalls),
			WithLeakTimeSpan(leakTimeSpan),
		}, opts...)
		return NewCircuitBreaker[T](all...)
	}
	return nil
}

// UseRetry registers a built-in retry unit at the given position. retries is
// the number of extra attempts after the first failure and must be positive.
func (b *Builder[T]) UseRetry(position int, retries int, opts ...RetryOption) error {
	if retries <= 0 {
		return fmt.Errorf("%w: retries must be positive", ErrInvalidParameter)
	}
	if err := b.claim(position); err != nil {
		return err
	}

	b.units[position] = func(logger Sink) Unit[T] {
		all := append([]RetryOption{
			WithRetryLogger(logger),
			WithRetries(retries),
		}, opts...)
		return NewRetry[T](all...)
	}
	return nil
}

// UseTimeout registers a built-in timeout unit at the given position. timeout
// must be positive.
func (b *Builder[T]) UseTimeout(position int, timeout time.Duration, opts ...TimeoutOption) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidParameter)
	}
	if err := b.claim(position); err != nil {
		return err
	}

	b.units[position] = func(logger Sink) Unit[T] {
		all := append([]TimeoutOption{WithTimeoutLogger(logger)}, opts...)
		return NewTimeout[T](timeout, all...)
	}
	return nil
}

// AddSink registers a log sink. Zero sinks yield a no-op logger, one is used
// directly, several fan out in registration order. Returns the builder for
// chaining; a nil sink is ignored.
func (b *Builder[T]) AddSink(sink Sink) *Builder[T] {
	if sink != nil {
		b.sinks = append(b.sinks, sink)
	}
	return b
}

// BuildToList finalizes the builder and returns the units ordered ascending
// by position.
func (b *Builder[T]) BuildToList() []Unit[T] {
	positions := make([]int, 0, len(b.units))
	for position := range b.units {
		positions = append(positions, position)
	}
	slices.Sort(positions)

	logger := combineSinks(b.sinks)
	units := make([]Unit[T], 0, len(positions))
	for _, position := range positions {
		units = append(units, b.units[position](logger))
	}
	return units
}

// Build finalizes the builder into the composed pipeline.
func (b *Builder[T]) Build() *Pipeline[T] {
	return NewPipeline(b.BuildToList()...)
}

func (b *Builder[T]) claim(position int) error {
	if _, taken := b.units[position]; taken {
		return fmt.Errorf("%w: position %d", ErrPositionTaken, position)
	}
	return nil
}
