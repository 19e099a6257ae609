// Package resilience composes fault-tolerance behaviors around arbitrary
// asynchronous operations. Circuit breaking, retrying, and timing out are
// each implemented as a Unit, and units nest into a Pipeline in a
// caller-chosen order, so a single Execute call flows through every
// configured behavior before reaching the wrapped operation.
package resilience

import (
	"context"
)

// Operation is a zero-argument asynchronous operation producing a value of
// type T. Implementations should honor ctx cancellation where they can; the
// library propagates ctx but does not force-stop an operation that ignores it.
type Operation[T any] func(ctx context.Context) (T, error)

// Unit is the single capability every resilience behavior implements.
// Execute runs op through the unit's own policy and returns its outcome.
// A Unit must be safe for concurrent use by multiple Execute calls.
//
// Pipeline itself implements Unit, so pipelines nest inside other pipelines
// without special-casing.
type Unit[T any] interface {
	Execute(ctx context.Context, op Operation[T]) (T, error)
}

// UnitFunc adapts an ordinary function to a Unit.
//
// Example:
//
//	logging := resilience.UnitFunc[string](func(ctx context.Context, op resilience.Operation[string]) (string, error) {
//	    log.Println("calling downstream")
//	    return op(ctx)
//	})
type UnitFunc[T any] func(ctx context.Context, op Operation[T]) (T, error)

// Execute implements Unit.
func (f UnitFunc[T]) Execute(ctx context.Context, op Operation[T]) (T, error) {
	return f(ctx, op)
}
