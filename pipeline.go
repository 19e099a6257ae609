package resilience

import (
	"context"
)

// Pipeline composes an ordered sequence of units into one Unit by nesting:
// the first unit is outermost and the last is innermost, closest to the raw
// operation. The pipeline holds no policy of its own and is immutable once
// built, so it is safe for any number of concurrent Execute calls — and,
// being a Unit itself, it can sit inside another pipeline.
type Pipeline[T any] struct {
	units []Unit[T]
}

// NewPipeline creates a pipeline from units in outermost-to-innermost order.
// Use Builder to assemble units addressed by position instead.
func NewPipeline[T any](units ...Unit[T]) *Pipeline[T] {
	return &Pipeline[T]{units: append([]Unit[T](nil), units...)}
}

// Execute runs op through every unit in nesting order:
// units[0].Execute wraps units[1].Execute wraps ... wraps op.
func (p *Pipeline[T]) Execute(ctx context.Context, op Operation[T]) (T, error) {
	run := op
	for i := len(p.units) - 1; i >= 0; i-- {
		unit, inner := p.units[i], run
		run = func(ctx context.Context) (T, error) {
			return unit.Execute(ctx, inner)
		}
	}
	return run(ctx)
}

// Units returns a copy of the composed units in nesting order.
func (p *Pipeline[T]) Units() []Unit[T] {
	return append([]Unit[T](nil), p.units...)
}
