package resilience

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow normally.
	StateClosed State = iota

	// StateOpen means calls are rejected without invoking the operation.
	StateOpen

	// StateHalfOpen means a single trial call is probing for recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// admission records the state a call was admitted under, so its outcome is
// applied against the right branch of the state machine even if the breaker
// moved on while the call was in flight.
type admission int

const (
	admitClosed admission = iota
	admitTrial
)

// CircuitBreaker tracks qualifying failures in a sliding time window and
// short-circuits calls once MaxFailedCalls failures accumulate within
// LeakTimeSpan. While open, every call fails fast with a circuit-open error;
// after BreakDuration the next call runs as a half-open trial that either
// closes the breaker or restarts the cooldown.
//
// A single success while closed clears the window: the breaker protects
// against sustained failure, not intermittent noise. Failures older than the
// leak window are pruned lazily when a new failure is recorded, so no
// background sweeper is needed.
//
// One breaker instance holds one state machine; share it across calls, never
// across pipeline positions.
type CircuitBreaker[T any] struct {
	config     *CircuitBreakerConfig
	logger     Sink
	classifier CircuitBreakerErrorClassifier

	mu            sync.Mutex
	state         State
	failures      []time.Time
	openedAt      time.Time
	trialInFlight bool
}

// NewCircuitBreaker creates a circuit breaker unit.
//
// Example:
//
//	cb := resilience.NewCircuitBreaker[string](
//	    resilience.WithMaxFailedCalls(3),
//	    resilience.WithBreakDuration(10*time.Second),
//	    resilience.WithLeakTimeSpan(time.Minute),
//	)
func NewCircuitBreaker[T any](opts ...CircuitBreakerOption) *CircuitBreaker[T] {
	config := DefaultCircuitBreakerConfig()
	for _, opt := range opts {
		opt(config)
	}

	if config.Logger == nil {
		config.Logger = NopSink{}
	}
	if config.ErrorClassifier == nil {
		config.ErrorClassifier = AllErrors{}
	}

	cb := &CircuitBreaker[T]{
		config:     config,
		logger:     config.Logger,
		classifier: config.ErrorClassifier,
		state:      config.InitialState,
	}
	if cb.state == StateOpen {
		cb.openedAt = time.Now()
	}
	return cb
}

// Execute runs op through the breaker. When the breaker is open the call is
// rejected with a circuit-open error and op is never invoked; otherwise op's
// outcome is returned unchanged and counted against the state machine.
func (cb *CircuitBreaker[T]) Execute(ctx context.Context, op Operation[T]) (T, error) {
	adm, err := cb.beforeCall()
	if err != nil {
		var zero T
		return zero, err
	}

	value, err := op(ctx)
	cb.afterCall(adm, err)
	return value, err
}

// State returns the current state, resolving an elapsed cooldown first.
func (cb *CircuitBreaker[T]) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked(time.Now())
}

// WindowFailures returns the number of qualifying failures currently inside
// the leak window.
func (cb *CircuitBreaker[T]) WindowFailures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.pruneLocked(time.Now())
	return len(cb.failures)
}

// beforeCall admits or rejects the call under the lock. The operation itself
// runs outside the lock so concurrent calls are not serialized.
func (cb *CircuitBreaker[T]) beforeCall() (admission, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateLocked(time.Now()) {
	case StateOpen:
		cb.logger.Log(LevelWarn, "circuit open, call rejected",
			"state", cb.state.String(),
			"window_failures", len(cb.failures))
		return 0, cb.openErrorLocked()
	case StateHalfOpen:
		if cb.trialInFlight {
			cb.logger.Log(LevelDebug, "half-open trial already in flight, call rejected")
			return 0, cb.openErrorLocked()
		}
		cb.trialInFlight = true
		cb.logger.Log(LevelInfo, "half-open trial call admitted")
		return admitTrial, nil
	default:
		return admitClosed, nil
	}
}

// afterCall applies the outcome to the state machine.
func (cb *CircuitBreaker[T]) afterCall(adm admission, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	failed := err != nil && cb.classifier.ShouldTripCircuit(err)

	if adm == admitTrial {
		cb.trialInFlight = false
		if failed {
			// Trial failed: cooldown restarts from now.
			cb.openLocked(now)
			return
		}
		cb.failures = cb.failures[:0]
		cb.transitionLocked(StateClosed)
		return
	}

	// A call admitted while closed only counts if the breaker is still
	// closed; results arriving after the breaker opened are stale.
	if cb.state != StateClosed {
		return
	}

	if !failed {
		cb.failures = cb.failures[:0]
		return
	}

	cb.pruneLocked(now)
	cb.failures = append(cb.failures, now)
	if len(cb.failures) >= cb.config.MaxFailedCalls {
		cb.openLocked(now)
	}
}

// stateLocked resolves StateOpen to StateHalfOpen once BreakDuration has
// elapsed since the breaker opened.
func (cb *CircuitBreaker[T]) stateLocked(now time.Time) State {
	if cb.state == StateOpen && now.Sub(cb.openedAt) >= cb.config.BreakDuration {
		cb.trialInFlight = false
		cb.transitionLocked(StateHalfOpen)
	}
	return cb.state
}

// pruneLocked drops failures that have aged out of the leak window.
func (cb *CircuitBreaker[T]) pruneLocked(now time.Time) {
	cutoff := now.Add(-cb.config.LeakTimeSpan)
	kept := cb.failures[:0]
	for _, t := range cb.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	cb.failures = kept
}

func (cb *CircuitBreaker[T]) openLocked(now time.Time) {
	cb.openedAt = now
	cb.transitionLocked(StateOpen)
}

func (cb *CircuitBreaker[T]) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to

	cb.logger.Log(LevelWarn, "circuit breaker state changed",
		"from", from.String(),
		"to", to.String())

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}

// openErrorLocked synthesizes the circuit-open error, distinct from any
// operation failure so callers can branch on it with IsCircuitOpen.
func (cb *CircuitBreaker[T]) openErrorLocked() error {
	return pkgerrors.NewCircuitBreakerError(
		"call rejected",
		"execute",
		cb.state.String(),
		pkgerrors.WithCause(pkgerrors.ErrCircuitOpen),
		pkgerrors.WithCounts(pkgerrors.CircuitCounts{
			TotalFailures: uint32(len(cb.failures)), // #nosec G115 - bounded by MaxFailedCalls
		}),
	)
}
