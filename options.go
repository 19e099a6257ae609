package resilience

import (
	"time"
)

// CircuitBreakerConfig holds circuit breaker configuration.
type CircuitBreakerConfig struct {
	// BreakDuration is the minimum time the breaker stays open before a
	// trial call is allowed through.
	// Default: 30 seconds
	BreakDuration time.Duration

	// MaxFailedCalls is the number of qualifying failures within the leak
	// window that opens the breaker.
	// Default: 5
	MaxFailedCalls int

	// LeakTimeSpan is the sliding window length; failures older than this
	// no longer count toward MaxFailedCalls.
	// Default: 60 seconds
	LeakTimeSpan time.Duration

	// InitialState is the state the breaker starts in.
	// Default: StateClosed
	InitialState State

	// OnStateChange is called synchronously on every state transition.
	// Optional; absence is a valid no-op case.
	OnStateChange func(from, to State)

	// ErrorClassifier decides which failures count toward the threshold.
	// Default: AllErrors (every error counts).
	ErrorClassifier CircuitBreakerErrorClassifier

	// Logger receives breaker events. Default: NopSink.
	Logger Sink
}

// CircuitBreakerOption is a functional option for configuring a CircuitBreaker.
type CircuitBreakerOption func(*CircuitBreakerConfig)

// WithBreakDuration sets the minimum open period before a trial call.
func WithBreakDuration(d time.Duration) CircuitBreakerOption {
	return func(c *CircuitBreakerConfig) {
		c.BreakDuration = d
	}
}

// WithMaxFailedCalls sets the failure count threshold.
func WithMaxFailedCalls(n int) CircuitBreakerOption {
	return func(c *CircuitBreakerConfig) {
		c.MaxFailedCalls = n
	}
}

// WithLeakTimeSpan sets the sliding failure window length.
func WithLeakTimeSpan(d time.Duration) CircuitBreakerOption {
	return func(c *CircuitBreakerConfig) {
		c.LeakTimeSpan = d
	}
}

// WithInitialState sets the state the breaker is created in.
//
// Example:
//
//	resilience.WithInitialState(resilience.StateOpen) // start rejecting calls
func WithInitialState(s State) CircuitBreakerOption {
	return func(c *CircuitBreakerConfig) {
		c.InitialState = s
	}
}

// WithStateChangeHandler sets a callback invoked on every state transition.
//
// Example:
//
//	resilience.WithStateChangeHandler(func(from, to resilience.State) {
//	    log.Printf("breaker %s -> %s", from, to)
//	})
func WithStateChangeHandler(fn func(from, to State)) CircuitBreakerOption {
	return func(c *CircuitBreakerConfig) {
		c.OnStateChange = fn
	}
}

// WithCircuitBreakerClassifier sets which errors count as qualifying failures.
func WithCircuitBreakerClassifier(classifier CircuitBreakerErrorClassifier) CircuitBreakerOption {
	return func(c *CircuitBreakerConfig) {
		c.ErrorClassifier = classifier
	}
}

// WithCircuitBreakerLogger sets the sink for breaker events.
func WithCircuitBreakerLogger(sink Sink) CircuitBreakerOption {
	return func(c *CircuitBreakerConfig) {
		c.Logger = sink
	}
}

// DefaultCircuitBreakerConfig returns circuit breaker configuration with
// sensible defaults.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		BreakDuration:   30 * time.Second,
		MaxFailedCalls:  5,
		LeakTimeSpan:    60 * time.Second,
		InitialState:    StateClosed,
		ErrorClassifier: AllErrors{},
		Logger:          NopSink{},
	}
}

// RetryStrategy selects the delay between retry attempts.
type RetryStrategy string

const (
	// RetryStrategyImmediate retries with no delay between attempts.
	RetryStrategyImmediate RetryStrategy = "immediate"

	// RetryStrategyConstant waits a fixed delay between attempts.
	RetryStrategyConstant RetryStrategy = "constant"

	// RetryStrategyExponential doubles the delay each attempt, capped at
	// MaxDelay.
	RetryStrategyExponential RetryStrategy = "exponential"

	// RetryStrategyFibonacci grows the delay along the fibonacci sequence,
	// capped at MaxDelay.
	RetryStrategyFibonacci RetryStrategy = "fibonacci"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	// Retries is the number of extra attempts after the first failure.
	// Total attempts = 1 + Retries.
	// Default: 2
	Retries int

	// Strategy selects the delay between attempts.
	// Default: RetryStrategyImmediate
	Strategy RetryStrategy

	// InitialDelay seeds the constant/exponential/fibonacci strategies.
	// Default: 100 milliseconds
	InitialDelay time.Duration

	// MaxDelay caps the exponential and fibonacci strategies.
	// Default: 10 seconds
	MaxDelay time.Duration

	// ErrorClassifier decides which failures are retried.
	// Default: AllErrors (every failure is retried).
	ErrorClassifier ErrorClassifier

	// Logger receives attempt and exhaustion events. Default: NopSink.
	Logger Sink
}

// RetryOption is a functional option for configuring a Retry unit.
type RetryOption func(*RetryConfig)

// WithRetries sets the number of extra attempts after the first failure.
//
// Example:
//
//	resilience.WithRetries(3) // up to 4 attempts total
func WithRetries(n int) RetryOption {
	return func(c *RetryConfig) {
		c.Retries = n
	}
}

// WithImmediateRetries disables delay between attempts. This is the default.
func WithImmediateRetries() RetryOption {
	return func(c *RetryConfig) {
		c.Strategy = RetryStrategyImmediate
	}
}

// WithConstantBackoff waits a fixed delay between attempts.
func WithConstantBackoff(delay time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.Strategy = RetryStrategyConstant
		c.InitialDelay = delay
		c.MaxDelay = delay
	}
}

// WithExponentialBackoff doubles the delay each attempt up to maxDelay.
//
// Example:
//
//	resilience.WithExponentialBackoff(100*time.Millisecond, 5*time.Second)
func WithExponentialBackoff(initialDelay, maxDelay time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.Strategy = RetryStrategyExponential
		c.InitialDelay = initialDelay
		c.MaxDelay = maxDelay
	}
}

// WithFibonacciBackoff grows the delay along the fibonacci sequence up to
// maxDelay.
func WithFibonacciBackoff(initialDelay, maxDelay time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.Strategy = RetryStrategyFibonacci
		c.InitialDelay = initialDelay
		c.MaxDelay = maxDelay
	}
}

// WithRetryClassifier sets which errors are retried.
func WithRetryClassifier(classifier ErrorClassifier) RetryOption {
	return func(c *RetryConfig) {
		c.ErrorClassifier = classifier
	}
}

// WithRetryLogger sets the sink for retry events.
func WithRetryLogger(sink Sink) RetryOption {
	return func(c *RetryConfig) {
		c.Logger = sink
	}
}

// DefaultRetryConfig returns retry configuration with sensible defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Retries:         2,
		Strategy:        RetryStrategyImmediate,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		ErrorClassifier: AllErrors{},
		Logger:          NopSink{},
	}
}

// TimeoutOption is a functional option for configuring a Timeout unit.
type TimeoutOption func(*timeoutConfig)

type timeoutConfig struct {
	logger Sink
}

// WithTimeoutLogger sets the sink for timeout events.
func WithTimeoutLogger(sink Sink) TimeoutOption {
	return func(c *timeoutConfig) {
		c.logger = sink
	}
}

// DefaultTimeout is the deadline a Timeout unit falls back to when created
// with a non-positive duration.
const DefaultTimeout = 30 * time.Second
