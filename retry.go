package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry re-invokes a failed operation up to Retries extra times and returns
// the first success, or the last failure unchanged once every attempt has
// been used. Attempts are immediate unless a backoff strategy is configured.
// All per-call state is local to one Execute invocation.
type Retry[T any] struct {
	config     *RetryConfig
	logger     Sink
	classifier ErrorClassifier
	stats      *retryStats
}

// retryStats tracks retry operation statistics across calls.
type retryStats struct {
	mu              sync.RWMutex
	totalAttempts   int64
	totalRetries    int64
	totalSuccesses  int64
	totalFailures   int64
	lastAttemptTime time.Time
	lastError       error
}

// NewRetry creates a retry unit.
//
// Example:
//
//	r := resilience.NewRetry[string](
//	    resilience.WithRetries(3),
//	    resilience.WithExponentialBackoff(100*time.Millisecond, 5*time.Second),
//	)
func NewRetry[T any](opts ...RetryOption) *Retry[T] {
	config := DefaultRetryConfig()
	for _, opt := range opts {
		opt(config)
	}

	if config.Logger == nil {
		config.Logger = NopSink{}
	}
	if config.ErrorClassifier == nil {
		config.ErrorClassifier = AllErrors{}
	}
	if config.Retries < 0 {
		config.Retries = 0
	}

	return &Retry[T]{
		config:     config,
		logger:     config.Logger,
		classifier: config.ErrorClassifier,
		stats:      &retryStats{},
	}
}

// Execute runs op, re-invoking it on retryable failure until it succeeds or
// 1+Retries attempts are spent. The first success wins; the most recent
// failure propagates unchanged on exhaustion.
func (r *Retry[T]) Execute(ctx context.Context, op Operation[T]) (T, error) {
	var result T
	var attempts int

	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempts++

		r.stats.mu.Lock()
		r.stats.totalAttempts++
		if attempts > 1 {
			r.stats.totalRetries++
		}
		r.stats.lastAttemptTime = time.Now()
		r.stats.mu.Unlock()

		r.logger.Log(LevelInfo, "attempting operation",
			"attempt", attempts,
			"max_attempts", r.config.Retries+1)

		value, err := op(ctx)
		if err == nil {
			if attempts > 1 {
				r.logger.Log(LevelInfo, "operation succeeded after retry",
					"attempts", attempts)
			}
			result = value
			return nil
		}

		if !r.classifier.IsRetryable(err) {
			r.logger.Log(LevelDebug, "non-retryable error, giving up",
				"attempt", attempts,
				"error", err)
			return err
		}

		return retry.RetryableError(err)
	})
	if err != nil {
		r.logger.Log(LevelWarn, "all attempts failed",
			"attempts", attempts,
			"error", err)

		r.stats.mu.Lock()
		r.stats.totalFailures++
		r.stats.lastError = err
		r.stats.mu.Unlock()

		var zero T
		return zero, err
	}

	r.stats.mu.Lock()
	r.stats.totalSuccesses++
	r.stats.mu.Unlock()

	return result, nil
}

// backoff builds the delay strategy for one Execute call. retry.Do counts the
// initial attempt itself, so Retries maps directly onto WithMaxRetries.
func (r *Retry[T]) backoff() retry.Backoff {
	extra := r.config.Retries
	if extra < 0 {
		extra = 0
	}
	if extra > 1000 {
		extra = 1000
	}
	n := uint64(extra) // #nosec G115 - bounds checked above

	switch r.config.Strategy {
	case RetryStrategyConstant:
		return retry.WithMaxRetries(n, retry.NewConstant(r.config.InitialDelay))
	case RetryStrategyExponential:
		return retry.WithMaxRetries(n,
			retry.WithCappedDuration(r.config.MaxDelay,
				retry.NewExponential(r.config.InitialDelay)))
	case RetryStrategyFibonacci:
		return retry.WithMaxRetries(n,
			retry.WithCappedDuration(r.config.MaxDelay,
				retry.NewFibonacci(r.config.InitialDelay)))
	default:
		// Immediate: no delay between attempts.
		return retry.WithMaxRetries(n, retry.BackoffFunc(func() (time.Duration, bool) {
			return 0, false
		}))
	}
}

// RetryStats holds statistics about retry operations.
type RetryStats struct {
	// TotalAttempts counts every attempt, initial and retry alike.
	TotalAttempts int64

	// TotalRetries counts only attempts after the first.
	TotalRetries int64

	// TotalSuccesses counts Execute calls that returned a value.
	TotalSuccesses int64

	// TotalFailures counts Execute calls that exhausted every attempt.
	TotalFailures int64

	// LastAttemptTime is the time of the most recent attempt.
	LastAttemptTime time.Time

	// LastError is the most recent exhaustion error, if any.
	LastError error
}

// Stats returns a snapshot of the retry statistics. Safe for concurrent use.
func (r *Retry[T]) Stats() RetryStats {
	r.stats.mu.RLock()
	defer r.stats.mu.RUnlock()

	return RetryStats{
		TotalAttempts:   r.stats.totalAttempts,
		TotalRetries:    r.stats.totalRetries,
		TotalSuccesses:  r.stats.totalSuccesses,
		TotalFailures:   r.stats.totalFailures,
		LastAttemptTime: r.stats.lastAttemptTime,
		LastError:       r.stats.lastError,
	}
}
