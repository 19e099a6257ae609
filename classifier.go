package resilience

import (
	"context"
	"errors"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
)

// ErrorClassifier decides whether a failed attempt should be retried.
type ErrorClassifier interface {
	// IsRetryable returns true if the error represents a transient failure
	// worth another attempt.
	IsRetryable(err error) bool
}

// CircuitBreakerErrorClassifier decides whether a failure counts toward a
// circuit breaker's threshold.
type CircuitBreakerErrorClassifier interface {
	// ShouldTripCircuit returns true if the error should be counted as a
	// qualifying failure.
	ShouldTripCircuit(err error) bool
}

// AllErrors treats every non-nil error as retryable and as a qualifying
// circuit breaker failure. It is the default classifier for both the Retry
// unit and the CircuitBreaker.
type AllErrors struct{}

// IsRetryable implements ErrorClassifier.
func (AllErrors) IsRetryable(err error) bool { return err != nil }

// ShouldTripCircuit implements CircuitBreakerErrorClassifier.
func (AllErrors) ShouldTripCircuit(err error) bool { return err != nil }

// HTTPStatusClassifier classifies errors carrying an HTTP status code, for
// pipelines wrapping HTTP clients. Rate limits and server errors are
// retryable; auth failures and server errors count toward the breaker.
type HTTPStatusClassifier struct {
	// RetryableStatuses lists status codes that should trigger retries.
	// Defaults to 429, 500, 502, 503, 504 if nil.
	RetryableStatuses []int

	// CircuitTripStatuses lists status codes that count as breaker failures.
	// Defaults to 401, 403, 500, 502, 503, 504 if nil.
	CircuitTripStatuses []int
}

// HTTPError is an error with an associated HTTP status code. Many HTTP
// client libraries produce errors satisfying this interface.
type HTTPError interface {
	error
	StatusCode() int
}

// NewHTTPStatusClassifier creates a classifier with the default status code
// mappings.
func NewHTTPStatusClassifier() *HTTPStatusClassifier {
	return &HTTPStatusClassifier{
		RetryableStatuses:   []int{429, 500, 502, 503, 504},
		CircuitTripStatuses: []int{401, 403, 500, 502, 503, 504},
	}
}

// IsRetryable implements ErrorClassifier.
func (c *HTTPStatusClassifier) IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable: retrying with the same exhausted
	// context fails immediately anyway.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, pkgerrors.ErrRateLimited) {
		return true
	}
	if pkgerrors.IsTimeout(err) {
		return true
	}

	status := extractStatusCode(err)
	if status == 0 {
		// No status available; assume a transient network-style failure.
		return true
	}
	return containsStatus(c.retryableStatuses(), status)
}

// ShouldTripCircuit implements CircuitBreakerErrorClassifier.
func (c *HTTPStatusClassifier) ShouldTripCircuit(err error) bool {
	if err == nil {
		return false
	}

	// Rate limits and timeouts are transient and should not open the circuit.
	if errors.Is(err, pkgerrors.ErrRateLimited) {
		return false
	}
	if pkgerrors.IsTimeout(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	status := extractStatusCode(err)
	if status == 0 {
		return true
	}
	return containsStatus(c.circuitTripStatuses(), status)
}

func (c *HTTPStatusClassifier) retryableStatuses() []int {
	if c.RetryableStatuses != nil {
		return c.RetryableStatuses
	}
	return []int{429, 500, 502, 503, 504}
}

func (c *HTTPStatusClassifier) circuitTripStatuses() []int {
	if c.CircuitTripStatuses != nil {
		return c.CircuitTripStatuses
	}
	return []int{401, 403, 500, 502, 503, 504}
}

func extractStatusCode(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}
	return 0
}

func containsStatus(statuses []int, status int) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// StatusCodeError attaches an HTTP status code to an error so the
// HTTPStatusClassifier can see it.
type StatusCodeError struct {
	Err  error
	Code int
}

// Error implements the error interface.
func (e *StatusCodeError) Error() string { return e.Err.Error() }

// Unwrap supports errors.Is and errors.As.
func (e *StatusCodeError) Unwrap() error { return e.Err }

// StatusCode implements the HTTPError interface.
func (e *StatusCodeError) StatusCode() int { return e.Code }

// NewStatusCodeError wraps err with an HTTP status code.
func NewStatusCodeError(statusCode int, err error) error {
	return &StatusCodeError{Code: statusCode, Err: err}
}
