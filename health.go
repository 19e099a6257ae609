package resilience

import "time"

// HealthStatus reports the health of a circuit breaker for readiness or
// monitoring endpoints.
type HealthStatus struct {
	// Healthy is true for closed and half-open states, false for open.
	Healthy bool `json:"healthy"`

	// State is the string representation of the breaker state.
	State string `json:"state"`

	// WindowFailures is the number of qualifying failures currently inside
	// the leak window.
	WindowFailures int `json:"window_failures"`

	// OpenedAt is when the breaker last opened; zero if it never has.
	OpenedAt time.Time `json:"opened_at,omitempty"`
}

// GetHealth returns the breaker's health status.
func (cb *CircuitBreaker[T]) GetHealth() HealthStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.stateLocked(time.Now())
	cb.pruneLocked(time.Now())

	return HealthStatus{
		Healthy:        state != StateOpen,
		State:          state.String(),
		WindowFailures: len(cb.failures),
		OpenedAt:       cb.openedAt,
	}
}
