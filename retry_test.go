package resilience_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	resilience "github.com/fortis-go/resilience"
)

var _ = Describe("Retry", func() {
	var (
		ctx    context.Context
		errOp  error
		failOp resilience.Operation[string]
	)

	BeforeEach(func() {
		ctx = context.Background()
		errOp = errors.New("downstream failed")
		failOp = func(ctx context.Context) (string, error) { return "", errOp }
	})

	Describe("Default Configuration", func() {
		It("retries twice with immediate attempts", func() {
			config := resilience.DefaultRetryConfig()
			Expect(config.Retries).To(Equal(2))
			Expect(config.Strategy).To(Equal(resilience.RetryStrategyImmediate))
		})
	})

	Describe("Success paths", func() {
		It("returns immediately on first success", func() {
			r := resilience.NewRetry[string](resilience.WithRetries(3))
			op := newCountingOp(func(ctx context.Context) (string, error) {
				return "ok", nil
			})

			value, err := r.Execute(ctx, op.run)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("ok"))
			Expect(op.callCount()).To(Equal(1))
		})

		It("returns the first success after k failures using k+1 attempts", func() {
			r := resilience.NewRetry[string](resilience.WithRetries(3))
			op := failNTimesOp(2, "recovered", errOp)

			value, err := r.Execute(ctx, op.run)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("recovered"))
			Expect(op.callCount()).To(Equal(3))
		})
	})

	Describe("Exhaustion", func() {
		It("propagates the last failure unchanged after retries+1 attempts", func() {
			r := resilience.NewRetry[string](resilience.WithRetries(2))
			op := newCountingOp(failOp)

			_, err := r.Execute(ctx, op.run)
			Expect(errors.Is(err, errOp)).To(BeTrue())
			Expect(op.callCount()).To(Equal(3))
		})

		It("makes a single attempt when retries is zero", func() {
			r := resilience.NewRetry[string](resilience.WithRetries(0))
			op := newCountingOp(failOp)

			_, err := r.Execute(ctx, op.run)
			Expect(errors.Is(err, errOp)).To(BeTrue())
			Expect(op.callCount()).To(Equal(1))
		})

		It("stops early on non-retryable errors", func() {
			r := resilience.NewRetry[string](
				resilience.WithRetries(5),
				resilience.WithRetryClassifier(resilience.NewHTTPStatusClassifier()),
			)
			op := newCountingOp(func(ctx context.Context) (string, error) {
				return "", resilience.NewStatusCodeError(400, errors.New("bad request"))
			})

			_, err := r.Execute(ctx, op.run)
			Expect(err).To(HaveOccurred())
			Expect(op.callCount()).To(Equal(1))
		})
	})

	Describe("Observability", func() {
		It("logs attempts at info and exhaustion at warn", func() {
			sink := &recordingSink{}
			r := resilience.NewRetry[string](
				resilience.WithRetries(1),
				resilience.WithRetryLogger(sink),
			)

			_, _ = r.Execute(ctx, failOp)

			msgs := sink.messages()
			Expect(msgs).To(ContainElement("attempting operation"))
			Expect(msgs).To(ContainElement("all attempts failed"))

			sink.mu.Lock()
			defer sink.mu.Unlock()
			var warns int
			for _, e := range sink.entries {
				if e.level == resilience.LevelWarn {
					warns++
				}
			}
			Expect(warns).To(Equal(1))
		})

		It("tracks attempt and outcome statistics", func() {
			r := resilience.NewRetry[string](resilience.WithRetries(1))

			op := failNTimesOp(1, "ok", errOp)
			_, err := r.Execute(ctx, op.run)
			Expect(err).NotTo(HaveOccurred())

			_, err = r.Execute(ctx, failOp)
			Expect(err).To(HaveOccurred())

			stats := r.Stats()
			Expect(stats.TotalAttempts).To(Equal(int64(4)))
			Expect(stats.TotalRetries).To(Equal(int64(2)))
			Expect(stats.TotalSuccesses).To(Equal(int64(1)))
			Expect(stats.TotalFailures).To(Equal(int64(1)))
			Expect(errors.Is(stats.LastError, errOp)).To(BeTrue())
		})
	})

	Describe("Backoff strategies", func() {
		It("waits between attempts with constant backoff", func() {
			r := resilience.NewRetry[string](
				resilience.WithRetries(2),
				resilience.WithConstantBackoff(30*time.Millisecond),
			)
			op := newCountingOp(failOp)

			start := time.Now()
			_, err := r.Execute(ctx, op.run)
			elapsed := time.Since(start)

			Expect(err).To(HaveOccurred())
			Expect(op.callCount()).To(Equal(3))
			Expect(elapsed).To(BeNumerically(">=", 60*time.Millisecond))
		})

		It("respects context cancellation between attempts", func() {
			cancelCtx, cancel := context.WithCancel(ctx)
			r := resilience.NewRetry[string](
				resilience.WithRetries(10),
				resilience.WithConstantBackoff(20*time.Millisecond),
			)
			op := newCountingOp(func(ctx context.Context) (string, error) {
				cancel()
				return "", errOp
			})

			_, err := r.Execute(cancelCtx, op.run)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(op.callCount()).To(Equal(1))
		})
	})
})
