package resilience_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	resilience "github.com/fortis-go/resilience"
)

var _ = Describe("Pipeline", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("executes the raw operation when empty", func() {
		p := resilience.NewPipeline[string]()

		value, err := p.Execute(ctx, func(ctx context.Context) (string, error) {
			return "ok", nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("ok"))
	})

	It("nests units first-to-last, outermost-to-innermost", func() {
		var (
			mu    sync.Mutex
			order []string
		)
		p := resilience.NewPipeline[string](
			newMarkerUnit("outer", &mu, &order),
			newMarkerUnit("middle", &mu, &order),
			newMarkerUnit("inner", &mu, &order),
		)

		_, err := p.Execute(ctx, func(ctx context.Context) (string, error) {
			mu.Lock()
			order = append(order, "operation")
			mu.Unlock()
			return "ok", nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(order).To(Equal([]string{"outer", "middle", "inner", "operation"}))
	})

	It("propagates the operation's failure through every unit", func() {
		var (
			mu    sync.Mutex
			order []string
		)
		errOp := errors.New("downstream failed")
		p := resilience.NewPipeline[string](
			newMarkerUnit("outer", &mu, &order),
			newMarkerUnit("inner", &mu, &order),
		)

		_, err := p.Execute(ctx, func(ctx context.Context) (string, error) {
			return "", errOp
		})
		Expect(errors.Is(err, errOp)).To(BeTrue())
	})

	It("nests inside another pipeline", func() {
		var (
			mu    sync.Mutex
			order []string
		)
		inner := resilience.NewPipeline[string](
			newMarkerUnit("inner-a", &mu, &order),
			newMarkerUnit("inner-b", &mu, &order),
		)
		outer := resilience.NewPipeline[string](
			newMarkerUnit("outer", &mu, &order),
			inner,
		)

		value, err := outer.Execute(ctx, func(ctx context.Context) (string, error) {
			return "ok", nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("ok"))
		Expect(order).To(Equal([]string{"outer", "inner-a", "inner-b"}))
	})

	It("returns a copy of its units", func() {
		var (
			mu    sync.Mutex
			order []string
		)
		p := resilience.NewPipeline[string](newMarkerUnit("only", &mu, &order))

		units := p.Units()
		Expect(units).To(HaveLen(1))
		units[0] = nil

		// Mutating the copy must not affect the pipeline.
		_, err := p.Execute(ctx, func(ctx context.Context) (string, error) {
			return "ok", nil
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("accepts plain functions as units via UnitFunc", func() {
		doubled := resilience.UnitFunc[string](func(ctx context.Context, op resilience.Operation[string]) (string, error) {
			value, err := op(ctx)
			return value + value, err
		})
		p := resilience.NewPipeline[string](doubled)

		value, err := p.Execute(ctx, func(ctx context.Context) (string, error) {
			return "ok", nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("okok"))
	})

	It("supports concurrent calls", func() {
		r := resilience.NewRetry[int](resilience.WithRetries(1))
		p := resilience.NewPipeline[int](r)

		var wg sync.WaitGroup
		results := make([]int, 50)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				v, err := p.Execute(ctx, func(ctx context.Context) (int, error) {
					return i * 2, nil
				})
				Expect(err).NotTo(HaveOccurred())
				results[i] = v
			}(i)
		}
		wg.Wait()

		for i, v := range results {
			Expect(v).To(Equal(i * 2))
		}
	})
})
