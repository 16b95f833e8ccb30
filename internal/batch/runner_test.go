package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellsight/analytics/internal/domain"
)

func products(n int) []domain.Product {
	out := make([]domain.Product, n)
	for i := range out {
		out[i] = domain.Product{
			ID:       fmt.Sprintf("p%d", i),
			Name:     fmt.Sprintf("Product %d", i),
			Category: "default",
		}
	}
	return out
}

func TestRunAllSucceed(t *testing.T) {
	runner := NewRunner(4)
	var calls int64

	summary := runner.Run(context.Background(), products(10), func(ctx context.Context, p domain.Product) error {
		atomic.AddInt64(&calls, 1)
		return nil
	})

	assert.Equal(t, 10, summary.TotalProducts)
	assert.Equal(t, 10, summary.SuccessfulForecasts)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, int64(10), calls)
}

func TestRunIsolatesFailures(t *testing.T) {
	runner := NewRunner(3)

	summary := runner.Run(context.Background(), products(10), func(ctx context.Context, p domain.Product) error {
		if p.ID == "p2" || p.ID == "p7" {
			return domain.NewInsufficientDataError("not enough sales for %s", p.ID)
		}
		return nil
	})

	assert.Equal(t, 10, summary.TotalProducts)
	assert.Equal(t, 8, summary.SuccessfulForecasts)
	require.Len(t, summary.Failures, 2)

	failed := map[string]string{}
	for _, f := range summary.Failures {
		failed[f.ProductID] = f.Error
	}
	assert.Contains(t, failed, "p2")
	assert.Contains(t, failed, "p7")
	assert.Contains(t, failed["p2"], "not enough sales")
}

func TestRunEmptyProducts(t *testing.T) {
	summary := NewRunner(2).Run(context.Background(), nil, func(ctx context.Context, p domain.Product) error {
		t.Fatal("job must not run")
		return nil
	})

	assert.Equal(t, 0, summary.TotalProducts)
	assert.Equal(t, 0, summary.SuccessfulForecasts)
	assert.Empty(t, summary.Failures)
}

func TestRunBoundsConcurrency(t *testing.T) {
	const workers = 2
	runner := NewRunner(workers)

	var mu sync.Mutex
	var inFlight, peak int

	runner.Run(context.Background(), products(20), func(ctx context.Context, p domain.Product) error {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	})

	assert.LessOrEqual(t, peak, workers)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := NewRunner(2).Run(ctx, products(5), func(ctx context.Context, p domain.Product) error {
		return nil
	})

	// Every product is accounted for: either it ran before cancellation or
	// it is reported as failed with the context error.
	assert.Equal(t, 5, summary.TotalProducts)
	assert.Equal(t, 5, summary.SuccessfulForecasts+len(summary.Failures))
}
