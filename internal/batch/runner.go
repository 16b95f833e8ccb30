package batch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/pkg/logger"
)

// Job is one unit of batch work, keyed by product.
type Job struct {
	Product domain.Product
}

// JobFunc runs the work for a single product. An error marks the product as
// failed without stopping the batch.
type JobFunc func(ctx context.Context, product domain.Product) error

// Runner fans product jobs out over a bounded worker pool. One product's
// failure never aborts the rest; the summary reports both outcomes.
type Runner struct {
	workers int
	log     zerolog.Logger
}

func NewRunner(workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		workers: workers,
		log:     logger.Component("batch_runner"),
	}
}

// Run executes fn for every product and returns the aggregate summary.
// Context cancellation stops enqueueing; in-flight jobs finish and are
// counted. Remaining products are recorded as failed with the context error.
func (r *Runner) Run(ctx context.Context, products []domain.Product, fn JobFunc) domain.BatchSummary {
	summary := domain.BatchSummary{
		TotalProducts: len(products),
		Failures:      make([]domain.BatchFailure, 0),
	}
	if len(products) == 0 {
		return summary
	}

	jobChan := make(chan domain.Product, len(products))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for product := range jobChan {
				err := fn(ctx, product)

				mu.Lock()
				if err != nil {
					r.log.Warn().
						Int("worker", workerID).
						Str("product_id", product.ID).
						Err(err).
						Msg("batch item failed")
					summary.Failures = append(summary.Failures, domain.BatchFailure{
						ProductID: product.ID,
						Name:      product.Name,
						Category:  product.Category,
						Error:     err.Error(),
					})
				} else {
					summary.SuccessfulForecasts++
				}
				mu.Unlock()
			}
		}(i)
	}

	var skipped []domain.Product
enqueue:
	for i, product := range products {
		select {
		case <-ctx.Done():
			skipped = products[i:]
			break enqueue
		case jobChan <- product:
		}
	}
	close(jobChan)
	wg.Wait()

	for _, product := range skipped {
		summary.Failures = append(summary.Failures, domain.BatchFailure{
			ProductID: product.ID,
			Name:      product.Name,
			Category:  product.Category,
			Error:     ctx.Err().Error(),
		})
	}

	r.log.Info().
		Int("total", summary.TotalProducts).
		Int("succeeded", summary.SuccessfulForecasts).
		Int("failed", len(summary.Failures)).
		Msg("batch run finished")

	return summary
}
