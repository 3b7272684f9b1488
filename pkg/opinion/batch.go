package opinion

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Batch is the review set of one business.
type Batch struct {
	BusinessID string   `json:"business_id"`
	Category   string   `json:"category"`
	Reviews    []string `json:"reviews"`
}

// BatchResult is the outcome for one Batch. Err is set when that batch
// failed; other batches are unaffected.
type BatchResult struct {
	BusinessID string  `json:"business_id"`
	Report     *Report `json:"report,omitempty"`
	Err        error   `json:"-"`
	Error      string  `json:"error,omitempty"`
}

// DeduplicateBatch runs one deduplication per batch, at most Concurrency at
// a time. Results are in input order. A failing batch is recorded in its
// result and does not stop the others; cancelling ctx stops scheduling and
// returns the context error.
func (d *Deduplicator) DeduplicateBatch(ctx context.Context, batches []Batch) ([]BatchResult, error) {
	results := make([]BatchResult, len(batches))
	for i, b := range batches {
		results[i].BusinessID = b.BusinessID
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	var failed atomic.Int64
	for i, b := range batches {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := d.Run(b.Reviews, b.Category)
			if err != nil {
				failed.Add(1)
				d.logger.Warn("batch: business failed",
					zap.String("business_id", b.BusinessID),
					zap.Error(err))
				results[i].Err = err
				results[i].Error = err.Error()
				return nil
			}
			results[i].Report = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "opinion: batch cancelled")
	}
	if err := ctx.Err(); err != nil {
		return results, eris.Wrap(err, "opinion: batch cancelled")
	}

	d.logger.Info("batch finished",
		zap.Int("businesses", len(batches)),
		zap.Int64("failed", failed.Load()))
	return results, nil
}
