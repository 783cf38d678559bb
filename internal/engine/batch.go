package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/predicate"
)

// BatchResult is the outcome of one query in RunBatch.
type BatchResult struct {
	Query       predicate.Query
	Probability float64
	Err         error
}

// RunBatch runs queries concurrently against one dataset snapshot.
//
// Results are returned in input order. A failing query records its error
// in its BatchResult and does not stop the others. Only context
// cancellation aborts the batch, in which case the context error is
// returned.
func (e *Engine) RunBatch(ctx context.Context, ds dataset.Dataset, queries []predicate.Query) ([]BatchResult, error) {
	results := make([]BatchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := e.Run(ds, q)
			results[i] = BatchResult{Query: q, Probability: p, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
