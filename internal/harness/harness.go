package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/engine"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
)

// Harness is the test execution engine.
type Harness struct {
	parallelism int
	logger      *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithParallelism bounds how many queries run at once. Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(h *Harness) {
		if n >= 1 {
			h.parallelism = n
		}
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Load the dataset (file or inline rows)
//  2. Run every query concurrently, each with its own engine and recorder
//  3. Compare results to expectations
//  4. Evaluate assertions
//
// A returned error means the scenario could not run at all (bad dataset,
// cancelled context). Expectation mismatches are reported in Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		parallelism: engine.DefaultParallelism,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	ds, err := loadDataset(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: load dataset: %w", scenario.Name, err)
	}
	h.logger.Debug("dataset loaded",
		"scenario", scenario.Name,
		"rows", ds.RowCount(),
		"columns", len(ds.Schema()),
	)

	result := NewResult()
	result.Queries = make([]QueryResult, len(scenario.Queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.parallelism)
	for i, qc := range scenario.Queries {
		i, qc := i, qc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result.Queries[i] = runQuery(ds, qc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, qr := range result.Queries {
		h.logger.Debug("query finished",
			"query", qr.Name,
			"kind", qr.Kind,
			"pass", qr.Pass,
		)
		if !qr.Pass {
			result.AddError(fmt.Sprintf("query %s: %s", qr.Name, qr.Message))
		}
	}

	for i, assertion := range scenario.Assertions {
		if err := evaluateAssertion(ctx, ds, scenario, result, assertion); err != nil {
			result.AddError(fmt.Sprintf("assertion %d (%s): %v", i, assertion.Type, err))
		}
	}

	return result, nil
}

func loadDataset(scenario *Scenario) (*dataset.Table, error) {
	src := scenario.Dataset
	opts := dataset.DefaultOptions()
	if len(src.MissingTokens) > 0 {
		opts.MissingTokens = src.MissingTokens
	}

	if src.Path != "" {
		path := src.Path
		if !filepath.IsAbs(path) && scenario.BaseDir != "" {
			path = filepath.Join(scenario.BaseDir, path)
		}
		return dataset.Load(path, opts)
	}
	return dataset.FromRecords(src.Columns, src.Rows, opts)
}

// runQuery binds and runs one query case against ds.
func runQuery(ds dataset.Dataset, qc QueryCase) QueryResult {
	qr := QueryResult{Name: qc.Name, Kind: qc.Kind, Trace: []engine.TraceEvent{}}

	prob, err := evaluateCase(ds, qc, &qr.Trace)
	if err != nil {
		qr.ErrorCode = string(ir.CodeOf(err))
		qr.Err = err.Error()
	} else {
		qr.Probability = prob
	}

	qr.Pass, qr.Message = checkExpectation(qc, qr)
	return qr
}

// evaluateCase runs qc with a fresh recorder and stores its events in trace.
func evaluateCase(ds dataset.Dataset, qc QueryCase, trace *[]engine.TraceEvent) (float64, error) {
	q, err := qc.RawQuery().Bind(ds.Schema())
	if err != nil {
		return 0, err
	}
	return runBound(ds, q, trace)
}

func runBound(ds dataset.Dataset, q predicate.Query, trace *[]engine.TraceEvent) (float64, error) {
	rec := engine.NewRecorder()
	prob, err := engine.New(engine.WithTracer(rec)).Run(ds, q)
	if trace != nil {
		*trace = rec.Events()
	}
	return prob, err
}

// checkExpectation compares a query outcome to the case's expectation.
func checkExpectation(qc QueryCase, qr QueryResult) (bool, string) {
	switch {
	case qc.ExpectError != "":
		if qr.ErrorCode != qc.ExpectError {
			if qr.Err == "" {
				return false, fmt.Sprintf("expected error %s, got probability %s",
					qc.ExpectError, formatProbability(qr.Probability))
			}
			return false, fmt.Sprintf("expected error %s, got %s", qc.ExpectError, qr.Err)
		}
		return true, ""

	case qr.Err != "":
		return false, fmt.Sprintf("unexpected error: %s", qr.Err)

	case qc.Expect != "":
		want, _ := parseExpect(qc.Expect)
		if !matchesExpect(qr.Probability, want) {
			return false, fmt.Sprintf("expected %s, got %s", qc.Expect, formatProbability(qr.Probability))
		}
		return true, ""

	default:
		return true, ""
	}
}

func parseExpect(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("expect %q is not a decimal: %w", s, err)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, fmt.Errorf("expect %q is outside [0, 1]", s)
	}
	return d, nil
}

// matchesExpect reports whether got rounds to want at want's precision.
// Integer expectations ("0", "1") must match exactly.
func matchesExpect(got float64, want decimal.Decimal) bool {
	places := -want.Exponent()
	if places <= 0 {
		return decimal.NewFromFloat(got).Equal(want)
	}
	return decimal.NewFromFloat(got).Round(places).Equal(want)
}

func formatProbability(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(goldenPrecision)
}
