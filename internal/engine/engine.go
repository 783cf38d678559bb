package engine

import (
	"fmt"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
)

// DefaultParallelism bounds RunBatch when WithParallelism is not given.
const DefaultParallelism = 4

// Engine is the probability composer.
//
// An Engine holds only injected collaborators (tracer, cache); it has no
// per-call state. A single Engine is safe for concurrent use.
type Engine struct {
	tracer      Tracer
	cache       *Cache
	parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTracer injects a diagnostic tracer. Default: NopTracer.
func WithTracer(t Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithCache enables predicate result caching. Default: no cache, every
// call re-evaluates its predicates.
func WithCache(c *Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithParallelism bounds the number of concurrent queries in RunBatch.
// Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.parallelism = n
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		tracer:      NopTracer{},
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the rows of ds satisfying p, consulting the cache when
// one is configured.
func (e *Engine) Evaluate(ds dataset.Dataset, p predicate.Predicate) (ir.RowSet, error) {
	if ds == nil {
		return ir.RowSet{}, ErrNilDataset
	}

	if e.cache != nil {
		if rows, ok := e.cache.get(ds, p); ok {
			e.tracer.PredicateEvaluated(p, rows.Len(), true)
			return rows, nil
		}
	}

	rows, err := Evaluate(ds, p)
	if err != nil {
		return ir.RowSet{}, err
	}

	if e.cache != nil {
		e.cache.put(ds, p, rows)
	}
	e.tracer.PredicateEvaluated(p, rows.Len(), false)
	return rows, nil
}

// Marginal returns P(p): matching rows over the non-missing rows of
// p.Column. Fails with EMPTY_DENOMINATOR when the column has no
// non-missing rows.
func (e *Engine) Marginal(ds dataset.Dataset, p predicate.Predicate) (float64, error) {
	rows, err := e.Evaluate(ds, p)
	if err != nil {
		return 0, err
	}

	eligible, err := eligibleRows(ds, p.Column)
	if err != nil {
		return 0, err
	}
	if eligible == 0 {
		return 0, ir.NewEmptyDenominatorError(p.Column)
	}

	return float64(rows.Len()) / float64(eligible), nil
}

// Joint returns P(a and b): rows satisfying both over all rows.
// An empty dataset yields 0.
func (e *Engine) Joint(ds dataset.Dataset, a, b predicate.Predicate) (float64, error) {
	rowsA, err := e.Evaluate(ds, a)
	if err != nil {
		return 0, err
	}
	rowsB, err := e.Evaluate(ds, b)
	if err != nil {
		return 0, err
	}

	total := ds.RowCount()
	if total == 0 {
		return 0, nil
	}
	return float64(rowsA.Intersect(rowsB).Len()) / float64(total), nil
}

// Conditional returns P(preds[0] | preds[1] and ... and preds[n-1]).
//
// The conditions are intersected left to right. Once the running set is
// empty the remaining conditions are skipped (reported to the tracer) and
// the result is 0 with a nil error. Every predicate is validated first, so
// an invalid condition fails even when an earlier one empties the set.
//
// Fails with INSUFFICIENT_CONDITIONS for fewer than two predicates.
func (e *Engine) Conditional(ds dataset.Dataset, preds []predicate.Predicate) (float64, error) {
	if len(preds) < 2 {
		return 0, ir.NewInsufficientConditionsError(len(preds))
	}
	if ds == nil {
		return 0, ErrNilDataset
	}
	if err := predicate.ValidateAll(preds, ds.Schema()); err != nil {
		return 0, err
	}

	conditions := preds[1:]
	var space ir.RowSet
	for i, cond := range conditions {
		rows, err := e.Evaluate(ds, cond)
		if err != nil {
			return 0, err
		}

		if i == 0 {
			space = rows
		} else {
			space = space.Intersect(rows)
		}
		e.tracer.ConditionIntersected(i+1, cond, rows.Len(), space.Len())

		if space.IsEmpty() {
			if skipped := len(conditions) - i - 1; skipped > 0 {
				e.tracer.ShortCircuited(i+1, skipped)
			}
			return 0, nil
		}
	}

	eventRows, err := e.Evaluate(ds, preds[0])
	if err != nil {
		return 0, err
	}

	return float64(space.Intersect(eventRows).Len()) / float64(space.Len()), nil
}

// Run computes the probability a Query describes.
func (e *Engine) Run(ds dataset.Dataset, q predicate.Query) (float64, error) {
	if err := q.CheckArity(); err != nil {
		return 0, err
	}

	switch q.Kind {
	case predicate.QueryMarginal:
		return e.Marginal(ds, q.Predicates[0])
	case predicate.QueryJoint:
		return e.Joint(ds, q.Predicates[0], q.Predicates[1])
	case predicate.QueryConditional:
		return e.Conditional(ds, q.Predicates)
	case predicate.QueryBayes:
		return e.Bayes(ds, q.Predicates[0], q.Predicates[1])
	default:
		return 0, fmt.Errorf("unknown query kind %q", q.Kind)
	}
}

// MarginalProbability is Marginal on a default Engine.
func MarginalProbability(ds dataset.Dataset, p predicate.Predicate) (float64, error) {
	return New().Marginal(ds, p)
}

// JointProbability is Joint on a default Engine.
func JointProbability(ds dataset.Dataset, a, b predicate.Predicate) (float64, error) {
	return New().Joint(ds, a, b)
}

// ConditionalProbability is Conditional on a default Engine.
func ConditionalProbability(ds dataset.Dataset, preds []predicate.Predicate) (float64, error) {
	return New().Conditional(ds, preds)
}

// BayesInvert is Bayes on a default Engine.
func BayesInvert(ds dataset.Dataset, event, evidence predicate.Predicate) (float64, error) {
	return New().Bayes(ds, event, evidence)
}
