package harness

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/engine"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
	"github.com/roach88/bayesq/internal/store"
)

// commuteTolerance absorbs float rounding from a different division order.
const commuteTolerance = 1e-12

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string              // Assertion type for categorization
	Query    string              // Query the assertion applies to
	Expected string              // Human-readable expected outcome
	Actual   string              // Human-readable actual outcome
	Trace    []engine.TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s on %s\n", e.Type, e.Query)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, describeEvent(event))
		}
	}

	return buf.String()
}

func describeEvent(ev engine.TraceEvent) string {
	switch ev.Type {
	case engine.EventPredicate:
		return fmt.Sprintf("predicate %s matched=%d", ev.Predicate, ev.Matched)
	case engine.EventIntersect:
		return fmt.Sprintf("intersect step=%d %s matched=%d remaining=%d", ev.Step, ev.Predicate, ev.Matched, ev.Remaining)
	case engine.EventShortCircuit:
		return fmt.Sprintf("short_circuit step=%d skipped=%d", ev.Step, ev.Skipped)
	default:
		return ev.Type
	}
}

// evaluateAssertion dispatches one assertion against the finished result.
func evaluateAssertion(ctx context.Context, ds dataset.Dataset, scenario *Scenario, result *Result, a Assertion) error {
	qr, ok := result.Query(a.Query)
	if !ok {
		return fmt.Errorf("unknown query %q", a.Query)
	}

	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(qr, a)
	case AssertTraceCount:
		return assertTraceCount(qr, a)
	case AssertCommutes:
		q, err := boundQuery(ds, scenario, a.Query)
		if err != nil {
			return err
		}
		return assertCommutes(ds, q, qr)
	case AssertSQLAgrees:
		q, err := boundQuery(ds, scenario, a.Query)
		if err != nil {
			return err
		}
		return assertSQLAgrees(ctx, ds, q)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func boundQuery(ds dataset.Dataset, scenario *Scenario, name string) (predicate.Query, error) {
	for _, qc := range scenario.Queries {
		if qc.Name == name {
			q, err := qc.RawQuery().Bind(ds.Schema())
			if err != nil {
				return predicate.Query{}, fmt.Errorf("query %s does not bind: %w", name, err)
			}
			return q, nil
		}
	}
	return predicate.Query{}, fmt.Errorf("unknown query %q", name)
}

// assertTraceContains checks that the query's trace has an event of the
// given type, optionally for a specific predicate.
func assertTraceContains(qr QueryResult, a Assertion) error {
	for _, ev := range qr.Trace {
		if ev.Type == a.Event && (a.Predicate == "" || ev.Predicate == a.Predicate) {
			return nil
		}
	}

	expected := fmt.Sprintf("%s event", a.Event)
	if a.Predicate != "" {
		expected = fmt.Sprintf("%s event for %s", a.Event, a.Predicate)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Query:    qr.Name,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    qr.Trace,
	}
}

// assertTraceCount checks that the event type appears exactly Count times.
func assertTraceCount(qr QueryResult, a Assertion) error {
	count := 0
	for _, ev := range qr.Trace {
		if ev.Type == a.Event {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Query:    qr.Name,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Event),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    qr.Trace,
		}
	}
	return nil
}

// assertCommutes reruns a joint query with its predicates swapped, or a
// conditional query with its conditions reversed, and compares results.
func assertCommutes(ds dataset.Dataset, q predicate.Query, qr QueryResult) error {
	permuted := q
	permuted.Predicates = slices.Clone(q.Predicates)

	switch q.Kind {
	case predicate.QueryJoint:
		slices.Reverse(permuted.Predicates)
	case predicate.QueryConditional:
		slices.Reverse(permuted.Predicates[1:])
	default:
		return fmt.Errorf("commutes applies to joint and conditional queries, not %s", q.Kind)
	}

	got, err := runBound(ds, permuted, nil)
	if err != nil {
		return &AssertionError{
			Type:     AssertCommutes,
			Query:    qr.Name,
			Expected: fmt.Sprintf("probability %s", formatProbability(qr.Probability)),
			Actual:   fmt.Sprintf("error: %v", err),
		}
	}
	if math.Abs(got-qr.Probability) > commuteTolerance {
		return &AssertionError{
			Type:     AssertCommutes,
			Query:    qr.Name,
			Expected: fmt.Sprintf("probability %s", formatProbability(qr.Probability)),
			Actual:   fmt.Sprintf("probability %s after reordering", formatProbability(got)),
			Trace:    qr.Trace,
		}
	}
	return nil
}

// sqlTable is the table name scenario datasets are imported under.
const sqlTable = "scenario"

// assertSQLAgrees imports ds into an in-memory store and checks that each
// predicate of q selects the same rows through SQL as in memory.
func assertSQLAgrees(ctx context.Context, ds dataset.Dataset, q predicate.Query) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if _, err := st.Import(ctx, sqlTable, ds); err != nil {
		return fmt.Errorf("import dataset: %w", err)
	}

	for _, p := range q.Predicates {
		want, err := engine.Evaluate(ds, p)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", p, err)
		}
		got, err := st.Evaluate(ctx, sqlTable, p)
		if err != nil {
			return fmt.Errorf("sql evaluate %s: %w", p, err)
		}
		if !got.Equal(want) {
			return &AssertionError{
				Type:     AssertSQLAgrees,
				Query:    q.Name,
				Expected: fmt.Sprintf("rows %v for %s", want.IDs(), p),
				Actual:   fmt.Sprintf("rows %v from SQL", got.IDs()),
			}
		}

		if err := marginalsAgree(ctx, st, ds, q.Name, p); err != nil {
			return err
		}
	}
	return nil
}

// marginalsAgree checks that the SQL marginal of p matches the in-memory
// one, including an EMPTY_DENOMINATOR failure on both sides.
func marginalsAgree(ctx context.Context, st *store.Store, ds dataset.Dataset, query string, p predicate.Predicate) error {
	want, wantErr := engine.MarginalProbability(ds, p)
	got, gotErr := st.Marginal(ctx, sqlTable, p)

	switch {
	case wantErr != nil && gotErr != nil:
		if ir.CodeOf(wantErr) == ir.CodeOf(gotErr) {
			return nil
		}
	case wantErr == nil && gotErr == nil:
		if math.Abs(want-got) <= 1e-12 {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertSQLAgrees,
		Query:    query,
		Expected: fmt.Sprintf("marginal %s for %s", describeOutcome(want, wantErr), p),
		Actual:   fmt.Sprintf("marginal %s from SQL", describeOutcome(got, gotErr)),
	}
}

func describeOutcome(p float64, err error) string {
	if err != nil {
		if code := ir.CodeOf(err); code != "" {
			return string(code)
		}
		return err.Error()
	}
	return formatProbability(p)
}
