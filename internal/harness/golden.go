package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"

	"github.com/roach88/bayesq/internal/engine"
	"github.com/roach88/bayesq/internal/ir"
)

// goldenPrecision is the number of decimal places probabilities are
// rendered with in golden files and failure messages.
const goldenPrecision = 6

// Snapshot renders a result as canonical JSON for golden comparison.
//
// Probabilities are rendered as fixed-point decimal strings so the output
// contains no floats. Failed queries carry their error code instead.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	queries := make([]any, len(result.Queries))
	for i, qr := range result.Queries {
		m := map[string]any{
			"name":  qr.Name,
			"kind":  qr.Kind,
			"trace": traceList(qr.Trace),
		}
		switch {
		case qr.ErrorCode != "":
			m["error"] = qr.ErrorCode
		case qr.Err != "":
			m["error"] = qr.Err
		default:
			m["probability"] = decimal.NewFromFloat(qr.Probability).StringFixed(goldenPrecision)
		}
		queries[i] = m
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario": scenarioName,
		"queries":  queries,
	})
}

// traceList converts trace events to maps for canonical JSON.
// Zero step, remaining and skipped fields are omitted, as are false cached flags.
func traceList(trace []engine.TraceEvent) []any {
	list := make([]any, len(trace))
	for i, ev := range trace {
		m := map[string]any{"type": ev.Type}
		switch ev.Type {
		case engine.EventPredicate:
			m["predicate"] = ev.Predicate
			m["matched"] = ev.Matched
			if ev.Cached {
				m["cached"] = true
			}
		case engine.EventIntersect:
			m["step"] = ev.Step
			m["predicate"] = ev.Predicate
			m["matched"] = ev.Matched
			m["remaining"] = ev.Remaining
		case engine.EventShortCircuit:
			m["step"] = ev.Step
			m["skipped"] = ev.Skipped
		}
		list[i] = m
	}
	return list
}

// RunWithGolden executes a scenario and compares its results and traces
// against a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)

	return nil
}
