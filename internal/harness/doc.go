// Package harness runs probability scenarios as executable tests.
//
// A scenario names a dataset, a list of queries with expected results,
// and assertions over the diagnostic trace each query produced.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: defense_bayes
//	description: "Worst defense given a big rushing game"
//	dataset:
//	  path: ../datasets/defense.csv      # relative to the scenario file
//	queries:
//	  - name: rank4_given_yards
//	    kind: bayes
//	    predicates:
//	      - d_rank eq 4                  # textual form
//	      - {column: yards, op: geq, value: 170}
//	    expect: "0.5"
//	  - name: impossible
//	    kind: bayes
//	    predicates: [d_rank eq 4, yards geq 1000]
//	    expect_error: DIVISION_BY_ZERO
//	assertions:
//	  - type: trace_contains
//	    query: rank4_given_yards
//	    event: intersect
//
// A dataset may be given inline instead, with rows (and optionally
// columns to fix the column order).
//
// Expected probabilities are decimal strings. A result passes when it
// rounds to the expectation at the expectation's precision, so "0.3333"
// matches 1/3 and "0.5" matches 0.5 exactly.
//
// # Assertion Types
//
//   - trace_contains: the query's trace has an event of the given type
//     (optionally for a given predicate)
//   - trace_count: the query's trace has exactly count events of the type
//   - commutes: reordering the query's predicates (joint) or conditions
//     (conditional) does not change the result
//   - sql_agrees: every predicate of the query evaluates to the same rows
//     through the SQLite store as in memory
//
// # Deterministic Testing
//
// Each query gets its own engine and trace recorder, and no cache, so
// traces do not depend on scheduling even though queries run
// concurrently. Results are reported in scenario order.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/defense.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
