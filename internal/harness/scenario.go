package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bayesq/internal/engine"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
)

// Scenario defines a probability test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dataset is the table every query runs against.
	Dataset DatasetSpec `yaml:"dataset"`

	// Queries run concurrently; results keep this order.
	Queries []QueryCase `yaml:"queries"`

	// Assertions validate the traces and algebraic properties.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// BaseDir resolves relative dataset paths. Set by LoadScenario.
	BaseDir string `yaml:"-"`
}

// DatasetSpec names a dataset file or holds rows inline.
type DatasetSpec struct {
	// Path to a CSV, TSV, YAML, or JSON file, relative to the scenario file.
	Path string `yaml:"path,omitempty"`

	// Columns fixes the column order of inline rows. Optional.
	Columns []string `yaml:"columns,omitempty"`

	// Rows holds the dataset inline.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// MissingTokens overrides the default missing-value tokens.
	MissingTokens []string `yaml:"missing_tokens,omitempty"`
}

// QueryCase is one query with its expected outcome.
type QueryCase struct {
	Name       string         `yaml:"name"`
	Kind       string         `yaml:"kind"`
	Predicates []PredicateArg `yaml:"predicates"`

	// Expect is the expected probability as a decimal string.
	Expect string `yaml:"expect,omitempty"`

	// ExpectError is the expected error code, e.g. DIVISION_BY_ZERO.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// RawQuery returns the untyped query for binding.
func (qc QueryCase) RawQuery() predicate.RawQuery {
	raws := make([]predicate.Raw, len(qc.Predicates))
	for i, p := range qc.Predicates {
		raws[i] = predicate.Raw(p)
	}
	return predicate.RawQuery{Name: qc.Name, Kind: qc.Kind, Predicates: raws}
}

// PredicateArg is a predicate written either as text ("Age geq 22") or
// as a mapping {column, op, value}.
type PredicateArg predicate.Raw

// UnmarshalYAML accepts both predicate forms.
func (p *PredicateArg) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		raw, err := predicate.ParseRaw(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*p = PredicateArg(raw)
		return nil
	}

	var raw predicate.Raw
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*p = PredicateArg(raw)
	return nil
}

// Assertion validates traces or algebraic properties of one query.
type Assertion struct {
	// Type is trace_contains, trace_count, commutes, or sql_agrees.
	Type string `yaml:"type"`

	// Query names the query the assertion applies to.
	Query string `yaml:"query"`

	// Event is the trace event type (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`

	// Predicate optionally narrows trace_contains to one predicate,
	// rendered as in traces, e.g. `Name eq "David"`.
	Predicate string `yaml:"predicate,omitempty"`

	// Count is the expected number of events (trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertCommutes      = "commutes"
	AssertSQLAgrees     = "sql_agrees"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Relative dataset paths resolve against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.BaseDir = filepath.Dir(path)
	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative dataset paths resolve
// against the working directory unless BaseDir is set afterwards.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	hasPath := s.Dataset.Path != ""
	hasRows := len(s.Dataset.Rows) > 0
	if hasPath == hasRows {
		return fmt.Errorf("dataset needs exactly one of path or rows")
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Queries))
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if names[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		names[q.Name] = true

		if q.Kind == "" {
			return fmt.Errorf("queries[%d]: kind is required", i)
		}
		if q.Expect != "" && q.ExpectError != "" {
			return fmt.Errorf("queries[%d]: expect and expect_error are mutually exclusive", i)
		}
		if q.Expect != "" {
			if _, err := parseExpect(q.Expect); err != nil {
				return fmt.Errorf("queries[%d]: %w", i, err)
			}
		}
		if q.ExpectError != "" && !knownCode(ir.Code(q.ExpectError)) {
			return fmt.Errorf("queries[%d]: unknown error code %q", i, q.ExpectError)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, names); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, queries map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if !queries[a.Query] {
		return fmt.Errorf("assertions[%d]: unknown query %q", index, a.Query)
	}

	switch a.Type {
	case AssertTraceContains, AssertTraceCount:
		if !knownEvent(a.Event) {
			return fmt.Errorf("assertions[%d]: event must be %s, %s, or %s for %s", index,
				engine.EventPredicate, engine.EventIntersect, engine.EventShortCircuit, a.Type)
		}
		if a.Type == AssertTraceCount && a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertCommutes, AssertSQLAgrees:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func knownEvent(event string) bool {
	switch event {
	case engine.EventPredicate, engine.EventIntersect, engine.EventShortCircuit:
		return true
	default:
		return false
	}
}

func knownCode(code ir.Code) bool {
	switch code {
	case ir.ErrCodeInvalidOperator, ir.ErrCodeUnknownColumn, ir.ErrCodeTypeMismatch,
		ir.ErrCodeEmptyDenominator, ir.ErrCodeInsufficientConditions, ir.ErrCodeDivisionByZero:
		return true
	default:
		return false
	}
}
