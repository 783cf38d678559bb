package predicate

import (
	"fmt"
	"strings"

	"github.com/roach88/bayesq/internal/ir"
)

// QueryKind selects which probability a Query computes.
type QueryKind string

const (
	// QueryMarginal computes P(A). Takes exactly one predicate.
	QueryMarginal QueryKind = "marginal"

	// QueryJoint computes P(A and B). Takes exactly two predicates.
	QueryJoint QueryKind = "joint"

	// QueryConditional computes P(event | conditions...). The first predicate
	// is the event; at least one condition follows.
	QueryConditional QueryKind = "conditional"

	// QueryBayes computes P(event | evidence) by Bayesian inversion.
	// Takes exactly two predicates: event, then evidence.
	QueryBayes QueryKind = "bayes"
)

// ParseQueryKind parses a query kind name.
func ParseQueryKind(s string) (QueryKind, error) {
	switch k := QueryKind(strings.ToLower(strings.TrimSpace(s))); k {
	case QueryMarginal, QueryJoint, QueryConditional, QueryBayes:
		return k, nil
	default:
		return "", fmt.Errorf("unknown query kind %q: use marginal, joint, conditional, or bayes", s)
	}
}

// Arity returns the minimum and maximum predicate count for the kind.
// max is -1 when unbounded. Unknown kinds return 0, 0.
func (k QueryKind) Arity() (min, max int) {
	switch k {
	case QueryMarginal:
		return 1, 1
	case QueryJoint, QueryBayes:
		return 2, 2
	case QueryConditional:
		return 2, -1
	default:
		return 0, 0
	}
}

// Query is a named probability request.
type Query struct {
	Name       string
	Kind       QueryKind
	Predicates []Predicate
}

// CheckArity verifies the predicate count for the query kind.
// Short conditional and bayes lists fail with INSUFFICIENT_CONDITIONS.
func (q Query) CheckArity() error {
	n := len(q.Predicates)
	switch q.Kind {
	case QueryMarginal:
		if n != 1 {
			return fmt.Errorf("marginal query %q takes 1 predicate, got %d", q.Name, n)
		}
	case QueryJoint:
		if n != 2 {
			return fmt.Errorf("joint query %q takes 2 predicates, got %d", q.Name, n)
		}
	case QueryConditional:
		if n < 2 {
			return ir.NewInsufficientConditionsError(n)
		}
	case QueryBayes:
		if n < 2 {
			return ir.NewInsufficientConditionsError(n)
		}
		if n > 2 {
			return fmt.Errorf("bayes query %q takes an event and one evidence predicate, got %d", q.Name, n)
		}
	default:
		return fmt.Errorf("unknown query kind %q", q.Kind)
	}
	return nil
}

// RawQuery is the untyped form of a Query read from a file.
type RawQuery struct {
	Name       string `yaml:"name" json:"name"`
	Kind       string `yaml:"kind" json:"kind"`
	Predicates []Raw  `yaml:"predicates" json:"predicates"`
}

// Bind resolves every predicate against schema and checks arity.
func (rq RawQuery) Bind(schema ir.Schema) (Query, error) {
	kind, err := ParseQueryKind(rq.Kind)
	if err != nil {
		return Query{}, err
	}

	preds, err := BindAll(rq.Predicates, schema)
	if err != nil {
		return Query{}, fmt.Errorf("query %q: %w", rq.Name, err)
	}

	q := Query{Name: rq.Name, Kind: kind, Predicates: preds}
	if err := q.CheckArity(); err != nil {
		return Query{}, err
	}
	return q, nil
}
