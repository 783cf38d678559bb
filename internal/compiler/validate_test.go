package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bayesq/internal/predicate"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	queries := []predicate.RawQuery{
		{Name: "m", Kind: "marginal", Predicates: []predicate.Raw{{Column: "Age", Op: "geq", Value: 22.0}}},
		{Name: "j", Kind: "joint", Predicates: []predicate.Raw{
			{Column: "Name", Op: "eq", Value: "Bob"},
			{Column: "Age", Op: "l", Value: 25.0},
		}},
		{Name: "c", Kind: "conditional", Predicates: []predicate.Raw{
			{Column: "Name", Op: "eq", Value: "David"},
			{Column: "Age", Op: "leq", Value: 25.0},
			{Column: "Age", Op: "in_range", Value: []any{0.0, 30.0}},
		}},
		{Name: "b", Kind: "bayes", Predicates: []predicate.Raw{
			{Column: "d_rank", Op: "eq", Value: 4.0},
			{Column: "yards", Op: ">=", Value: "170"},
		}},
	}

	assert.Empty(t, Validate(queries))
}

func TestValidateQueryErrors(t *testing.T) {
	tests := []struct {
		name  string
		query predicate.RawQuery
		want  []string
	}{
		{
			name:  "empty name",
			query: predicate.RawQuery{Kind: "marginal", Predicates: []predicate.Raw{{Column: "a", Op: "eq", Value: 1.0}}},
			want:  []string{ErrQueryNameEmpty},
		},
		{
			name:  "unknown kind",
			query: predicate.RawQuery{Name: "q", Kind: "median", Predicates: []predicate.Raw{{Column: "a", Op: "eq", Value: 1.0}}},
			want:  []string{ErrQueryKindInvalid},
		},
		{
			name:  "marginal with two predicates",
			query: predicate.RawQuery{Name: "q", Kind: "marginal", Predicates: []predicate.Raw{{Column: "a", Op: "eq", Value: 1.0}, {Column: "b", Op: "eq", Value: 1.0}}},
			want:  []string{ErrQueryArity},
		},
		{
			name:  "conditional with one predicate",
			query: predicate.RawQuery{Name: "q", Kind: "conditional", Predicates: []predicate.Raw{{Column: "a", Op: "eq", Value: 1.0}}},
			want:  []string{ErrQueryArity},
		},
		{
			name:  "bayes with three predicates",
			query: predicate.RawQuery{Name: "q", Kind: "bayes", Predicates: []predicate.Raw{{Column: "a", Op: "eq", Value: 1.0}, {Column: "b", Op: "eq", Value: 1.0}, {Column: "c", Op: "eq", Value: 1.0}}},
			want:  []string{ErrQueryArity},
		},
		{
			name:  "empty column",
			query: predicate.RawQuery{Name: "q", Kind: "marginal", Predicates: []predicate.Raw{{Column: " ", Op: "eq", Value: 1.0}}},
			want:  []string{ErrPredicateColumn},
		},
		{
			name:  "bad operator",
			query: predicate.RawQuery{Name: "q", Kind: "marginal", Predicates: []predicate.Raw{{Column: "a", Op: "like", Value: 1.0}}},
			want:  []string{ErrPredicateOperator},
		},
		{
			name:  "missing value",
			query: predicate.RawQuery{Name: "q", Kind: "marginal", Predicates: []predicate.Raw{{Column: "a", Op: "eq"}}},
			want:  []string{ErrPredicateValue},
		},
		{
			name:  "list for scalar operator",
			query: predicate.RawQuery{Name: "q", Kind: "marginal", Predicates: []predicate.Raw{{Column: "a", Op: "geq", Value: []any{1.0, 2.0}}}},
			want:  []string{ErrPredicateValue},
		},
		{
			name:  "range with three bounds",
			query: predicate.RawQuery{Name: "q", Kind: "marginal", Predicates: []predicate.Raw{{Column: "a", Op: "in_range", Value: []any{1.0, 2.0, 3.0}}}},
			want:  []string{ErrPredicateValue},
		},
		{
			name:  "collects every error",
			query: predicate.RawQuery{Name: "q", Kind: "joint", Predicates: []predicate.Raw{{Column: "", Op: "bogus", Value: 1.0}}},
			want:  []string{ErrQueryArity, ErrPredicateColumn, ErrPredicateOperator},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate([]predicate.RawQuery{tt.query})
			assert.Equal(t, tt.want, codes(errs))
		})
	}
}

func TestValidateDuplicateNames(t *testing.T) {
	q := predicate.RawQuery{Name: "dup", Kind: "marginal", Predicates: []predicate.Raw{{Column: "a", Op: "eq", Value: 1.0}}}

	errs := Validate([]predicate.RawQuery{q, q})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateQueryName, errs[0].Code)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "query.q.kind", Message: "bad", Code: ErrQueryKindInvalid}
	assert.Equal(t, "[E102] query.q.kind: bad", err.Error())

	err.Line = 7
	assert.Equal(t, "[E102] line 7: query.q.kind: bad", err.Error())
}
