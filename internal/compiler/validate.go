package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/bayesq/internal/predicate"
)

// Validation error codes (E100-E199)
const (
	ErrQueryNameEmpty     = "E101" // query name is required
	ErrQueryKindInvalid   = "E102" // kind is not marginal, joint, conditional, or bayes
	ErrQueryArity         = "E103" // wrong number of predicates for the kind
	ErrPredicateColumn    = "E104" // column is empty
	ErrPredicateOperator  = "E105" // operator is not recognized
	ErrPredicateValue     = "E106" // value is missing or has the wrong shape
	ErrDuplicateQueryName = "E107" // two queries share a name
)

// ValidationError represents a query file validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the structure of compiled queries without a dataset.
// Column existence and value types are checked later, when a query is
// bound against a schema.
// Returns all errors found (does not fail-fast).
func Validate(queries []predicate.RawQuery) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool, len(queries))
	for _, rq := range queries {
		if seen[rq.Name] && rq.Name != "" {
			errs = append(errs, ValidationError{
				Field:   "query." + rq.Name,
				Message: "duplicate query name",
				Code:    ErrDuplicateQueryName,
			})
		}
		seen[rq.Name] = true
		errs = append(errs, validateQuery(rq)...)
	}

	return errs
}

func validateQuery(rq predicate.RawQuery) []ValidationError {
	var errs []ValidationError
	field := "query." + rq.Name

	if strings.TrimSpace(rq.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "query",
			Message: "query name is required",
			Code:    ErrQueryNameEmpty,
		})
	}

	kind, err := predicate.ParseQueryKind(rq.Kind)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".kind",
			Message: err.Error(),
			Code:    ErrQueryKindInvalid,
		})
	} else {
		n := len(rq.Predicates)
		lo, hi := kind.Arity()
		if n < lo || (hi >= 0 && n > hi) {
			errs = append(errs, ValidationError{
				Field:   field + ".predicates",
				Message: arityMessage(kind, lo, hi, n),
				Code:    ErrQueryArity,
			})
		}
	}

	for i, raw := range rq.Predicates {
		errs = append(errs, validatePredicate(fmt.Sprintf("%s.predicates[%d]", field, i), raw)...)
	}

	return errs
}

func arityMessage(kind predicate.QueryKind, lo, hi, got int) string {
	switch {
	case hi < 0:
		return fmt.Sprintf("%s query needs at least %d predicates, got %d", kind, lo, got)
	case lo == hi:
		return fmt.Sprintf("%s query needs exactly %d predicate(s), got %d", kind, lo, got)
	default:
		return fmt.Sprintf("%s query needs %d to %d predicates, got %d", kind, lo, hi, got)
	}
}

func validatePredicate(field string, raw predicate.Raw) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(raw.Column) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".column",
			Message: "column is required",
			Code:    ErrPredicateColumn,
		})
	}

	op, err := predicate.ParseOperator(raw.Op)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".op",
			Message: err.Error(),
			Code:    ErrPredicateOperator,
		})
		return errs
	}

	switch v := raw.Value.(type) {
	case nil:
		errs = append(errs, ValidationError{
			Field:   field + ".value",
			Message: "value is required",
			Code:    ErrPredicateValue,
		})
	case []any:
		if op != predicate.OpInRange {
			errs = append(errs, ValidationError{
				Field:   field + ".value",
				Message: fmt.Sprintf("operator %s takes a single value, got a list", op),
				Code:    ErrPredicateValue,
			})
		} else if len(v) != 2 {
			errs = append(errs, ValidationError{
				Field:   field + ".value",
				Message: fmt.Sprintf("in-range takes [lower, upper], got %d element(s)", len(v)),
				Code:    ErrPredicateValue,
			})
		}
	}

	return errs
}
