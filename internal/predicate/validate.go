package predicate

import (
	"fmt"
	"math"

	"github.com/roach88/bayesq/internal/ir"
)

// Validate checks that p can be evaluated against schema.
//
// Checks, in order:
//  1. Operator is one of the six recognized operators (INVALID_OPERATOR)
//  2. Column exists in the schema (UNKNOWN_COLUMN)
//  3. Operand shape matches the operator: Bounds for in_range, Scalar otherwise
//  4. Operand is comparable to the column kind (TYPE_MISMATCH):
//     ordering operators need a numeric column, numeric columns need Number
//     operands, categorical columns need Category operands, and NaN or
//     missing operands are rejected
//
// Validate is a pure function with no side effects.
func Validate(p Predicate, schema ir.Schema) error {
	if !p.Op.Valid() {
		return ir.NewInvalidOperatorError(p.Op.Token())
	}

	col, ok := schema.Lookup(p.Column)
	if !ok {
		return ir.NewUnknownColumnError(p.Column)
	}

	if p.Op.Ordered() && col.Kind != ir.KindNumeric {
		return ir.NewTypeMismatchError(p.Column,
			fmt.Sprintf("operator %s needs a numeric column, column is %s", p.Op, col.Kind))
	}

	switch operand := p.Operand.(type) {
	case Bounds:
		if p.Op != OpInRange {
			return ir.NewTypeMismatchError(p.Column,
				fmt.Sprintf("operator %s takes a single value, got a range", p.Op))
		}
		if math.IsNaN(operand.Lower) || math.IsNaN(operand.Upper) {
			return ir.NewTypeMismatchError(p.Column, "range bound is NaN")
		}
	case Scalar:
		if p.Op == OpInRange {
			return ir.NewTypeMismatchError(p.Column, "operator in-range takes a [lower, upper] pair")
		}
		return validateScalar(p.Column, col.Kind, operand.Value)
	default:
		return ir.NewTypeMismatchError(p.Column, "predicate has no operand")
	}

	return nil
}

// validateScalar checks a single value against the column kind.
func validateScalar(column string, kind ir.Kind, v ir.Value) error {
	switch val := v.(type) {
	case ir.Number:
		if math.IsNaN(float64(val)) {
			return ir.NewTypeMismatchError(column, "comparison value is NaN")
		}
		if kind != ir.KindNumeric {
			return ir.NewTypeMismatchError(column,
				fmt.Sprintf("numeric value %s compared to %s column", ir.FormatValue(val), kind))
		}
	case ir.Category:
		if kind != ir.KindCategorical {
			return ir.NewTypeMismatchError(column,
				fmt.Sprintf("categorical value %q compared to %s column", string(val), kind))
		}
	default:
		return ir.NewTypeMismatchError(column, "comparison value is missing")
	}
	return nil
}

// ValidateAll validates every predicate and returns the first failure,
// wrapped with its position in the list.
func ValidateAll(preds []Predicate, schema ir.Schema) error {
	for i, p := range preds {
		if err := Validate(p, schema); err != nil {
			return fmt.Errorf("predicate %d (%s): %w", i, p, err)
		}
	}
	return nil
}
