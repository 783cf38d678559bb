package predicate

import (
	"fmt"
	"strings"

	"github.com/roach88/bayesq/internal/ir"
)

// Operator identifies a comparison.
type Operator uint8

const (
	// OpInvalid is the zero value and never evaluates.
	OpInvalid Operator = iota

	// OpGreaterOrEqual holds when cell >= value.
	OpGreaterOrEqual

	// OpGreaterThan holds when cell > value.
	OpGreaterThan

	// OpEqual holds when cell == value.
	OpEqual

	// OpLessThan holds when cell < value.
	OpLessThan

	// OpLessOrEqual holds when cell <= value.
	OpLessOrEqual

	// OpInRange holds when lower <= cell <= upper.
	OpInRange
)

// operatorInfo lists the spellings for each valid operator.
var operatorInfo = map[Operator]struct {
	token string
	name  string
}{
	OpGreaterOrEqual: {"geq", "greater-or-equal"},
	OpGreaterThan:    {"g", "greater-than"},
	OpEqual:          {"eq", "equal"},
	OpLessThan:       {"l", "less-than"},
	OpLessOrEqual:    {"leq", "less-or-equal"},
	OpInRange:        {"in_range", "in-range"},
}

// Operators returns every valid operator in declaration order.
func Operators() []Operator {
	return []Operator{
		OpGreaterOrEqual,
		OpGreaterThan,
		OpEqual,
		OpLessThan,
		OpLessOrEqual,
		OpInRange,
	}
}

// Valid reports whether op is one of the six recognized operators.
func (op Operator) Valid() bool {
	_, ok := operatorInfo[op]
	return ok
}

// Token returns the short token (geq, g, eq, l, leq, in_range).
func (op Operator) Token() string {
	if info, ok := operatorInfo[op]; ok {
		return info.token
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// String returns the long name (greater-or-equal, ...).
func (op Operator) String() string {
	if info, ok := operatorInfo[op]; ok {
		return info.name
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Ordered reports whether op needs an ordered (numeric) column.
// Only equality works on categorical columns.
func (op Operator) Ordered() bool {
	return op.Valid() && op != OpEqual
}

// ParseOperator parses a token, long name, or symbol.
// Matching is case-insensitive. Unknown input fails with INVALID_OPERATOR.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geq", "gte", "greater-or-equal", ">=":
		return OpGreaterOrEqual, nil
	case "g", "gt", "greater-than", ">":
		return OpGreaterThan, nil
	case "eq", "equal", "=", "==":
		return OpEqual, nil
	case "l", "lt", "less-than", "<":
		return OpLessThan, nil
	case "leq", "lte", "less-or-equal", "<=":
		return OpLessOrEqual, nil
	case "in_range", "in-range", "between":
		return OpInRange, nil
	default:
		return OpInvalid, ir.NewInvalidOperatorError(s)
	}
}

// Operand is the right-hand side of a predicate.
//
// This is a sealed interface - only Scalar and Bounds implement it.
type Operand interface {
	operandNode() // Marker method - seals interface to this package
}

// Scalar is a single comparison value.
type Scalar struct {
	Value ir.Value
}

func (Scalar) operandNode() {}

// Bounds is an inclusive range used by OpInRange.
// Lower > Upper is legal and matches nothing.
type Bounds struct {
	Lower float64
	Upper float64
}

func (Bounds) operandNode() {}

// Predicate is an immutable (column, operator, operand) triple.
type Predicate struct {
	Column  string
	Op      Operator
	Operand Operand
}

// GreaterOrEqual builds column >= value.
func GreaterOrEqual(column string, value float64) Predicate {
	return Predicate{Column: column, Op: OpGreaterOrEqual, Operand: Scalar{Value: ir.Number(value)}}
}

// GreaterThan builds column > value.
func GreaterThan(column string, value float64) Predicate {
	return Predicate{Column: column, Op: OpGreaterThan, Operand: Scalar{Value: ir.Number(value)}}
}

// Equal builds column == value. Value may be a Number or a Category.
func Equal(column string, value ir.Value) Predicate {
	return Predicate{Column: column, Op: OpEqual, Operand: Scalar{Value: value}}
}

// LessThan builds column < value.
func LessThan(column string, value float64) Predicate {
	return Predicate{Column: column, Op: OpLessThan, Operand: Scalar{Value: ir.Number(value)}}
}

// LessOrEqual builds column <= value.
func LessOrEqual(column string, value float64) Predicate {
	return Predicate{Column: column, Op: OpLessOrEqual, Operand: Scalar{Value: ir.Number(value)}}
}

// InRange builds lower <= column <= upper.
func InRange(column string, lower, upper float64) Predicate {
	return Predicate{Column: column, Op: OpInRange, Operand: Bounds{Lower: lower, Upper: upper}}
}

// String renders the predicate as "column token value", e.g. "Age geq 22".
// It doubles as the cache and trace key, so equal predicates render equally.
func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %s", p.Column, p.Op.Token(), formatOperand(p.Operand))
}

func formatOperand(o Operand) string {
	switch v := o.(type) {
	case Scalar:
		if c, ok := v.Value.(ir.Category); ok {
			return fmt.Sprintf("%q", string(c))
		}
		return ir.FormatValue(v.Value)
	case Bounds:
		return fmt.Sprintf("[%s,%s]",
			ir.FormatValue(ir.Number(v.Lower)),
			ir.FormatValue(ir.Number(v.Upper)))
	case nil:
		return "<none>"
	default:
		return fmt.Sprintf("%v", o)
	}
}
