// Package querysql compiles predicates to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
)

// RowColumn is the row identifier column of every imported table.
const RowColumn = "_row"

// SQLCompiler compiles predicates to parameterized SQL for SQLite.
//
// CRITICAL: every row query includes ORDER BY for deterministic results.
// CRITICAL: all values are parameterized, never interpolated.
//
// Missing cells are stored as NULL. Every comparison against NULL is NULL,
// which WHERE treats as false, so missing cells never satisfy a predicate.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile returns the query selecting the row identifiers of table that
// satisfy every predicate (a conjunction). With no predicates it selects
// every row.
//
// Predicates must already be validated against the table's schema.
func (c *SQLCompiler) Compile(table string, preds ...predicate.Predicate) (string, []any, error) {
	return c.CompileSelect(table, nil, preds...)
}

// CompileSelect is Compile with extra columns selected after the row
// identifier.
func (c *SQLCompiler) CompileSelect(table string, columns []string, preds ...predicate.Predicate) (string, []any, error) {
	if table == "" {
		return "", nil, fmt.Errorf("cannot compile query without a table")
	}

	where, params, err := c.compileConjunction(preds)
	if err != nil {
		return "", nil, err
	}

	selected := make([]string, 0, len(columns)+1)
	selected = append(selected, QuoteIdent(RowColumn))
	for _, col := range columns {
		selected = append(selected, QuoteIdent(col))
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s ASC",
		strings.Join(selected, ", "),
		QuoteIdent(table),
		where,
		QuoteIdent(RowColumn))

	return sql, params, nil
}

// CompileCount returns the query counting the rows that satisfy every
// predicate.
func (c *SQLCompiler) CompileCount(table string, preds ...predicate.Predicate) (string, []any, error) {
	if table == "" {
		return "", nil, fmt.Errorf("cannot compile query without a table")
	}

	where, params, err := c.compileConjunction(preds)
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", QuoteIdent(table), where), params, nil
}

// CompileEligible returns the query counting the non-missing cells of column.
func (c *SQLCompiler) CompileEligible(table, column string) (string, error) {
	if table == "" || column == "" {
		return "", fmt.Errorf("cannot compile eligible count without table and column")
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL",
		QuoteIdent(table), QuoteIdent(column)), nil
}

// compileConjunction joins predicate fragments with AND.
// Returns "" when there are no predicates.
func (c *SQLCompiler) compileConjunction(preds []predicate.Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(preds))
	var params []any
	for i, p := range preds {
		sql, ps, err := c.compilePredicate(p)
		if err != nil {
			return "", nil, fmt.Errorf("predicate %d (%s): %w", i, p, err)
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}

	return " WHERE " + strings.Join(parts, " AND "), params, nil
}

// compilePredicate compiles one predicate to a WHERE fragment.
func (c *SQLCompiler) compilePredicate(p predicate.Predicate) (string, []any, error) {
	col := QuoteIdent(p.Column)

	switch operand := p.Operand.(type) {
	case predicate.Bounds:
		if p.Op != predicate.OpInRange {
			return "", nil, fmt.Errorf("operator %s takes a single value", p.Op)
		}
		return col + " BETWEEN ? AND ?", []any{operand.Lower, operand.Upper}, nil

	case predicate.Scalar:
		sqlOp, err := comparison(p.Op)
		if err != nil {
			return "", nil, err
		}
		param, err := valueToParam(operand.Value)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s ?", col, sqlOp), []any{param}, nil

	default:
		return "", nil, fmt.Errorf("unsupported operand type: %T", p.Operand)
	}
}

// comparison maps a scalar operator to its SQL operator.
func comparison(op predicate.Operator) (string, error) {
	switch op {
	case predicate.OpGreaterOrEqual:
		return ">=", nil
	case predicate.OpGreaterThan:
		return ">", nil
	case predicate.OpEqual:
		return "=", nil
	case predicate.OpLessThan:
		return "<", nil
	case predicate.OpLessOrEqual:
		return "<=", nil
	default:
		return "", ir.NewInvalidOperatorError(op.Token())
	}
}

// valueToParam converts a cell value to a Go native SQL parameter.
func valueToParam(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.Number:
		return float64(val), nil
	case ir.Category:
		return string(val), nil
	default:
		return nil, fmt.Errorf("unsupported value for SQL parameter: %T", v)
	}
}

// QuoteIdent quotes an SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
