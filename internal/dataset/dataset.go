package dataset

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/bayesq/internal/ir"
)

// Dataset is a read-only table of typed columns.
//
// Implementations must be safe for concurrent reads and must never change
// row order or content after construction.
type Dataset interface {
	// ID identifies this snapshot. Two datasets with different content
	// never share an ID.
	ID() string

	// Schema returns the columns in declaration order.
	Schema() ir.Schema

	// ColumnExists reports whether name is a column.
	ColumnExists(name string) bool

	// ValuesOf returns the cells of a column, indexed by row identifier.
	// The returned slice is shared and must not be modified.
	ValuesOf(name string) ([]ir.Value, error)

	// RowCount returns the number of rows.
	RowCount() int
}

// Table is the in-memory Dataset implementation.
type Table struct {
	id      string
	schema  ir.Schema
	columns map[string][]ir.Value
	rows    int
}

var _ Dataset = (*Table)(nil)

// NewTable creates a Table from typed columns.
//
// Every column in schema must have an entry in columns, all columns must
// have the same length, and every non-missing cell must match its column
// kind.
func NewTable(schema ir.Schema, columns map[string][]ir.Value) (*Table, error) {
	if err := checkNames(schema.Names()); err != nil {
		return nil, err
	}

	rows := -1
	owned := make(map[string][]ir.Value, len(schema))
	for _, col := range schema {
		if col.Kind != ir.KindNumeric && col.Kind != ir.KindCategorical {
			return nil, fmt.Errorf("column %q: invalid kind %s", col.Name, col.Kind)
		}

		values, ok := columns[col.Name]
		if !ok {
			return nil, fmt.Errorf("column %q: no values", col.Name)
		}
		if rows == -1 {
			rows = len(values)
		} else if len(values) != rows {
			return nil, fmt.Errorf("column %q: has %d rows, want %d", col.Name, len(values), rows)
		}

		cells := make([]ir.Value, len(values))
		for i, v := range values {
			if ir.IsMissing(v) {
				cells[i] = ir.Missing{}
				continue
			}
			if n, isNum := v.(ir.Number); isNum {
				v = ir.NewNumber(float64(n))
				if ir.IsMissing(v) {
					cells[i] = v
					continue
				}
			}
			kind, _ := ir.KindOf(v)
			if kind != col.Kind {
				return nil, fmt.Errorf("column %q row %d: %s value in %s column", col.Name, i, kind, col.Kind)
			}
			cells[i] = v
		}
		owned[col.Name] = cells
	}
	if rows == -1 {
		rows = 0
	}

	return &Table{
		id:      uuid.Must(uuid.NewV7()).String(),
		schema:  append(ir.Schema(nil), schema...),
		columns: owned,
		rows:    rows,
	}, nil
}

// ID returns the snapshot identifier.
func (t *Table) ID() string { return t.id }

// Schema returns a copy of the column list.
func (t *Table) Schema() ir.Schema {
	return append(ir.Schema(nil), t.schema...)
}

// ColumnExists reports whether name is a column.
func (t *Table) ColumnExists(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// ValuesOf returns the cells of a column. Fails with UNKNOWN_COLUMN.
func (t *Table) ValuesOf(name string) ([]ir.Value, error) {
	values, ok := t.columns[name]
	if !ok {
		return nil, ir.NewUnknownColumnError(name)
	}
	return values, nil
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return t.rows }

// checkNames rejects empty and duplicate column names.
func checkNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if name == "" {
			return fmt.Errorf("column %d has an empty name", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
	}
	return nil
}
