package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/bayesq/internal/ir"
)

// marshalSchema converts a schema to canonical JSON TEXT for storage.
func marshalSchema(schema ir.Schema) (string, error) {
	cols := make([]any, len(schema))
	for i, c := range schema {
		cols[i] = map[string]any{
			"name": c.Name,
			"kind": c.Kind.String(),
		}
	}
	data, err := ir.MarshalCanonical(cols)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return string(data), nil
}

// unmarshalSchema parses the stored columns TEXT.
func unmarshalSchema(data string) (ir.Schema, error) {
	var raw []struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	schema := make(ir.Schema, len(raw))
	for i, c := range raw {
		kind, err := ir.ParseKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema: column %q: %w", c.Name, err)
		}
		schema[i] = ir.Column{Name: c.Name, Kind: kind}
	}
	return schema, nil
}

// sqlType returns the column type used for a kind.
func sqlType(kind ir.Kind) string {
	if kind == ir.KindNumeric {
		return "REAL"
	}
	return "TEXT"
}

// cellParam converts a cell to a SQL parameter. Missing becomes NULL.
func cellParam(v ir.Value) any {
	switch val := v.(type) {
	case ir.Number:
		return float64(val)
	case ir.Category:
		return string(val)
	default:
		return nil
	}
}

// cellScanner returns a scan destination for a column of the given kind.
func cellScanner(kind ir.Kind) any {
	if kind == ir.KindNumeric {
		return new(sql.NullFloat64)
	}
	return new(sql.NullString)
}

// scannedCell converts a filled scan destination back into a cell.
func scannedCell(dest any) ir.Value {
	switch v := dest.(type) {
	case *sql.NullFloat64:
		if !v.Valid {
			return ir.Missing{}
		}
		return ir.NewNumber(v.Float64)
	case *sql.NullString:
		if !v.Valid {
			return ir.Missing{}
		}
		return ir.Category(v.String)
	default:
		return ir.Missing{}
	}
}
