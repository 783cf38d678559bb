package dataset

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/bayesq/internal/ir"
)

// DefaultMissingTokens are the cell texts treated as Missing.
var DefaultMissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "None"}

// Options controls text-to-cell coercion.
type Options struct {
	// MissingTokens lists cell texts (after trimming) treated as Missing.
	// Nil means DefaultMissingTokens; an empty non-nil slice disables
	// token matching entirely.
	MissingTokens []string
}

// DefaultOptions returns the coercion options used by the loaders.
func DefaultOptions() Options {
	return Options{MissingTokens: DefaultMissingTokens}
}

func (o Options) isMissingToken(s string) bool {
	tokens := o.MissingTokens
	if tokens == nil {
		tokens = DefaultMissingTokens
	}
	return slices.Contains(tokens, s)
}

// FromStrings builds a Table from a header and text rows, as read from CSV.
// Every row must have exactly len(header) cells.
func FromStrings(header []string, rows [][]string, opts Options) (*Table, error) {
	if err := checkNames(header); err != nil {
		return nil, err
	}

	cells := make([][]any, len(header))
	for c := range header {
		cells[c] = make([]any, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d: has %d cells, want %d", r, len(row), len(header))
		}
		for c, cell := range row {
			cells[c][r] = cell
		}
	}

	return fromCells(header, cells, opts)
}

// FromRecords builds a Table from decoded records (YAML, JSON).
//
// columns fixes the column order; when nil, columns are the sorted union of
// record keys. A key absent from a record is Missing for that row.
func FromRecords(columns []string, records []map[string]any, opts Options) (*Table, error) {
	if columns == nil {
		columns = recordKeys(records)
	}
	if err := checkNames(columns); err != nil {
		return nil, err
	}

	cells := make([][]any, len(columns))
	for c, name := range columns {
		cells[c] = make([]any, len(records))
		for r, rec := range records {
			cells[c][r] = rec[name] // absent key reads as nil
		}
	}

	return fromCells(columns, cells, opts)
}

func recordKeys(records []map[string]any) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

// fromCells infers each column kind, converts cells, and builds the Table.
func fromCells(names []string, cells [][]any, opts Options) (*Table, error) {
	schema := make(ir.Schema, len(names))
	columns := make(map[string][]ir.Value, len(names))

	for c, name := range names {
		kind, values, err := buildColumn(cells[c], opts)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		schema[c] = ir.Column{Name: name, Kind: kind}
		columns[name] = values
	}

	return NewTable(schema, columns)
}

// buildColumn applies the coercion rules to one column.
//
// Text that parses as NaN is Missing only once the column is known to be
// numeric; in a categorical column it stays a category.
func buildColumn(raw []any, opts Options) (ir.Kind, []ir.Value, error) {
	numbers := make([]float64, len(raw))
	missing := make([]bool, len(raw))
	numeric := true

	for i, cell := range raw {
		switch v := cell.(type) {
		case nil:
			missing[i] = true
		case string:
			s := strings.TrimSpace(v)
			if opts.isMissingToken(s) {
				missing[i] = true
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				numeric = false
				continue
			}
			numbers[i] = f
		case bool:
			numeric = false
		default:
			f, ok := toFloat(cell)
			if !ok {
				return 0, nil, fmt.Errorf("row %d: unsupported cell type %T", i, cell)
			}
			// A decoded NaN carries no value in any column kind
			missing[i] = math.IsNaN(f)
			numbers[i] = f
		}
	}

	values := make([]ir.Value, len(raw))
	if numeric {
		for i := range raw {
			if missing[i] {
				values[i] = ir.Missing{}
			} else {
				values[i] = ir.NewNumber(numbers[i])
			}
		}
		return ir.KindNumeric, values, nil
	}

	for i, cell := range raw {
		if missing[i] {
			values[i] = ir.Missing{}
			continue
		}
		values[i] = ir.Category(categoryText(cell))
	}
	return ir.KindCategorical, values, nil
}

// categoryText renders a non-missing cell as a normalized category.
func categoryText(cell any) string {
	switch v := cell.(type) {
	case string:
		return norm.NFC.String(strings.TrimSpace(v))
	case bool:
		return strconv.FormatBool(v)
	default:
		f, _ := toFloat(v)
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// toFloat accepts the numeric types produced by yaml.v3 and encoding/json.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
