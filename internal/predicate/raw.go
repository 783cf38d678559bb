package predicate

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/bayesq/internal/ir"
)

// Raw is an untyped predicate as written in CLI flags, CUE query files, or
// YAML scenarios.
//
// Value holds whatever the decoder produced: a string, a number, or for
// in_range a two-element list (or a "lo,hi" / "lo..hi" string).
type Raw struct {
	Column string `yaml:"column" json:"column"`
	Op     string `yaml:"op" json:"op"`
	Value  any    `yaml:"value" json:"value"`
}

// String renders the raw predicate for error messages.
func (r Raw) String() string {
	return fmt.Sprintf("%s %s %v", r.Column, r.Op, r.Value)
}

// Bind resolves r against schema into a typed Predicate.
//
// Coercion rules:
//   - numeric column, numeric literal: used as-is
//   - numeric column, string literal: parsed as a float, TYPE_MISMATCH if it is not one
//   - categorical column, string literal: NFC-normalized and trimmed
//   - categorical column, numeric or bool literal: its shortest decimal text
//   - in_range: a two-element list, or a "lo,hi" or "lo..hi" string, of numbers
//
// The result is validated with Validate before it is returned.
func (r Raw) Bind(schema ir.Schema) (Predicate, error) {
	op, err := ParseOperator(r.Op)
	if err != nil {
		return Predicate{}, err
	}

	col, ok := schema.Lookup(r.Column)
	if !ok {
		return Predicate{}, ir.NewUnknownColumnError(r.Column)
	}

	var p Predicate
	if op == OpInRange {
		lower, upper, err := parseBounds(r.Value)
		if err != nil {
			return Predicate{}, ir.NewTypeMismatchError(r.Column, err.Error())
		}
		p = InRange(r.Column, lower, upper)
	} else {
		v, err := coerce(r.Value, col.Kind)
		if err != nil {
			return Predicate{}, ir.NewTypeMismatchError(r.Column, err.Error())
		}
		p = Predicate{Column: r.Column, Op: op, Operand: Scalar{Value: v}}
	}

	if err := Validate(p, schema); err != nil {
		return Predicate{}, err
	}
	return p, nil
}

// BindAll binds every raw predicate, stopping at the first failure.
func BindAll(raws []Raw, schema ir.Schema) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(raws))
	for i, r := range raws {
		p, err := r.Bind(schema)
		if err != nil {
			return nil, fmt.Errorf("predicate %d (%s): %w", i, r, err)
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// ParseRaw parses the textual form "COLUMN OP VALUE", e.g. `Age geq 22` or
// `Name eq "Van Der Berg"`. Everything after the operator is the value;
// surrounding double quotes are stripped.
func ParseRaw(expr string) (Raw, error) {
	fields := strings.Fields(expr)
	if len(fields) < 3 {
		return Raw{}, fmt.Errorf("predicate %q: want COLUMN OP VALUE", expr)
	}

	// Re-slice the original text so inner spacing of the value survives
	rest := strings.TrimSpace(expr)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))

	value := rest
	if unquoted, err := strconv.Unquote(rest); err == nil {
		value = unquoted
	}

	return Raw{Column: fields[0], Op: fields[1], Value: value}, nil
}

// coerce converts a decoded literal into a value of the given kind.
func coerce(v any, kind ir.Kind) (ir.Value, error) {
	switch kind {
	case ir.KindNumeric:
		if f, ok := toFloat(v); ok {
			return ir.Number(f), nil
		}
		if s, ok := v.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("value %q is not numeric", s)
			}
			return ir.Number(f), nil
		}
		return nil, fmt.Errorf("value %v (%T) is not numeric", v, v)

	case ir.KindCategorical:
		switch val := v.(type) {
		case string:
			return ir.Category(norm.NFC.String(strings.TrimSpace(val))), nil
		case bool:
			return ir.Category(strconv.FormatBool(val)), nil
		}
		if f, ok := toFloat(v); ok {
			return ir.Category(strconv.FormatFloat(f, 'g', -1, 64)), nil
		}
		return nil, fmt.Errorf("value %v (%T) cannot be used as a category", v, v)

	default:
		return nil, fmt.Errorf("unknown column kind %s", kind)
	}
}

// parseBounds extracts [lower, upper] from a list or a "lo,hi" / "lo..hi" string.
func parseBounds(v any) (float64, float64, error) {
	var parts []any
	switch val := v.(type) {
	case []any:
		parts = val
	case []float64:
		for _, f := range val {
			parts = append(parts, f)
		}
	case string:
		sep := ","
		if strings.Contains(val, "..") {
			sep = ".."
		}
		for _, s := range strings.Split(val, sep) {
			parts = append(parts, strings.TrimSpace(s))
		}
	default:
		return 0, 0, fmt.Errorf("in_range needs [lower, upper], got %v", v)
	}

	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("in_range needs exactly two bounds, got %d", len(parts))
	}

	bounds := [2]float64{}
	for i, part := range parts {
		b, err := coerce(part, ir.KindNumeric)
		if err != nil {
			return 0, 0, fmt.Errorf("in_range bound %d: %w", i, err)
		}
		bounds[i] = float64(b.(ir.Number))
	}
	return bounds[0], bounds[1], nil
}

// toFloat accepts the numeric types produced by yaml.v3, encoding/json and CUE.
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
