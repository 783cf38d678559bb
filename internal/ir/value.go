package ir

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a sealed interface representing a single dataset cell.
// Only Number, Category, and Missing implement this.
//
// Columns hold exactly one non-missing kind: a numeric column holds Number
// and Missing cells, a categorical column holds Category and Missing cells.
type Value interface {
	value() // Sealed - only these types implement it
}

// Number is a numeric cell or operand.
// NaN is never stored as a Number; loaders convert it to Missing.
type Number float64

func (Number) value() {}

// Category is a categorical (string) cell or operand.
// Categories compare by equality only.
type Category string

func (Category) value() {}

// Missing marks a cell with no value.
// Missing cells never satisfy a predicate.
type Missing struct{}

func (Missing) value() {}

// Kind is the value type of a column.
type Kind int

const (
	// KindNumeric columns support every operator.
	KindNumeric Kind = iota + 1

	// KindCategorical columns support equality only.
	KindCategorical
)

// String returns the lowercase kind name used in JSON and error messages.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses the output of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "numeric":
		return KindNumeric, nil
	case "categorical":
		return KindCategorical, nil
	default:
		return 0, fmt.Errorf("unknown column kind %q", s)
	}
}

// KindOf returns the kind a non-missing value belongs to.
// The second result is false for Missing.
func KindOf(v Value) (Kind, bool) {
	switch v.(type) {
	case Number:
		return KindNumeric, true
	case Category:
		return KindCategorical, true
	default:
		return 0, false
	}
}

// IsMissing reports whether v is Missing (or nil).
func IsMissing(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Missing)
	return ok
}

// NewNumber converts f to a cell value, mapping NaN to Missing.
func NewNumber(f float64) Value {
	if math.IsNaN(f) {
		return Missing{}
	}
	return Number(f)
}

// FormatValue renders a value the way it appears in predicate keys and CLI output.
// Numbers use the shortest representation that round-trips.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case Number:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Category:
		return string(val)
	case Missing, nil:
		return "<missing>"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Column describes one named, typed column.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Schema is the ordered column list of a dataset.
type Schema []Column

// Lookup returns the column with the given name.
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}
