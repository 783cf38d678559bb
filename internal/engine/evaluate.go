package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
)

// ErrNilDataset is returned when an operation receives a nil dataset.
var ErrNilDataset = errors.New("dataset is nil")

// Evaluate returns the set of rows of ds for which p holds.
//
// Fails with INVALID_OPERATOR, UNKNOWN_COLUMN, or TYPE_MISMATCH before
// reading any cell. Missing cells never satisfy p.
//
// Evaluate is a pure function: it never caches and never traces. Use
// Engine.Evaluate for the cached, traced form.
func Evaluate(ds dataset.Dataset, p predicate.Predicate) (ir.RowSet, error) {
	if ds == nil {
		return ir.RowSet{}, ErrNilDataset
	}
	if err := predicate.Validate(p, ds.Schema()); err != nil {
		return ir.RowSet{}, err
	}

	values, err := ds.ValuesOf(p.Column)
	if err != nil {
		return ir.RowSet{}, err
	}
	if uint64(len(values)) > math.MaxUint32 {
		return ir.RowSet{}, fmt.Errorf("column %q: %d rows exceed the row identifier range", p.Column, len(values))
	}

	holds := matcher(p)
	bm := roaring.New()
	for i, v := range values {
		if holds(v) {
			bm.Add(ir.RowID(i))
		}
	}
	return ir.RowSetFromBitmap(bm), nil
}

// matcher returns the cell test for a validated predicate.
func matcher(p predicate.Predicate) func(ir.Value) bool {
	switch operand := p.Operand.(type) {
	case predicate.Bounds:
		lower, upper := operand.Lower, operand.Upper
		return func(v ir.Value) bool {
			n, ok := v.(ir.Number)
			return ok && lower <= float64(n) && float64(n) <= upper
		}

	case predicate.Scalar:
		if p.Op == predicate.OpEqual {
			target := operand.Value
			return func(v ir.Value) bool {
				return !ir.IsMissing(v) && v == target
			}
		}
		x := float64(operand.Value.(ir.Number))
		cmp := compareFunc(p.Op)
		return func(v ir.Value) bool {
			n, ok := v.(ir.Number)
			return ok && cmp(float64(n), x)
		}
	}

	// Unreachable after Validate
	return func(ir.Value) bool { return false }
}

// compareFunc returns the numeric comparison for an ordering operator.
func compareFunc(op predicate.Operator) func(cell, value float64) bool {
	switch op {
	case predicate.OpGreaterOrEqual:
		return func(cell, value float64) bool { return cell >= value }
	case predicate.OpGreaterThan:
		return func(cell, value float64) bool { return cell > value }
	case predicate.OpEqual:
		return func(cell, value float64) bool { return cell == value }
	case predicate.OpLessThan:
		return func(cell, value float64) bool { return cell < value }
	case predicate.OpLessOrEqual:
		return func(cell, value float64) bool { return cell <= value }
	default:
		return func(float64, float64) bool { return false }
	}
}

// eligibleRows counts the non-missing cells of a column.
func eligibleRows(ds dataset.Dataset, column string) (int, error) {
	values, err := ds.ValuesOf(column)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range values {
		if !ir.IsMissing(v) {
			n++
		}
	}
	return n, nil
}

// presentRows returns the rows whose cell in column is not missing.
func presentRows(ds dataset.Dataset, column string) (ir.RowSet, error) {
	values, err := ds.ValuesOf(column)
	if err != nil {
		return ir.RowSet{}, err
	}
	bm := roaring.New()
	for i, v := range values {
		if !ir.IsMissing(v) {
			bm.Add(ir.RowID(i))
		}
	}
	return ir.RowSetFromBitmap(bm), nil
}
