package ir

import (
	"github.com/RoaringBitmap/roaring"
)

// RowID is the ordinal position of a row, assigned at load time and stable
// for the lifetime of the dataset.
type RowID = uint32

// RowSet is an immutable set of row identifiers.
//
// The zero value is the empty set. Operations never mutate their receiver
// or arguments, so a RowSet may be shared freely between goroutines.
type RowSet struct {
	bm *roaring.Bitmap
}

// NewRowSet creates a RowSet containing ids.
func NewRowSet(ids ...RowID) RowSet {
	if len(ids) == 0 {
		return RowSet{}
	}
	return RowSet{bm: roaring.BitmapOf(ids...)}
}

// RowSetFromBitmap takes ownership of bm. The caller must not modify bm afterwards.
func RowSetFromBitmap(bm *roaring.Bitmap) RowSet {
	if bm == nil || bm.IsEmpty() {
		return RowSet{}
	}
	return RowSet{bm: bm}
}

// Len returns the number of rows in the set.
func (s RowSet) Len() int {
	if s.bm == nil {
		return 0
	}
	return int(s.bm.GetCardinality())
}

// IsEmpty reports whether the set has no rows.
func (s RowSet) IsEmpty() bool {
	return s.bm == nil || s.bm.IsEmpty()
}

// Intersect returns a new set holding the rows present in both s and other.
func (s RowSet) Intersect(other RowSet) RowSet {
	if s.IsEmpty() || other.IsEmpty() {
		return RowSet{}
	}
	return RowSetFromBitmap(roaring.And(s.bm, other.bm))
}

// Equal reports whether both sets hold the same rows.
func (s RowSet) Equal(other RowSet) bool {
	if s.IsEmpty() || other.IsEmpty() {
		return s.IsEmpty() && other.IsEmpty()
	}
	return s.bm.Equals(other.bm)
}

// IDs returns the row identifiers in ascending order.
// Order carries no meaning; it only makes output deterministic.
func (s RowSet) IDs() []RowID {
	if s.bm == nil {
		return []RowID{}
	}
	return s.bm.ToArray()
}
