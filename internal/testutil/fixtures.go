// Package testutil holds fixture datasets shared by package tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/ir"
)

// Players is the five-row Name/Age table.
//
//	row  Name     Age
//	0    Alice    24
//	1    Bob      27
//	2    Charlie  0
//	3    David    22
//	4    Eve      30
func Players(t testing.TB) *dataset.Table {
	t.Helper()
	return MustTable(t,
		ir.Schema{
			{Name: "Name", Kind: ir.KindCategorical},
			{Name: "Age", Kind: ir.KindNumeric},
		},
		map[string][]ir.Value{
			"Name": categories("Alice", "Bob", "Charlie", "David", "Eve"),
			"Age":  numbers(24, 27, 0, 22, 30),
		},
	)
}

// Defense is the four-week defensive rank table.
//
//	row  week  d_rank  yards  result
//	0    1     2       100    W
//	1    2     3       180    L
//	2    3     1       75     W
//	3    4     4       200    L
func Defense(t testing.TB) *dataset.Table {
	t.Helper()
	return MustTable(t,
		ir.Schema{
			{Name: "week", Kind: ir.KindNumeric},
			{Name: "d_rank", Kind: ir.KindNumeric},
			{Name: "yards", Kind: ir.KindNumeric},
			{Name: "result", Kind: ir.KindCategorical},
		},
		map[string][]ir.Value{
			"week":   numbers(1, 2, 3, 4),
			"d_rank": numbers(2, 3, 1, 4),
			"yards":  numbers(100, 180, 75, 200),
			"result": categories("W", "L", "W", "L"),
		},
	)
}

// Sparse is a table with missing cells. NaN entries are Missing.
//
//	row  team  score  rating
//	0    A     10     -
//	1    B     -      -
//	2    -     30     -
//	3    A     40     -
//
// The rating column is entirely missing.
func Sparse(t testing.TB) *dataset.Table {
	t.Helper()
	nan := math.NaN()
	return MustTable(t,
		ir.Schema{
			{Name: "team", Kind: ir.KindCategorical},
			{Name: "score", Kind: ir.KindNumeric},
			{Name: "rating", Kind: ir.KindNumeric},
		},
		map[string][]ir.Value{
			"team":   {ir.Category("A"), ir.Category("B"), ir.Missing{}, ir.Category("A")},
			"score":  numbers(10, nan, 30, 40),
			"rating": numbers(nan, nan, nan, nan),
		},
	)
}

// Empty is a Name/Age table with no rows.
func Empty(t testing.TB) *dataset.Table {
	t.Helper()
	return MustTable(t,
		ir.Schema{
			{Name: "Name", Kind: ir.KindCategorical},
			{Name: "Age", Kind: ir.KindNumeric},
		},
		map[string][]ir.Value{"Name": {}, "Age": {}},
	)
}

// MustTable builds a Table or fails the test.
func MustTable(t testing.TB, schema ir.Schema, columns map[string][]ir.Value) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable(schema, columns)
	require.NoError(t, err)
	return tbl
}

func numbers(fs ...float64) []ir.Value {
	out := make([]ir.Value, len(fs))
	for i, f := range fs {
		out[i] = ir.NewNumber(f)
	}
	return out
}

func categories(ss ...string) []ir.Value {
	out := make([]ir.Value, len(ss))
	for i, s := range ss {
		out[i] = ir.Category(s)
	}
	return out
}
