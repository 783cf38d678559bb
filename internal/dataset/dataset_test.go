package dataset

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bayesq/internal/ir"
)

func TestNewTable(t *testing.T) {
	schema := ir.Schema{
		{Name: "Name", Kind: ir.KindCategorical},
		{Name: "Age", Kind: ir.KindNumeric},
	}
	tbl, err := NewTable(schema, map[string][]ir.Value{
		"Name": {ir.Category("Alice"), ir.Category("Bob")},
		"Age":  {ir.Number(24), ir.Missing{}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.RowCount())
	assert.True(t, tbl.ColumnExists("Age"))
	assert.False(t, tbl.ColumnExists("age"))
	assert.Equal(t, schema, tbl.Schema())

	ages, err := tbl.ValuesOf("Age")
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.Number(24), ir.Missing{}}, ages)

	_, err = tbl.ValuesOf("Height")
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownColumn))
}

func TestNewTableAssignsUUIDv7(t *testing.T) {
	a, err := NewTable(ir.Schema{}, nil)
	require.NoError(t, err)
	b, err := NewTable(ir.Schema{}, nil)
	require.NoError(t, err)

	parsed, err := uuid.Parse(a.ID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, a.ID(), b.ID(), "every snapshot gets its own identity")
	assert.Equal(t, 0, a.RowCount())
}

func TestNewTableNaNBecomesMissing(t *testing.T) {
	tbl, err := NewTable(ir.Schema{{Name: "x", Kind: ir.KindNumeric}}, map[string][]ir.Value{
		"x": {ir.Number(math.NaN()), nil},
	})
	require.NoError(t, err)

	values, err := tbl.ValuesOf("x")
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.Missing{}, ir.Missing{}}, values)
}

func TestNewTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		schema  ir.Schema
		columns map[string][]ir.Value
	}{
		{
			"ragged columns",
			ir.Schema{{Name: "a", Kind: ir.KindNumeric}, {Name: "b", Kind: ir.KindNumeric}},
			map[string][]ir.Value{"a": {ir.Number(1)}, "b": {}},
		},
		{
			"missing values",
			ir.Schema{{Name: "a", Kind: ir.KindNumeric}},
			map[string][]ir.Value{},
		},
		{
			"kind mismatch",
			ir.Schema{{Name: "a", Kind: ir.KindNumeric}},
			map[string][]ir.Value{"a": {ir.Category("x")}},
		},
		{
			"duplicate names",
			ir.Schema{{Name: "a", Kind: ir.KindNumeric}, {Name: "a", Kind: ir.KindNumeric}},
			map[string][]ir.Value{"a": {}},
		},
		{
			"empty name",
			ir.Schema{{Name: "", Kind: ir.KindNumeric}},
			map[string][]ir.Value{"": {}},
		},
		{
			"invalid kind",
			ir.Schema{{Name: "a"}},
			map[string][]ir.Value{"a": {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.schema, tt.columns)
			assert.Error(t, err)
		})
	}
}

func TestSchemaIsCopied(t *testing.T) {
	tbl, err := FromStrings([]string{"Age"}, [][]string{{"1"}}, DefaultOptions())
	require.NoError(t, err)

	s := tbl.Schema()
	s[0].Name = "Mutated"
	assert.True(t, tbl.ColumnExists("Age"))
	assert.Equal(t, "Age", tbl.Schema()[0].Name)
}
