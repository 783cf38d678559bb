package dataset

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bayesq/internal/ir"
)

func TestFromStringsInfersKinds(t *testing.T) {
	tbl, err := FromStrings(
		[]string{"Name", "Age", "Code"},
		[][]string{
			{"Alice", "24", "7"},
			{" Bob ", "NA", "X1"},
			{"", "2.5", "9"},
		},
		DefaultOptions(),
	)
	require.NoError(t, err)

	assert.Equal(t, ir.Schema{
		{Name: "Name", Kind: ir.KindCategorical},
		{Name: "Age", Kind: ir.KindNumeric},
		{Name: "Code", Kind: ir.KindCategorical},
	}, tbl.Schema())

	names, _ := tbl.ValuesOf("Name")
	assert.Equal(t, []ir.Value{ir.Category("Alice"), ir.Category("Bob"), ir.Missing{}}, names)

	ages, _ := tbl.ValuesOf("Age")
	assert.Equal(t, []ir.Value{ir.Number(24), ir.Missing{}, ir.Number(2.5)}, ages)

	codes, _ := tbl.ValuesOf("Code")
	assert.Equal(t, []ir.Value{ir.Category("7"), ir.Category("X1"), ir.Category("9")}, codes)
}

func TestFromStringsCustomMissingTokens(t *testing.T) {
	// With token matching disabled "NA" is a real category
	tbl, err := FromStrings([]string{"c"}, [][]string{{"NA"}, {"-"}}, Options{MissingTokens: []string{"-"}})
	require.NoError(t, err)

	values, _ := tbl.ValuesOf("c")
	assert.Equal(t, []ir.Value{ir.Category("NA"), ir.Missing{}}, values)
}

func TestFromStringsDefaultMissingTokens(t *testing.T) {
	for _, token := range DefaultMissingTokens {
		t.Run(strconv.Quote(token), func(t *testing.T) {
			tbl, err := FromStrings([]string{"c"}, [][]string{{"1"}, {token}}, DefaultOptions())
			require.NoError(t, err)

			values, _ := tbl.ValuesOf("c")
			assert.Equal(t, []ir.Value{ir.Number(1), ir.Missing{}}, values)
		})
	}
}

func TestFromStringsNaNTextFollowsColumnKind(t *testing.T) {
	noTokens := Options{MissingTokens: []string{}}

	t.Run("numeric column", func(t *testing.T) {
		tbl, err := FromStrings([]string{"c"}, [][]string{{"NaN"}, {"2"}}, noTokens)
		require.NoError(t, err)

		values, _ := tbl.ValuesOf("c")
		assert.Equal(t, []ir.Value{ir.Missing{}, ir.Number(2)}, values)
	})

	t.Run("categorical column", func(t *testing.T) {
		tbl, err := FromStrings([]string{"c"}, [][]string{{"NaN"}, {"x"}}, noTokens)
		require.NoError(t, err)

		values, _ := tbl.ValuesOf("c")
		assert.Equal(t, []ir.Value{ir.Category("NaN"), ir.Category("x")}, values)
	})
}

func TestFromRecordsDecodedNaNIsMissing(t *testing.T) {
	tbl, err := FromRecords([]string{"c"}, []map[string]any{{"c": math.NaN()}, {"c": "x"}}, DefaultOptions())
	require.NoError(t, err)

	values, _ := tbl.ValuesOf("c")
	assert.Equal(t, []ir.Value{ir.Missing{}, ir.Category("x")}, values)
}

func TestFromStringsFullyMissingColumnIsNumeric(t *testing.T) {
	tbl, err := FromStrings([]string{"c"}, [][]string{{""}, {"NA"}}, DefaultOptions())
	require.NoError(t, err)

	col, ok := tbl.Schema().Lookup("c")
	require.True(t, ok)
	assert.Equal(t, ir.KindNumeric, col.Kind)
}

func TestFromStringsRaggedRow(t *testing.T) {
	_, err := FromStrings([]string{"a", "b"}, [][]string{{"1"}}, DefaultOptions())
	assert.Error(t, err)
}

func TestFromStringsNFC(t *testing.T) {
	tbl, err := FromStrings([]string{"Name"}, [][]string{{"Re\u0301my"}}, DefaultOptions())
	require.NoError(t, err)

	names, _ := tbl.ValuesOf("Name")
	assert.Equal(t, []ir.Value{ir.Category("R\u00e9my")}, names)
}

func TestFromRecords(t *testing.T) {
	records := []map[string]any{
		{"Name": "Alice", "Age": 24, "Won": true},
		{"Name": "Bob", "Age": 27.5, "Won": false},
		{"Name": "Eve", "Age": nil},
	}

	tbl, err := FromRecords([]string{"Name", "Age", "Won"}, records, DefaultOptions())
	require.NoError(t, err)

	ages, _ := tbl.ValuesOf("Age")
	assert.Equal(t, []ir.Value{ir.Number(24), ir.Number(27.5), ir.Missing{}}, ages)

	won, _ := tbl.ValuesOf("Won")
	assert.Equal(t, []ir.Value{ir.Category("true"), ir.Category("false"), ir.Missing{}}, won)
}

func TestFromRecordsMixedColumnBecomesCategorical(t *testing.T) {
	tbl, err := FromRecords(nil, []map[string]any{{"v": 1}, {"v": "two"}}, DefaultOptions())
	require.NoError(t, err)

	values, _ := tbl.ValuesOf("v")
	assert.Equal(t, []ir.Value{ir.Category("1"), ir.Category("two")}, values)
}

func TestFromRecordsSortedKeysWhenColumnsNil(t *testing.T) {
	tbl, err := FromRecords(nil, []map[string]any{{"b": 1}, {"a": 2}}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Schema().Names())
}

func TestFromRecordsUnsupportedCell(t *testing.T) {
	_, err := FromRecords(nil, []map[string]any{{"v": []any{1}}}, DefaultOptions())
	assert.Error(t, err)
}
