package predicate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bayesq/internal/ir"
)

var testSchema = ir.Schema{
	{Name: "Name", Kind: ir.KindCategorical},
	{Name: "Age", Kind: ir.KindNumeric},
}

func TestValidate_Valid(t *testing.T) {
	preds := []Predicate{
		GreaterOrEqual("Age", 22),
		GreaterThan("Age", 22),
		Equal("Age", ir.Number(22)),
		LessThan("Age", 22),
		LessOrEqual("Age", 22),
		InRange("Age", 20, 25),
		InRange("Age", 25, 20), // inverted bounds are legal, they match nothing
		Equal("Name", ir.Category("Bob")),
	}

	for _, p := range preds {
		t.Run(p.String(), func(t *testing.T) {
			assert.NoError(t, Validate(p, testSchema))
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		code ir.Code
	}{
		{"zero operator", Predicate{Column: "Age", Operand: Scalar{Value: ir.Number(1)}}, ir.ErrCodeInvalidOperator},
		{"out of range operator", Predicate{Column: "Age", Op: Operator(99), Operand: Scalar{Value: ir.Number(1)}}, ir.ErrCodeInvalidOperator},
		{"unknown column", GreaterOrEqual("Height", 180), ir.ErrCodeUnknownColumn},
		{"ordering on categorical", GreaterThan("Name", 1), ir.ErrCodeTypeMismatch},
		{"range on categorical", InRange("Name", 1, 2), ir.ErrCodeTypeMismatch},
		{"category against numeric", Equal("Age", ir.Category("old")), ir.ErrCodeTypeMismatch},
		{"number against categorical", Equal("Name", ir.Number(3)), ir.ErrCodeTypeMismatch},
		{"missing operand", Equal("Name", ir.Missing{}), ir.ErrCodeTypeMismatch},
		{"nil operand", Predicate{Column: "Age", Op: OpEqual}, ir.ErrCodeTypeMismatch},
		{"NaN value", GreaterThan("Age", math.NaN()), ir.ErrCodeTypeMismatch},
		{"NaN bound", InRange("Age", math.NaN(), 3), ir.ErrCodeTypeMismatch},
		{"range operand on scalar op", Predicate{Column: "Age", Op: OpLessThan, Operand: Bounds{Lower: 1, Upper: 2}}, ir.ErrCodeTypeMismatch},
		{"scalar operand on range op", Predicate{Column: "Age", Op: OpInRange, Operand: Scalar{Value: ir.Number(1)}}, ir.ErrCodeTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.pred, testSchema)
			require.Error(t, err)
			assert.Equal(t, tt.code, ir.CodeOf(err), err.Error())
		})
	}
}

func TestValidate_OperatorCheckedBeforeColumn(t *testing.T) {
	p := Predicate{Column: "Nope", Op: OpInvalid}
	assert.True(t, ir.IsCode(Validate(p, testSchema), ir.ErrCodeInvalidOperator))
}

func TestValidateAll_ReportsPosition(t *testing.T) {
	preds := []Predicate{
		Equal("Name", ir.Category("Bob")),
		GreaterOrEqual("Weight", 80),
	}

	err := ValidateAll(preds, testSchema)
	require.Error(t, err)
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownColumn))
	assert.Contains(t, err.Error(), "predicate 1")
}
