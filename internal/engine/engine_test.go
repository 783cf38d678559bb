package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
	"github.com/roach88/bayesq/internal/testutil"
)

func TestEngine_New(t *testing.T) {
	e := New()

	assert.IsType(t, NopTracer{}, e.tracer)
	assert.Nil(t, e.cache)
	assert.Equal(t, DefaultParallelism, e.parallelism)
}

func TestEngine_Options(t *testing.T) {
	rec := NewRecorder()
	c := NewCache()

	e := New(WithTracer(rec), WithCache(c), WithParallelism(8))
	assert.Same(t, rec, e.tracer)
	assert.Same(t, c, e.cache)
	assert.Equal(t, 8, e.parallelism)

	e = New(WithTracer(nil), WithParallelism(0))
	assert.IsType(t, NopTracer{}, e.tracer)
	assert.Equal(t, DefaultParallelism, e.parallelism)
}

func TestMarginal(t *testing.T) {
	ds := testutil.Players(t)

	p, err := MarginalProbability(ds, predicate.Equal("Name", ir.Category("David")))
	require.NoError(t, err)
	assert.Equal(t, 0.2, p)

	p, err = MarginalProbability(ds, predicate.GreaterOrEqual("Age", 22))
	require.NoError(t, err)
	assert.Equal(t, 0.8, p)
}

func TestMarginal_Bounds(t *testing.T) {
	ds := testutil.Players(t)

	p, err := MarginalProbability(ds, predicate.GreaterThan("Age", 100))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p, "empty set gives exactly 0")

	p, err = MarginalProbability(ds, predicate.InRange("Age", 0, 30))
	require.NoError(t, err)
	assert.Equal(t, 1.0, p, "all eligible rows give exactly 1")

	for _, op := range predicate.Operators() {
		var pred predicate.Predicate
		if op == predicate.OpInRange {
			pred = predicate.InRange("Age", 20, 28)
		} else {
			pred = predicate.Predicate{Column: "Age", Op: op, Operand: predicate.Scalar{Value: ir.Number(24)}}
		}
		p, err := MarginalProbability(ds, pred)
		require.NoError(t, err, op.String())
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestMarginal_MissingExcludedFromDenominator(t *testing.T) {
	ds := testutil.Sparse(t)

	// 3 non-missing scores (10, 30, 40); two are >= 30
	p, err := MarginalProbability(ds, predicate.GreaterOrEqual("score", 30))
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, p, 1e-15)

	// 3 non-missing teams (A, B, A)
	p, err = MarginalProbability(ds, predicate.Equal("team", ir.Category("A")))
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, p, 1e-15)
}

func TestMarginal_EmptyDenominator(t *testing.T) {
	t.Run("fully missing column", func(t *testing.T) {
		_, err := MarginalProbability(testutil.Sparse(t), predicate.GreaterThan("rating", 1))
		require.Error(t, err)
		assert.True(t, ir.IsCode(err, ir.ErrCodeEmptyDenominator))
	})

	t.Run("empty dataset", func(t *testing.T) {
		_, err := MarginalProbability(testutil.Empty(t), predicate.Equal("Name", ir.Category("x")))
		require.Error(t, err)
		assert.True(t, ir.IsCode(err, ir.ErrCodeEmptyDenominator))
	})
}

func TestMarginal_Errors(t *testing.T) {
	ds := testutil.Players(t)

	_, err := MarginalProbability(ds, predicate.Equal("Team", ir.Category("x")))
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownColumn))

	_, err = MarginalProbability(nil, predicate.Equal("Name", ir.Category("x")))
	assert.ErrorIs(t, err, ErrNilDataset)
}

func TestJoint(t *testing.T) {
	ds := testutil.Players(t)

	p, err := JointProbability(ds, predicate.Equal("Name", ir.Category("Bob")), predicate.LessThan("Age", 25))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)

	p, err = JointProbability(ds, predicate.GreaterOrEqual("Age", 22), predicate.LessOrEqual("Age", 27))
	require.NoError(t, err)
	assert.Equal(t, 0.6, p)
}

func TestJoint_Commutative(t *testing.T) {
	ds := testutil.Defense(t)

	preds := []predicate.Predicate{
		predicate.GreaterOrEqual("yards", 170),
		predicate.Equal("result", ir.Category("L")),
		predicate.InRange("d_rank", 2, 3),
		predicate.LessThan("week", 3),
		predicate.Equal("d_rank", ir.Number(4)),
	}

	for _, a := range preds {
		for _, b := range preds {
			ab, err := JointProbability(ds, a, b)
			require.NoError(t, err)
			ba, err := JointProbability(ds, b, a)
			require.NoError(t, err)
			assert.Equal(t, ab, ba, "%s / %s", a, b)
		}
	}
}

func TestJoint_EmptyDatasetIsZero(t *testing.T) {
	ds := testutil.Empty(t)

	p, err := JointProbability(ds, predicate.Equal("Name", ir.Category("a")), predicate.GreaterThan("Age", 1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
}

func TestJoint_DenominatorIsRowCount(t *testing.T) {
	ds := testutil.Sparse(t)

	// rows 0 and 3 are team A; both have a score; 4 rows total
	p, err := JointProbability(ds, predicate.Equal("team", ir.Category("A")), predicate.GreaterThan("score", 0))
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)
}

func TestConditional(t *testing.T) {
	ds := testutil.Players(t)

	p, err := ConditionalProbability(ds, []predicate.Predicate{
		predicate.Equal("Name", ir.Category("David")),
		predicate.LessOrEqual("Age", 25),
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, p, 1e-15)
}

func TestConditional_MultipleConditions(t *testing.T) {
	ds := testutil.Defense(t)

	// weeks 2..4 with yards >= 75: rows 1, 2, 3; losses among them: rows 1, 3
	p, err := ConditionalProbability(ds, []predicate.Predicate{
		predicate.Equal("result", ir.Category("L")),
		predicate.GreaterOrEqual("week", 2),
		predicate.GreaterOrEqual("yards", 75),
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, p, 1e-15)
}

func TestConditional_ConditionOrderIrrelevant(t *testing.T) {
	ds := testutil.Defense(t)
	event := predicate.Equal("result", ir.Category("W"))
	a := predicate.LessOrEqual("d_rank", 3)
	b := predicate.LessThan("yards", 190)
	c := predicate.GreaterThan("week", 1)

	orders := [][]predicate.Predicate{
		{event, a, b, c},
		{event, a, c, b},
		{event, b, a, c},
		{event, b, c, a},
		{event, c, a, b},
		{event, c, b, a},
	}

	want, err := ConditionalProbability(ds, orders[0])
	require.NoError(t, err)
	for _, list := range orders[1:] {
		got, err := ConditionalProbability(ds, list)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestConditional_EventAmongConditions(t *testing.T) {
	ds := testutil.Players(t)
	event := predicate.GreaterThan("Age", 23)

	p, err := ConditionalProbability(ds, []predicate.Predicate{event, predicate.LessThan("Age", 29), event})
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	p, err = ConditionalProbability(ds, []predicate.Predicate{event, event})
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)
}

func TestConditional_EmptyConditioningSetIsZero(t *testing.T) {
	ds := testutil.Players(t)

	// Contradictory bounds on one column
	p, err := ConditionalProbability(ds, []predicate.Predicate{
		predicate.Equal("Name", ir.Category("Eve")),
		predicate.GreaterThan("Age", 25),
		predicate.LessThan("Age", 20),
	})
	require.NoError(t, err, "empty conditioning set is not a failure")
	assert.Equal(t, 0.0, p)

	// Duplicate conditions are idempotent
	p, err = ConditionalProbability(ds, []predicate.Predicate{
		predicate.Equal("Name", ir.Category("Eve")),
		predicate.GreaterThan("Age", 25),
		predicate.GreaterThan("Age", 25),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)
}

func TestConditional_InsufficientConditions(t *testing.T) {
	ds := testutil.Players(t)

	for _, preds := range [][]predicate.Predicate{
		nil,
		{predicate.GreaterThan("Age", 1)},
	} {
		_, err := ConditionalProbability(ds, preds)
		require.Error(t, err)
		assert.True(t, ir.IsCode(err, ir.ErrCodeInsufficientConditions))
	}
}

func TestConditional_InvalidConditionAfterEmptySet(t *testing.T) {
	ds := testutil.Players(t)

	// The first condition empties the set, the second is still rejected
	_, err := ConditionalProbability(ds, []predicate.Predicate{
		predicate.Equal("Name", ir.Category("Eve")),
		predicate.GreaterThan("Age", 1000),
		predicate.GreaterThan("Height", 1),
	})
	require.Error(t, err)
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownColumn))
}

func TestConditional_DistinctFromFailures(t *testing.T) {
	ds := testutil.Players(t)

	_, condErr := ConditionalProbability(ds, []predicate.Predicate{
		predicate.Equal("Name", ir.Category("Eve")),
		predicate.GreaterThan("Age", 1000),
	})
	_, bayesErr := BayesInvert(ds, predicate.Equal("Name", ir.Category("Eve")), predicate.GreaterThan("Age", 1000))

	assert.NoError(t, condErr)
	assert.True(t, ir.IsCode(bayesErr, ir.ErrCodeDivisionByZero))
	assert.NotEqual(t, ir.CodeOf(bayesErr), ir.ErrCodeEmptyDenominator)
}

func TestRun(t *testing.T) {
	ds := testutil.Players(t)
	e := New()

	tests := []struct {
		name string
		q    predicate.Query
		want float64
	}{
		{
			name: "marginal",
			q:    predicate.Query{Kind: predicate.QueryMarginal, Predicates: []predicate.Predicate{predicate.Equal("Name", ir.Category("David"))}},
			want: 0.2,
		},
		{
			name: "joint",
			q: predicate.Query{Kind: predicate.QueryJoint, Predicates: []predicate.Predicate{
				predicate.Equal("Name", ir.Category("Bob")), predicate.LessThan("Age", 25),
			}},
			want: 0,
		},
		{
			name: "conditional",
			q: predicate.Query{Kind: predicate.QueryConditional, Predicates: []predicate.Predicate{
				predicate.Equal("Name", ir.Category("David")), predicate.LessOrEqual("Age", 25),
			}},
			want: 1.0 / 3.0,
		},
		{
			name: "bayes",
			q: predicate.Query{Kind: predicate.QueryBayes, Predicates: []predicate.Predicate{
				predicate.Equal("Name", ir.Category("David")), predicate.LessOrEqual("Age", 25),
			}},
			want: 1.0 / 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Run(ds, tt.q)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestRun_Arity(t *testing.T) {
	ds := testutil.Players(t)
	e := New()

	_, err := e.Run(ds, predicate.Query{Kind: predicate.QueryBayes, Predicates: []predicate.Predicate{predicate.GreaterThan("Age", 1)}})
	assert.True(t, ir.IsCode(err, ir.ErrCodeInsufficientConditions))

	_, err = e.Run(ds, predicate.Query{Kind: predicate.QueryMarginal})
	assert.Error(t, err)

	_, err = e.Run(ds, predicate.Query{Kind: "median"})
	assert.Error(t, err)
}

func TestEngine_ProbabilitiesNeverNaN(t *testing.T) {
	ds := testutil.Sparse(t)
	e := New()

	p, err := e.Marginal(ds, predicate.GreaterThan("score", 0))
	require.NoError(t, err)
	assert.False(t, math.IsNaN(p))

	p, err = e.Conditional(ds, []predicate.Predicate{predicate.GreaterThan("score", 0), predicate.GreaterThan("rating", 0)})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(p))
	assert.Equal(t, 0.0, p)
}
