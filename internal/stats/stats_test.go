package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wormbox/internal/models"
)

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil)
	for i, v := range s.Fields() {
		assert.True(t, v.IsNA(), "field %s should be NA", Labels[i])
	}
}

func TestCompute_Reference(t *testing.T) {
	s := Compute([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, models.Num(8), s.N)
	assert.Equal(t, models.Num(5), s.Mean)
	assert.Equal(t, models.Num(2), s.Std)
	assert.InDelta(t, math.Sqrt(32/(7.0/8.0)), s.PopStd.V, 1e-12)

	assert.Equal(t, 2.0, s.Min.V)
	assert.Equal(t, 4.0, s.Q1.V)
	assert.Equal(t, 4.5, s.Median.V)
	assert.Equal(t, 6.0, s.Q3.V)
	assert.Equal(t, 9.0, s.Max.V)
}

func TestCompute_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Compute(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestCompute_SingleSample(t *testing.T) {
	s := Compute([]float64{4})
	assert.Equal(t, 1.0, s.N.V)
	assert.Equal(t, 0.0, s.Std.V)
	assert.True(t, s.PopStd.IsNA())
	for _, v := range []models.Value{s.Min, s.Q1, s.Median, s.Q3, s.Max} {
		assert.Equal(t, 4.0, v.V)
	}
}

func TestFiveNum(t *testing.T) {
	cases := []struct {
		in   []float64
		want [5]float64
	}{
		{[]float64{1}, [5]float64{1, 1, 1, 1, 1}},
		{[]float64{1, 2}, [5]float64{1, 1, 1.5, 2, 2}},
		{[]float64{1, 2, 3}, [5]float64{1, 1.5, 2, 2.5, 3}},
		{[]float64{1, 2, 3, 4}, [5]float64{1, 1.5, 2.5, 3.5, 4}},
		{[]float64{1, 2, 3, 4, 5}, [5]float64{1, 2, 3, 4, 5}},
		{[]float64{1, 2, 3, 4, 5, 6, 7}, [5]float64{1, 2.5, 4, 5.5, 7}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FiveNum(tc.in), "%v", tc.in)
	}
}

func TestValues_StripsNA(t *testing.T) {
	got := Values([]models.Value{models.Num(1), models.NA(), models.Num(0)})
	assert.Equal(t, []float64{1, 0}, got)
}
