package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{NA(), "NA"},
		{Num(7), "7"},
		{Num(1.4), "1.4"},
		{Num(-0.25), "-0.25"},
		{Num(math.Inf(1)), "+Inf"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.v.String())
	}
}

func TestValueJSON(t *testing.T) {
	in := []Value{Num(2.5), NA(), Num(math.Inf(-1))}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[2.5,null,"-Inf"]`, string(data))

	var out []Value
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 3)
	assert.Equal(t, Num(2.5), out[0])
	assert.True(t, out[1].IsNA())
	assert.True(t, math.IsInf(out[2].V, -1))

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &v), "non-numeric string")
}

func TestAddLandmark_Identity(t *testing.T) {
	img := NewImage("A.tif")
	img.AddLandmark(Landmark{Name: "1", X: 0, Y: 0})
	img.AddLandmark(Landmark{Name: "hook", X: 1, Y: 1})
	img.AddLandmark(Landmark{Name: "hook", X: 2, Y: 2})
	img.AddLandmark(Landmark{Name: "1", X: 0, Y: 0})

	assert.Equal(t, []string{"1", "hook", "hook"}, img.LandmarkNames())
}

func TestAddAspect_ReplacesByID(t *testing.T) {
	img := NewImage("A.tif")
	img.AddAspect(Aspect{ID: "w:1,2", Name: "w", Value: Num(1)})
	img.AddAspect(Aspect{ID: "w:3,4", Name: "w", Value: Num(3)})
	img.AddAspect(Aspect{ID: "w:1,2", Name: "w", Value: Num(2)})

	require.Len(t, img.Aspects(), 2)
	a, ok := img.Aspect("w:1,2")
	require.True(t, ok)
	assert.Equal(t, Num(2), a.Value)
	assert.Len(t, img.AspectsNamed("w"), 2)

	_, ok = img.Aspect("missing")
	assert.False(t, ok)
}

func TestSpecIDAndKind(t *testing.T) {
	assert.Equal(t, "peri:1,2,3", SpecID("peri", []string{"1", "2", "3"}))
	assert.Equal(t, "meristic", KindMeristic.String())
	assert.Equal(t, "algebraic", KindAlgebraic.String())
	assert.Equal(t, "distance", KindDistance.String())
}
