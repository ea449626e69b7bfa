package evaluator

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wormbox/internal/coords"
	"github.com/starford/wormbox/internal/models"
	"github.com/starford/wormbox/internal/parser"
)

func image(lms ...models.Landmark) *models.Image {
	img := models.NewImage("A.tif")
	for _, lm := range lms {
		img.AddLandmark(lm)
	}
	return img
}

func lm(name string, x, y float64) models.Landmark {
	return models.Landmark{Name: name, X: x, Y: y}
}

func spec(t *testing.T, line string) models.AspectSpec {
	t.Helper()
	s, err := parser.ParseLine(line, "config.txt", 1)
	require.NoError(t, err)
	return s
}

func TestEvaluate_Perimeter(t *testing.T) {
	img := image(lm("1", 0, 0), lm("2", 3, 0), lm("3", 3, 4))
	a, reason := Evaluate(img, spec(t, "peri:1,2,3"))
	require.Empty(t, reason)
	assert.Equal(t, models.Num(7), a.Value)
	assert.Len(t, a.Landmarks, 3)
}

func TestEvaluate_ChainFollowsWrittenOrder(t *testing.T) {
	img := image(lm("1", 0, 0), lm("2", 3, 0), lm("3", 3, 4))
	a, _ := Evaluate(img, spec(t, "p:3,1,2"))
	// 3->1 is 5, 1->2 is 3.
	assert.Equal(t, 8.0, a.Value.V)
}

func TestEvaluate_SingleLandmarkChainIsZero(t *testing.T) {
	img := image(lm("1", 5, 5))
	a, reason := Evaluate(img, spec(t, "dot:1"))
	require.Empty(t, reason)
	assert.Equal(t, models.Num(0), a.Value)
}

func TestEvaluate_MissingLandmarkIsNA(t *testing.T) {
	img := image(lm("1", 0, 0), lm("2", 3, 0))
	a, reason := Evaluate(img, spec(t, "peri:1,2,3"))
	assert.True(t, a.Value.IsNA())
	assert.Contains(t, reason, "3")
}

func TestEvaluate_DuplicateNameInChainIsNA(t *testing.T) {
	img := image(lm("1", 0, 0), lm("1", 1, 1), lm("2", 3, 0))
	a, _ := Evaluate(img, spec(t, "w:1,2"))
	assert.True(t, a.Value.IsNA())
}

func TestEvaluate_Meristic(t *testing.T) {
	img := image(lm("hooks", 0, 0), lm("hooks", 1, 0), lm("hooks", 2, 0), lm("1", 0, 0))
	a, reason := Evaluate(img, spec(t, "hooks:count"))
	require.Empty(t, reason)
	assert.Equal(t, models.Num(3), a.Value)
}

func TestEvaluate_MeristicZero(t *testing.T) {
	img := image(lm("1", 0, 0))
	a, _ := Evaluate(img, spec(t, "hooks:count"))
	assert.Equal(t, models.Num(0), a.Value)
}

func TestEvaluate_Algebraic(t *testing.T) {
	img := image(lm("1", 0, 0), lm("2", 6, 0), lm("3", 6, 3))
	img.AddAspect(mustEval(t, img, "width:1,2"))
	img.AddAspect(mustEval(t, img, "height:2,3"))

	a, reason := Evaluate(img, spec(t, "ratio:{width}/{height}"))
	require.Empty(t, reason)
	assert.Equal(t, models.Num(2), a.Value)
	assert.Equal(t, "6/3", a.Equation)
}

func TestEvaluate_AlgebraicNAPropagates(t *testing.T) {
	img := image(lm("1", 0, 0), lm("2", 6, 0))
	img.AddAspect(mustEval(t, img, "width:1,2"))
	img.AddAspect(mustEval(t, img, "height:2,3"))

	a, reason := Evaluate(img, spec(t, "ratio:{width}/{height}"))
	assert.True(t, a.Value.IsNA())
	assert.Contains(t, reason, "height")
	assert.Equal(t, "6/NA", a.Equation)
}

func TestEvaluate_AlgebraicUnknownAspectIsNA(t *testing.T) {
	img := image(lm("1", 0, 0))
	a, _ := Evaluate(img, spec(t, "ratio:{width}*2"))
	assert.True(t, a.Value.IsNA())
}

func TestEvaluate_AlgebraicDivisionByZeroIsNA(t *testing.T) {
	img := image(lm("1", 0, 0), lm("2", 6, 0))
	img.AddAspect(mustEval(t, img, "width:1,2"))
	img.AddAspect(mustEval(t, img, "zero:1"))
	a, _ := Evaluate(img, spec(t, "r:{width}/{zero}"))
	assert.True(t, a.Value.IsNA())
}

func TestEvaluate_AlgebraicOverflowIsNA(t *testing.T) {
	img := image(lm("1", 0, 0), lm("2", 3, 0))
	img.AddAspect(mustEval(t, img, "w:1,2"))

	a, reason := Evaluate(img, spec(t, "big:{w}*1e308"))
	assert.True(t, a.Value.IsNA())
	assert.Equal(t, "non-finite result", reason)
	assert.Equal(t, "3*1e308", a.Equation)
}

func TestEvaluate_AlgebraicAveragesPseudoreplicates(t *testing.T) {
	img := image(lm("1", 0, 0), lm("2", 3, 0), lm("3", 0, 5))
	img.AddAspect(mustEval(t, img, "side:1,2"))
	img.AddAspect(mustEval(t, img, "side:1,3"))
	a, _ := Evaluate(img, spec(t, "double:{side}*2"))
	assert.Equal(t, models.Num(8), a.Value)
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Distance(lm("a", 0, 0), lm("b", 3, 4)))
	assert.Equal(t, 0.0, PathLength(nil))
	assert.InDelta(t, 2*math.Sqrt2, PathLength([]models.Landmark{lm("a", 0, 0), lm("b", 1, 1), lm("c", 2, 2)}), 1e-12)
}

func TestMean(t *testing.T) {
	assert.Equal(t, models.Num(4), Mean([]models.Aspect{{Value: models.Num(3)}, {Value: models.Num(5)}}))
	assert.Equal(t, models.Num(3), Mean([]models.Aspect{{Value: models.Num(3)}, {Value: models.NA()}}))
	assert.True(t, Mean([]models.Aspect{{Value: models.NA()}}).IsNA())
	assert.True(t, Mean(nil).IsNA())
}

func TestEvaluateAll_AttachesInFileOrder(t *testing.T) {
	store := coords.NewStore()
	store.Add(coords.Record{Image: "A.tif", Landmark: "1", X: 0, Y: 0})
	store.Add(coords.Record{Image: "A.tif", Landmark: "2", X: 3, Y: 0})
	store.Add(coords.Record{Image: "B.tif", Landmark: "1", X: 0, Y: 0})

	specs := []models.AspectSpec{spec(t, "w:1,2"), spec(t, "twice:{w}*2")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	na := EvaluateAll(store, specs, logger)
	assert.Equal(t, 2, na)

	a, _ := store.Image("A.tif")
	require.Len(t, a.Aspects(), 2)
	assert.Equal(t, models.Num(6), a.Aspects()[1].Value)

	b, _ := store.Image("B.tif")
	assert.True(t, b.Aspects()[1].Value.IsNA())
}

func mustEval(t *testing.T, img *models.Image, line string) models.Aspect {
	t.Helper()
	a, _ := Evaluate(img, spec(t, line))
	return a
}
