// Package evaluator computes aspect values for images.
package evaluator

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/starford/wormbox/internal/expr"
	"github.com/starford/wormbox/internal/models"
)

// Evaluate computes spec on img. It never fails: when the value cannot be
// computed the aspect carries NA and reason explains why.
func Evaluate(img *models.Image, spec models.AspectSpec) (a models.Aspect, reason string) {
	a = models.Aspect{ID: spec.ID, Name: spec.Name, Kind: spec.Kind}

	switch spec.Kind {
	case models.KindAlgebraic:
		a.Equation, a.Value, reason = algebraic(img, spec)

	case models.KindMeristic:
		for _, lm := range img.Landmarks() {
			if lm.Name == spec.Name {
				a.Landmarks = append(a.Landmarks, lm)
			}
		}
		a.Value = models.Num(float64(len(a.Landmarks)))

	default:
		var missing []string
		for _, name := range spec.LandmarkNames {
			found := false
			for _, lm := range img.Landmarks() {
				if lm.Name == name {
					a.Landmarks = append(a.Landmarks, lm)
					found = true
				}
			}
			if !found {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 || len(a.Landmarks) != len(spec.LandmarkNames) {
			a.Value = models.NA()
			if len(missing) > 0 {
				reason = "missing landmarks: " + strings.Join(missing, ",")
			} else {
				reason = fmt.Sprintf("expected %d landmarks, found %d", len(spec.LandmarkNames), len(a.Landmarks))
			}
			return a, reason
		}
		a.Value = models.Num(PathLength(a.Landmarks))
	}
	return a, reason
}

// PathLength sums the distances between consecutive landmarks. A chain of
// fewer than two landmarks has length 0.
func PathLength(chain []models.Landmark) float64 {
	var total float64
	for i := 0; i+1 < len(chain); i++ {
		total += Distance(chain[i], chain[i+1])
	}
	return total
}

// Distance is the Euclidean distance between two landmarks.
func Distance(a, b models.Landmark) float64 {
	return math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y))
}

// algebraic resolves every variable of spec against the aspects already
// evaluated on img. Pseudoreplicates are averaged over their non-NA values.
func algebraic(img *models.Image, spec models.AspectSpec) (string, models.Value, string) {
	vars := make(map[string]float64, len(spec.Variables))
	values := make(map[string]models.Value, len(spec.Variables))
	for _, name := range spec.Variables {
		instances := img.AspectsNamed(name)
		if len(instances) == 0 {
			values[name] = models.NA()
			continue
		}
		values[name] = Mean(instances)
		if v := values[name]; v.Valid {
			vars[name] = v.V
		}
	}

	equation := expr.Substitute(spec.Expression, func(name string) string {
		if v, ok := values[name]; ok {
			return v.String()
		}
		return models.NAToken
	})

	for _, name := range spec.Variables {
		if len(img.AspectsNamed(name)) == 0 {
			return equation, models.NA(), fmt.Sprintf("aspect %q not evaluated on image", name)
		}
		if values[name].IsNA() {
			return equation, models.NA(), fmt.Sprintf("aspect %q is NA", name)
		}
	}

	v, err := expr.Eval(spec.Expression, vars)
	if err != nil {
		return equation, models.NA(), err.Error()
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return equation, models.NA(), "non-finite result"
	}
	return equation, models.Num(v), ""
}

// Mean averages the non-NA values of aspects; NA when none is available.
func Mean(aspects []models.Aspect) models.Value {
	var sum float64
	n := 0
	for _, a := range aspects {
		if a.Value.IsNA() {
			continue
		}
		sum += a.Value.V
		n++
	}
	if n == 0 {
		return models.NA()
	}
	return models.Num(sum / float64(n))
}

// Images is the set of images an evaluation pass runs over.
type Images interface {
	Images() []*models.Image
}

// EvaluateAll evaluates specs in order on every image and attaches the
// results. NA outcomes are logged at debug level; they are not errors.
func EvaluateAll(store Images, specs []models.AspectSpec, logger *slog.Logger) int {
	na := 0
	for _, img := range store.Images() {
		for _, spec := range specs {
			a, reason := Evaluate(img, spec)
			if a.Value.IsNA() {
				na++
				logger.Debug("aspect is NA",
					slog.String("image", img.Filename),
					slog.String("aspect", spec.ID),
					slog.String("reason", reason))
			}
			img.AddAspect(a)
		}
	}
	return na
}
