// Package stats computes the descriptive statistics written under each
// trait column of a report.
package stats

import (
	"math"
	"sort"

	"github.com/starford/wormbox/internal/models"
)

// Summary holds the statistics of one column. Every field is NA when the
// column has no values.
type Summary struct {
	N      models.Value `json:"n"`
	Mean   models.Value `json:"mean"`
	Std    models.Value `json:"std"`
	PopStd models.Value `json:"pop_std"`
	Min    models.Value `json:"min"`
	Q1     models.Value `json:"q1"`
	Median models.Value `json:"median"`
	Q3     models.Value `json:"q3"`
	Max    models.Value `json:"max"`
}

// Row labels in the order they are written.
var Labels = []string{"n", "mean", "std", "pop_std", "min", "1st_q", "median", "3rd_q", "max"}

// Fields returns the values in Labels order.
func (s Summary) Fields() []models.Value {
	return []models.Value{s.N, s.Mean, s.Std, s.PopStd, s.Min, s.Q1, s.Median, s.Q3, s.Max}
}

// Compute summarizes samples. NA values must already be removed.
//
// std divides the sum of squares by n. pop_std divides it by (n-1)/n,
// which is what earlier reports contain; it is kept so results stay
// comparable. With a single sample that divisor is zero and pop_std is NA.
func Compute(samples []float64) Summary {
	n := len(samples)
	if n == 0 {
		na := models.NA()
		return Summary{na, na, na, na, na, na, na, na, na}
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var ss float64
	for _, v := range sorted {
		ss += (v - mean) * (v - mean)
	}
	fn := float64(n)

	popStd := models.NA()
	if n > 1 {
		popStd = models.Num(math.Sqrt(ss / ((fn - 1) / fn)))
	}

	five := FiveNum(sorted)
	return Summary{
		N:      models.Num(fn),
		Mean:   models.Num(mean),
		Std:    models.Num(math.Sqrt(ss / fn)),
		PopStd: popStd,
		Min:    models.Num(five[0]),
		Q1:     models.Num(five[1]),
		Median: models.Num(five[2]),
		Q3:     models.Num(five[3]),
		Max:    models.Num(five[4]),
	}
}

// FiveNum returns Tukey's five-number summary (minimum, lower hinge,
// median, upper hinge, maximum) of sorted, which must be non-empty and
// in ascending order.
func FiveNum(sorted []float64) [5]float64 {
	n := float64(len(sorted))
	n4 := math.Floor((n+3)/2) / 2
	depths := [5]float64{1, n4, (n + 1) / 2, n + 1 - n4, n}

	var out [5]float64
	for i, d := range depths {
		lo := sorted[int(math.Floor(d))-1]
		hi := sorted[int(math.Ceil(d))-1]
		out[i] = 0.5 * (lo + hi)
	}
	return out
}

// Values strips NA entries from vals.
func Values(vals []models.Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.Valid {
			out = append(out, v.V)
		}
	}
	return out
}
