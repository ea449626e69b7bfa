package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/starford/wormbox/internal/apperr"
)

var (
	// runsTotal counts pipeline runs by outcome.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wormbox_runs_total",
		Help: "Total analysis runs by result",
	}, []string{"result"})

	// runDuration tracks end-to-end run latency, skipped runs included.
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wormbox_run_duration_seconds",
		Help:    "Analysis run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	imagesAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wormbox_images_analyzed_total",
		Help: "Images evaluated across all written reports",
	})

	naValues = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wormbox_na_values_total",
		Help: "Aspect values that evaluated to NA",
	})
)

// runResult classifies a finished run for the result label.
func runResult(res *Result, err error) string {
	switch {
	case err == nil && res.Skipped:
		return "skipped"
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, apperr.ErrCanceled):
		return "canceled"
	case IsInputError(err), errors.Is(err, apperr.ErrInvalidRequest):
		return "input_error"
	default:
		return "error"
	}
}

func observeRun(start time.Time, res *Result, err error) {
	runDuration.Observe(time.Since(start).Seconds())
	runsTotal.WithLabelValues(runResult(res, err)).Inc()
	if err == nil && !res.Skipped {
		imagesAnalyzed.Add(float64(res.Images))
		naValues.Add(float64(res.NACount))
	}
}
