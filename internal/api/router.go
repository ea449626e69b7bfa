package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/wormbox/internal/analysis"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// Run history routes are only mounted when svc records runs.
func NewRouter(svc *analysis.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Folder.
	r.Get("/files", h.ListFiles)

	// Analysis.
	r.Post("/analyze", h.Analyze)
	r.Post("/evaluate", h.Evaluate)

	// Run history.
	if svc.Runs() != nil {
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
		r.Get("/runs/{id}/report.csv", h.GetReport)
		r.Get("/runs/{id}/measurements", h.ListMeasurements)
		r.Delete("/runs/{id}", h.DeleteRun)
	}

	return r
}
