package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wormbox/internal/analysis"
	"github.com/starford/wormbox/internal/models"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *analysis.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *analysis.Service) *Handler {
	return &Handler{svc: svc}
}

// ListFiles handles GET /api/files.
//
//	@Summary		List the coordinate files of the data folder
//	@Tags			folder
//	@Produce		json
//	@Param			suffix	query		string	false	"File name suffix"
//	@Success		200		{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.ListCoordinateFiles(r.URL.Query().Get("suffix"))
	if err != nil {
		writeError(w, "list files", err)
		return
	}
	if files == nil {
		files = []models.DataFile{}
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files})
}

// Analyze handles POST /api/analyze.
//
//	@Summary		Run the measurement pipeline over the data folder
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AnalyzeRequest	false	"Run options"
//	@Success		200		{object}	AnalyzeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.Run(r.Context(), analysis.Request{
		AspectsFile:   req.AspectsFile,
		Output:        req.Output,
		SkipUnchanged: req.SkipUnchanged,
	})
	if err != nil {
		writeError(w, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Evaluate handles POST /api/evaluate.
//
//	@Summary		Evaluate inline coordinates and aspects without writing anything
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EvaluateRequest	true	"Inputs"
//	@Success		200		{object}	EvaluateResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/evaluate [post]
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Coordinates == "" || req.Aspects == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("coordinates and aspects are required"))
		return
	}
	rep, na, err := analysis.Evaluate(req.Coordinates, req.Aspects, slog.Default())
	if err != nil {
		writeError(w, "evaluate", err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{Report: rep, NACount: na})
}

// ListRuns handles GET /api/runs.
//
//	@Summary		List recorded runs of the data folder, newest first
//	@Tags			runs
//	@Produce		json
//	@Param			limit	query		int	false	"Max results"
//	@Success		200		{object}	RunListResponse
//	@Security		BearerAuth
//	@Router			/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.Runs().ListRuns(h.svc.Folder(), limit)
	if err != nil {
		writeError(w, "list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: nonNilSlice(runs)})
}

// GetRun handles GET /api/runs/{id}.
//
//	@Summary		Get a recorded run with its summary statistics
//	@Tags			runs
//	@Produce		json
//	@Param			id	path		string	true	"Run id"
//	@Success		200	{object}	RunDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.svc.Runs().GetRun(id)
	if err != nil {
		writeError(w, "get run", err)
		return
	}
	summaries, err := h.svc.Runs().Summaries(id)
	if err != nil {
		writeError(w, "get run", err)
		return
	}
	writeJSON(w, http.StatusOK, RunDetail{RunRow: *run, Summaries: nonNilSlice(summaries)})
}

// GetReport handles GET /api/runs/{id}/report.csv.
//
//	@Summary		Download the CSV report of a recorded run
//	@Tags			runs
//	@Produce		text/csv
//	@Param			id	path		string	true	"Run id"
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{id}/report.csv [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Runs().GetRun(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get report", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(run.Output)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(run.ReportCSV))
}

// ListMeasurements handles GET /api/runs/{id}/measurements.
//
//	@Summary		List the evaluated aspects of a recorded run
//	@Tags			runs
//	@Produce		json
//	@Param			id		path		string	true	"Run id"
//	@Param			aspect	query		string	false	"Restrict to one aspect name"
//	@Success		200		{object}	MeasurementListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{id}/measurements [get]
func (h *Handler) ListMeasurements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Runs().GetRun(id); err != nil {
		writeError(w, "list measurements", err)
		return
	}
	ms, err := h.svc.Runs().Measurements(id, r.URL.Query().Get("aspect"))
	if err != nil {
		writeError(w, "list measurements", err)
		return
	}
	writeJSON(w, http.StatusOK, MeasurementListResponse{Measurements: nonNilSlice(ms)})
}

// DeleteRun handles DELETE /api/runs/{id}.
//
//	@Summary		Delete a recorded run
//	@Tags			runs
//	@Param			id	path	string	true	"Run id"
//	@Success		204	"Run deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{id} [delete]
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Runs().DeleteRun(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete run", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
