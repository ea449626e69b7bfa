package api

import (
	"github.com/starford/wormbox/internal/analysis"
	"github.com/starford/wormbox/internal/index"
	"github.com/starford/wormbox/internal/models"
	"github.com/starford/wormbox/internal/report"
)

// AnalyzeRequest is the request body for running an analysis.
type AnalyzeRequest struct {
	AspectsFile   string `json:"aspects_file" example:"config.txt"`
	Output        string `json:"output" example:"results"`
	SkipUnchanged bool   `json:"skip_unchanged"`
}

// EvaluateRequest is the request body for an in-memory evaluation.
type EvaluateRequest struct {
	Coordinates string `json:"coordinates" example:"A.tif:1\t0\t0" validate:"required"`
	Aspects     string `json:"aspects" example:"peri:1,2,3" validate:"required"`
}

// AnalyzeResponse is the summary of a finished run (aliased from the domain layer).
type AnalyzeResponse = analysis.Result

// EvaluateResponse wraps an in-memory report.
type EvaluateResponse struct {
	Report  *report.Report `json:"report" validate:"required"`
	NACount int            `json:"na_count" example:"2"`
}

// FileListResponse wraps the coordinate files of the data folder.
type FileListResponse struct {
	Files []models.DataFile `json:"files" validate:"required"`
}

// RunListResponse wraps recorded runs.
type RunListResponse struct {
	Runs []index.RunRow `json:"runs" validate:"required"`
}

// RunDetail is a recorded run with its summary statistics.
type RunDetail struct {
	index.RunRow
	Summaries []index.SummaryRow `json:"summaries" validate:"required"`
}

// MeasurementListResponse wraps the evaluated aspects of a run.
type MeasurementListResponse struct {
	Measurements []index.MeasurementRow `json:"measurements" validate:"required"`
}
