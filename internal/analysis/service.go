// Package analysis runs the measurement pipeline over a data folder:
// discovery, ingestion, aspect parsing, evaluation, report and output.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/wormbox/internal/apperr"
	"github.com/starford/wormbox/internal/checksum"
	"github.com/starford/wormbox/internal/coords"
	"github.com/starford/wormbox/internal/evaluator"
	"github.com/starford/wormbox/internal/index"
	"github.com/starford/wormbox/internal/models"
	"github.com/starford/wormbox/internal/parser"
	"github.com/starford/wormbox/internal/report"
	"github.com/starford/wormbox/internal/storage"
)

// Defaults used when a Request leaves a field empty.
const (
	DefaultSuffix      = "_data.txt"
	DefaultAspectsFile = "config.txt"
	DefaultOutput      = "results"
)

// OutputNamer chooses the name of the report file. def is the proposed
// name without extension. Returning apperr.ErrCanceled aborts the run
// before anything is written.
type OutputNamer func(ctx context.Context, def string) (string, error)

// Request describes one analysis run.
type Request struct {
	Suffix      string
	AspectsFile string // relative to the folder
	Output      string // report name; ".csv" is appended when missing
	NameOutput  OutputNamer
	// AllowAbsoluteAspects lets AspectsFile name any file on disk. Only
	// the local CLI sets it.
	AllowAbsoluteAspects bool
	// SkipUnchanged returns early when the inputs match the newest
	// recorded run of the folder.
	SkipUnchanged bool
}

// Result summarizes a finished run.
type Result struct {
	RunID       string         `json:"run_id,omitempty"`
	Folder      string         `json:"folder"`
	AspectsFile string         `json:"aspects_file"`
	Output      string         `json:"output,omitempty"`
	Files       []string       `json:"files"`
	Images      int            `json:"images"`
	NACount     int            `json:"na_count"`
	Fingerprint string         `json:"fingerprint"`
	Skipped     bool           `json:"skipped"`
	Report      *report.Report `json:"report,omitempty"`
}

// Service runs analyses over the folder behind store. runs may be nil, in
// which case nothing is recorded.
type Service struct {
	store  storage.Provider
	runs   index.RunIndex
	logger *slog.Logger
}

// NewService creates a new analysis service.
func NewService(store storage.Provider, runs index.RunIndex, logger *slog.Logger) *Service {
	return &Service{store: store, runs: runs, logger: logger}
}

// Folder returns the absolute data folder path.
func (s *Service) Folder() string {
	return s.store.Root()
}

// Runs returns the run history, or nil when recording is disabled.
func (s *Service) Runs() index.RunIndex {
	return s.runs
}

// ListCoordinateFiles returns the coordinate files of the folder in
// ascending path order.
func (s *Service) ListCoordinateFiles(suffix string) ([]models.DataFile, error) {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return s.store.List(suffix)
}

// Run executes the whole pipeline once.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := s.run(ctx, req)
	observeRun(start, res, err)
	return res, err
}

func (s *Service) run(ctx context.Context, req Request) (*Result, error) {
	if req.AspectsFile == "" {
		req.AspectsFile = DefaultAspectsFile
	}
	if req.Output == "" {
		req.Output = DefaultOutput
	}
	if filepath.IsAbs(req.AspectsFile) && !req.AllowAbsoluteAspects {
		return nil, fmt.Errorf("%w: aspects_file must be relative to the data folder", apperr.ErrInvalidRequest)
	}
	if err := checkOutputName(req.Output); err != nil {
		return nil, err
	}

	files, err := s.ListCoordinateFiles(req.Suffix)
	if err != nil {
		return nil, err
	}
	aspectsData, err := s.readAspects(req.AspectsFile)
	if err != nil {
		return nil, err
	}

	parts := make(map[string]string, len(files)+1)
	res := &Result{
		Folder:      s.store.Root(),
		AspectsFile: req.AspectsFile,
		Files:       make([]string, 0, len(files)),
	}
	for _, f := range files {
		parts[f.Path] = f.Checksum
		res.Files = append(res.Files, f.Path)
	}
	parts["aspects:"+req.AspectsFile] = checksum.Sum(aspectsData)
	res.Fingerprint = checksum.Combine(parts)

	if req.SkipUnchanged && s.runs != nil {
		latest, err := s.runs.LatestFingerprint(res.Folder)
		if err != nil {
			return nil, err
		}
		if latest == res.Fingerprint {
			s.logger.Info("inputs unchanged, skipping run", slog.String("folder", res.Folder))
			res.Skipped = true
			return res, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store := coords.NewStore()
	for _, f := range files {
		data, err := s.store.Read(f.Path)
		if err != nil {
			return nil, err
		}
		if err := store.Ingest(bytes.NewReader(data), f.Path); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	specs, err := parser.Parse(bytes.NewReader(aspectsData), req.AspectsFile)
	if err != nil {
		return nil, err
	}

	res.NACount = evaluator.EvaluateAll(store, specs, s.logger)
	images := store.Images()
	res.Images = len(images)
	res.Report = report.Build(images, parser.Names(specs))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	output := req.Output
	if req.NameOutput != nil {
		output, err = req.NameOutput(ctx, strings.TrimSuffix(req.Output, ".csv"))
		if err != nil {
			return nil, err
		}
		if err := checkOutputName(output); err != nil {
			return nil, err
		}
	}
	res.Output = OutputFile(output)

	var buf bytes.Buffer
	if err := res.Report.WriteCSV(&buf); err != nil {
		return nil, err
	}
	if err := s.store.Write(res.Output, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	s.logger.Info("analysis complete",
		slog.String("folder", res.Folder),
		slog.String("output", res.Output),
		slog.Int("files", len(files)),
		slog.Int("images", res.Images),
		slog.Int("aspects", len(specs)),
		slog.Int("na", res.NACount))

	if s.runs != nil {
		id, err := s.runs.RecordRun(index.RunRow{
			Folder:      res.Folder,
			AspectsFile: res.AspectsFile,
			Output:      res.Output,
			Fingerprint: res.Fingerprint,
			Images:      res.Images,
			NACount:     res.NACount,
			ReportCSV:   buf.String(),
		}, images, res.Report)
		if err != nil {
			return nil, err
		}
		res.RunID = id
	}
	return res, nil
}

// readAspects reads the aspects file from the folder, or from disk when
// given an absolute path.
func (s *Service) readAspects(path string) ([]byte, error) {
	if !filepath.IsAbs(path) {
		return s.store.Read(path)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, apperr.ErrNotFound)
	}
	return data, err
}

// checkOutputName rejects report names that would leave the data folder
// root.
func checkOutputName(name string) error {
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: output %q must be a file name", apperr.ErrInvalidRequest, name)
	}
	return nil
}

// OutputFile returns name with a ".csv" extension.
func OutputFile(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		return name
	}
	return name + ".csv"
}

// Evaluate runs ingestion, parsing, evaluation and report building over
// in-memory inputs. Nothing is written or recorded.
func Evaluate(coordsText, aspectsText string, logger *slog.Logger) (*report.Report, int, error) {
	store := coords.NewStore()
	if err := store.Ingest(strings.NewReader(coordsText), "coordinates"); err != nil {
		return nil, 0, err
	}
	specs, err := parser.Parse(strings.NewReader(aspectsText), "aspects")
	if err != nil {
		return nil, 0, err
	}
	na := evaluator.EvaluateAll(store, specs, logger)
	return report.Build(store.Images(), parser.Names(specs)), na, nil
}

// IsInputError reports whether err was caused by malformed input files
// rather than by the environment.
func IsInputError(err error) bool {
	return errors.Is(err, apperr.ErrMalformedRecord) || errors.Is(err, apperr.ErrConfigSyntax)
}
