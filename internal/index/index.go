package index

import (
	"github.com/starford/wormbox/internal/models"
	"github.com/starford/wormbox/internal/report"
)

// RunIndex defines the run-history operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type RunIndex interface {
	RecordRun(run RunRow, images []*models.Image, rep *report.Report) (string, error)
	GetRun(id string) (*RunRow, error)
	ListRuns(folder string, limit int) ([]RunRow, error)
	LatestFingerprint(folder string) (string, error)
	Measurements(runID, aspectName string) ([]MeasurementRow, error)
	Summaries(runID string) ([]SummaryRow, error)
	DeleteRun(id string) error
	Close() error
}

// Verify *DB satisfies RunIndex at compile time.
var _ RunIndex = (*DB)(nil)
