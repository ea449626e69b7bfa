package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/wormbox/internal/apperr"
	"github.com/starford/wormbox/internal/models"
	"github.com/starford/wormbox/internal/report"
	"github.com/starford/wormbox/internal/stats"
)

// RunRow represents a row in the runs table.
type RunRow struct {
	ID          string    `json:"id"`
	Folder      string    `json:"folder"`
	AspectsFile string    `json:"aspects_file"`
	Output      string    `json:"output"`
	Fingerprint string    `json:"fingerprint"`
	Images      int       `json:"images"`
	NACount     int       `json:"na_count"`
	ReportCSV   string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// MeasurementRow is one evaluated aspect of one image.
type MeasurementRow struct {
	Image      string       `json:"image"`
	AspectID   string       `json:"aspect_id"`
	AspectName string       `json:"aspect_name"`
	Kind       string       `json:"kind"`
	Value      models.Value `json:"value"`
	Equation   string       `json:"equation,omitempty"`
}

// SummaryRow is one statistic of one report column.
type SummaryRow struct {
	Position   int          `json:"position"`
	AspectName string       `json:"aspect_name"`
	Stat       string       `json:"stat"`
	Value      models.Value `json:"value"`
}

func nullable(v models.Value) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.V, Valid: v.Valid}
}

func fromNullable(n sql.NullFloat64) models.Value {
	if !n.Valid {
		return models.NA()
	}
	return models.Num(n.Float64)
}

// RecordRun stores a run with every evaluated aspect and the report
// summaries in one transaction. It returns the run id, generating one when
// run.ID is empty.
func (db *DB) RecordRun(run RunRow, images []*models.Image, rep *report.Report) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO runs (id, folder, aspects_file, output, fingerprint, images, na_count, report_csv, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Folder, run.AspectsFile, run.Output, run.Fingerprint, run.Images, run.NACount, run.ReportCSV, run.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("index: insert run: %w", err)
	}

	mstmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO measurements (run_id, image, aspect_id, aspect_name, kind, value, equation)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("index: prepare measurement insert: %w", err)
	}
	defer mstmt.Close()
	for _, img := range images {
		for _, a := range img.Aspects() {
			if _, err := mstmt.Exec(run.ID, img.Filename, a.ID, a.Name, a.Kind.String(), nullable(a.Value), a.Equation); err != nil {
				return "", fmt.Errorf("index: insert measurement: %w", err)
			}
		}
	}

	if rep != nil {
		sstmt, err := tx.Prepare(`
			INSERT INTO summaries (run_id, position, aspect_name, stat, value)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return "", fmt.Errorf("index: prepare summary insert: %w", err)
		}
		defer sstmt.Close()
		for i, name := range rep.Columns {
			for li, v := range rep.Summaries[i].Fields() {
				if _, err := sstmt.Exec(run.ID, i, name, stats.Labels[li], nullable(v)); err != nil {
					return "", fmt.Errorf("index: insert summary: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("index: commit: %w", err)
	}
	return run.ID, nil
}

const runColumns = `id, folder, aspects_file, output, fingerprint, images, na_count, report_csv, created_at`

func scanRun(sc interface{ Scan(...any) error }) (RunRow, error) {
	var r RunRow
	err := sc.Scan(&r.ID, &r.Folder, &r.AspectsFile, &r.Output, &r.Fingerprint, &r.Images, &r.NACount, &r.ReportCSV, &r.CreatedAt)
	return r, err
}

// GetRun returns a single run, or apperr.ErrNotFound.
func (db *DB) GetRun(id string) (*RunRow, error) {
	r, err := scanRun(db.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("index: get run: %w", err)
	}
	return &r, nil
}

// ListRuns returns runs newest first. An empty folder lists every folder.
func (db *DB) ListRuns(folder string, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT `+runColumns+`
		FROM runs
		WHERE ? = '' OR folder = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`, folder, folder, limit)
	if err != nil {
		return nil, fmt.Errorf("index: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestFingerprint returns the input fingerprint of the newest run for
// folder, or an empty string when the folder has no runs.
func (db *DB) LatestFingerprint(folder string) (string, error) {
	var fp string
	err := db.conn.QueryRow(`
		SELECT fingerprint FROM runs WHERE folder = ?
		ORDER BY created_at DESC LIMIT 1
	`, folder).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: latest fingerprint: %w", err)
	}
	return fp, nil
}

// Measurements returns the evaluated aspects of a run ordered by image.
// A non-empty aspectName restricts the result to that trait.
func (db *DB) Measurements(runID, aspectName string) ([]MeasurementRow, error) {
	rows, err := db.conn.Query(`
		SELECT image, aspect_id, aspect_name, kind, value, equation
		FROM measurements
		WHERE run_id = ? AND (? = '' OR aspect_name = ?)
		ORDER BY image, rowid
	`, runID, aspectName, aspectName)
	if err != nil {
		return nil, fmt.Errorf("index: measurements: %w", err)
	}
	defer rows.Close()

	var out []MeasurementRow
	for rows.Next() {
		var m MeasurementRow
		var v sql.NullFloat64
		if err := rows.Scan(&m.Image, &m.AspectID, &m.AspectName, &m.Kind, &v, &m.Equation); err != nil {
			return nil, err
		}
		m.Value = fromNullable(v)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Summaries returns the report statistics of a run in column order.
func (db *DB) Summaries(runID string) ([]SummaryRow, error) {
	rows, err := db.conn.Query(`
		SELECT position, aspect_name, stat, value
		FROM summaries
		WHERE run_id = ?
		ORDER BY position, rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("index: summaries: %w", err)
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var s SummaryRow
		var v sql.NullFloat64
		if err := rows.Scan(&s.Position, &s.AspectName, &s.Stat, &v); err != nil {
			return nil, err
		}
		s.Value = fromNullable(v)
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteRun removes a run together with its measurements and summaries.
func (db *DB) DeleteRun(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM measurements WHERE run_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM summaries WHERE run_id = ?`, id)
	res, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("index: delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit()
}
