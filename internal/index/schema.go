// Package index provides the SQLite-backed history of analysis runs.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	folder       TEXT NOT NULL,
	aspects_file TEXT NOT NULL DEFAULT '',
	output       TEXT NOT NULL DEFAULT '',
	fingerprint  TEXT NOT NULL DEFAULT '',
	images       INTEGER NOT NULL DEFAULT 0,
	na_count     INTEGER NOT NULL DEFAULT 0,
	report_csv   TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS measurements (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	image       TEXT NOT NULL,
	aspect_id   TEXT NOT NULL,
	aspect_name TEXT NOT NULL,
	kind        TEXT NOT NULL,
	value       REAL,
	equation    TEXT NOT NULL DEFAULT '',
	UNIQUE(run_id, image, aspect_id)
);

CREATE TABLE IF NOT EXISTS summaries (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	aspect_name TEXT NOT NULL,
	stat        TEXT NOT NULL,
	value       REAL,
	UNIQUE(run_id, position, stat)
);

CREATE INDEX IF NOT EXISTS idx_runs_folder ON runs(folder, created_at);
CREATE INDEX IF NOT EXISTS idx_measurements_name ON measurements(run_id, aspect_name);
`

// DB wraps a sql.DB with run-history operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
