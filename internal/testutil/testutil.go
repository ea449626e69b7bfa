// Package testutil provides shared test helpers for setting up data folders and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/wormbox/internal/index"
	"github.com/starford/wormbox/internal/storage"
)

// SampleCoords holds two digitized images. A.tif has a complete
// periphery chain; B.tif lacks landmark 3.
const SampleCoords = "A.tif:1\t0\t0\n" +
	"A.tif:2\t3\t4\n" +
	"A.tif:3\t3\t6\n" +
	"A.tif:hooks\t1\t1\n" +
	"A.tif:hooks\t2\t2\n" +
	"B.tif:1\t0\t0\n" +
	"B.tif:2\t0\t6\n"

// SampleAspects defines a chain, a meristic count and an algebraic trait.
const SampleAspects = "# sample aspects\n" +
	"peri:1,2,3\n" +
	"side:1,2\n" +
	"hooks:count\n" +
	"ratio:{peri}/{side}\n"

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "wormbox-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFolder creates a temporary data folder with a storage.Provider.
// files maps names to contents.
func TestFolder(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// SampleFolder creates a data folder holding SampleCoords and SampleAspects.
func SampleFolder(t *testing.T) (string, storage.Provider) {
	t.Helper()
	return TestFolder(t, map[string]string{
		"worms_data.txt": SampleCoords,
		"config.txt":     SampleAspects,
	})
}

// WriteFile writes content to dir/name, failing the test on error.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
