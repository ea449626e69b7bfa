package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/wormbox/internal/apperr"
	"github.com/starford/wormbox/internal/models"
	"github.com/starford/wormbox/internal/report"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "wormbox-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleImages() []*models.Image {
	a := models.NewImage("A.tif")
	a.AddAspect(models.Aspect{ID: "peri:1,2,3", Name: "peri", Value: models.Num(7)})
	a.AddAspect(models.Aspect{ID: "hooks:count", Name: "hooks", Kind: models.KindMeristic, Value: models.Num(2)})
	b := models.NewImage("B.tif")
	b.AddAspect(models.Aspect{ID: "peri:1,2,3", Name: "peri", Value: models.NA()})
	b.AddAspect(models.Aspect{ID: "hooks:count", Name: "hooks", Kind: models.KindMeristic, Value: models.Num(0)})
	return []*models.Image{a, b}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"runs", "measurements", "summaries"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestRecordAndGetRun(t *testing.T) {
	db := testDB(t)
	images := sampleImages()
	rep := report.Build(images, nil)

	id, err := db.RecordRun(RunRow{
		Folder:      "/data/worms",
		AspectsFile: "config.txt",
		Output:      "results.csv",
		Fingerprint: "fp1",
		Images:      2,
		NACount:     1,
		ReportCSV:   "image,peri,hooks\n",
	}, images, rep)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated run id")
	}

	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Folder != "/data/worms" || run.NACount != 1 || run.ReportCSV != "image,peri,hooks\n" {
		t.Errorf("run = %+v", run)
	}
}

func TestMeasurements_NAStoredAsNull(t *testing.T) {
	db := testDB(t)
	images := sampleImages()
	id, _ := db.RecordRun(RunRow{Folder: "f"}, images, nil)

	ms, err := db.Measurements(id, "peri")
	if err != nil {
		t.Fatalf("Measurements: %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("len = %d, want 2", len(ms))
	}
	if ms[0].Image != "A.tif" || ms[0].Value != models.Num(7) {
		t.Errorf("first = %+v", ms[0])
	}
	if !ms[1].Value.IsNA() {
		t.Errorf("B.tif peri = %v, want NA", ms[1].Value)
	}

	all, _ := db.Measurements(id, "")
	if len(all) != 4 {
		t.Errorf("all measurements = %d, want 4", len(all))
	}
	if all[1].Kind != "meristic" {
		t.Errorf("kind = %q, want meristic", all[1].Kind)
	}
}

func TestSummaries(t *testing.T) {
	db := testDB(t)
	images := sampleImages()
	id, _ := db.RecordRun(RunRow{Folder: "f"}, images, report.Build(images, nil))

	ss, err := db.Summaries(id)
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(ss) != 18 {
		t.Fatalf("len = %d, want 18", len(ss))
	}
	if ss[0].AspectName != "peri" || ss[0].Stat != "n" || ss[0].Value != models.Num(1) {
		t.Errorf("first = %+v", ss[0])
	}
	// peri has a single value, so pop_std is NA.
	if ss[3].Stat != "pop_std" || !ss[3].Value.IsNA() {
		t.Errorf("pop_std = %+v", ss[3])
	}
}

func TestListRunsAndLatestFingerprint(t *testing.T) {
	db := testDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _ = db.RecordRun(RunRow{Folder: "a", Fingerprint: "old", CreatedAt: base}, nil, nil)
	_, _ = db.RecordRun(RunRow{Folder: "a", Fingerprint: "new", CreatedAt: base.Add(time.Hour)}, nil, nil)
	_, _ = db.RecordRun(RunRow{Folder: "b", Fingerprint: "other", CreatedAt: base.Add(2 * time.Hour)}, nil, nil)

	runs, err := db.ListRuns("a", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].Fingerprint != "new" {
		t.Errorf("runs = %+v", runs)
	}
	all, _ := db.ListRuns("", 10)
	if len(all) != 3 {
		t.Errorf("all runs = %d, want 3", len(all))
	}

	fp, err := db.LatestFingerprint("a")
	if err != nil {
		t.Fatalf("LatestFingerprint: %v", err)
	}
	if fp != "new" {
		t.Errorf("fingerprint = %q, want %q", fp, "new")
	}
	fp, _ = db.LatestFingerprint("none")
	if fp != "" {
		t.Errorf("fingerprint for unknown folder = %q", fp)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetRun("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRun(t *testing.T) {
	db := testDB(t)
	images := sampleImages()
	id, _ := db.RecordRun(RunRow{Folder: "f"}, images, report.Build(images, nil))

	if err := db.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := db.GetRun(id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("run still present: %v", err)
	}
	ms, _ := db.Measurements(id, "")
	if len(ms) != 0 {
		t.Errorf("measurements left behind: %d", len(ms))
	}
	if err := db.DeleteRun(id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}
