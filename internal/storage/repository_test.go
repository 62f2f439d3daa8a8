package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRecordAndListLoadRuns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, run := range []LoadRun{
		{File: "2025_07_出力.csv", Period: "2025/07", Records: 180, Skipped: 2, Warnings: 2},
		{File: "2025_08_出力.csv", Period: "2025/08", Records: 184},
	} {
		if _, err := repo.RecordLoadRun(ctx, run); err != nil {
			t.Fatalf("RecordLoadRun: %v", err)
		}
	}

	runs, err := repo.ListLoadRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListLoadRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	// Newest first.
	if runs[0].Period != "2025/08" {
		t.Errorf("expected newest run first, got period %s", runs[0].Period)
	}
	if runs[1].File != "2025_07_出力.csv" {
		t.Errorf("unexpected file %s", runs[1].File)
	}
	if runs[1].Warnings != 2 {
		t.Errorf("expected 2 warnings, got %d", runs[1].Warnings)
	}
	if runs[0].LoadedAt.IsZero() {
		t.Error("loaded_at not set")
	}
}

func TestListLoadRunsLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := repo.RecordLoadRun(ctx, LoadRun{File: "f.csv", Period: "2025/07"}); err != nil {
			t.Fatalf("RecordLoadRun: %v", err)
		}
	}

	runs, err := repo.ListLoadRuns(ctx, 3)
	if err != nil {
		t.Fatalf("ListLoadRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
}

func TestRecordExportRunDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.RecordExportRun(ctx, ExportRun{Period: "2025/07", Rows: 9, Destination: "sheets"})
	if err != nil {
		t.Fatalf("RecordExportRun: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero id")
	}

	run, err := repo.LastExportRun(ctx, "2025/07")
	if err != nil {
		t.Fatalf("LastExportRun: %v", err)
	}
	if run == nil {
		t.Fatal("expected export run")
	}
	if run.Status != "ok" {
		t.Errorf("expected default status ok, got %s", run.Status)
	}
	if run.Rows != 9 {
		t.Errorf("expected 9 rows, got %d", run.Rows)
	}
}

func TestLastExportRunMissing(t *testing.T) {
	repo := newTestRepo(t)

	run, err := repo.LastExportRun(context.Background(), "2030/01")
	if err != nil {
		t.Fatalf("LastExportRun: %v", err)
	}
	if run != nil {
		t.Errorf("expected nil for unexported period, got %+v", run)
	}
}
