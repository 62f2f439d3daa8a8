package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hatauchi-tech/Fukui-BI/internal/amqp"
	"github.com/hatauchi-tech/Fukui-BI/internal/core"
	"github.com/hatauchi-tech/Fukui-BI/internal/sheets/memory"
	"github.com/hatauchi-tech/Fukui-BI/internal/storage"
)

// stubSource serves canned summaries keyed by period string.
type stubSource struct {
	rows      map[string][]core.Summary
	reloads   int
	reloadErr error
}

func (s *stubSource) Reload(context.Context) (int, core.Warnings, error) {
	s.reloads++
	if s.reloadErr != nil {
		return 0, nil, s.reloadErr
	}
	return len(s.rows), nil, nil
}

func (s *stubSource) Periods() []core.Period {
	var out []core.Period
	for key := range s.rows {
		p, err := core.ParsePeriod(key)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *stubSource) Summaries(_ []core.Department, period core.Period) ([]core.Summary, core.Warnings) {
	return s.rows[period.String()], nil
}

func newJournal(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	j, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestHandleExportMessage(t *testing.T) {
	july := core.Period{Year: 2025, Month: time.July}
	source := &stubSource{rows: map[string][]core.Summary{
		"2025/07": {
			{PeriodName: "2025/07", Department: core.DeptHeadOffice, Sales: 1000000},
			{PeriodName: "2025/07", Department: core.DeptAll, Sales: 1000000},
		},
	}}
	writer := memory.New()
	journal := newJournal(t)
	w := NewExportWorker(source, writer, journal)

	msg := amqp.NewSummaryExportMessage("2025/07", "reload")
	if err := w.HandleExportMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleExportMessage: %v", err)
	}

	if got := writer.Rows(july); len(got) != 2 {
		t.Fatalf("expected 2 exported rows, got %d", len(got))
	}

	run, err := journal.LastExportRun(context.Background(), "2025/07")
	if err != nil {
		t.Fatalf("LastExportRun: %v", err)
	}
	if run == nil || run.Status != "ok" || run.Rows != 2 {
		t.Errorf("unexpected export run: %+v", run)
	}
}

func TestHandleExportMessageInvalidPeriod(t *testing.T) {
	source := &stubSource{}
	writer := memory.New()
	journal := newJournal(t)
	w := NewExportWorker(source, writer, journal)

	msg := amqp.NewSummaryExportMessage("not-a-period", "manual")
	// Malformed periods are dropped, not requeued.
	if err := w.HandleExportMessage(context.Background(), msg); err != nil {
		t.Fatalf("expected nil error for invalid period, got %v", err)
	}
	if writer.Periods() != 0 {
		t.Error("nothing should be written for an invalid period")
	}

	run, err := journal.LastExportRun(context.Background(), "not-a-period")
	if err != nil {
		t.Fatalf("LastExportRun: %v", err)
	}
	if run == nil || run.Status != "rejected" {
		t.Errorf("expected rejected journal entry, got %+v", run)
	}
}

func TestExportPeriodEmptyData(t *testing.T) {
	// All-zero rows, as produced for a period with no matching departments.
	source := &stubSource{rows: map[string][]core.Summary{
		"2025/07": {{PeriodName: "2025/07", Department: core.DeptHeadOffice}},
	}}
	writer := memory.New()
	journal := newJournal(t)
	w := NewExportWorker(source, writer, journal)

	july := core.Period{Year: 2025, Month: time.July}
	if err := w.ExportPeriod(context.Background(), july); err != nil {
		t.Fatalf("ExportPeriod: %v", err)
	}
	if writer.Periods() != 0 {
		t.Error("all-zero summaries should not be exported")
	}

	run, err := journal.LastExportRun(context.Background(), "2025/07")
	if err != nil {
		t.Fatalf("LastExportRun: %v", err)
	}
	if run == nil || run.Status != "empty" {
		t.Errorf("expected empty journal entry, got %+v", run)
	}
}

func TestExportPeriodWriterFailure(t *testing.T) {
	source := &stubSource{rows: map[string][]core.Summary{
		"2025/07": {{PeriodName: "2025/07", Sales: 500}},
	}}
	writer := memory.New()
	writer.FailWith(errors.New("quota exceeded"))
	journal := newJournal(t)
	w := NewExportWorker(source, writer, journal)

	july := core.Period{Year: 2025, Month: time.July}
	err := w.ExportPeriod(context.Background(), july)
	if err == nil {
		t.Fatal("expected error when writer fails")
	}

	run, jerr := journal.LastExportRun(context.Background(), "2025/07")
	if jerr != nil {
		t.Fatalf("LastExportRun: %v", jerr)
	}
	if run == nil || run.Status != "error" {
		t.Errorf("expected error journal entry, got %+v", run)
	}
}

func TestProcessPendingPeriods(t *testing.T) {
	july := core.Period{Year: 2025, Month: time.July}
	source := &stubSource{rows: map[string][]core.Summary{
		"2025/07": {{PeriodName: "2025/07", Sales: 1000}},
	}}
	writer := memory.New()
	journal := newJournal(t)
	w := NewExportWorker(source, writer, journal)

	if err := w.ProcessPendingPeriods(context.Background()); err != nil {
		t.Fatalf("ProcessPendingPeriods: %v", err)
	}
	if got := writer.Rows(july); len(got) != 1 {
		t.Fatalf("expected 1 exported row, got %d", len(got))
	}

	// A second pass must not re-export an already journaled period. A
	// failing writer would journal status "error" if it were called again.
	writer.FailWith(errors.New("should not be called"))
	if err := w.ProcessPendingPeriods(context.Background()); err != nil {
		t.Fatalf("ProcessPendingPeriods: %v", err)
	}
	run, err := journal.LastExportRun(context.Background(), "2025/07")
	if err != nil {
		t.Fatalf("LastExportRun: %v", err)
	}
	if run == nil || run.Status != "ok" {
		t.Errorf("expected export to remain journaled ok, got %+v", run)
	}
}

func TestStartupReload(t *testing.T) {
	source := &stubSource{rows: map[string][]core.Summary{"2025/07": nil}}
	w := NewExportWorker(source, memory.New(), nil)

	if err := w.StartupReload(context.Background()); err != nil {
		t.Fatalf("StartupReload: %v", err)
	}
	if source.reloads != 1 {
		t.Errorf("expected 1 reload, got %d", source.reloads)
	}

	source.reloadErr = errors.New("directory missing")
	if err := w.StartupReload(context.Background()); err == nil {
		t.Error("expected error when reload fails")
	}
}
