package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hatauchi-tech/Fukui-BI/internal/amqp"
	"github.com/hatauchi-tech/Fukui-BI/internal/core"
	"github.com/hatauchi-tech/Fukui-BI/internal/loader"
	"github.com/hatauchi-tech/Fukui-BI/internal/processor"
	"github.com/hatauchi-tech/Fukui-BI/internal/storage"
)

// ReportService owns the in-memory datasets and orchestrates reloads across
// the CSV loader, the audit journal and AMQP. A reload replaces the held
// datasets wholesale, partial state from a failed reload is never exposed.
type ReportService struct {
	loader     *loader.Loader
	proc       *processor.Processor
	journal    *storage.SQLiteRepository
	amqpClient *amqp.Client

	mu       sync.RWMutex
	datasets []core.Dataset
	warnings core.Warnings
	loadedAt time.Time
}

// NewReportService wires the service. journal and amqpClient may be nil,
// the service then skips journaling and export publishing.
func NewReportService(ld *loader.Loader, proc *processor.Processor, journal *storage.SQLiteRepository, amqpClient *amqp.Client) *ReportService {
	if proc == nil {
		proc = processor.New(nil)
	}
	return &ReportService{
		loader:     ld,
		proc:       proc,
		journal:    journal,
		amqpClient: amqpClient,
	}
}

// Reload re-reads every CSV in the data directory and swaps the held
// datasets. Returns the number of loaded periods and the load warnings.
func (s *ReportService) Reload(ctx context.Context) (int, core.Warnings, error) {
	datasets, warnings, err := s.loader.LoadAll()
	if err != nil {
		return 0, nil, fmt.Errorf("load datasets: %w", err)
	}

	s.mu.Lock()
	s.datasets = datasets
	s.warnings = warnings
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.journalLoadRuns(ctx, datasets, warnings)

	if len(datasets) > 0 {
		latest := datasets[len(datasets)-1].Period
		s.publishExport(ctx, latest, "reload")
	}

	slog.InfoContext(ctx, "Datasets reloaded",
		"periods", len(datasets),
		"warnings", len(warnings))

	return len(datasets), warnings, nil
}

func (s *ReportService) journalLoadRuns(ctx context.Context, datasets []core.Dataset, warnings core.Warnings) {
	if s.journal == nil {
		return
	}
	for _, ds := range datasets {
		for _, file := range ds.Sources {
			run := storage.LoadRun{
				File:     file,
				Period:   ds.Period.String(),
				Records:  len(ds.Records),
				Skipped:  countForFile(warnings, file, core.WarnSkippedRow),
				Warnings: countForFile(warnings, file, -1),
			}
			if _, err := s.journal.RecordLoadRun(ctx, run); err != nil {
				slog.ErrorContext(ctx, "Failed to journal load run",
					"file", file, "error", err)
				// Don't fail the reload, datasets are already swapped in
			}
		}
	}
}

// countForFile counts warnings for one file, all kinds when kind is -1.
func countForFile(warnings core.Warnings, file string, kind core.WarningKind) int {
	n := 0
	for _, w := range warnings {
		if w.File != file {
			continue
		}
		if kind >= 0 && w.Kind != kind {
			continue
		}
		n++
	}
	return n
}

func (s *ReportService) publishExport(ctx context.Context, period core.Period, reason string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message")
		return
	}
	if err := s.amqpClient.PublishSummaryExport(ctx, period.String(), reason); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"period", period.String(), "error", err)
		// Don't fail the reload, the export can be requested again
	}
}

// RequestExport queues an export of one period's summaries.
func (s *ReportService) RequestExport(ctx context.Context, period core.Period) error {
	if s.amqpClient == nil {
		return fmt.Errorf("export requires AMQP, none configured")
	}
	return s.amqpClient.PublishSummaryExport(ctx, period.String(), "manual")
}

func (s *ReportService) snapshot() []core.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datasets
}

// LoadWarnings returns the warnings collected by the last reload.
func (s *ReportService) LoadWarnings() core.Warnings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(core.Warnings(nil), s.warnings...)
}

// LoadedAt returns when the last successful reload finished.
func (s *ReportService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Periods lists the loaded periods in chronological order.
func (s *ReportService) Periods() []core.Period {
	return processor.Periods(s.snapshot())
}

// Summaries computes the summary table for the given departments and period.
// Empty depts means all departments, a zero period means all periods.
func (s *ReportService) Summaries(depts []core.Department, period core.Period) ([]core.Summary, core.Warnings) {
	datasets := filterPeriod(s.snapshot(), period)
	return s.proc.Summarize(datasets, depts)
}

// Company returns the aggregate company-wide summary for a period. The
// second return is false when no dataset covers the period.
func (s *ReportService) Company(period core.Period) (core.Summary, bool) {
	datasets := s.snapshot()
	if len(filterPeriod(datasets, period)) == 0 {
		return core.Summary{}, false
	}
	sum, _ := s.proc.Company(datasets, period)
	return sum, true
}

// SGABreakdown lists the SG&A detail accounts for a department and period.
func (s *ReportService) SGABreakdown(d core.Department, period core.Period) []core.AccountAmount {
	return s.proc.SGABreakdown(s.snapshot(), d, period)
}

// CostStructure returns the manufacturing cost split for a department.
func (s *ReportService) CostStructure(d core.Department, period core.Period) core.CostStructure {
	return s.proc.CostStructure(s.snapshot(), d, period)
}

// Details returns the raw ledger rows for drill-down views.
func (s *ReportService) Details(d core.Department, period core.Period, sheet core.ReportSheet) []core.Record {
	return s.proc.Details(s.snapshot(), d, period, sheet)
}

// DeptName resolves a department display name from the active chart.
func (s *ReportService) DeptName(d core.Department) string {
	return s.proc.Chart().DeptName(d)
}

// LoadRuns lists recent journal entries, newest first.
func (s *ReportService) LoadRuns(ctx context.Context, limit int) ([]storage.LoadRun, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.ListLoadRuns(ctx, limit)
}

func filterPeriod(datasets []core.Dataset, period core.Period) []core.Dataset {
	if period.IsZero() {
		return datasets
	}
	out := make([]core.Dataset, 0, 1)
	for _, ds := range datasets {
		if ds.Period == period {
			out = append(out, ds)
		}
	}
	return out
}

// Close releases the journal and AMQP connections.
func (s *ReportService) Close() error {
	var errs []error

	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close report service: %v", errs)
	}
	return nil
}
