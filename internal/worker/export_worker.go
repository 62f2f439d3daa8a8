package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hatauchi-tech/Fukui-BI/internal/amqp"
	"github.com/hatauchi-tech/Fukui-BI/internal/core"
	"github.com/hatauchi-tech/Fukui-BI/internal/sheets"
	"github.com/hatauchi-tech/Fukui-BI/internal/storage"
)

// DatasetSource provides the loaded datasets the worker summarizes. The
// report service satisfies it, tests use a stub.
type DatasetSource interface {
	Reload(ctx context.Context) (int, core.Warnings, error)
	Periods() []core.Period
	Summaries(depts []core.Department, period core.Period) ([]core.Summary, core.Warnings)
}

// ExportWorker turns export request messages into spreadsheet rows and
// journals the outcome.
type ExportWorker struct {
	source  DatasetSource
	writer  sheets.SummaryWriter
	journal *storage.SQLiteRepository
}

func NewExportWorker(source DatasetSource, writer sheets.SummaryWriter, journal *storage.SQLiteRepository) *ExportWorker {
	return &ExportWorker{
		source:  source,
		writer:  writer,
		journal: journal,
	}
}

// HandleExportMessage processes a single export request from AMQP.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.SummaryExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"period", msg.Period,
		"reason", msg.Reason)

	period, err := core.ParsePeriod(msg.Period)
	if err != nil {
		// A malformed period will never become valid, journal and drop.
		w.journalExport(ctx, msg.Period, 0, "rejected")
		slog.ErrorContext(ctx, "Dropping export request with invalid period",
			"period", msg.Period, "error", err)
		return nil
	}

	return w.ExportPeriod(ctx, period)
}

// ExportPeriod recomputes the summaries for one period and writes them out.
func (w *ExportWorker) ExportPeriod(ctx context.Context, period core.Period) error {
	rows, _ := w.source.Summaries(nil, period)
	if !hasData(rows) {
		w.journalExport(ctx, period.String(), 0, "empty")
		slog.WarnContext(ctx, "No data for period, nothing exported",
			"period", period.String())
		return nil
	}

	if err := w.writer.WriteSummaries(ctx, period, rows); err != nil {
		w.journalExport(ctx, period.String(), 0, "error")
		return fmt.Errorf("write summaries: %w", err)
	}

	w.journalExport(ctx, period.String(), len(rows), "ok")

	slog.InfoContext(ctx, "Exported summaries",
		"period", period.String(),
		"rows", len(rows))

	return nil
}

// StartupReload refreshes the datasets once before consuming so the worker
// does not export from an empty state after a restart.
func (w *ExportWorker) StartupReload(ctx context.Context) error {
	n, warnings, err := w.source.Reload(ctx)
	if err != nil {
		return fmt.Errorf("startup reload: %w", err)
	}
	slog.InfoContext(ctx, "Startup reload completed",
		"periods", n,
		"warnings", len(warnings))
	return nil
}

// ProcessPendingPeriods exports every loaded period the journal has never
// seen. This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPendingPeriods(ctx context.Context) error {
	if w.journal == nil {
		return nil
	}
	for _, period := range w.source.Periods() {
		last, err := w.journal.LastExportRun(ctx, period.String())
		if err != nil {
			return fmt.Errorf("check export journal: %w", err)
		}
		if last != nil {
			continue
		}
		slog.InfoContext(ctx, "Exporting period missing from journal",
			"period", period.String())
		if err := w.ExportPeriod(ctx, period); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending period",
				"period", period.String(), "error", err)
		}
	}
	return nil
}

// Run consumes nothing itself, it re-checks for unexported periods on a
// fixed interval until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := w.source.Reload(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic reload failed", "error", err)
				continue
			}
			if err := w.ProcessPendingPeriods(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending period check failed", "error", err)
			}
		}
	}
}

func (w *ExportWorker) journalExport(ctx context.Context, period string, rows int, status string) {
	if w.journal == nil {
		return
	}
	run := storage.ExportRun{
		Period:      period,
		Rows:        rows,
		Destination: "sheets",
		Status:      status,
	}
	if _, err := w.journal.RecordExportRun(ctx, run); err != nil {
		slog.ErrorContext(ctx, "Failed to journal export run",
			"period", period, "error", err)
	}
}

// hasData reports whether any summary row carries a non-zero figure. A
// period where every department is absent produces all-zero rows, those are
// not worth a spreadsheet append.
func hasData(rows []core.Summary) bool {
	for _, s := range rows {
		if s.Sales != 0 || s.Cost != 0 || s.SGA != 0 || s.OrdinaryProfit != 0 || s.NetProfit != 0 {
			return true
		}
	}
	return false
}
