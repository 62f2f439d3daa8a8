// Package storage keeps the audit journal of load and export runs in
// SQLite. Datasets themselves are never persisted: the dashboard reloads
// from the CSV exports, and summaries are recomputed on every request. The
// journal only answers "what was loaded/exported, when, and how cleanly".
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// LoadRun is one journal entry for a parsed file.
type LoadRun struct {
	ID       int64     `json:"id"`
	LoadedAt time.Time `json:"loaded_at"`
	File     string    `json:"file"`
	Period   string    `json:"period"`
	Records  int       `json:"records"`
	Skipped  int       `json:"skipped"`
	Warnings int       `json:"warnings"`
}

// ExportRun is one journal entry for a summary export.
type ExportRun struct {
	ID          int64     `json:"id"`
	ExportedAt  time.Time `json:"exported_at"`
	Period      string    `json:"period"`
	Rows        int       `json:"rows"`
	Destination string    `json:"destination"`
	Status      string    `json:"status"`
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RecordLoadRun journals one parsed file.
func (r *SQLiteRepository) RecordLoadRun(ctx context.Context, run LoadRun) (int64, error) {
	loadedAt := run.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO load_runs (loaded_at, file, period, records, skipped, warnings)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		loadedAt, run.File, run.Period, run.Records, run.Skipped, run.Warnings)
	if err != nil {
		return 0, fmt.Errorf("insert load run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("load run id: %w", err)
	}

	slog.InfoContext(ctx, "Load run journaled",
		"id", id,
		"file", run.File,
		"period", run.Period,
		"records", run.Records,
		"skipped", run.Skipped)

	return id, nil
}

// ListLoadRuns returns the most recent load runs, newest first.
func (r *SQLiteRepository) ListLoadRuns(ctx context.Context, limit int) ([]LoadRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, loaded_at, file, period, records, skipped, warnings
		 FROM load_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query load runs: %w", err)
	}
	defer rows.Close()

	var out []LoadRun
	for rows.Next() {
		var run LoadRun
		if err := rows.Scan(&run.ID, &run.LoadedAt, &run.File, &run.Period,
			&run.Records, &run.Skipped, &run.Warnings); err != nil {
			return nil, fmt.Errorf("scan load run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// RecordExportRun journals one summary export.
func (r *SQLiteRepository) RecordExportRun(ctx context.Context, run ExportRun) (int64, error) {
	exportedAt := run.ExportedAt
	if exportedAt.IsZero() {
		exportedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = "ok"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO export_runs (exported_at, period, rows, destination, status)
		 VALUES (?, ?, ?, ?, ?)`,
		exportedAt, run.Period, run.Rows, run.Destination, run.Status)
	if err != nil {
		return 0, fmt.Errorf("insert export run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("export run id: %w", err)
	}

	slog.InfoContext(ctx, "Export run journaled",
		"id", id,
		"period", run.Period,
		"rows", run.Rows,
		"destination", run.Destination,
		"status", run.Status)

	return id, nil
}

// LastExportRun returns the most recent export for a period, or nil when the
// period has never been exported.
func (r *SQLiteRepository) LastExportRun(ctx context.Context, period string) (*ExportRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, exported_at, period, rows, destination, status
		 FROM export_runs WHERE period = ? ORDER BY id DESC LIMIT 1`, period)

	var run ExportRun
	err := row.Scan(&run.ID, &run.ExportedAt, &run.Period, &run.Rows,
		&run.Destination, &run.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan export run: %w", err)
	}
	return &run, nil
}
