package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/hatauchi-tech/Fukui-BI/internal/amqp"
	"github.com/hatauchi-tech/Fukui-BI/internal/cli"
	"github.com/hatauchi-tech/Fukui-BI/internal/loader"
	"github.com/hatauchi-tech/Fukui-BI/internal/processor"
	"github.com/hatauchi-tech/Fukui-BI/internal/services"
	"github.com/hatauchi-tech/Fukui-BI/internal/sheets"
	gsheet "github.com/hatauchi-tech/Fukui-BI/internal/sheets/google"
	mem "github.com/hatauchi-tech/Fukui-BI/internal/sheets/memory"
	"github.com/hatauchi-tech/Fukui-BI/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting fukui-bi-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	journal := cli.InitJournal(logger, cfg.SQLiteDBPath)
	defer journal.Close()

	// Destination for exported summaries. Without a spreadsheet ID the
	// worker still drains the queue, writing into memory.
	var writer sheets.SummaryWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reports := services.NewReportService(loader.New(cfg.DataDir), processor.New(nil), nil, nil)
	exportWorker := worker.NewExportWorker(reports, writer, journal)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		logger.Info("Stopping worker...")
	})

	if err := exportWorker.StartupReload(ctx); err != nil {
		logger.Error("Startup reload failed", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}

	// Backup loop for export requests lost while the worker was down.
	go exportWorker.Run(ctx, cfg.ExportInterval)

	go func() {
		err := amqpClient.ConsumeSummaryExport(ctx, func(msg *amqp.SummaryExportMessage) error {
			// Reload before exporting so the rows reflect the files on disk.
			if _, _, err := reports.Reload(ctx); err != nil {
				return err
			}
			return exportWorker.HandleExportMessage(ctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Consumer stopped", "error", err)
		}
	}()

	logger.Info("Worker started, consuming export requests",
		"queue", cfg.AMQPQueue,
		"data_dir", cfg.DataDir)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
