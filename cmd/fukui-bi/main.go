package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hatauchi-tech/Fukui-BI/internal/accounts"
	"github.com/hatauchi-tech/Fukui-BI/internal/amqp"
	"github.com/hatauchi-tech/Fukui-BI/internal/cli"
	apphttp "github.com/hatauchi-tech/Fukui-BI/internal/http"
	"github.com/hatauchi-tech/Fukui-BI/internal/loader"
	"github.com/hatauchi-tech/Fukui-BI/internal/processor"
	"github.com/hatauchi-tech/Fukui-BI/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting fukui-bi server")

	cfg := cli.LoadAndValidateConfig(logger)

	chart := accounts.Default()
	if cfg.ChartFile != "" {
		var err error
		chart, err = accounts.LoadFile(cfg.ChartFile)
		if err != nil {
			logger.Error("Failed to load chart of accounts", "error", err, "path", cfg.ChartFile)
			os.Exit(1)
		}
		logger.Info("Loaded chart of accounts override", "path", cfg.ChartFile)
	}

	journal := cli.InitJournal(logger, cfg.SQLiteDBPath)

	// AMQP is optional for the dashboard, exports degrade gracefully.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, summary exports disabled", "error", err)
		amqpClient = nil
	}

	reports := services.NewReportService(loader.New(cfg.DataDir), processor.New(chart), journal, amqpClient)
	defer reports.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the CSV exports before accepting traffic.
	if n, warnings, err := reports.Reload(ctx); err != nil {
		logger.Error("Initial load failed", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	} else {
		logger.Info("Initial load completed",
			"periods", n,
			"warnings", len(warnings),
			"data_dir", cfg.DataDir)
	}

	srv := apphttp.NewServer(":"+cfg.Port, reports)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
