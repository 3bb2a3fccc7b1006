package main

import (
	"context"
	"errors"
	"io"
	"os"

	"faktura/internal/backend"
	"faktura/internal/cli"
	"faktura/internal/log"
	"faktura/internal/sheets"
	gsheet "faktura/internal/sheets/google"
	"faktura/internal/sheets/memory"
	"faktura/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting forecast-worker", log.FieldOperation, log.OpStartup)
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is private to this process; the worker will not see the server's ledger")
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}

	var exporter sheets.ForecastExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleForecastSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = memory.New()
		logger.Info("Google Sheets disabled, keeping forecasts in memory")
	}

	svc := backend.NewServices(res, cfg.InvoiceDueDays, cfg.ForecastHorizon)
	w := worker.NewForecastWorker(svc.Forecasts, exporter, cfg.ForecastHorizon, cfg.LowBalanceThreshold)

	scheduler, err := w.Schedule(context.Background(), cfg.ForecastSchedule)
	if err != nil {
		logger.Error("Failed to schedule forecast", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
		}
		if closer, ok := exporter.(io.Closer); ok {
			_ = closer.Close()
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	if _, err := w.Run(ctx, "startup"); err != nil {
		logger.Error("Startup forecast failed", log.FieldError, err)
	}
	scheduler.Start()
	logger.Info("Forecast scheduled", "schedule", cfg.ForecastSchedule)

	if res.AMQP != nil {
		go func() {
			err := res.AMQP.ConsumeLedgerChanged(ctx, w.HandleLedgerChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP disabled, recomputing on schedule only")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
