package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"faktura/internal/backend"
	"faktura/internal/cli"
	apphttp "faktura/internal/http"
	"faktura/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, backendCfg.Type)
		os.Exit(1)
	}

	svc := backend.NewServices(res, cfg.InvoiceDueDays, cfg.ForecastHorizon)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Expenses:   svc.Expenses,
		Invoices:   svc.Invoices,
		Recipients: svc.Recipients,
		Settings:   svc.Settings,
		Forecasts:  svc.Forecasts,
	}, res.Repository, apphttp.Options{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:    cfg.TrustedProxies,
		Logger:            logger,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting faktura server",
		log.FieldOperation, log.OpStartup,
		log.FieldAddr, srv.Addr,
		log.FieldBackend, res.Type,
		"ledger_events", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, log.FieldAddr, srv.Addr)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
