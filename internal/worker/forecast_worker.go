package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"faktura/internal/amqp"
	"faktura/internal/core"
	"faktura/internal/forecast"
	"faktura/internal/log"
	"faktura/internal/services"
	"faktura/internal/sheets"
)

// runTimeout bounds a scheduled recompute.
const runTimeout = 2 * time.Minute

// Result describes one forecast recompute.
type Result struct {
	Trigger  string
	Summary  forecast.Summary
	Alerts   []forecast.Entry
	Exported bool
}

// ForecastWorker recomputes the forecast when the ledger changes and on a
// schedule. Months below the threshold are logged as warnings, and the
// forecast is exported when an exporter is configured.
type ForecastWorker struct {
	forecasts *services.ForecastService
	exporter  sheets.ForecastExporter
	horizon   int
	threshold decimal.Decimal

	// mu serialises runs so exports never interleave.
	mu sync.Mutex
}

func NewForecastWorker(forecasts *services.ForecastService, exporter sheets.ForecastExporter, horizon int, threshold decimal.Decimal) *ForecastWorker {
	return &ForecastWorker{
		forecasts: forecasts,
		exporter:  exporter,
		horizon:   horizon,
		threshold: threshold,
	}
}

// HandleLedgerChanged recomputes after a ledger change. A returned error
// makes the consumer requeue the message.
func (w *ForecastWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Ledger changed",
		log.FieldComponent, log.ComponentWorker,
		log.FieldEntity, msg.Entity,
		log.FieldID, msg.ID,
		log.FieldOperation, msg.Op)

	_, err := w.Run(ctx, "ledger:"+msg.Entity)
	return err
}

func (w *ForecastWorker) Run(ctx context.Context, trigger string) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	fc, err := w.forecasts.Generate(ctx, w.horizon)
	if err != nil {
		return Result{}, fmt.Errorf("generate forecast: %w", err)
	}

	res := Result{
		Trigger: trigger,
		Summary: fc.Summary(),
		Alerts:  fc.BelowThreshold(w.threshold),
	}

	for _, e := range res.Alerts {
		slog.WarnContext(ctx, "Forecast balance below threshold",
			log.FieldComponent, log.ComponentForecast,
			log.FieldOperation, log.OpForecast,
			log.FieldMonthEnd, core.FormatDate(e.MonthEnd),
			log.FieldBalance, core.FormatAmount(e.Balance),
			"threshold", core.FormatAmount(w.threshold))
	}

	if w.exporter != nil {
		if err := w.exporter.ExportForecast(ctx, fc.Entries); err != nil {
			slog.ErrorContext(ctx, "Forecast export failed",
				log.FieldComponent, log.ComponentSheets,
				log.FieldOperation, log.OpExport,
				log.FieldError, err)
			return res, fmt.Errorf("export forecast: %w", err)
		}
		res.Exported = true
	}

	slog.InfoContext(ctx, "Forecast recomputed",
		log.FieldComponent, log.ComponentForecast,
		log.FieldOperation, log.OpForecast,
		log.FieldTrigger, trigger,
		log.FieldHorizon, res.Summary.Months,
		"ending_balance", core.FormatAmount(res.Summary.EndingBalance),
		"lowest_balance", core.FormatAmount(res.Summary.LowestBalance),
		"alerts", len(res.Alerts),
		log.FieldExported, res.Exported,
		log.FieldDuration, time.Since(start).Milliseconds())

	return res, nil
}

// Schedule registers a recompute on the given cron spec (five fields,
// minute first). The caller starts and stops the returned scheduler.
func (w *ForecastWorker) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		if _, err := w.Run(runCtx, "schedule"); err != nil {
			slog.ErrorContext(runCtx, "Scheduled forecast failed",
				log.FieldComponent, log.ComponentWorker,
				log.FieldTrigger, "schedule",
				log.FieldError, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return c, nil
}
