package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"faktura/internal/amqp"
	"faktura/internal/forecast"
	"faktura/internal/services"
	sheetsmem "faktura/internal/sheets/memory"
	"faktura/internal/storage/memory"
)

type failingExporter struct{}

func (failingExporter) ExportForecast(context.Context, []forecast.Entry) error {
	return errors.New("quota exceeded")
}

func newWorker(t *testing.T, balance string, threshold string) (*ForecastWorker, *sheetsmem.Exporter) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	settings := services.NewSettingsService(store, nil)
	if _, err := settings.UpdateStartingBalance(ctx, decimal.RequireFromString(balance)); err != nil {
		t.Fatalf("UpdateStartingBalance() error = %v", err)
	}
	expenses := services.NewExpenseService(store, store, nil)
	if _, err := expenses.CreateOneOff(ctx, "Tax payment", decimal.RequireFromString("300"), time.Now()); err != nil {
		t.Fatalf("CreateOneOff() error = %v", err)
	}

	exporter := sheetsmem.New()
	w := NewForecastWorker(services.NewForecastService(store, settings, 3), exporter, 3, decimal.RequireFromString(threshold))
	return w, exporter
}

func TestForecastWorker_RunAlertsAndExports(t *testing.T) {
	w, exporter := newWorker(t, "100", "0")

	res, err := w.Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Summary.Months != 3 {
		t.Errorf("Months = %d, want 3", res.Summary.Months)
	}
	// 100 - 300 leaves every month at -200.
	if len(res.Alerts) != 3 {
		t.Errorf("len(Alerts) = %d, want 3", len(res.Alerts))
	}
	if !res.Exported || exporter.Exports() != 1 {
		t.Errorf("Exported = %v, exports = %d", res.Exported, exporter.Exports())
	}
}

func TestForecastWorker_NoAlertsAboveThreshold(t *testing.T) {
	w, _ := newWorker(t, "1000", "0")

	res, err := w.Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Alerts) != 0 {
		t.Errorf("Alerts = %+v, want none", res.Alerts)
	}
	if !res.Summary.EndingBalance.Equal(decimal.NewFromInt(700)) {
		t.Errorf("EndingBalance = %s, want 700", res.Summary.EndingBalance)
	}
}

func TestForecastWorker_HandleLedgerChanged(t *testing.T) {
	w, exporter := newWorker(t, "1000", "0")

	msg := amqp.NewLedgerChangedMessage(amqp.EntityInvoice, 1, amqp.OpCreated)
	if err := w.HandleLedgerChanged(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerChanged() error = %v", err)
	}
	if exporter.Exports() != 1 {
		t.Errorf("exports = %d, want 1", exporter.Exports())
	}
}

func TestForecastWorker_ExportErrorIsReturned(t *testing.T) {
	w, _ := newWorker(t, "1000", "0")
	w.exporter = failingExporter{}

	msg := amqp.NewLedgerChangedMessage(amqp.EntityInvoice, 1, amqp.OpCreated)
	if err := w.HandleLedgerChanged(context.Background(), msg); err == nil {
		t.Fatal("expected export error so the message is requeued")
	}
}

func TestForecastWorker_WithoutExporter(t *testing.T) {
	w, _ := newWorker(t, "1000", "0")
	w.exporter = nil

	res, err := w.Run(context.Background(), "test")
	if err != nil || res.Exported {
		t.Errorf("Run() = %+v, %v", res, err)
	}
}

func TestForecastWorker_Schedule(t *testing.T) {
	w, _ := newWorker(t, "1000", "0")

	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{"daily", "0 6 * * *", false},
		{"descriptor", "@hourly", false},
		{"garbage", "every morning", true},
		{"seconds field", "0 0 6 * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := w.Schedule(context.Background(), tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Schedule(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if err == nil && len(c.Entries()) != 1 {
				t.Errorf("len(Entries()) = %d, want 1", len(c.Entries()))
			}
		})
	}
}
