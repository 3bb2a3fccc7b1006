package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"faktura/internal/forecast"
)

func entry(y int, m time.Month, balance int64) forecast.Entry {
	end := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
	return forecast.Entry{
		MonthEnd: end,
		Balance:  decimal.NewFromInt(balance),
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
	}
}

func TestExporterSplitsYearsAndKeepsHistory(t *testing.T) {
	ctx := context.Background()
	e := New()

	if err := e.ExportForecast(ctx, []forecast.Entry{
		entry(2024, 11, 100),
		entry(2024, 12, 90),
		entry(2025, 1, 80),
	}); err != nil {
		t.Fatalf("ExportForecast() error = %v", err)
	}

	// A month later the forecast no longer contains November.
	if err := e.ExportForecast(ctx, []forecast.Entry{
		entry(2024, 12, 95),
		entry(2025, 1, 85),
	}); err != nil {
		t.Fatalf("ExportForecast() error = %v", err)
	}

	rows2024, _ := e.ReadForecast(ctx, 2024)
	if len(rows2024) != 2 {
		t.Fatalf("len(2024 rows) = %d, want 2", len(rows2024))
	}
	if rows2024[0].MonthEnd != "2024-11-30" || !rows2024[0].Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("november row = %+v, want the first export kept", rows2024[0])
	}
	if !rows2024[1].Balance.Equal(decimal.NewFromInt(95)) {
		t.Errorf("december balance = %s, want 95", rows2024[1].Balance)
	}

	rows2025, _ := e.ReadForecast(ctx, 2025)
	if len(rows2025) != 1 || rows2025[0].MonthEnd != "2025-01-31" {
		t.Errorf("2025 rows = %+v", rows2025)
	}
	if e.Exports() != 2 {
		t.Errorf("Exports() = %d, want 2", e.Exports())
	}
}
