package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"faktura/internal/core"
	"faktura/internal/forecast"
	"faktura/internal/services"
)

func sampleForecast() services.Forecast {
	d := func(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }
	return services.Forecast{
		GeneratedAt:     d(2025, 1, 10),
		StartingBalance: decimal.NewFromInt(1000),
		Entries: []forecast.Entry{
			{
				MonthEnd: d(2025, 1, 31),
				Income:   decimal.Zero,
				Expenses: decimal.NewFromInt(1200),
				Balance:  decimal.NewFromInt(-200),
				Transactions: []forecast.Transaction{
					{Date: d(2025, 1, 15), Description: "Rent", Amount: decimal.NewFromInt(1200), Kind: forecast.KindExpense},
				},
			},
			{
				MonthEnd: d(2025, 2, 28),
				Income:   decimal.NewFromInt(500),
				Expenses: decimal.Zero,
				Balance:  decimal.NewFromInt(300),
			},
		},
	}
}

func TestRenderForecastTable(t *testing.T) {
	var buf bytes.Buffer
	if err := renderForecastTable(&buf, sampleForecast(), decimal.Zero, true); err != nil {
		t.Fatalf("renderForecastTable() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"2025-01-31", "-200.00", "below threshold", "Rent", "-1200.00",
		"2025-02-28", "300.00",
		"Starting balance 1000.00, ending balance 300.00 over 2 months.",
		"Lowest balance -200.00 at 2025-01-31.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "below threshold"); got != 1 {
		t.Errorf("got %d alerts, want 1", got)
	}
}

func TestRenderForecastTable_Empty(t *testing.T) {
	fc := services.Forecast{StartingBalance: decimal.NewFromInt(50)}
	var buf bytes.Buffer
	if err := renderForecastTable(&buf, fc, decimal.Zero, false); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Lowest balance") {
		t.Errorf("empty forecast should not report a lowest month:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "ending balance 50.00 over 0 months") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestRenderForecastJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderForecastJSON(&buf, sampleForecast(), decimal.NewFromInt(250)); err != nil {
		t.Fatalf("renderForecastJSON() error = %v", err)
	}

	var doc struct {
		GeneratedAt     string   `json:"generated_at"`
		StartingBalance string   `json:"starting_balance"`
		Alerts          []string `json:"alerts"`
		Summary         struct {
			EndingBalance  string `json:"ending_balance"`
			LowestMonthEnd string `json:"lowest_month_end"`
		} `json:"summary"`
		Entries []struct {
			Date         string `json:"date"`
			Balance      string `json:"balance"`
			Transactions []struct {
				Type string `json:"type"`
			} `json:"transactions"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}

	if doc.GeneratedAt != "2025-01-10T00:00:00Z" || doc.StartingBalance != "1000.00" {
		t.Errorf("header = %q %q", doc.GeneratedAt, doc.StartingBalance)
	}
	if len(doc.Alerts) != 1 || doc.Alerts[0] != "2025-01-31" {
		t.Errorf("alerts = %v", doc.Alerts)
	}
	if doc.Summary.EndingBalance != "300.00" || doc.Summary.LowestMonthEnd != "2025-01-31" {
		t.Errorf("summary = %+v", doc.Summary)
	}
	if len(doc.Entries) != 2 || doc.Entries[1].Balance != "300.00" {
		t.Fatalf("entries = %+v", doc.Entries)
	}
	if len(doc.Entries[1].Transactions) != 0 || doc.Entries[0].Transactions[0].Type != string(forecast.KindExpense) {
		t.Errorf("transactions = %+v", doc.Entries)
	}
}

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		raw     string
		want    []core.InvoiceStatus
		wantErr bool
	}{
		{"", nil, false},
		{"sent", []core.InvoiceStatus{core.StatusSent}, false},
		{"SENT, paid", []core.InvoiceStatus{core.StatusSent, core.StatusPaid}, false},
		{"sent,,", []core.InvoiceStatus{core.StatusSent}, false},
		{"overdue", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseStatusFilter(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got.Statuses) != len(tt.want) {
				t.Fatalf("got %v, want %v", got.Statuses, tt.want)
			}
			for i := range tt.want {
				if got.Statuses[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got.Statuses, tt.want)
				}
			}
		})
	}
}
