package sheets

import (
	"cmp"
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"faktura/internal/forecast"
)

// Ports for outbound adapters.
type (
	// ForecastExporter publishes a forecast to a spreadsheet. Rows for months
	// not covered by the new forecast are kept, so past months stay visible.
	ForecastExporter interface {
		ExportForecast(ctx context.Context, entries []forecast.Entry) error
	}

	// ForecastReader returns the rows exported for one calendar year.
	ForecastReader interface {
		ReadForecast(ctx context.Context, year int) ([]Row, error)
	}
)

// Row is one exported month.
type Row struct {
	MonthEnd string // YYYY-MM-DD
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Balance  decimal.Decimal
}

// Header is the first row of every forecast sheet.
var Header = []string{"Month", "Income", "Expenses", "Balance"}

// RowsByYear converts entries to rows grouped by the year of their month end.
func RowsByYear(entries []forecast.Entry) map[int][]Row {
	out := map[int][]Row{}
	for _, e := range entries {
		year := e.MonthEnd.Year()
		out[year] = append(out[year], Row{
			MonthEnd: e.MonthEnd.Format("2006-01-02"),
			Income:   e.Income,
			Expenses: e.Expenses,
			Balance:  e.Balance,
		})
	}
	return out
}

// MergeRows replaces existing rows by month and keeps the others. The result
// is sorted by month.
func MergeRows(existing, fresh []Row) []Row {
	byMonth := make(map[string]Row, len(existing)+len(fresh))
	for _, r := range existing {
		byMonth[r.MonthEnd] = r
	}
	for _, r := range fresh {
		byMonth[r.MonthEnd] = r
	}
	out := make([]Row, 0, len(byMonth))
	for _, r := range byMonth {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Row) int { return cmp.Compare(a.MonthEnd, b.MonthEnd) })
	return out
}

// Years returns the keys of a RowsByYear result in ascending order.
func Years(rows map[int][]Row) []int {
	years := make([]int, 0, len(rows))
	for y := range rows {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}
