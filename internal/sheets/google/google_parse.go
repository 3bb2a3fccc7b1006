package google

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"faktura/internal/core"
	ports "faktura/internal/sheets"
)

// parseForecastRows converts a values matrix (as returned by the Sheets API)
// into rows. The first row must carry the Month, Income, Expenses and Balance
// headers in any order; rows with an unparseable month are skipped.
func parseForecastRows(values [][]any) ([]ports.Row, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols := make([]int, len(ports.Header))
	var missing []string
	for i, h := range ports.Header {
		cols[i] = indexOf(headers, h)
		if cols[i] == -1 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected forecast header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []ports.Row
	for _, raw := range values[1:] {
		row := toStrings(raw)
		month, err := core.ParseDate(safeGet(row, cols[0]))
		if err != nil {
			continue
		}
		r := ports.Row{MonthEnd: core.FormatDate(month)}
		if r.Income, err = parseSheetAmount(safeGet(row, cols[1])); err != nil {
			return nil, fmt.Errorf("row %s income: %w", r.MonthEnd, err)
		}
		if r.Expenses, err = parseSheetAmount(safeGet(row, cols[2])); err != nil {
			return nil, fmt.Errorf("row %s expenses: %w", r.MonthEnd, err)
		}
		if r.Balance, err = parseSheetAmount(safeGet(row, cols[3])); err != nil {
			return nil, fmt.Errorf("row %s balance: %w", r.MonthEnd, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// parseSheetAmount accepts plain numbers with a dot or comma separator.
// Empty cells read as zero; negative values are allowed.
func parseSheetAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
	}
	return core.RoundMoney(d), nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
