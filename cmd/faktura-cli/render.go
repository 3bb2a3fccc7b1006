package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"faktura/internal/core"
	"faktura/internal/forecast"
	"faktura/internal/services"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func writeHeader(w io.Writer, columns ...string) error {
	for i, c := range columns {
		sep := "\t"
		if i == len(columns)-1 {
			sep = "\t\n"
		}
		if _, err := fmt.Fprint(w, headerStyle.Render(c)+sep); err != nil {
			return err
		}
	}
	return nil
}

// renderForecastTable prints one row per month. Months whose balance is
// below threshold are marked.
func renderForecastTable(out io.Writer, fc services.Forecast, threshold decimal.Decimal, details bool) error {
	w := newTable(out)
	if err := writeHeader(w, "Month end", "Income", "Expenses", "Balance", ""); err != nil {
		return err
	}
	for _, e := range fc.Entries {
		mark := ""
		if e.Balance.LessThan(threshold) {
			mark = alertStyle.Render("below threshold")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			core.FormatDate(e.MonthEnd),
			core.FormatAmount(e.Income),
			core.FormatAmount(e.Expenses),
			core.FormatAmount(e.Balance),
			mark)
		if details {
			for _, tx := range e.Transactions {
				amount := core.FormatAmount(tx.Amount)
				if tx.Kind == forecast.KindExpense {
					amount = "-" + amount
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t\t\t\n",
					mutedStyle.Render(core.FormatDate(tx.Date)),
					mutedStyle.Render(tx.Description),
					amount)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	sum := fc.Summary()
	_, err := fmt.Fprintf(out, "\nStarting balance %s, ending balance %s over %d months.\n",
		core.FormatAmount(fc.StartingBalance), core.FormatAmount(sum.EndingBalance), sum.Months)
	if err != nil {
		return err
	}
	if sum.Months > 0 {
		_, err = fmt.Fprintf(out, "Lowest balance %s at %s.\n",
			core.FormatAmount(sum.LowestBalance), core.FormatDate(sum.LowestMonthEnd))
	}
	return err
}

type forecastSummaryJSON struct {
	Months         int    `json:"months"`
	TotalIncome    string `json:"total_income"`
	TotalExpenses  string `json:"total_expenses"`
	EndingBalance  string `json:"ending_balance"`
	LowestBalance  string `json:"lowest_balance"`
	LowestMonthEnd string `json:"lowest_month_end,omitempty"`
}

type forecastJSON struct {
	GeneratedAt     string              `json:"generated_at"`
	StartingBalance string              `json:"starting_balance"`
	Threshold       string              `json:"threshold"`
	Summary         forecastSummaryJSON `json:"summary"`
	Alerts          []string            `json:"alerts"`
	Entries         []forecast.Entry    `json:"entries"`
}

// renderForecastJSON prints the forecast in the shape of the HTTP API with
// a summary and the month ends below threshold.
func renderForecastJSON(out io.Writer, fc services.Forecast, threshold decimal.Decimal) error {
	sum := fc.Summary()
	doc := forecastJSON{
		GeneratedAt:     fc.GeneratedAt.UTC().Format(time.RFC3339),
		StartingBalance: core.FormatAmount(fc.StartingBalance),
		Threshold:       core.FormatAmount(threshold),
		Summary: forecastSummaryJSON{
			Months:        sum.Months,
			TotalIncome:   core.FormatAmount(sum.TotalIncome),
			TotalExpenses: core.FormatAmount(sum.TotalExpenses),
			EndingBalance: core.FormatAmount(sum.EndingBalance),
			LowestBalance: core.FormatAmount(sum.LowestBalance),
		},
		Alerts:  []string{},
		Entries: fc.Entries,
	}
	if sum.Months > 0 {
		doc.Summary.LowestMonthEnd = core.FormatDate(sum.LowestMonthEnd)
	}
	if doc.Entries == nil {
		doc.Entries = []forecast.Entry{}
	}
	for _, e := range fc.BelowThreshold(threshold) {
		doc.Alerts = append(doc.Alerts, core.FormatDate(e.MonthEnd))
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func activeLabel(active bool) string {
	if active {
		return "yes"
	}
	return mutedStyle.Render("no")
}

func renderRecurring(out io.Writer, list []core.RecurringExpense) error {
	w := newTable(out)
	if err := writeHeader(w, "ID", "Name", "Amount", "Day", "First", "Active"); err != nil {
		return err
	}
	for _, e := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t\n",
			e.ID, e.Name, core.FormatAmount(e.Amount), e.DayOfMonth,
			core.FormatDate(e.FirstOccurrence), activeLabel(e.Active))
	}
	return w.Flush()
}

func renderOneOff(out io.Writer, list []core.OneOffExpense) error {
	w := newTable(out)
	if err := writeHeader(w, "ID", "Name", "Amount", "Date", "Active"); err != nil {
		return err
	}
	for _, e := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n",
			e.ID, e.Name, core.FormatAmount(e.Amount), core.FormatDate(e.Date), activeLabel(e.Active))
	}
	return w.Flush()
}

func renderInvoices(out io.Writer, list []core.Invoice) error {
	w := newTable(out)
	if err := writeHeader(w, "Number", "Status", "Issued", "Due", "Net", "Gross"); err != nil {
		return err
	}
	for _, inv := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			inv.Number, inv.Status,
			core.FormatDate(inv.IssueDate), core.FormatDate(inv.DueDate),
			core.FormatAmount(inv.Net), core.FormatAmount(inv.Gross))
	}
	return w.Flush()
}
