package forecast

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"faktura/internal/core"
)

// ProjectRecurring returns at most one expense transaction per active
// recurring expense for the month starting at monthStart. The nominal day is
// clamped to the month's length, and months before the expense's first
// occurrence are skipped.
func ProjectRecurring(expenses []core.RecurringExpense, monthStart time.Time) []Transaction {
	return lo.FilterMap(expenses, func(e core.RecurringExpense, _ int) (Transaction, bool) {
		if !e.Active {
			return Transaction{}, false
		}
		candidate := e.OccurrenceIn(monthStart)
		if candidate.Before(core.NormalizeDate(e.FirstOccurrence)) {
			return Transaction{}, false
		}
		return Transaction{
			Date:        candidate,
			Description: e.Name,
			Amount:      e.Amount,
			Kind:        KindExpense,
		}, true
	})
}

// SelectOneOff returns the active one-off expenses dated within [start, end].
func SelectOneOff(expenses []core.OneOffExpense, start, end time.Time) []Transaction {
	return lo.FilterMap(expenses, func(e core.OneOffExpense, _ int) (Transaction, bool) {
		if !e.Active || !core.InWindow(e.Date, start, end) {
			return Transaction{}, false
		}
		return Transaction{
			Date:        core.NormalizeDate(e.Date),
			Description: e.Name,
			Amount:      e.Amount,
			Kind:        KindExpense,
		}, true
	})
}

// SelectIncome returns PAID and SENT invoices due within [start, end] as
// income recognised on the due date.
func SelectIncome(invoices []core.Invoice, start, end time.Time) []Transaction {
	return lo.FilterMap(invoices, func(inv core.Invoice, _ int) (Transaction, bool) {
		if !inv.Status.CountsAsIncome() || !core.InWindow(inv.DueDate, start, end) {
			return Transaction{}, false
		}
		return Transaction{
			Date:        core.NormalizeDate(inv.DueDate),
			Description: IncomeDescription(inv.Number),
			Amount:      inv.Gross,
			Kind:        KindIncome,
		}, true
	})
}

// IncomeDescription labels the income transaction of an invoice.
func IncomeDescription(number string) string {
	return "Invoice " + number
}

func sum(txs []Transaction) decimal.Decimal {
	return lo.Reduce(txs, func(acc decimal.Decimal, t Transaction, _ int) decimal.Decimal {
		return acc.Add(t.Amount)
	}, decimal.Zero)
}
