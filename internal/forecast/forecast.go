// Package forecast projects an account balance month by month from invoice
// income, recurring expenses and one-off expenses.
//
// Generate is pure: it never reads a clock or a store, so the same inputs
// always yield the same entries.
package forecast

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"faktura/internal/core"
)

// DefaultHorizon is the number of months projected when the caller does not
// ask for a specific horizon.
const DefaultHorizon = 12

// Kind tells income from expense transactions.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type (
	// Transaction is a single projected cash movement. Amount is always
	// positive; Kind carries the sign.
	Transaction struct {
		Date        time.Time
		Description string
		Amount      decimal.Decimal
		Kind        Kind
	}

	// Entry is the projection for one calendar month. Transactions are sorted
	// by date; same-day ties keep the order income, recurring, one-off.
	Entry struct {
		MonthEnd     time.Time
		Balance      decimal.Decimal
		Income       decimal.Decimal
		Expenses     decimal.Decimal
		Transactions []Transaction
	}

	// Inputs is a read-only snapshot of the ledger. Inactive expenses and
	// invoices in other states than PAID or SENT are ignored, so callers may
	// pass unfiltered collections.
	Inputs struct {
		Recurring []core.RecurringExpense
		OneOff    []core.OneOffExpense
		Invoices  []core.Invoice
	}
)

// Generate projects horizon months starting with the month containing now.
// A horizon of zero or less yields an empty result.
func Generate(startingBalance decimal.Decimal, horizon int, now time.Time, in Inputs) []Entry {
	if horizon <= 0 {
		return []Entry{}
	}

	in = in.sorted()
	first := core.StartOfMonth(now)
	balance := startingBalance
	entries := make([]Entry, 0, horizon)

	for m := 0; m < horizon; m++ {
		monthStart := core.AddMonths(first, m)
		entry := projectMonth(monthStart, in)
		balance = balance.Add(entry.Income).Sub(entry.Expenses)
		entry.Balance = balance
		entries = append(entries, entry)
	}
	return entries
}

func projectMonth(monthStart time.Time, in Inputs) Entry {
	start, end := core.MonthWindow(monthStart)

	income := SelectIncome(in.Invoices, start, end)
	recurring := ProjectRecurring(in.Recurring, monthStart)
	oneOff := SelectOneOff(in.OneOff, start, end)

	txs := make([]Transaction, 0, len(income)+len(recurring)+len(oneOff))
	txs = append(txs, income...)
	txs = append(txs, recurring...)
	txs = append(txs, oneOff...)
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		return a.Date.Compare(b.Date)
	})

	return Entry{
		MonthEnd:     end,
		Income:       sum(income),
		Expenses:     sum(recurring).Add(sum(oneOff)),
		Transactions: txs,
	}
}

// sorted returns copies of the input collections in the order the ledger
// lists them, so that same-day ties do not depend on caller order.
func (in Inputs) sorted() Inputs {
	out := Inputs{
		Recurring: slices.Clone(in.Recurring),
		OneOff:    slices.Clone(in.OneOff),
		Invoices:  slices.Clone(in.Invoices),
	}
	slices.SortStableFunc(out.Recurring, func(a, b core.RecurringExpense) int {
		return cmp.Or(cmp.Compare(a.DayOfMonth, b.DayOfMonth), cmp.Compare(a.ID, b.ID))
	})
	slices.SortStableFunc(out.OneOff, func(a, b core.OneOffExpense) int {
		return cmp.Or(core.NormalizeDate(a.Date).Compare(core.NormalizeDate(b.Date)), cmp.Compare(a.ID, b.ID))
	})
	slices.SortStableFunc(out.Invoices, func(a, b core.Invoice) int {
		return cmp.Or(core.NormalizeDate(a.DueDate).Compare(core.NormalizeDate(b.DueDate)), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// LowestBalance returns the entry with the smallest balance. ok is false for
// an empty forecast.
func LowestBalance(entries []Entry) (lowest Entry, ok bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	lowest = entries[0]
	for _, e := range entries[1:] {
		if e.Balance.LessThan(lowest.Balance) {
			lowest = e
		}
	}
	return lowest, true
}

// Summary is the aggregate of a forecast horizon.
type Summary struct {
	Months         int
	TotalIncome    decimal.Decimal
	TotalExpenses  decimal.Decimal
	EndingBalance  decimal.Decimal
	LowestBalance  decimal.Decimal
	LowestMonthEnd time.Time
}

// Summarize folds entries into a Summary. startingBalance is reported as the
// ending balance of an empty forecast.
func Summarize(startingBalance decimal.Decimal, entries []Entry) Summary {
	s := Summary{
		Months:        len(entries),
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		EndingBalance: startingBalance,
		LowestBalance: startingBalance,
	}
	for _, e := range entries {
		s.TotalIncome = s.TotalIncome.Add(e.Income)
		s.TotalExpenses = s.TotalExpenses.Add(e.Expenses)
		s.EndingBalance = e.Balance
	}
	if low, ok := LowestBalance(entries); ok {
		s.LowestBalance = low.Balance
		s.LowestMonthEnd = low.MonthEnd
	}
	return s
}
