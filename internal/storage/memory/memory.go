// Package memory is an in-process storage.Repository used for tests and the
// "memory" data backend. Nothing survives a restart.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"faktura/internal/core"
	"faktura/internal/storage"
)

type Store struct {
	mu         sync.Mutex
	nextID     int64
	recurring  map[int64]core.RecurringExpense
	oneOff     map[int64]core.OneOffExpense
	invoices   map[int64]core.Invoice
	recipients map[int64]core.Recipient
	settings   *core.Settings
	now        func() time.Time
}

var _ storage.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		recurring:  map[int64]core.RecurringExpense{},
		oneOff:     map[int64]core.OneOffExpense{},
		invoices:   map[int64]core.Invoice{},
		recipients: map[int64]core.Recipient{},
		now:        time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
}

func sortedValues[T any](m map[int64]T, less func(a, b T) int) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, less)
	return out
}

func (s *Store) ListRecurringExpenses(context.Context) ([]core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.recurring, func(a, b core.RecurringExpense) int {
		return cmp.Or(cmp.Compare(a.DayOfMonth, b.DayOfMonth), cmp.Compare(a.ID, b.ID))
	}), nil
}

func (s *Store) GetRecurringExpense(_ context.Context, id int64) (core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.recurring[id]
	if !ok {
		return e, notFound("recurring expense", id)
	}
	return e, nil
}

func (s *Store) CreateRecurringExpense(_ context.Context, e core.RecurringExpense) (core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	s.recurring[e.ID] = e
	return e, nil
}

func (s *Store) UpdateRecurringExpense(_ context.Context, e core.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[e.ID]; !ok {
		return notFound("recurring expense", e.ID)
	}
	s.recurring[e.ID] = e
	return nil
}

func (s *Store) DeleteRecurringExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[id]; !ok {
		return notFound("recurring expense", id)
	}
	delete(s.recurring, id)
	return nil
}

func (s *Store) ListOneOffExpenses(context.Context) ([]core.OneOffExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.oneOff, func(a, b core.OneOffExpense) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.ID, b.ID))
	}), nil
}

func (s *Store) GetOneOffExpense(_ context.Context, id int64) (core.OneOffExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.oneOff[id]
	if !ok {
		return e, notFound("one-off expense", id)
	}
	return e, nil
}

func (s *Store) CreateOneOffExpense(_ context.Context, e core.OneOffExpense) (core.OneOffExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	s.oneOff[e.ID] = e
	return e, nil
}

func (s *Store) UpdateOneOffExpense(_ context.Context, e core.OneOffExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.oneOff[e.ID]; !ok {
		return notFound("one-off expense", e.ID)
	}
	s.oneOff[e.ID] = e
	return nil
}

func (s *Store) DeleteOneOffExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.oneOff[id]; !ok {
		return notFound("one-off expense", id)
	}
	delete(s.oneOff, id)
	return nil
}

func byDueDate(a, b core.Invoice) int {
	return cmp.Or(a.DueDate.Compare(b.DueDate), cmp.Compare(a.ID, b.ID))
}

func (s *Store) ListInvoices(_ context.Context, f storage.InvoiceFilter) ([]core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Invoice
	for _, inv := range sortedValues(s.invoices, byDueDate) {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, inv.Status) {
			continue
		}
		if f.RecipientID > 0 && inv.RecipientID != f.RecipientID {
			continue
		}
		inv.Items = nil
		out = append(out, inv)
	}
	return out, nil
}

func (s *Store) GetInvoice(_ context.Context, id int64) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return inv, notFound("invoice", id)
	}
	inv.Items = slices.Clone(inv.Items)
	return inv, nil
}

func (s *Store) CreateInvoice(_ context.Context, inv core.Invoice) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.invoices {
		if existing.Number == inv.Number {
			return inv, fmt.Errorf("create invoice: number %q already exists", inv.Number)
		}
	}
	if _, ok := s.recipients[inv.RecipientID]; !ok {
		return inv, fmt.Errorf("create invoice: %w", notFound("recipient", inv.RecipientID))
	}
	inv.ID = s.id()
	inv.Items = slices.Clone(inv.Items)
	for i := range inv.Items {
		inv.Items[i].Position = i + 1
	}
	s.invoices[inv.ID] = inv
	inv.Items = slices.Clone(inv.Items)
	return inv, nil
}

func (s *Store) UpdateInvoiceStatus(_ context.Context, id int64, status core.InvoiceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return notFound("invoice", id)
	}
	inv.Status = status
	s.invoices[id] = inv
	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[id]; !ok {
		return notFound("invoice", id)
	}
	delete(s.invoices, id)
	return nil
}

func (s *Store) CountInvoicesIssuedBetween(_ context.Context, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, inv := range s.invoices {
		if core.InWindow(inv.IssueDate, from, to) {
			n++
		}
	}
	return n, nil
}

func (s *Store) InvoiceNumbersWithPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var numbers []string
	for _, inv := range s.invoices {
		if strings.HasPrefix(inv.Number, prefix) {
			numbers = append(numbers, inv.Number)
		}
	}
	slices.Sort(numbers)
	return numbers, nil
}

func (s *Store) InvoiceStats(_ context.Context, latest int) (core.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := core.DashboardStats{GrossTotal: decimal.Zero}
	all := sortedValues(s.invoices, func(a, b core.Invoice) int {
		return cmp.Or(b.IssueDate.Compare(a.IssueDate), cmp.Compare(b.ID, a.ID))
	})
	for i, inv := range all {
		stats.InvoiceCount++
		stats.GrossTotal = stats.GrossTotal.Add(inv.Gross)
		if i < latest {
			inv.Items = nil
			stats.LatestInvoices = append(stats.LatestInvoices, inv)
		}
	}
	return stats, nil
}

func (s *Store) ListRecipients(context.Context) ([]core.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.recipients, func(a, b core.Recipient) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	}), nil
}

func (s *Store) GetRecipient(_ context.Context, id int64) (core.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipients[id]
	if !ok {
		return r, notFound("recipient", id)
	}
	return r, nil
}

func (s *Store) CreateRecipient(_ context.Context, r core.Recipient) (core.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	r.CreatedAt = s.now().UTC().Truncate(time.Second)
	s.recipients[r.ID] = r
	return r, nil
}

func (s *Store) DeleteRecipient(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipients[id]; !ok {
		return notFound("recipient", id)
	}
	for _, inv := range s.invoices {
		if inv.RecipientID == id {
			return fmt.Errorf("delete recipient %d: %w", id, core.ErrRecipientInUse)
		}
	}
	delete(s.recipients, id)
	return nil
}

func (s *Store) CountInvoicesForRecipient(_ context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, inv := range s.invoices {
		if inv.RecipientID == id {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetSettings(context.Context) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return core.Settings{}, fmt.Errorf("settings: %w", storage.ErrNotFound)
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}
