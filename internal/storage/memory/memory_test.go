package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"faktura/internal/core"
	"faktura/internal/storage"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRecurringExpensesSortedByDay(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, d := range []int{28, 1, 15} {
		if _, err := s.CreateRecurringExpense(ctx, core.RecurringExpense{Name: "x", Amount: decimal.NewFromInt(1), DayOfMonth: d, Active: true}); err != nil {
			t.Fatalf("CreateRecurringExpense() error = %v", err)
		}
	}
	list, _ := s.ListRecurringExpenses(ctx)
	if len(list) != 3 || list[0].DayOfMonth != 1 || list[2].DayOfMonth != 28 {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestNotFoundErrors(t *testing.T) {
	ctx := context.Background()
	s := New()
	tests := []struct {
		name string
		fn   func() error
	}{
		{"get recurring", func() error { _, err := s.GetRecurringExpense(ctx, 1); return err }},
		{"update recurring", func() error { return s.UpdateRecurringExpense(ctx, core.RecurringExpense{ID: 1}) }},
		{"delete one-off", func() error { return s.DeleteOneOffExpense(ctx, 1) }},
		{"get invoice", func() error { _, err := s.GetInvoice(ctx, 1); return err }},
		{"invoice status", func() error { return s.UpdateInvoiceStatus(ctx, 1, core.StatusPaid) }},
		{"delete recipient", func() error { return s.DeleteRecipient(ctx, 1) }},
		{"settings", func() error { _, err := s.GetSettings(ctx); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestInvoicesAndRecipients(t *testing.T) {
	ctx := context.Background()
	s := New()
	rc, _ := s.CreateRecipient(ctx, core.Recipient{Name: "ACME", Country: "DE"})

	items := []core.LineItem{{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)}}
	inv := core.Invoice{Number: "RE-2024-0001", RecipientID: rc.ID, IssueDate: day(2024, 1, 1), DueDate: day(2024, 1, 15),
		Status: core.StatusSent, Items: items, Totals: core.CalculateTotals(items)}

	created, err := s.CreateInvoice(ctx, inv)
	if err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}
	if created.Items[0].Position != 1 {
		t.Errorf("Position = %d, want 1", created.Items[0].Position)
	}
	if _, err := s.CreateInvoice(ctx, inv); err == nil {
		t.Error("expected duplicate number to fail")
	}

	inv.Number = "RE-2024-0002"
	inv.RecipientID = 999
	if _, err := s.CreateInvoice(ctx, inv); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown recipient error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteRecipient(ctx, rc.ID); !errors.Is(err, core.ErrRecipientInUse) {
		t.Errorf("DeleteRecipient() error = %v, want ErrRecipientInUse", err)
	}

	sent, _ := s.ListInvoices(ctx, storage.InvoiceFilter{Statuses: []core.InvoiceStatus{core.StatusSent}})
	draft, _ := s.ListInvoices(ctx, storage.InvoiceFilter{Statuses: []core.InvoiceStatus{core.StatusDraft}})
	if len(sent) != 1 || len(draft) != 0 {
		t.Errorf("filter mismatch: sent=%d draft=%d", len(sent), len(draft))
	}

	n, _ := s.CountInvoicesIssuedBetween(ctx, day(2024, 1, 1), day(2024, 12, 31))
	if n != 1 {
		t.Errorf("CountInvoicesIssuedBetween() = %d, want 1", n)
	}
	if numbers, _ := s.InvoiceNumbersWithPrefix(ctx, "RE-2024-"); len(numbers) != 1 || numbers[0] != "RE-2024-0001" {
		t.Errorf("InvoiceNumbersWithPrefix() = %v", numbers)
	}
	if numbers, _ := s.InvoiceNumbersWithPrefix(ctx, "INV-"); len(numbers) != 0 {
		t.Errorf("InvoiceNumbersWithPrefix(INV-) = %v", numbers)
	}

	stats, _ := s.InvoiceStats(ctx, 5)
	if stats.InvoiceCount != 1 || !stats.GrossTotal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestReturnedInvoiceIsACopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	rc, _ := s.CreateRecipient(ctx, core.Recipient{Name: "ACME", Country: "DE"})
	items := []core.LineItem{{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)}}
	created, _ := s.CreateInvoice(ctx, core.Invoice{Number: "RE-2024-0001", RecipientID: rc.ID, IssueDate: day(2024, 1, 1),
		DueDate: day(2024, 1, 15), Status: core.StatusDraft, Items: items, Totals: core.CalculateTotals(items)})

	created.Items[0].Description = "changed"
	got, _ := s.GetInvoice(ctx, created.ID)
	if got.Items[0].Description != "Work" {
		t.Errorf("stored invoice was mutated through returned value")
	}
}
