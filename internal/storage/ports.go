package storage

import (
	"context"
	"errors"
	"time"

	"faktura/internal/core"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// InvoiceFilter narrows ListInvoices. Zero values match everything.
type InvoiceFilter struct {
	Statuses    []core.InvoiceStatus
	RecipientID int64
}

type (
	RecurringExpenseStore interface {
		// ListRecurringExpenses returns all recurring expenses ordered by day of month.
		ListRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error)
		GetRecurringExpense(ctx context.Context, id int64) (core.RecurringExpense, error)
		CreateRecurringExpense(ctx context.Context, e core.RecurringExpense) (core.RecurringExpense, error)
		UpdateRecurringExpense(ctx context.Context, e core.RecurringExpense) error
		DeleteRecurringExpense(ctx context.Context, id int64) error
	}

	OneOffExpenseStore interface {
		// ListOneOffExpenses returns all one-off expenses ordered by date.
		ListOneOffExpenses(ctx context.Context) ([]core.OneOffExpense, error)
		GetOneOffExpense(ctx context.Context, id int64) (core.OneOffExpense, error)
		CreateOneOffExpense(ctx context.Context, e core.OneOffExpense) (core.OneOffExpense, error)
		UpdateOneOffExpense(ctx context.Context, e core.OneOffExpense) error
		DeleteOneOffExpense(ctx context.Context, id int64) error
	}

	InvoiceStore interface {
		// ListInvoices returns invoices ordered by due date.
		ListInvoices(ctx context.Context, f InvoiceFilter) ([]core.Invoice, error)
		GetInvoice(ctx context.Context, id int64) (core.Invoice, error)
		CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error)
		UpdateInvoiceStatus(ctx context.Context, id int64, status core.InvoiceStatus) error
		DeleteInvoice(ctx context.Context, id int64) error
		// CountInvoicesIssuedBetween counts invoices with from <= issue date <= to.
		CountInvoicesIssuedBetween(ctx context.Context, from, to time.Time) (int, error)
		// InvoiceNumbersWithPrefix returns every invoice number starting with prefix.
		InvoiceNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error)
		// InvoiceStats returns the invoice count, the gross sum and the latest
		// invoices by issue date.
		InvoiceStats(ctx context.Context, latest int) (core.DashboardStats, error)
	}

	RecipientStore interface {
		// ListRecipients returns recipients, newest first.
		ListRecipients(ctx context.Context) ([]core.Recipient, error)
		GetRecipient(ctx context.Context, id int64) (core.Recipient, error)
		CreateRecipient(ctx context.Context, r core.Recipient) (core.Recipient, error)
		DeleteRecipient(ctx context.Context, id int64) error
		CountInvoicesForRecipient(ctx context.Context, id int64) (int, error)
	}

	SettingsStore interface {
		// GetSettings returns ErrNotFound until settings were saved once.
		GetSettings(ctx context.Context) (core.Settings, error)
		SaveSettings(ctx context.Context, s core.Settings) error
	}

	// Repository is the full persistence surface of the application.
	Repository interface {
		RecurringExpenseStore
		OneOffExpenseStore
		InvoiceStore
		RecipientStore
		SettingsStore
		Ping(ctx context.Context) error
		Close() error
	}
)
