package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"faktura/internal/amqp"
	"faktura/internal/core"
	"faktura/internal/log"
	"faktura/internal/storage"
)

// latestInvoices is the number of invoices shown on the dashboard.
const latestInvoices = 5

// InvoiceInput is the data needed to issue an invoice. Zero dates take
// defaults: today for the issue date, issue date plus the configured due days
// for the due date.
type InvoiceInput struct {
	RecipientID int64
	Items       []core.LineItem
	IssueDate   time.Time
	DueDate     time.Time
	Notes       string
}

type InvoiceService struct {
	invoices   storage.InvoiceStore
	recipients storage.RecipientStore
	settings   *SettingsService
	publisher  LedgerPublisher
	dueDays    int
	now        func() time.Time

	// numbering serialises number allocation and insert.
	numbering sync.Mutex
}

func NewInvoiceService(invoices storage.InvoiceStore, recipients storage.RecipientStore, settings *SettingsService, publisher LedgerPublisher, dueDays int) *InvoiceService {
	if dueDays <= 0 {
		dueDays = core.DefaultDueDays
	}
	return &InvoiceService{
		invoices:   invoices,
		recipients: recipients,
		settings:   settings,
		publisher:  publisher,
		dueDays:    dueDays,
		now:        time.Now,
	}
}

func (s *InvoiceService) List(ctx context.Context, f storage.InvoiceFilter) ([]core.Invoice, error) {
	return s.invoices.ListInvoices(ctx, f)
}

func (s *InvoiceService) Get(ctx context.Context, id int64) (core.Invoice, error) {
	return s.invoices.GetInvoice(ctx, id)
}

// Create numbers, totals and stores a new DRAFT invoice.
func (s *InvoiceService) Create(ctx context.Context, in InvoiceInput) (core.Invoice, error) {
	if len(in.Items) == 0 {
		return core.Invoice{}, core.ErrNoLineItems
	}
	if _, err := s.recipients.GetRecipient(ctx, in.RecipientID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Invoice{}, fmt.Errorf("recipient %d: %w", in.RecipientID, core.ErrInvalidRecipient)
		}
		return core.Invoice{}, err
	}

	now := s.now()
	issue := core.NormalizeDate(now)
	if !in.IssueDate.IsZero() {
		issue = core.NormalizeDate(in.IssueDate)
	}
	due := core.DefaultDueDate(issue, s.dueDays)
	if !in.DueDate.IsZero() {
		due = core.NormalizeDate(in.DueDate)
	}

	items := make([]core.LineItem, len(in.Items))
	for i, it := range in.Items {
		it.Description = strings.TrimSpace(it.Description)
		it.Position = i + 1
		items[i] = it
	}

	inv := core.Invoice{
		RecipientID: in.RecipientID,
		IssueDate:   issue,
		DueDate:     due,
		Status:      core.StatusDraft,
		Notes:       strings.TrimSpace(in.Notes),
		Items:       items,
		Totals:      core.CalculateTotals(items),
	}
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	s.numbering.Lock()
	defer s.numbering.Unlock()

	number, err := s.nextNumber(ctx, now)
	if err != nil {
		return core.Invoice{}, err
	}
	inv.Number = number

	created, err := s.invoices.CreateInvoice(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}

	publishChange(ctx, s.publisher, log.ComponentInvoice, amqp.EntityInvoice, created.ID, amqp.OpCreated)
	return created, nil
}

// nextNumber is PREFIX-YEAR-NNNN with NNNN = start number + invoices issued
// in the current year, raised above the highest sequence already taken for
// that prefix and year.
func (s *InvoiceService) nextNumber(ctx context.Context, now time.Time) (string, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	year := now.Year()
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	count, err := s.invoices.CountInvoicesIssuedBetween(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("count invoices of %d: %w", year, err)
	}
	seq := settings.OverrideInvoiceStartNumber + count

	taken, err := s.invoices.InvoiceNumbersWithPrefix(ctx, core.InvoiceNumberPrefix(settings.InvoicePrefix, year))
	if err != nil {
		return "", fmt.Errorf("list invoice numbers of %d: %w", year, err)
	}
	for _, number := range taken {
		if n, ok := core.InvoiceSequence(number, settings.InvoicePrefix, year); ok && n >= seq {
			seq = n + 1
		}
	}
	return core.FormatInvoiceNumber(settings.InvoicePrefix, year, seq), nil
}

func (s *InvoiceService) MarkStatus(ctx context.Context, id int64, status core.InvoiceStatus) (core.Invoice, error) {
	if !status.IsValid() {
		return core.Invoice{}, fmt.Errorf("%w: %q", core.ErrInvalidStatus, status)
	}
	if err := s.invoices.UpdateInvoiceStatus(ctx, id, status); err != nil {
		return core.Invoice{}, err
	}
	publishChange(ctx, s.publisher, log.ComponentInvoice, amqp.EntityInvoice, id, amqp.OpUpdated)
	return s.invoices.GetInvoice(ctx, id)
}

func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	if err := s.invoices.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	publishChange(ctx, s.publisher, log.ComponentInvoice, amqp.EntityInvoice, id, amqp.OpDeleted)
	return nil
}

// Stats returns the dashboard figures.
func (s *InvoiceService) Stats(ctx context.Context) (core.DashboardStats, error) {
	return s.invoices.InvoiceStats(ctx, latestInvoices)
}
