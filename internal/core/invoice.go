package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "DRAFT"
	StatusSent      InvoiceStatus = "SENT"
	StatusPaid      InvoiceStatus = "PAID"
	StatusCancelled InvoiceStatus = "CANCELLED"
)

const (
	DefaultInvoicePrefix = "RE"
	DefaultDueDays       = 14
	invoiceNumberDigits  = 4
)

var (
	ErrNoLineItems      = errors.New("at least one line item is required")
	ErrInvalidStatus    = errors.New("invalid invoice status")
	ErrInvalidTaxRate   = errors.New("tax rate must be between 0 and 100")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidRecipient = errors.New("invalid recipient")
)

type (
	LineItem struct {
		Position    int
		Description string
		Quantity    decimal.Decimal
		UnitPrice   decimal.Decimal
		TaxRate     decimal.Decimal // percent
	}

	Totals struct {
		Net   decimal.Decimal
		Tax   decimal.Decimal
		Gross decimal.Decimal
	}

	Invoice struct {
		ID          int64
		Number      string
		RecipientID int64
		IssueDate   time.Time
		DueDate     time.Time
		Status      InvoiceStatus
		Notes       string
		Items       []LineItem
		Totals
	}
)

var hundred = decimal.NewFromInt(100)

// ParseInvoiceStatus accepts a status name in any letter case.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	st := InvoiceStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// CountsAsIncome reports whether invoices in this status feed the forecast.
// SENT invoices are treated as paid on their due date.
func (s InvoiceStatus) CountsAsIncome() bool {
	return s == StatusPaid || s == StatusSent
}

func (li LineItem) Validate() error {
	if err := validateName(li.Description); err != nil {
		return err
	}
	if !li.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if err := ValidateAmount(li.UnitPrice); err != nil {
		return err
	}
	return ValidateTaxRate(li.TaxRate)
}

// ValidateTaxRate accepts percentages in [0,100].
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return ErrInvalidTaxRate
	}
	return nil
}

// CalculateTotals sums net, tax and gross over the items. Each item
// contributes net = quantity*unitPrice and tax = net*taxRate/100; the sums are
// rounded to two places only once at the end.
func CalculateTotals(items []LineItem) Totals {
	net, tax := decimal.Zero, decimal.Zero
	for _, it := range items {
		n := it.Quantity.Mul(it.UnitPrice)
		net = net.Add(n)
		tax = tax.Add(n.Mul(it.TaxRate).Div(hundred))
	}
	return Totals{
		Net:   RoundMoney(net),
		Tax:   RoundMoney(tax),
		Gross: RoundMoney(net.Add(tax)),
	}
}

// FormatInvoiceNumber renders PREFIX-YEAR-NNNN. An empty prefix falls back to
// DefaultInvoicePrefix.
func FormatInvoiceNumber(prefix string, year, sequence int) string {
	return fmt.Sprintf("%s%0*d", InvoiceNumberPrefix(prefix, year), invoiceNumberDigits, sequence)
}

// InvoiceNumberPrefix is the "PREFIX-YEAR-" part shared by a year's numbers.
func InvoiceNumberPrefix(prefix string, year int) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	return fmt.Sprintf("%s-%d-", prefix, year)
}

// InvoiceSequence extracts the sequence from a number produced by
// FormatInvoiceNumber with the same prefix and year.
func InvoiceSequence(number, prefix string, year int) (int, bool) {
	digits, ok := strings.CutPrefix(number, InvoiceNumberPrefix(prefix, year))
	if !ok || digits == "" {
		return 0, false
	}
	seq, err := strconv.Atoi(digits)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// DefaultDueDate returns issueDate plus days.
func DefaultDueDate(issueDate time.Time, days int) time.Time {
	return NormalizeDate(issueDate).AddDate(0, 0, days)
}

func (inv Invoice) Validate() error {
	if inv.RecipientID <= 0 {
		return ErrInvalidRecipient
	}
	if len(inv.Items) == 0 {
		return ErrNoLineItems
	}
	for i, it := range inv.Items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("line item %d: %w", i+1, err)
		}
	}
	if inv.IssueDate.IsZero() || inv.DueDate.IsZero() {
		return ErrInvalidDate
	}
	if !inv.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}
