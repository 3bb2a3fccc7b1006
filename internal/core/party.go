package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCountry     = errors.New("country must have at least 2 characters")
	ErrInvalidStartNumber = errors.New("invoice start number must not be negative")
	ErrInvalidPrefix      = errors.New("invoice prefix too long (max 20 characters)")
	ErrRecipientInUse     = errors.New("recipient has invoices")
)

// SettingsID is the primary key of the single settings row.
const SettingsID = 1

const maxPrefixLength = 20

type (
	// Recipient is an invoice addressee.
	Recipient struct {
		ID         int64
		Name       string
		Company    string
		Email      string
		Street     string
		PostalCode string
		City       string
		Country    string
		CreatedAt  time.Time
	}

	// Settings is the singleton business profile. StartingBalance seeds the
	// cash-flow forecast.
	Settings struct {
		CompanyName                string
		PersonName                 string
		TaxNumber                  string
		Street                     string
		PostalCode                 string
		City                       string
		Country                    string
		IBAN                       string
		BIC                        string
		DefaultTaxRate             decimal.Decimal
		InvoicePrefix              string
		OverrideInvoiceStartNumber int
		StartingBalance            decimal.Decimal
	}

	// DashboardStats summarises the invoice book.
	DashboardStats struct {
		InvoiceCount   int
		GrossTotal     decimal.Decimal
		LatestInvoices []Invoice
	}
)

// DefaultSettings is used when no settings row exists yet.
func DefaultSettings() Settings {
	return Settings{
		Country:                    "DE",
		DefaultTaxRate:             decimal.NewFromInt(19),
		InvoicePrefix:              DefaultInvoicePrefix,
		OverrideInvoiceStartNumber: 1,
		StartingBalance:            decimal.Zero,
	}
}

// Normalize trims fields and upper-cases the country code.
func (r Recipient) Normalize() Recipient {
	r.Name = strings.TrimSpace(r.Name)
	r.Company = strings.TrimSpace(r.Company)
	r.Email = strings.TrimSpace(r.Email)
	r.Street = strings.TrimSpace(r.Street)
	r.PostalCode = strings.TrimSpace(r.PostalCode)
	r.City = strings.TrimSpace(r.City)
	r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
	return r
}

func (r Recipient) Validate() error {
	if len([]rune(strings.TrimSpace(r.Name))) < 2 {
		return ErrEmptyName
	}
	if len(r.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len([]rune(strings.TrimSpace(r.Country))) < 2 {
		return ErrInvalidCountry
	}
	return nil
}

func (s Settings) Validate() error {
	if err := ValidateTaxRate(s.DefaultTaxRate); err != nil {
		return err
	}
	if s.OverrideInvoiceStartNumber < 0 {
		return ErrInvalidStartNumber
	}
	if len(strings.TrimSpace(s.InvoicePrefix)) > maxPrefixLength {
		return ErrInvalidPrefix
	}
	return nil
}
