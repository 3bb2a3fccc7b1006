package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxNameLength bounds expense and recipient names.
	MaxNameLength = 200
	minDayOfMonth = 1
	maxDayOfMonth = 31
)

type (
	// RecurringExpense is paid once per calendar month on DayOfMonth, clamped to
	// the month's length, starting from FirstOccurrence.
	RecurringExpense struct {
		ID              int64
		Name            string
		Amount          decimal.Decimal
		DayOfMonth      int
		FirstOccurrence time.Time
		Active          bool
	}

	// RecurringExpensePatch carries a partial update. Nil fields are left as is.
	RecurringExpensePatch struct {
		Name            *string
		Amount          *decimal.Decimal
		DayOfMonth      *int
		FirstOccurrence *time.Time
		Active          *bool
	}

	// OneOffExpense is a single dated expense.
	OneOffExpense struct {
		ID     int64
		Name   string
		Amount decimal.Decimal
		Date   time.Time
		Active bool
	}

	OneOffExpensePatch struct {
		Name   *string
		Amount *decimal.Decimal
		Date   *time.Time
		Active *bool
	}
)

var (
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyName         = errors.New("empty name")
	ErrNameTooLong       = errors.New("name too long (max 200 characters)")
)

// IsValidationError reports whether err stems from input validation.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDayOfMonth, ErrInvalidAmount, ErrInvalidDate, ErrEmptyName,
		ErrNameTooLong, ErrNoLineItems, ErrInvalidStatus, ErrInvalidTaxRate,
		ErrInvalidQuantity, ErrInvalidRecipient, ErrInvalidCountry,
		ErrInvalidStartNumber, ErrInvalidPrefix,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ValidateDayOfMonth rejects days outside [1,31].
func ValidateDayOfMonth(day int) error {
	if day < minDayOfMonth || day > maxDayOfMonth {
		return ErrInvalidDayOfMonth
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// FirstOccurrence computes the activation date of a recurring expense created
// at now: this month's clamped occurrence, or next month's when this month's
// occurrence lies before now. The comparison uses the instant, so an expense
// created during its own due day starts next month.
func FirstOccurrence(dayOfMonth int, now time.Time) (time.Time, error) {
	if err := ValidateDayOfMonth(dayOfMonth); err != nil {
		return time.Time{}, err
	}
	y, m, _ := now.Date()
	candidate := time.Date(y, m, ClampDay(y, m, dayOfMonth), 0, 0, 0, 0, now.Location())
	if candidate.Before(now) {
		ny, nm, _ := time.Date(y, m+1, 1, 0, 0, 0, 0, now.Location()).Date()
		candidate = time.Date(ny, nm, ClampDay(ny, nm, dayOfMonth), 0, 0, 0, 0, now.Location())
	}
	return NormalizeDate(candidate), nil
}

// OccurrenceIn returns the clamped occurrence date of e in the month starting
// at monthStart.
func (e RecurringExpense) OccurrenceIn(monthStart time.Time) time.Time {
	y, m, _ := monthStart.Date()
	return time.Date(y, m, ClampDay(y, m, e.DayOfMonth), 0, 0, 0, 0, time.UTC)
}

func (e RecurringExpense) Validate() error {
	if err := validateName(e.Name); err != nil {
		return err
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if err := ValidateDayOfMonth(e.DayOfMonth); err != nil {
		return err
	}
	if e.FirstOccurrence.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Apply returns a copy of e with the patch applied. The result is validated.
func (p RecurringExpensePatch) Apply(e RecurringExpense) (RecurringExpense, error) {
	if p.Name != nil {
		e.Name = strings.TrimSpace(*p.Name)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.DayOfMonth != nil {
		e.DayOfMonth = *p.DayOfMonth
	}
	if p.FirstOccurrence != nil {
		e.FirstOccurrence = NormalizeDate(*p.FirstOccurrence)
	}
	if p.Active != nil {
		e.Active = *p.Active
	}
	return e, e.Validate()
}

// IsEmpty reports whether the patch changes nothing.
func (p RecurringExpensePatch) IsEmpty() bool {
	return p.Name == nil && p.Amount == nil && p.DayOfMonth == nil &&
		p.FirstOccurrence == nil && p.Active == nil
}

func (e OneOffExpense) Validate() error {
	if err := validateName(e.Name); err != nil {
		return err
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (p OneOffExpensePatch) Apply(e OneOffExpense) (OneOffExpense, error) {
	if p.Name != nil {
		e.Name = strings.TrimSpace(*p.Name)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = NormalizeDate(*p.Date)
	}
	if p.Active != nil {
		e.Active = *p.Active
	}
	return e, e.Validate()
}

func (p OneOffExpensePatch) IsEmpty() bool {
	return p.Name == nil && p.Amount == nil && p.Date == nil && p.Active == nil
}
