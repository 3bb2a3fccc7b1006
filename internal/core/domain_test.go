package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFirstOccurrence(t *testing.T) {
	cases := []struct {
		name string
		day  int
		now  time.Time
		want time.Time
	}{
		{"later this month", 20, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), date(2024, 3, 20)},
		{"already passed", 5, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), date(2024, 4, 5)},
		{"same day after midnight", 10, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), date(2024, 4, 10)},
		{"same day at midnight", 10, date(2024, 3, 10), date(2024, 3, 10)},
		{"clamped this month", 31, time.Date(2024, 4, 2, 0, 0, 1, 0, time.UTC), date(2024, 4, 30)},
		{"clamped next month", 31, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), date(2024, 2, 29)},
		{"year rollover", 1, time.Date(2024, 12, 15, 8, 0, 0, 0, time.UTC), date(2025, 1, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FirstOccurrence(tc.day, tc.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("FirstOccurrence(%d, %v) = %v, want %v", tc.day, tc.now, got, tc.want)
			}
		})
	}
}

func TestFirstOccurrence_InvalidDay(t *testing.T) {
	for _, day := range []int{0, -1, 32} {
		if _, err := FirstOccurrence(day, time.Now()); !errors.Is(err, ErrInvalidDayOfMonth) {
			t.Errorf("day %d: expected ErrInvalidDayOfMonth, got %v", day, err)
		}
	}
}

func TestRecurringExpenseValidate(t *testing.T) {
	good := RecurringExpense{
		Name:            "Rent",
		Amount:          decimal.NewFromInt(900),
		DayOfMonth:      1,
		FirstOccurrence: date(2024, 1, 1),
		Active:          true,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RecurringExpense)
		want   error
	}{
		{"empty name", func(e *RecurringExpense) { e.Name = "  " }, ErrEmptyName},
		{"zero amount", func(e *RecurringExpense) { e.Amount = decimal.Zero }, ErrInvalidAmount},
		{"day 0", func(e *RecurringExpense) { e.DayOfMonth = 0 }, ErrInvalidDayOfMonth},
		{"day 32", func(e *RecurringExpense) { e.DayOfMonth = 32 }, ErrInvalidDayOfMonth},
		{"no first occurrence", func(e *RecurringExpense) { e.FirstOccurrence = time.Time{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := good
			tc.mutate(&e)
			if err := e.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
			if !IsValidationError(tc.want) {
				t.Errorf("%v should be a validation error", tc.want)
			}
		})
	}
}

func TestRecurringExpensePatch(t *testing.T) {
	base := RecurringExpense{ID: 7, Name: "Phone", Amount: decimal.NewFromInt(20), DayOfMonth: 3, FirstOccurrence: date(2024, 1, 3), Active: true}

	day := 31
	inactive := false
	name := "  Mobile  "
	got, err := RecurringExpensePatch{DayOfMonth: &day, Active: &inactive, Name: &name}.Apply(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DayOfMonth != 31 || got.Active || got.Name != "Mobile" || got.ID != 7 {
		t.Errorf("patched = %+v", got)
	}
	if !got.Amount.Equal(base.Amount) {
		t.Errorf("untouched amount changed: %s", got.Amount)
	}

	bad := 40
	if _, err := (RecurringExpensePatch{DayOfMonth: &bad}).Apply(base); !errors.Is(err, ErrInvalidDayOfMonth) {
		t.Errorf("expected ErrInvalidDayOfMonth, got %v", err)
	}
	if !(RecurringExpensePatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
}

func TestOccurrenceIn(t *testing.T) {
	e := RecurringExpense{DayOfMonth: 31}
	if got := e.OccurrenceIn(date(2024, 4, 1)); !got.Equal(date(2024, 4, 30)) {
		t.Errorf("OccurrenceIn(April) = %v", got)
	}
	if got := e.OccurrenceIn(date(2024, 5, 1)); !got.Equal(date(2024, 5, 31)) {
		t.Errorf("OccurrenceIn(May) = %v", got)
	}
}

func TestOneOffExpensePatch(t *testing.T) {
	base := OneOffExpense{ID: 1, Name: "Laptop", Amount: decimal.NewFromInt(1200), Date: date(2024, 6, 1), Active: true}
	when := time.Date(2024, 7, 2, 15, 0, 0, 0, time.UTC)
	got, err := OneOffExpensePatch{Date: &when}.Apply(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Date.Equal(date(2024, 7, 2)) {
		t.Errorf("date = %v, want normalized 2024-07-02", got.Date)
	}
	zero := decimal.Zero
	if _, err := (OneOffExpensePatch{Amount: &zero}).Apply(base); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}
