package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// NormalizeDate strips the time of day from t. The calendar date is read in
// t's own location and re-anchored at midnight UTC so that dates coming from
// different sources compare by calendar day only.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days of the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay returns day limited to the length of the month, so that a nominal
// 31st lands on the 30th in April and on the 28th or 29th in February.
func ClampDay(year int, month time.Month, day int) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// StartOfMonth returns the first calendar day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last calendar day of t's month.
func EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, DaysInMonth(y, m), 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns the first and last calendar day of t's month.
func MonthWindow(t time.Time) (start, end time.Time) {
	return StartOfMonth(t), EndOfMonth(t)
}

// AddMonths moves a first-of-month date by n months.
func AddMonths(monthStart time.Time, n int) time.Time {
	y, m, _ := monthStart.Date()
	return time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// InWindow reports whether the calendar date of t lies in [start, end].
func InWindow(t, start, end time.Time) bool {
	d := NormalizeDate(t)
	return !d.Before(start) && !d.After(end)
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders the calendar date of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return NormalizeDate(t).Format(DateLayout)
}
