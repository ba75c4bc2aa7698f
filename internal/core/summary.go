package core

import (
	"fmt"
	"strings"
	"time"
)

// MonthRef identifies a calendar month. Month is 1-12 (time.Month).
type MonthRef struct {
	Year  int
	Month time.Month
}

// NewMonthRef validates and returns a month reference. Out-of-range months
// are rejected rather than normalized.
func NewMonthRef(year int, month time.Month) (MonthRef, error) {
	m := MonthRef{Year: year, Month: month}
	if err := m.Validate(); err != nil {
		return MonthRef{}, err
	}
	return m, nil
}

// ParseMonthRef parses YYYY-MM.
func ParseMonthRef(s string) (MonthRef, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return MonthRef{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthRef{Year: t.Year(), Month: t.Month()}, nil
}

func (m MonthRef) Validate() error {
	if m.Month < time.January || m.Month > time.December {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, m.Month)
	}
	return nil
}

// First returns the first day of the month.
func (m MonthRef) First() Date {
	return NewDate(m.Year, m.Month, 1)
}

// Last returns the last day of the month.
func (m MonthRef) Last() Date {
	return NewDate(m.Year, m.Month+1, 0)
}

// Days returns the number of days in the month (28-31).
func (m MonthRef) Days() int {
	return m.Last().Day()
}

// Add moves the reference by n months (negative moves backwards).
func (m MonthRef) Add(n int) MonthRef {
	t := time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return MonthRef{Year: t.Year(), Month: t.Month()}
}

func (m MonthRef) Contains(d Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

// String renders the YYYY-MM label.
func (m MonthRef) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MonthTotal is a month label with the amount paid in it.
type MonthTotal struct {
	Month MonthRef `json:"-"`
	Label string   `json:"month"`
	Total Money    `json:"total"`
}

// MonthlyReport is what the report renderer receives: the month's payments
// already sorted ascending and their total.
type MonthlyReport struct {
	Month       MonthRef
	Settings    EmployeeSettings
	Payments    []Payment
	TotalPaid   Money
	GeneratedAt time.Time
}

// Document is an opaque rendered artifact.
type Document struct {
	Name        string
	ContentType string
	Body        []byte
}

// ExtractionHint carries optional values read off a receipt. Nil fields
// mean "no hint".
type ExtractionHint struct {
	Date   *Date  `json:"date"`
	Amount *Money `json:"amount"`
}

// IsEmpty reports whether the hint carries nothing.
func (h ExtractionHint) IsEmpty() bool {
	return h.Date == nil && h.Amount == nil
}
