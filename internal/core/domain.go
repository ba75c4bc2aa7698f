package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	AlertMissedPayment AlertType = "missed_payment"
	AlertInfo          AlertType = "info"
)

const dateLayout = "2006-01-02"

type (
	AlertType string

	// Date is a timezone-naive calendar date. The wrapped time is always
	// midnight UTC so that comparisons are by calendar day.
	Date struct {
		time.Time
	}

	Payment struct {
		ID           string    `json:"id"`
		Date         Date      `json:"date"`
		Amount       Money     `json:"amount"`
		Note         string    `json:"note,omitempty"`
		ReceiptImage []byte    `json:"receiptImage,omitempty"`
		RecordedAt   time.Time `json:"recordedAt"`
	}

	// PaymentDraft is a payment as entered by the user, before the ledger
	// assigns it an identity.
	PaymentDraft struct {
		Date         Date
		Amount       Money
		Note         string
		ReceiptImage []byte
	}

	EmployeeSettings struct {
		Name             string       `json:"name"`
		WeeklyPaymentDay time.Weekday `json:"weeklyPaymentDay"` // 0 = Sunday
		ExpectedAmount   Money        `json:"expectedAmount"`
		StartDate        Date         `json:"startDate"`
	}

	Alert struct {
		ID      string    `json:"id"`
		Type    AlertType `json:"type"`
		Message string    `json:"message"`
		Date    Date      `json:"date"`
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidWeekday = errors.New("invalid weekday")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyName      = errors.New("empty name")
	ErrNoteTooLong    = errors.New("note too long (max 500 characters)")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as read on t's own clock.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// Compare returns -1, 0 or +1, suitable for slices.SortFunc.
func (d Date) Compare(o Date) int { return d.Time.Compare(o.Time) }

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// MonthRef returns the month the date belongs to.
func (d Date) MonthRef() MonthRef {
	return MonthRef{Year: d.Year(), Month: d.Month()}
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding so dates travel as
// plain YYYY-MM-DD strings.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	return d.UnmarshalText([]byte(s))
}

func (p PaymentDraft) Validate() error {
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if p.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if len(p.Note) > 500 {
		return ErrNoteTooLong
	}
	return nil
}

func ValidateWeekday(w time.Weekday) error {
	if w < time.Sunday || w > time.Saturday {
		return fmt.Errorf("%w: %d", ErrInvalidWeekday, w)
	}
	return nil
}

func (s EmployeeSettings) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if err := ValidateWeekday(s.WeeklyPaymentDay); err != nil {
		return err
	}
	if err := s.ExpectedAmount.Validate(); err != nil {
		return err
	}
	if err := s.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	return nil
}

// DefaultSettings returns the settings used before the user saves any:
// Friday payments of 2500 starting January 1 of the current year.
func DefaultSettings(now time.Time) EmployeeSettings {
	return EmployeeSettings{
		Name:             "Juan Pérez",
		WeeklyPaymentDay: time.Friday,
		ExpectedAmount:   MoneyFromInt(2500),
		StartDate:        NewDate(now.Year(), time.January, 1),
	}
}
