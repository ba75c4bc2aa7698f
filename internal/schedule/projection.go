package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"pagotrack/internal/core"
	"pagotrack/internal/ledger"
)

var hundred = decimal.NewFromInt(100)

// Summary is the monthly projection shown next to the calendar.
type Summary struct {
	TotalPaid       core.Money    `json:"totalPaid"`
	ExpectedTotal   core.Money    `json:"expectedTotal"`
	ExpectedCount   int           `json:"expectedCount"`
	ProgressPercent float64       `json:"progressPercent"`
	LastPayment     *core.Payment `json:"lastPayment,omitempty"`
	NextDue         NextDue       `json:"nextDue"`
}

// NextDue is the next payday. DueToday is set when the reference date is
// itself a payday, in which case Date is that same day.
type NextDue struct {
	Date     core.Date `json:"date"`
	DueToday bool      `json:"dueToday"`
}

// MonthlySummary aggregates totals and progress for month. LastPayment
// spans the whole ledger, not just month; NextDue is relative to now.
func MonthlySummary(snap ledger.Snapshot, settings core.EmployeeSettings, month core.MonthRef, now core.Date) (Summary, error) {
	expected, err := ExpectedForSettings(month, settings)
	if err != nil {
		return Summary{}, err
	}
	next, err := NextExpectedDate(now, settings.WeeklyPaymentDay)
	if err != nil {
		return Summary{}, err
	}

	paid := TotalPaid(snap, month)
	expectedTotal := settings.ExpectedAmount.Times(len(expected))

	s := Summary{
		TotalPaid:       paid,
		ExpectedTotal:   expectedTotal,
		ExpectedCount:   len(expected),
		ProgressPercent: Progress(paid, expectedTotal),
		NextDue:         next,
	}
	if last, ok := snap.Last(); ok {
		s.LastPayment = &last
	}
	return s, nil
}

// TotalPaid sums the amounts recorded within month.
func TotalPaid(payments []core.Payment, month core.MonthRef) core.Money {
	var total core.Money
	for _, p := range payments {
		if month.Contains(p.Date) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// PaymentsIn returns the payments within month, keeping their order.
func PaymentsIn(payments []core.Payment, month core.MonthRef) []core.Payment {
	out := make([]core.Payment, 0, 5)
	for _, p := range payments {
		if month.Contains(p.Date) {
			out = append(out, p)
		}
	}
	return out
}

// Progress is paid/expected as a percentage capped at 100. With nothing
// expected it is 100 if anything was paid and 0 otherwise.
func Progress(paid, expected core.Money) float64 {
	if !expected.Value.IsPositive() {
		if paid.Value.IsPositive() {
			return 100
		}
		return 0
	}
	pct := paid.Value.Div(expected.Value).Mul(hundred)
	if pct.GreaterThan(hundred) {
		return 100
	}
	if pct.IsNegative() {
		return 0
	}
	f, _ := pct.Round(2).Float64()
	return f
}

// NextExpectedDate returns the next date on weekday strictly after now, or
// now itself flagged DueToday when now is already on weekday.
func NextExpectedDate(now core.Date, weekday time.Weekday) (NextDue, error) {
	if err := core.ValidateWeekday(weekday); err != nil {
		return NextDue{}, err
	}
	delta := (int(weekday) - int(now.Weekday()) + 7) % 7
	if delta == 0 {
		return NextDue{Date: now, DueToday: true}, nil
	}
	return NextDue{Date: now.AddDays(delta)}, nil
}
