package schedule

import (
	"pagotrack/internal/core"
	"pagotrack/internal/ledger"
)

// MissedDates returns the expected dates that are due (not later than
// today, inclusive) and have no payment recorded on that exact date.
// Dates after today are not yet due and never appear. Output keeps the
// order of expected.
func MissedDates(expected []core.Date, payments ledger.Lookup, today core.Date) []core.Date {
	missed := make([]core.Date, 0, len(expected))
	for _, d := range expected {
		if d.After(today) {
			continue
		}
		if _, ok := payments.FindByDate(d); ok {
			continue
		}
		missed = append(missed, d)
	}
	return missed
}

// MonthView bundles everything a client needs to display one month.
type MonthView struct {
	Month    core.MonthRef  `json:"-"`
	Label    string         `json:"month"`
	Expected []core.Date    `json:"expectedDates"`
	Missed   []core.Date    `json:"missedDates"`
	Payments []core.Payment `json:"payments"`
	Summary  Summary        `json:"summary"`
}

// BuildMonthView runs the schedule, reconciliation and projection for one
// month over a single ledger snapshot.
func BuildMonthView(snap ledger.Snapshot, settings core.EmployeeSettings, month core.MonthRef, today core.Date) (MonthView, error) {
	expected, err := ExpectedForSettings(month, settings)
	if err != nil {
		return MonthView{}, err
	}
	summary, err := MonthlySummary(snap, settings, month, today)
	if err != nil {
		return MonthView{}, err
	}
	return MonthView{
		Month:    month,
		Label:    month.String(),
		Expected: expected,
		Missed:   MissedDates(expected, snap, today),
		Payments: PaymentsIn(snap, month),
		Summary:  summary,
	}, nil
}
