// Package schedule derives expected weekly payment dates and reconciles
// them against the recorded ledger.
//
// Everything here is a pure function of its arguments: a ledger snapshot,
// the employee settings and a reference date. Nothing mutates its inputs.
package schedule

import (
	"time"

	"pagotrack/internal/core"
)

// ExpectedDates returns every date in month that falls on weekday and is
// not earlier than start, ascending. Invalid months or weekdays are
// rejected, never normalized.
func ExpectedDates(month core.MonthRef, weekday time.Weekday, start core.Date) ([]core.Date, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateWeekday(weekday); err != nil {
		return nil, err
	}

	first := month.First()
	// Jump straight to the first matching weekday, then step by weeks.
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	days := month.Days()

	out := make([]core.Date, 0, 5)
	for day := 1 + offset; day <= days; day += 7 {
		d := core.NewDate(month.Year, month.Month, day)
		if d.Before(start) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// ExpectedForSettings is ExpectedDates driven by the employee settings.
func ExpectedForSettings(month core.MonthRef, settings core.EmployeeSettings) ([]core.Date, error) {
	return ExpectedDates(month, settings.WeeklyPaymentDay, settings.StartDate)
}
