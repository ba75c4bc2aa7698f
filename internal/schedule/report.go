package schedule

import (
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/ledger"
)

// BuildMonthlyReport prepares the renderer input: the month's payments in
// ascending date order and their total.
func BuildMonthlyReport(snap ledger.Snapshot, settings core.EmployeeSettings, month core.MonthRef, generatedAt time.Time) (core.MonthlyReport, error) {
	if err := month.Validate(); err != nil {
		return core.MonthlyReport{}, err
	}
	return core.MonthlyReport{
		Month:       month,
		Settings:    settings,
		Payments:    PaymentsIn(snap, month),
		TotalPaid:   TotalPaid(snap, month),
		GeneratedAt: generatedAt,
	}, nil
}
