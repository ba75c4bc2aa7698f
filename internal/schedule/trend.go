package schedule

import (
	"errors"
	"fmt"

	"pagotrack/internal/core"
)

// DefaultTrendWindow is the number of months shown in the history chart.
const DefaultTrendWindow = 4

var ErrInvalidWindow = errors.New("invalid trend window")

// TrailingTotals returns the paid totals of window consecutive months
// ending at month, oldest first.
func TrailingTotals(payments []core.Payment, month core.MonthRef, window int) ([]core.MonthTotal, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	if window < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}

	out := make([]core.MonthTotal, 0, window)
	for offset := window - 1; offset >= 0; offset-- {
		m := month.Add(-offset)
		out = append(out, core.MonthTotal{
			Month: m,
			Label: m.String(),
			Total: TotalPaid(payments, m),
		})
	}
	return out, nil
}
