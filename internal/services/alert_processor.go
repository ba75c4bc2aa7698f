package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/ports"
	"pagotrack/internal/schedule"
)

// AlertProcessor reconciles recent months and publishes one alert per
// newly missed payday.
type AlertProcessor struct {
	state     *StateStore
	publisher ports.AlertPublisher
	// lookback is how many months before the current one are checked.
	lookback int
}

func NewAlertProcessor(state *StateStore, publisher ports.AlertPublisher) *AlertProcessor {
	return &AlertProcessor{
		state:     state,
		publisher: publisher,
		lookback:  1,
	}
}

// ProcessMissed checks the current and previous month as of now and
// returns how many alerts were published. Dates already alerted on are
// skipped; a date whose publish fails is retried on the next run.
func (p *AlertProcessor) ProcessMissed(ctx context.Context, now time.Time) (int, error) {
	if p.state == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	snap, settings, err := p.state.Snapshot()
	if err != nil {
		return 0, err
	}
	alerted, err := p.state.LoadAlerted(ctx)
	if err != nil {
		return 0, err
	}

	today := core.DateOf(now)
	current := today.MonthRef()

	var missed []core.Date
	for offset := p.lookback; offset >= 0; offset-- {
		month := current.Add(-offset)
		expected, err := schedule.ExpectedForSettings(month, settings)
		if err != nil {
			return 0, fmt.Errorf("expected dates for %s: %w", month, err)
		}
		missed = append(missed, schedule.MissedDates(expected, snap, today)...)
	}

	slog.InfoContext(ctx, "Checking missed payments",
		"missed", len(missed),
		"already_alerted", len(alerted),
		"processing_date", today.String())

	// Only dates still missed are remembered, so a payment recorded late
	// and then removed alerts again.
	remembered := make([]core.Date, 0, len(missed))
	published := 0
	for _, d := range missed {
		if alerted[d.String()] {
			remembered = append(remembered, d)
			continue
		}

		alert := MissedPaymentAlert(d, settings)
		if err := p.publisher.PublishMissedPayment(ctx, alert); err != nil {
			slog.ErrorContext(ctx, "Failed to publish missed payment alert",
				"date", d.String(),
				"error", err)
			continue
		}
		remembered = append(remembered, d)
		published++
		slog.InfoContext(ctx, "Published missed payment alert",
			"date", d.String(),
			"employee", settings.Name)
	}

	if err := p.state.SaveAlerted(ctx, remembered); err != nil {
		return published, err
	}

	slog.InfoContext(ctx, "Missed payment processing complete",
		"published", published,
		"total_missed", len(missed))
	return published, nil
}

// MissedPaymentAlert builds the alert for an unpaid payday.
func MissedPaymentAlert(date core.Date, settings core.EmployeeSettings) core.Alert {
	return core.Alert{
		ID:   "missed-" + date.String(),
		Type: core.AlertMissedPayment,
		Message: fmt.Sprintf("Pago omitido: no se registró el pago de %s a %s (%s)",
			date.String(), settings.Name, settings.ExpectedAmount.String()),
		Date: date,
	}
}
