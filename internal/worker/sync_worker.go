package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/services"
)

// ExportQueue is the part of services.ExportProcessor the worker feeds.
type ExportQueue interface {
	Enqueue(event core.PaymentEvent)
}

// SyncWorker turns payment events from the bus into month exports. It
// also recovers months changed while the worker was down.
type SyncWorker struct {
	state   *services.StateStore
	exports ExportQueue
	// lookback is how many months StartupSyncCheck re-exports.
	lookback int
	now      func() time.Time
}

func NewSyncWorker(state *services.StateStore, exports ExportQueue, lookback int) *SyncWorker {
	if lookback < 1 {
		lookback = 1
	}
	return &SyncWorker{
		state:    state,
		exports:  exports,
		lookback: lookback,
		now:      time.Now,
	}
}

// HandlePaymentEvent queues the event's month for export.
func (w *SyncWorker) HandlePaymentEvent(ctx context.Context, event core.PaymentEvent) error {
	if event.Type == core.EventSettingsChanged {
		slog.InfoContext(ctx, "Settings changed, re-queuing exported months")
		w.exports.Enqueue(event)
		return nil
	}
	if event.Date.IsEmpty() {
		return fmt.Errorf("payment event without date: %q", event.Type)
	}
	slog.InfoContext(ctx, "Processing payment event",
		"type", event.Type,
		"date", event.Date.String(),
		"month", event.Month().String())
	w.exports.Enqueue(event)
	return nil
}

// StartupSyncCheck reloads state and queues every month in the lookback
// window that has payments, plus the current month. Returns how many
// months were queued.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) (int, error) {
	if err := w.state.Init(ctx); err != nil {
		return 0, fmt.Errorf("reload state for startup check: %w", err)
	}
	snap, _, err := w.state.Snapshot()
	if err != nil {
		return 0, err
	}

	current := core.DateOf(w.now()).MonthRef()
	touched := map[core.MonthRef]bool{current: true}
	oldest := current.Add(-(w.lookback - 1))
	for _, p := range snap {
		m := p.Date.MonthRef()
		if !m.First().Before(oldest.First()) && !current.First().Before(m.First()) {
			touched[m] = true
		}
	}

	for m := range touched {
		w.exports.Enqueue(core.PaymentEvent{
			Type:       core.EventPaymentRecorded,
			Date:       m.First(),
			OccurredAt: w.now(),
		})
	}

	slog.InfoContext(ctx, "Startup sync check completed",
		"months", len(touched),
		"payments", len(snap))
	return len(touched), nil
}
