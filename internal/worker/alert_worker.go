package worker

import (
	"context"
	"log/slog"
	"time"
)

// MissedChecker is the part of services.AlertProcessor the worker drives.
type MissedChecker interface {
	ProcessMissed(ctx context.Context, now time.Time) (int, error)
}

// AlertWorker runs the missed-payment check immediately and then on every
// tick until ctx is cancelled.
type AlertWorker struct {
	checker  MissedChecker
	interval time.Duration
	// reload refreshes state before each run. Optional.
	reload func(context.Context) error
	now    func() time.Time
}

func NewAlertWorker(checker MissedChecker, interval time.Duration, reload func(context.Context) error) *AlertWorker {
	return &AlertWorker{
		checker:  checker,
		interval: interval,
		reload:   reload,
		now:      time.Now,
	}
}

func (w *AlertWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Alert worker started", "interval", w.interval)

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Alert worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single check and returns how many alerts were sent.
// Failures are logged; the next tick tries again.
func (w *AlertWorker) RunOnce(ctx context.Context) int {
	if w.reload != nil {
		if err := w.reload(ctx); err != nil {
			slog.ErrorContext(ctx, "Failed to reload state before alert check", "error", err)
			return 0
		}
	}
	sent, err := w.checker.ProcessMissed(ctx, w.now())
	if err != nil {
		slog.ErrorContext(ctx, "Missed payment check failed", "error", err, "sent", sent)
		return sent
	}
	if sent > 0 {
		slog.InfoContext(ctx, "Missed payment alerts sent", "count", sent)
	}
	return sent
}
