package services

import (
	"fmt"
	"time"

	"pagotrack/internal/cache"
	"pagotrack/internal/core"
	"pagotrack/internal/schedule"
)

const (
	viewCacheSize = 24
	viewCacheTTL  = 10 * time.Minute
)

// Tracker answers the read-side questions over the current state: month
// views, missed dates and trends. Month views are cached until the next
// mutation.
type Tracker struct {
	state *StateStore
	views cache.Cache[schedule.MonthView]
	now   func() time.Time
}

// NewTracker registers a change listener on state that purges views. If
// views is nil an LRU is created.
func NewTracker(state *StateStore, views *cache.LRUCache[schedule.MonthView]) *Tracker {
	if views == nil {
		views = NewViewCache()
	}
	t := &Tracker{state: state, views: views, now: time.Now}
	state.OnChange(func(core.PaymentEvent) { t.views.Purge() })
	return t
}

// NewViewCache returns the month view cache with production sizing.
func NewViewCache() *cache.LRUCache[schedule.MonthView] {
	return cache.NewLRUCache[schedule.MonthView](viewCacheSize, viewCacheTTL)
}

// Today is the reference date for reconciliation.
func (t *Tracker) Today() core.Date {
	return core.DateOf(t.now())
}

// MonthView returns the expected dates, missed dates, payments and summary
// of month as of today.
func (t *Tracker) MonthView(month core.MonthRef) (schedule.MonthView, error) {
	if err := month.Validate(); err != nil {
		return schedule.MonthView{}, err
	}
	today := t.Today()
	key := month.String() + "@" + today.String()
	if v, ok := t.views.Get(key); ok {
		return v, nil
	}

	snap, settings, err := t.state.Snapshot()
	if err != nil {
		return schedule.MonthView{}, err
	}
	v, err := schedule.BuildMonthView(snap, settings, month, today)
	if err != nil {
		return schedule.MonthView{}, err
	}
	t.views.Set(key, v)
	return v, nil
}

// Missed returns the unpaid paydays of month up to today.
func (t *Tracker) Missed(month core.MonthRef) ([]core.Date, error) {
	v, err := t.MonthView(month)
	if err != nil {
		return nil, err
	}
	return v.Missed, nil
}

// Trend returns window monthly totals ending at month.
func (t *Tracker) Trend(month core.MonthRef, window int) ([]core.MonthTotal, error) {
	snap, _, err := t.state.Snapshot()
	if err != nil {
		return nil, err
	}
	return schedule.TrailingTotals(snap, month, window)
}

// Payments returns the ledger, or only month's payments when month is
// non-nil.
func (t *Tracker) Payments(month *core.MonthRef) ([]core.Payment, error) {
	snap, _, err := t.state.Snapshot()
	if err != nil {
		return nil, err
	}
	if month == nil {
		return snap, nil
	}
	if err := month.Validate(); err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return schedule.PaymentsIn(snap, *month), nil
}
