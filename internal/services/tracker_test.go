package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/schedule"
	"pagotrack/internal/storage/memory"
)

func newTestTracker(t *testing.T) (*Tracker, *StateStore) {
	t.Helper()
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)
	tr := NewTracker(s, nil)
	tr.now = fixedNow
	return tr, s
}

var march = core.MonthRef{Year: 2024, Month: time.March}

func TestTracker_MonthView(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()
	s.UpsertPayment(ctx, draft(1, 2500))
	s.UpsertPayment(ctx, draft(8, 2500))

	v, err := tr.MonthView(march)
	if err != nil {
		t.Fatalf("MonthView: %v", err)
	}
	if len(v.Expected) != 5 {
		t.Errorf("expected dates = %d, want 5", len(v.Expected))
	}
	if len(v.Missed) != 1 || v.Missed[0].String() != "2024-03-15" {
		t.Errorf("missed = %v, want [2024-03-15]", v.Missed)
	}
	if v.Summary.ProgressPercent != 40 {
		t.Errorf("progress = %v, want 40", v.Summary.ProgressPercent)
	}
}

func TestTracker_CacheInvalidatedOnMutation(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()

	before, _ := tr.MonthView(march)
	if len(before.Missed) != 3 {
		t.Fatalf("missed = %d, want 3", len(before.Missed))
	}
	if tr.views.Size() != 1 {
		t.Fatalf("cache size = %d, want 1", tr.views.Size())
	}

	s.UpsertPayment(ctx, draft(15, 2500))
	if tr.views.Size() != 0 {
		t.Error("mutation should purge cached views")
	}
	after, _ := tr.MonthView(march)
	if len(after.Missed) != 2 {
		t.Errorf("missed after payment = %d, want 2", len(after.Missed))
	}
}

func TestTracker_InvalidMonth(t *testing.T) {
	tr, _ := newTestTracker(t)
	if _, err := tr.MonthView(core.MonthRef{Year: 2024, Month: 13}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("error = %v, want ErrInvalidMonth", err)
	}
}

func TestTracker_TrendAndPayments(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()
	s.UpsertPayment(ctx, core.PaymentDraft{Date: core.NewDate(2024, time.February, 2), Amount: core.MoneyFromInt(1000)})
	s.UpsertPayment(ctx, draft(8, 2500))

	trend, err := tr.Trend(march, schedule.DefaultTrendWindow)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	wantLabels := []string{"2023-12", "2024-01", "2024-02", "2024-03"}
	wantTotals := []int64{0, 0, 1000, 2500}
	for i, mt := range trend {
		if mt.Label != wantLabels[i] || !mt.Total.Equal(core.MoneyFromInt(wantTotals[i])) {
			t.Errorf("trend[%d] = %s %s, want %s %d", i, mt.Label, mt.Total, wantLabels[i], wantTotals[i])
		}
	}
	if _, err := tr.Trend(march, 0); !errors.Is(err, schedule.ErrInvalidWindow) {
		t.Errorf("window 0 error = %v", err)
	}

	all, _ := tr.Payments(nil)
	inMarch, _ := tr.Payments(&march)
	if len(all) != 2 || len(inMarch) != 1 {
		t.Errorf("payments all=%d march=%d, want 2 and 1", len(all), len(inMarch))
	}
}
