package worker

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/services"
	"pagotrack/internal/storage/memory"
)

var testNow = time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)

type recordingQueue struct {
	events []core.PaymentEvent
}

func (q *recordingQueue) Enqueue(event core.PaymentEvent) {
	q.events = append(q.events, event)
}

func (q *recordingQueue) months() []string {
	var out []string
	for _, e := range q.events {
		out = append(out, e.Month().String())
	}
	sort.Strings(out)
	return out
}

func newState(t *testing.T, dates ...core.Date) *services.StateStore {
	t.Helper()
	ctx := context.Background()
	state := services.NewStateStore(memory.New(nil), nil)
	if err := state.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, d := range dates {
		if _, err := state.UpsertPayment(ctx, core.PaymentDraft{Date: d, Amount: core.MoneyFromInt(2500)}); err != nil {
			t.Fatalf("UpsertPayment: %v", err)
		}
	}
	return state
}

func TestSyncWorker_HandlePaymentEvent(t *testing.T) {
	q := &recordingQueue{}
	w := NewSyncWorker(newState(t), q, 1)

	err := w.HandlePaymentEvent(context.Background(), core.PaymentEvent{
		Type: core.EventPaymentRemoved,
		Date: core.NewDate(2024, time.March, 8),
	})
	if err != nil {
		t.Fatalf("HandlePaymentEvent: %v", err)
	}
	if len(q.events) != 1 || q.events[0].Month().String() != "2024-03" {
		t.Errorf("queued = %v", q.events)
	}

	if err := w.HandlePaymentEvent(context.Background(), core.PaymentEvent{Type: core.EventPaymentRecorded}); err == nil {
		t.Error("expected error for event without date")
	}

	if err := w.HandlePaymentEvent(context.Background(), core.PaymentEvent{Type: core.EventSettingsChanged}); err != nil {
		t.Fatalf("settings event: %v", err)
	}
	if len(q.events) != 2 || q.events[1].Type != core.EventSettingsChanged {
		t.Errorf("settings event not forwarded: %v", q.events)
	}
}

func TestSyncWorker_StartupSyncCheck(t *testing.T) {
	state := newState(t,
		core.NewDate(2023, time.December, 1),
		core.NewDate(2024, time.January, 5),
		core.NewDate(2024, time.January, 12),
		core.NewDate(2024, time.April, 5),
	)
	q := &recordingQueue{}
	w := NewSyncWorker(state, q, 3)
	w.now = func() time.Time { return testNow }

	n, err := w.StartupSyncCheck(context.Background())
	if err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	// January has payments, March is current; December and April are
	// outside the window.
	want := []string{"2024-01", "2024-03"}
	got := q.months()
	if n != len(want) || len(got) != len(want) {
		t.Fatalf("queued %v (n=%d), want %v", got, n, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("month %d = %s, want %s", i, got[i], want[i])
		}
	}
}

type fakeChecker struct {
	calls int
	sent  int
	err   error
	onRun func()
}

func (f *fakeChecker) ProcessMissed(context.Context, time.Time) (int, error) {
	f.calls++
	if f.onRun != nil {
		f.onRun()
	}
	return f.sent, f.err
}

func TestAlertWorker_RunOnce(t *testing.T) {
	tests := []struct {
		name      string
		reloadErr error
		checker   *fakeChecker
		wantSent  int
		wantCalls int
	}{
		{"sends", nil, &fakeChecker{sent: 2}, 2, 1},
		{"checker fails", nil, &fakeChecker{sent: 1, err: errors.New("bus down")}, 1, 1},
		{"reload fails", errors.New("db locked"), &fakeChecker{sent: 2}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reload := func(context.Context) error { return tt.reloadErr }
			w := NewAlertWorker(tt.checker, time.Hour, reload)
			if got := w.RunOnce(context.Background()); got != tt.wantSent {
				t.Errorf("sent = %d, want %d", got, tt.wantSent)
			}
			if tt.checker.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", tt.checker.calls, tt.wantCalls)
			}
		})
	}
}

func TestAlertWorker_RunChecksImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	checker := &fakeChecker{onRun: cancel}
	w := NewAlertWorker(checker, time.Hour, nil)

	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if checker.calls != 1 {
		t.Errorf("calls = %d, want 1", checker.calls)
	}
}
