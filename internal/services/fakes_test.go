package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/ports"
	"pagotrack/internal/storage/memory"
)

var errBoom = errors.New("boom")

// March 2024: Fridays are 1, 8, 15, 22, 29.
var testNow = time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// failingKV wraps a memory store and fails saves or loads on demand.
type failingKV struct {
	*memory.Store
	failSave bool
	failLoad bool
}

func (f *failingKV) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failLoad {
		return nil, false, errBoom
	}
	return f.Store.Load(ctx, key)
}

func (f *failingKV) Save(ctx context.Context, key string, value []byte) error {
	if f.failSave {
		return errBoom
	}
	return f.Store.Save(ctx, key, value)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.PaymentEvent
	alerts []core.Alert
	fail   map[string]bool // alert dates that fail to publish
	err    error
}

func (r *recordingPublisher) PublishPaymentEvent(_ context.Context, e core.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) PublishMissedPayment(_ context.Context, a core.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[a.Date.String()] {
		return errBoom
	}
	r.alerts = append(r.alerts, a)
	return nil
}

type fakeRenderer struct {
	mu      sync.Mutex
	reports []core.MonthlyReport
	err     error
	// during runs once inside the next Render call.
	during func()
}

func (f *fakeRenderer) Render(_ context.Context, r core.MonthlyReport) (core.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.during != nil {
		fn := f.during
		f.during = nil
		fn()
	}
	if f.err != nil {
		return core.Document{}, f.err
	}
	f.reports = append(f.reports, r)
	return core.Document{Name: "report-" + r.Month.String(), ContentType: "text/plain"}, nil
}

func (f *fakeRenderer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func newTestState(kv ports.KVStore, pub *recordingPublisher) *StateStore {
	var s *StateStore
	if pub == nil {
		s = NewStateStore(kv, nil)
	} else {
		s = NewStateStore(kv, pub)
	}
	s.now = fixedNow
	return s
}

func mustInit(t testing.TB, s *StateStore) {
	t.Helper()
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
}

func draft(day int, amount int64) core.PaymentDraft {
	return core.PaymentDraft{
		Date:   core.NewDate(2024, time.March, day),
		Amount: core.MoneyFromInt(amount),
	}
}
