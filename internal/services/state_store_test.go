package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/storage/memory"
)

func TestStateStore_InitDefaults(t *testing.T) {
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)

	snap, settings, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("expected empty ledger, got %d payments", len(snap))
	}
	want := core.DefaultSettings(testNow)
	if settings.WeeklyPaymentDay != time.Friday {
		t.Errorf("weekday = %v, want Friday", settings.WeeklyPaymentDay)
	}
	if !settings.StartDate.Equal(want.StartDate) {
		t.Errorf("start date = %s, want %s", settings.StartDate, want.StartDate)
	}
}

func TestStateStore_InitMalformedFallsBack(t *testing.T) {
	tests := []struct {
		name string
		seed map[string][]byte
	}{
		{"garbage payments", map[string][]byte{KeyPayments: []byte("{not json")}},
		{"garbage settings", map[string][]byte{KeySettings: []byte("[1,2]")}},
		{"invalid settings", map[string][]byte{KeySettings: []byte(`{"name":"","weeklyPaymentDay":9,"expectedAmount":"10","startDate":"2024-01-01"}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(memory.New(tt.seed), nil)
			if err := s.Init(context.Background()); err != nil {
				t.Fatalf("Init should tolerate malformed state: %v", err)
			}
			snap, settings, _ := s.Snapshot()
			if len(snap) != 0 {
				t.Errorf("expected empty ledger, got %d", len(snap))
			}
			if settings.Name != core.DefaultSettings(testNow).Name {
				t.Errorf("expected default settings, got %+v", settings)
			}
		})
	}
}

func TestStateStore_InitLoadError(t *testing.T) {
	s := newTestState(&failingKV{Store: memory.New(nil), failLoad: true}, nil)
	if err := s.Init(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("Init error = %v, want %v", err, errBoom)
	}
	if _, _, err := s.Snapshot(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Snapshot before successful Init = %v, want ErrNotInitialized", err)
	}
}

func TestStateStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(nil)

	s := newTestState(kv, nil)
	mustInit(t, s)
	if _, err := s.UpsertPayment(ctx, draft(8, 2500)); err != nil {
		t.Fatalf("UpsertPayment: %v", err)
	}
	if _, err := s.UpsertPayment(ctx, draft(1, 2000)); err != nil {
		t.Fatalf("UpsertPayment: %v", err)
	}
	settings := core.EmployeeSettings{
		Name:             "Ana",
		WeeklyPaymentDay: time.Monday,
		ExpectedAmount:   core.MoneyFromInt(1800),
		StartDate:        core.NewDate(2024, time.February, 1),
	}
	if err := s.ReplaceSettings(ctx, settings); err != nil {
		t.Fatalf("ReplaceSettings: %v", err)
	}

	reloaded := newTestState(kv, nil)
	mustInit(t, reloaded)
	snap, got, _ := reloaded.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("reloaded %d payments, want 2", len(snap))
	}
	if snap[0].Date.Day() != 1 || snap[1].Date.Day() != 8 {
		t.Errorf("payments not sorted: %s, %s", snap[0].Date, snap[1].Date)
	}
	if got.Name != "Ana" || got.WeeklyPaymentDay != time.Monday || !got.ExpectedAmount.Equal(core.MoneyFromInt(1800)) {
		t.Errorf("settings = %+v", got)
	}
}

func TestStateStore_UpsertReplacesSameDate(t *testing.T) {
	ctx := context.Background()
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)

	first, _ := s.UpsertPayment(ctx, draft(8, 2500))
	second, err := s.UpsertPayment(ctx, draft(8, 3000))
	if err != nil {
		t.Fatalf("UpsertPayment: %v", err)
	}
	if first.ID == second.ID {
		t.Error("replacement should get a fresh ID")
	}
	snap, _, _ := s.Snapshot()
	if len(snap) != 1 || !snap[0].Amount.Equal(core.MoneyFromInt(3000)) {
		t.Errorf("ledger = %+v, want single 3000 payment", snap)
	}
}

func TestStateStore_InvalidDraftLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(nil)
	pub := &recordingPublisher{}
	s := newTestState(kv, pub)
	mustInit(t, s)

	bad := core.PaymentDraft{Date: core.NewDate(2024, time.March, 8), Amount: core.MoneyFromInt(-5)}
	if _, err := s.UpsertPayment(ctx, bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("error = %v, want ErrInvalidAmount", err)
	}
	if kv.Saves() != 0 {
		t.Errorf("expected no saves, got %d", kv.Saves())
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no events, got %d", len(pub.events))
	}
}

func TestStateStore_PersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Store: memory.New(nil), failSave: true}
	s := newTestState(kv, nil)
	mustInit(t, s)

	_, err := s.UpsertPayment(ctx, draft(8, 2500))
	if !errors.Is(err, ErrPersist) || !errors.Is(err, errBoom) {
		t.Fatalf("error = %v, want ErrPersist wrapping boom", err)
	}
	if _, ok, _ := s.FindPayment(core.NewDate(2024, time.March, 8)); !ok {
		t.Error("in-memory mutation should stand after persist failure")
	}
}

func TestStateStore_RemovePayment(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(nil)
	pub := &recordingPublisher{}
	s := newTestState(kv, pub)
	mustInit(t, s)

	if _, err := s.UpsertPayment(ctx, draft(8, 2500)); err != nil {
		t.Fatal(err)
	}
	saves := kv.Saves()

	removed, err := s.RemovePayment(ctx, core.NewDate(2024, time.March, 15))
	if err != nil || removed {
		t.Fatalf("RemovePayment(unknown) = %v, %v; want false, nil", removed, err)
	}
	if kv.Saves() != saves {
		t.Error("removing nothing should not persist")
	}

	removed, err = s.RemovePayment(ctx, core.NewDate(2024, time.March, 8))
	if err != nil || !removed {
		t.Fatalf("RemovePayment = %v, %v; want true, nil", removed, err)
	}

	var stored []core.Payment
	raw, _, _ := kv.Load(ctx, KeyPayments)
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("stored payments: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("stored %d payments after removal, want 0", len(stored))
	}

	if len(pub.events) != 2 {
		t.Fatalf("published %d events, want 2", len(pub.events))
	}
	if pub.events[0].Type != core.EventPaymentRecorded || pub.events[1].Type != core.EventPaymentRemoved {
		t.Errorf("event types = %s, %s", pub.events[0].Type, pub.events[1].Type)
	}
}

func TestStateStore_PublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errBoom}
	s := newTestState(memory.New(nil), pub)
	mustInit(t, s)

	if _, err := s.UpsertPayment(context.Background(), draft(8, 2500)); err != nil {
		t.Fatalf("publish failure leaked into UpsertPayment: %v", err)
	}
}

func TestStateStore_ReplaceSettingsValidates(t *testing.T) {
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)

	bad := core.DefaultSettings(testNow)
	bad.WeeklyPaymentDay = 7
	if err := s.ReplaceSettings(context.Background(), bad); !errors.Is(err, core.ErrInvalidWeekday) {
		t.Fatalf("error = %v, want ErrInvalidWeekday", err)
	}
	got, _ := s.Settings()
	if got.WeeklyPaymentDay != time.Friday {
		t.Errorf("settings changed despite validation failure: %+v", got)
	}
}

func TestStateStore_OnChange(t *testing.T) {
	ctx := context.Background()
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)

	var calls int
	var last core.PaymentEvent
	s.OnChange(func(e core.PaymentEvent) {
		calls++
		last = e
	})

	s.UpsertPayment(ctx, draft(8, 2500))
	s.RemovePayment(ctx, core.NewDate(2024, time.March, 8))
	s.RemovePayment(ctx, core.NewDate(2024, time.March, 8))
	s.ReplaceSettings(ctx, core.DefaultSettings(testNow))

	if calls != 3 {
		t.Errorf("listener called %d times, want 3", calls)
	}
	if last.Type != core.EventSettingsChanged || !last.Date.IsEmpty() {
		t.Errorf("settings event = %+v, want settings_changed without date", last)
	}
}

func TestStateStore_SeedDemo(t *testing.T) {
	ctx := context.Background()
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)

	n, err := s.SeedDemo(ctx)
	if err != nil || n != 2 {
		t.Fatalf("SeedDemo = %d, %v; want 2, nil", n, err)
	}
	snap, _, _ := s.Snapshot()
	wantDays := []int{5, 12}
	wantNotes := []string{"Pago semana 1", "Pago semana 2"}
	for i, p := range snap {
		if p.Date.Day() != wantDays[i] || p.Date.Month() != time.March {
			t.Errorf("payment %d on %s", i, p.Date)
		}
		if p.Note != wantNotes[i] {
			t.Errorf("payment %d note = %q, want %q", i, p.Note, wantNotes[i])
		}
		if !p.Amount.Equal(core.MoneyFromInt(2500)) {
			t.Errorf("payment %d amount = %s", i, p.Amount)
		}
	}

	n, err = s.SeedDemo(ctx)
	if err != nil || n != 0 {
		t.Errorf("second SeedDemo = %d, %v; want 0, nil", n, err)
	}
}

func TestStateStore_Alerted(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(map[string][]byte{KeyAlerts: []byte("nope")})
	s := newTestState(kv, nil)
	mustInit(t, s)

	alerted, err := s.LoadAlerted(ctx)
	if err != nil || len(alerted) != 0 {
		t.Fatalf("LoadAlerted(malformed) = %v, %v", alerted, err)
	}

	dates := []core.Date{core.NewDate(2024, time.March, 1), core.NewDate(2024, time.March, 8)}
	if err := s.SaveAlerted(ctx, dates); err != nil {
		t.Fatalf("SaveAlerted: %v", err)
	}
	alerted, _ = s.LoadAlerted(ctx)
	if !alerted["2024-03-01"] || !alerted["2024-03-08"] || len(alerted) != 2 {
		t.Errorf("alerted = %v", alerted)
	}
}
