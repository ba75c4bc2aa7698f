package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/storage/memory"
)

func TestAlertProcessor_ProcessMissed(t *testing.T) {
	ctx := context.Background()
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)
	if _, err := s.UpsertPayment(ctx, draft(8, 2500)); err != nil {
		t.Fatal(err)
	}

	pub := &recordingPublisher{}
	p := NewAlertProcessor(s, pub)

	n, err := p.ProcessMissed(ctx, testNow)
	if err != nil {
		t.Fatalf("ProcessMissed: %v", err)
	}
	// February 2, 9, 16, 23 and March 1, 15. March 22 and 29 are not due.
	want := []string{"2024-02-02", "2024-02-09", "2024-02-16", "2024-02-23", "2024-03-01", "2024-03-15"}
	if n != len(want) {
		t.Fatalf("published %d alerts, want %d", n, len(want))
	}
	for i, a := range pub.alerts {
		if a.Date.String() != want[i] {
			t.Errorf("alert %d date = %s, want %s", i, a.Date, want[i])
		}
		if a.Type != core.AlertMissedPayment {
			t.Errorf("alert %d type = %s", i, a.Type)
		}
	}

	n, err = p.ProcessMissed(ctx, testNow)
	if err != nil || n != 0 {
		t.Errorf("second run = %d, %v; want 0, nil", n, err)
	}
}

func TestAlertProcessor_RetriesFailedPublish(t *testing.T) {
	ctx := context.Background()
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)

	pub := &recordingPublisher{fail: map[string]bool{"2024-03-15": true}}
	p := NewAlertProcessor(s, pub)

	first, err := p.ProcessMissed(ctx, testNow)
	if err != nil {
		t.Fatal(err)
	}
	delete(pub.fail, "2024-03-15")
	second, err := p.ProcessMissed(ctx, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if first != 6 || second != 1 {
		t.Errorf("runs published %d then %d, want 6 then 1", first, second)
	}
}

func TestAlertProcessor_PaidDateIsForgotten(t *testing.T) {
	ctx := context.Background()
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)
	p := NewAlertProcessor(s, &recordingPublisher{})

	if _, err := p.ProcessMissed(ctx, testNow); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertPayment(ctx, draft(15, 2500)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ProcessMissed(ctx, testNow); err != nil {
		t.Fatal(err)
	}

	alerted, _ := s.LoadAlerted(ctx)
	if alerted["2024-03-15"] {
		t.Error("paid date should no longer be remembered as alerted")
	}
	if !alerted["2024-03-01"] {
		t.Error("still-missed date should stay remembered")
	}
}

func TestAlertProcessor_NotInitialized(t *testing.T) {
	p := NewAlertProcessor(nil, nil)
	if _, err := p.ProcessMissed(context.Background(), testNow); err == nil {
		t.Error("expected error for unconfigured processor")
	}
}

func TestMissedPaymentAlert(t *testing.T) {
	d := core.NewDate(2024, time.March, 15)
	a := MissedPaymentAlert(d, core.DefaultSettings(testNow))
	if a.ID != "missed-2024-03-15" {
		t.Errorf("ID = %q", a.ID)
	}
	if !strings.Contains(a.Message, "2024-03-15") || !strings.Contains(a.Message, "Juan Pérez") {
		t.Errorf("Message = %q", a.Message)
	}
}
