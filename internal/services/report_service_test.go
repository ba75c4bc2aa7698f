package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/storage/memory"
)

func TestReportService_Render(t *testing.T) {
	ctx := context.Background()
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)
	s.UpsertPayment(ctx, draft(15, 2500))
	s.UpsertPayment(ctx, draft(1, 2000))
	s.UpsertPayment(ctx, core.PaymentDraft{Date: core.NewDate(2024, time.April, 5), Amount: core.MoneyFromInt(999)})

	svc := NewReportService(s)
	svc.now = fixedNow
	r := &fakeRenderer{}

	doc, err := svc.Render(ctx, march, r)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.Name != "report-2024-03" {
		t.Errorf("document name = %q", doc.Name)
	}

	got := r.reports[0]
	if len(got.Payments) != 2 {
		t.Fatalf("report has %d payments, want 2", len(got.Payments))
	}
	if got.Payments[0].Date.Day() != 1 || got.Payments[1].Date.Day() != 15 {
		t.Error("report payments not in ascending order")
	}
	if !got.TotalPaid.Equal(core.MoneyFromInt(4500)) {
		t.Errorf("total = %s, want 4500", got.TotalPaid)
	}
	if !got.GeneratedAt.Equal(testNow) {
		t.Errorf("generated at = %v", got.GeneratedAt)
	}
}

func TestReportService_RenderErrors(t *testing.T) {
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)
	svc := NewReportService(s)

	if _, err := svc.Render(context.Background(), march, &fakeRenderer{err: errBoom}); !errors.Is(err, errBoom) {
		t.Errorf("renderer error = %v, want boom", err)
	}
	if _, err := svc.Build(core.MonthRef{Year: 2024}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("invalid month error = %v", err)
	}
}
