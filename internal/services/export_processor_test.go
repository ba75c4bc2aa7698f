package services

import (
	"context"
	"testing"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/storage/memory"
)

func newTestExporter(t *testing.T, r *fakeRenderer, cfg ExportProcessorConfig) *ExportProcessor {
	t.Helper()
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)
	return NewExportProcessor(NewReportService(s), r, nil, cfg)
}

func event(y int, m time.Month, d int) core.PaymentEvent {
	return core.PaymentEvent{Type: core.EventPaymentRecorded, Date: core.NewDate(y, m, d)}
}

func TestDefaultExportProcessorConfig(t *testing.T) {
	cfg := DefaultExportProcessorConfig()
	if cfg.PollInterval != 10*time.Second {
		t.Errorf("expected PollInterval 10s, got %v", cfg.PollInterval)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", cfg.MaxRetries)
	}
}

func TestExportProcessor_CoalescesMonths(t *testing.T) {
	r := &fakeRenderer{}
	p := newTestExporter(t, r, DefaultExportProcessorConfig())

	p.Enqueue(event(2024, time.March, 8))
	p.Enqueue(event(2024, time.March, 15))
	p.Enqueue(event(2024, time.February, 2))
	p.Enqueue(core.PaymentEvent{})

	pending := p.Pending()
	if len(pending) != 2 || pending[0].Month != time.February || pending[1].Month != time.March {
		t.Fatalf("pending = %v, want [2024-02 2024-03]", pending)
	}

	if n := p.ProcessPending(context.Background()); n != 2 {
		t.Errorf("ProcessPending = %d, want 2", n)
	}
	if r.count() != 2 || p.Exported() != 2 || len(p.Pending()) != 0 {
		t.Errorf("renders=%d exported=%d pending=%d", r.count(), p.Exported(), len(p.Pending()))
	}
}

func TestExportProcessor_KeepsMonthEnqueuedDuringRender(t *testing.T) {
	r := &fakeRenderer{}
	p := newTestExporter(t, r, DefaultExportProcessorConfig())
	ctx := context.Background()

	p.Enqueue(event(2024, time.March, 8))
	r.during = func() { p.Enqueue(event(2024, time.March, 22)) }

	if n := p.ProcessPending(ctx); n != 1 {
		t.Fatalf("ProcessPending = %d, want 1", n)
	}
	pending := p.Pending()
	if len(pending) != 1 || pending[0].String() != "2024-03" {
		t.Fatalf("pending after batch = %v, want [2024-03]", pending)
	}

	p.ProcessPending(ctx)
	if r.count() != 2 || len(p.Pending()) != 0 {
		t.Errorf("renders=%d pending=%v, want 2 renders and nothing pending", r.count(), p.Pending())
	}
}

func TestExportProcessor_SettingsChangeRequeuesExportedMonths(t *testing.T) {
	ctx := context.Background()
	r := &fakeRenderer{}
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)
	p := NewExportProcessor(NewReportService(s), r, nil, DefaultExportProcessorConfig())
	s.OnChange(p.Enqueue)

	settings := core.DefaultSettings(testNow)
	settings.Name = "Beatriz"
	if err := s.ReplaceSettings(ctx, settings); err != nil {
		t.Fatalf("ReplaceSettings: %v", err)
	}
	if got := p.Pending(); len(got) != 0 {
		t.Fatalf("nothing exported yet, pending = %v", got)
	}

	if _, err := s.UpsertPayment(ctx, draft(8, 2500)); err != nil {
		t.Fatalf("UpsertPayment: %v", err)
	}
	p.ProcessPending(ctx)

	settings.Name = "Carla"
	if err := s.ReplaceSettings(ctx, settings); err != nil {
		t.Fatalf("ReplaceSettings: %v", err)
	}
	pending := p.Pending()
	if len(pending) != 1 || pending[0].String() != "2024-03" {
		t.Fatalf("pending = %v, want [2024-03]", pending)
	}
	p.ProcessPending(ctx)
	if last := r.reports[len(r.reports)-1]; last.Settings.Name != "Carla" {
		t.Errorf("re-exported report name = %q, want Carla", last.Settings.Name)
	}
}

func TestExportProcessor_DropsAfterMaxRetries(t *testing.T) {
	r := &fakeRenderer{err: errBoom}
	p := newTestExporter(t, r, ExportProcessorConfig{PollInterval: time.Hour, MaxRetries: 2})
	ctx := context.Background()

	p.Enqueue(event(2024, time.March, 8))
	p.ProcessPending(ctx)
	if len(p.Pending()) != 1 {
		t.Fatal("month should be retried after first failure")
	}
	p.ProcessPending(ctx)
	if len(p.Pending()) != 0 {
		t.Error("month should be dropped after max retries")
	}
}

func TestExportProcessor_ReloadFailureSkipsBatch(t *testing.T) {
	r := &fakeRenderer{}
	s := newTestState(memory.New(nil), nil)
	mustInit(t, s)
	p := NewExportProcessor(NewReportService(s), r, func(context.Context) error { return errBoom }, DefaultExportProcessorConfig())

	p.Enqueue(event(2024, time.March, 8))
	if n := p.ProcessPending(context.Background()); n != 0 {
		t.Errorf("ProcessPending = %d, want 0", n)
	}
	if len(p.Pending()) != 1 {
		t.Error("month should stay pending when reload fails")
	}
}

func TestExportProcessor_Lifecycle(t *testing.T) {
	r := &fakeRenderer{}
	p := newTestExporter(t, r, ExportProcessorConfig{PollInterval: time.Hour, MaxRetries: 3})
	ctx := context.Background()

	if p.IsRunning() {
		t.Error("processor should not be running initially")
	}
	if err := p.Stop(ctx); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}

	if err := p.HandleEvent(ctx, event(2024, time.March, 8)); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should be stopped")
	}
	if r.count() != 1 {
		t.Errorf("pending month should be flushed on stop, renders = %d", r.count())
	}
}
