package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/ports"
)

// ExportProcessorConfig holds configuration for the export processor.
type ExportProcessorConfig struct {
	// PollInterval is how often pending months are exported (default: 10s).
	PollInterval time.Duration

	// MaxRetries is how many failed exports of one month are tolerated
	// before it is dropped (default: 3).
	MaxRetries int
}

func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		PollInterval: 10 * time.Second,
		MaxRetries:   3,
	}
}

// ExportProcessor re-renders every month touched by a payment event.
// Events for the same month are coalesced until the next poll.
type ExportProcessor struct {
	reports  *ReportService
	renderer ports.ReportRenderer
	// reload refreshes state before a batch when another process owns
	// the writes. Optional.
	reload func(context.Context) error
	config ExportProcessorConfig

	mu       sync.Mutex
	pending  map[core.MonthRef]pendingExport
	rendered map[core.MonthRef]struct{}
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	exported int
}

func NewExportProcessor(
	reports *ReportService,
	renderer ports.ReportRenderer,
	reload func(context.Context) error,
	config ExportProcessorConfig,
) *ExportProcessor {
	return &ExportProcessor{
		reports:  reports,
		renderer: renderer,
		reload:   reload,
		config:   config,
		pending:  make(map[core.MonthRef]pendingExport),
		rendered: make(map[core.MonthRef]struct{}),
	}
}

// pendingExport tracks one queued month. gen grows on every Enqueue so a
// render only clears the entry it started from.
type pendingExport struct {
	attempts int
	gen      uint64
}

// Enqueue marks the event's month for export. A settings change queues
// every month this processor has already exported, since each report
// carries the settings. Other events without a date are ignored.
func (p *ExportProcessor) Enqueue(event core.PaymentEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.Type == core.EventSettingsChanged {
		for month := range p.rendered {
			p.markLocked(month)
		}
		return
	}
	if event.Date.IsEmpty() {
		return
	}
	p.markLocked(event.Month())
}

func (p *ExportProcessor) markLocked(month core.MonthRef) {
	entry := p.pending[month]
	entry.gen++
	p.pending[month] = entry
}

// HandleEvent adapts Enqueue to a queue consumer handler.
func (p *ExportProcessor) HandleEvent(_ context.Context, event core.PaymentEvent) error {
	p.Enqueue(event)
	return nil
}

// Pending returns the months waiting for export, oldest first.
func (p *ExportProcessor) Pending() []core.MonthRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.MonthRef, 0, len(p.pending))
	for m := range p.pending {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].First().Before(out[j].First()) })
	return out
}

// Exported returns how many month exports have succeeded.
func (p *ExportProcessor) Exported() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exported
}

// Start begins the processing loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export processor started",
		"poll_interval", p.config.PollInterval,
		"max_retries", p.config.MaxRetries)
	return nil
}

// Stop signals the loop and waits for the batch in flight.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			p.ProcessPending(ctx)
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessPending(ctx)
		}
	}
}

// ProcessPending exports every pending month once and returns how many
// succeeded.
func (p *ExportProcessor) ProcessPending(ctx context.Context) int {
	months := p.Pending()
	if len(months) == 0 {
		return 0
	}
	gens := make(map[core.MonthRef]uint64, len(months))
	p.mu.Lock()
	for _, month := range months {
		gens[month] = p.pending[month].gen
	}
	p.mu.Unlock()

	if p.reload != nil {
		if err := p.reload(ctx); err != nil {
			slog.ErrorContext(ctx, "Failed to reload state before export", "error", err)
			return 0
		}
	}

	slog.DebugContext(ctx, "Exporting pending months", "count", len(months))

	done := 0
	for _, month := range months {
		if ctx.Err() != nil {
			return done
		}
		if _, err := p.reports.Render(ctx, month, p.renderer); err != nil {
			p.handleFailure(ctx, month, err)
			continue
		}
		p.mu.Lock()
		// An event for this month that arrived mid-render keeps it queued.
		if entry, ok := p.pending[month]; ok && entry.gen == gens[month] {
			delete(p.pending, month)
		}
		p.rendered[month] = struct{}{}
		p.exported++
		p.mu.Unlock()
		done++
	}
	return done
}

func (p *ExportProcessor) handleFailure(ctx context.Context, month core.MonthRef, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.pending[month]
	if !ok {
		return
	}
	attempts := entry.attempts + 1
	slog.WarnContext(ctx, "Month export failed",
		"month", month.String(),
		"attempt", attempts,
		"error", err)

	if attempts >= p.config.MaxRetries {
		delete(p.pending, month)
		slog.ErrorContext(ctx, "Month export failed permanently after max retries",
			"month", month.String(),
			"attempts", attempts)
		return
	}
	entry.attempts = attempts
	p.pending[month] = entry
}
