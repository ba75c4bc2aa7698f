package services

import (
	"context"
	"log/slog"
	"sync"

	"pagotrack/internal/core"
	"pagotrack/internal/ports"
)

// PrefillSession runs receipt extraction for one pending payment entry.
// Results are delivered through a callback, and only if the extraction is
// still current: a newer Start, Cancel or MarkEdited discards it.
type PrefillSession struct {
	extractor ports.Extractor

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPrefillSession(extractor ports.Extractor) *PrefillSession {
	return &PrefillSession{extractor: extractor}
}

// Start extracts a hint from image in the background and invokes fn with
// it unless the run is superseded first. fn runs with the session locked
// and must not call back into it. Extraction failures are logged
// and delivered as an empty hint. Start never blocks on the extractor.
func (s *PrefillSession) Start(ctx context.Context, image []byte, fn func(core.ExtractionHint)) {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		hint, err := s.extractor.Extract(runCtx, image)
		if err != nil {
			slog.WarnContext(ctx, "Receipt extraction failed, continuing without hint", "error", err)
			hint = core.ExtractionHint{}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.seq {
			slog.DebugContext(ctx, "Discarding stale extraction result", "seq", seq)
			return
		}
		s.cancel = nil
		fn(hint)
	}()
}

// Cancel discards any pending extraction.
func (s *PrefillSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// MarkEdited records that the user changed the entry by hand. Their input
// wins over any extraction still running.
func (s *PrefillSession) MarkEdited() {
	s.Cancel()
}

// Wait blocks until every started extraction has finished.
func (s *PrefillSession) Wait() {
	s.wg.Wait()
}
