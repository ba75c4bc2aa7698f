package services

import (
	"context"
	"testing"
	"time"

	"pagotrack/internal/core"
)

// gatedExtractor blocks until release is closed or ctx ends.
type gatedExtractor struct {
	release chan struct{}
	hint    core.ExtractionHint
	err     error
}

func (g *gatedExtractor) Extract(ctx context.Context, _ []byte) (core.ExtractionHint, error) {
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return core.ExtractionHint{}, ctx.Err()
		}
	}
	return g.hint, g.err
}

func sampleHint() core.ExtractionHint {
	d := core.NewDate(2024, time.March, 8)
	m := core.MoneyFromInt(2500)
	return core.ExtractionHint{Date: &d, Amount: &m}
}

func TestPrefillSession_DeliversHint(t *testing.T) {
	s := NewPrefillSession(&gatedExtractor{hint: sampleHint()})

	got := make(chan core.ExtractionHint, 1)
	s.Start(context.Background(), []byte("img"), func(h core.ExtractionHint) { got <- h })
	s.Wait()

	select {
	case h := <-got:
		if h.Date == nil || h.Date.String() != "2024-03-08" {
			t.Errorf("hint date = %v", h.Date)
		}
	default:
		t.Fatal("callback not invoked")
	}
}

func TestPrefillSession_FailureDegradesToEmptyHint(t *testing.T) {
	s := NewPrefillSession(&gatedExtractor{err: errBoom})

	got := make(chan core.ExtractionHint, 1)
	s.Start(context.Background(), nil, func(h core.ExtractionHint) { got <- h })
	s.Wait()

	select {
	case h := <-got:
		if !h.IsEmpty() {
			t.Errorf("expected empty hint, got %+v", h)
		}
	default:
		t.Fatal("callback not invoked on failure")
	}
}

func TestPrefillSession_DiscardsSuperseded(t *testing.T) {
	tests := []struct {
		name      string
		supersede func(*PrefillSession)
	}{
		{"cancel", func(s *PrefillSession) { s.Cancel() }},
		{"user edit", func(s *PrefillSession) { s.MarkEdited() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &gatedExtractor{release: make(chan struct{}), hint: sampleHint()}
			s := NewPrefillSession(ex)

			called := false
			s.Start(context.Background(), []byte("img"), func(core.ExtractionHint) { called = true })
			tt.supersede(s)
			close(ex.release)
			s.Wait()

			if called {
				t.Error("stale extraction result was delivered")
			}
		})
	}
}

func TestPrefillSession_NewerStartWins(t *testing.T) {
	ex := &gatedExtractor{release: make(chan struct{}), hint: sampleHint()}
	s := NewPrefillSession(ex)

	var calls []string
	s.Start(context.Background(), []byte("first"), func(core.ExtractionHint) { calls = append(calls, "first") })
	s.Start(context.Background(), []byte("second"), func(core.ExtractionHint) { calls = append(calls, "second") })
	close(ex.release)
	s.Wait()

	if len(calls) != 1 || calls[0] != "second" {
		t.Errorf("calls = %v, want [second]", calls)
	}
}
