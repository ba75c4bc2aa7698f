package extract

import (
	"context"

	"pagotrack/internal/core"
	"pagotrack/internal/ports"
)

var _ ports.Extractor = Noop{}

// Noop is used when OCR is disabled. It never reads anything.
type Noop struct{}

func (Noop) Extract(context.Context, []byte) (core.ExtractionHint, error) {
	return core.ExtractionHint{}, nil
}
