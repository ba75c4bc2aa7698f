// Package extract reads the date and amount off a payment receipt image.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/sync/singleflight"

	"pagotrack/internal/core"
	"pagotrack/internal/ports"
)

var ErrEmptyImage = errors.New("empty image")

var _ ports.Extractor = (*Tesseract)(nil)

// Tesseract runs local OCR through gosseract. Concurrent requests for the
// same image bytes share one OCR run.
type Tesseract struct {
	language string
	timeout  time.Duration
	now      func() time.Time
	group    singleflight.Group
	ocr      func(image []byte, language string) (string, error)
}

func NewTesseract(language string, timeout time.Duration) *Tesseract {
	return &Tesseract{
		language: language,
		timeout:  timeout,
		now:      time.Now,
		ocr:      recognize,
	}
}

// Extract implements ports.Extractor. The OCR call cannot be interrupted,
// so on timeout or cancellation it keeps running in the background and its
// result is dropped.
func (t *Tesseract) Extract(ctx context.Context, image []byte) (core.ExtractionHint, error) {
	if len(image) == 0 {
		return core.ExtractionHint{}, ErrEmptyImage
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	sum := sha256.Sum256(image)
	key := hex.EncodeToString(sum[:])
	ch := t.group.DoChan(key, func() (any, error) {
		prepared, err := preprocess(image)
		if err != nil {
			return "", err
		}
		return t.ocr(prepared, t.language)
	})

	select {
	case <-ctx.Done():
		return core.ExtractionHint{}, fmt.Errorf("extract receipt: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return core.ExtractionHint{}, fmt.Errorf("extract receipt: %w", res.Err)
		}
		text := res.Val.(string)
		hint := ParseText(text, core.DateOf(t.now()))
		slog.DebugContext(ctx, "Receipt OCR finished",
			"chars", len(text),
			"shared", res.Shared,
			"has_date", hint.Date != nil,
			"has_amount", hint.Amount != nil)
		return hint, nil
	}
}

func recognize(image []byte, language string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr error: %w", err)
	}
	return text, nil
}
