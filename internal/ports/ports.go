package ports

import (
	"context"

	"pagotrack/internal/core"
)

// Ports for outbound adapters.
type (
	// KVStore persists opaque values under string keys. Load reports
	// whether the key existed.
	KVStore interface {
		Load(ctx context.Context, key string) (value []byte, found bool, err error)
		Save(ctx context.Context, key string, value []byte) error
	}

	// Extractor reads a date and amount off a receipt image. A value it
	// cannot read is left nil in the hint.
	Extractor interface {
		Extract(ctx context.Context, image []byte) (core.ExtractionHint, error)
	}

	// ReportRenderer turns a prepared monthly report into a document.
	ReportRenderer interface {
		Render(ctx context.Context, report core.MonthlyReport) (core.Document, error)
	}

	AlertPublisher interface {
		PublishMissedPayment(ctx context.Context, alert core.Alert) error
	}

	EventPublisher interface {
		PublishPaymentEvent(ctx context.Context, event core.PaymentEvent) error
	}
)
