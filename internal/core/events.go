package core

import "time"

type PaymentEventType string

const (
	EventPaymentRecorded PaymentEventType = "payment_recorded"
	EventPaymentRemoved  PaymentEventType = "payment_removed"
	EventSettingsChanged PaymentEventType = "settings_changed"
)

// PaymentEvent announces a ledger or settings mutation. Consumers re-read
// state rather than trusting Amount, which is zero for removals. Settings
// changes carry no Date.
type PaymentEvent struct {
	Type       PaymentEventType `json:"type"`
	Date       Date             `json:"date"`
	Amount     Money            `json:"amount"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// Month is the month the event touched.
func (e PaymentEvent) Month() MonthRef {
	return e.Date.MonthRef()
}
