package amqp

import (
	"encoding/json"
	"time"

	"pagotrack/internal/core"
)

// PaymentEventMessage is published whenever the ledger changes. The sync
// worker only needs the date to know which month to re-export.
type PaymentEventMessage struct {
	Event     core.PaymentEvent `json:"event"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewPaymentEventMessage(event core.PaymentEvent) *PaymentEventMessage {
	return &PaymentEventMessage{Event: event, Timestamp: time.Now()}
}

func (m *PaymentEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PaymentEventMessageFromJSON(data []byte) (*PaymentEventMessage, error) {
	var msg PaymentEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AlertMessage carries one missed-payment alert.
type AlertMessage struct {
	Alert     core.Alert `json:"alert"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewAlertMessage(alert core.Alert) *AlertMessage {
	return &AlertMessage{Alert: alert, Timestamp: time.Now()}
}

func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
