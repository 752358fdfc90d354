package models

import "time"

// Event types
const (
	EventTypePaymentCreated       = "PAYMENT_CREATED"
	EventTypePaymentStatusChanged = "PAYMENT_STATUS_CHANGED"
	EventTypePaymentsImported     = "PAYMENTS_IMPORTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentCreatedEvent published when a payment intent is created at the gateway
type PaymentCreatedEvent struct {
	BaseEvent
	PaymentID string   `json:"payment_id"`
	Amount    Amount   `json:"amount"`
	Status    string   `json:"status"`
	Metadata  Metadata `json:"metadata"`
}

// PaymentStatusChangedEvent published when a webhook or refresh observes a
// status the local store did not have yet
type PaymentStatusChangedEvent struct {
	BaseEvent
	PaymentID string     `json:"payment_id"`
	OldStatus string     `json:"old_status,omitempty"`
	NewStatus string     `json:"new_status"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// PaymentsImportedEvent published after a reconciliation run that inserted
// at least one missing record
type PaymentsImportedEvent struct {
	BaseEvent
	Inserted   int      `json:"inserted"`
	PaymentIDs []string `json:"payment_ids"`
}
