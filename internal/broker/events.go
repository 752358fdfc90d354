package broker

import (
	"context"
	"fmt"

	"checkout-service/internal/models"
)

// Publisher emits payment lifecycle events. The service layer depends on
// this interface so tests can capture events without a broker.
type Publisher interface {
	PublishPaymentCreated(ctx context.Context, event *models.PaymentCreatedEvent) error
	PublishPaymentStatusChanged(ctx context.Context, event *models.PaymentStatusChangedEvent) error
	PublishPaymentsImported(ctx context.Context, event *models.PaymentsImportedEvent) error
}

// EventPublisher publishes payment events to Kafka, keyed by payment id so
// events for one payment stay ordered within a partition.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPaymentCreated publishes PaymentCreated event
func (ep *EventPublisher) PublishPaymentCreated(ctx context.Context, event *models.PaymentCreatedEvent) error {
	key := fmt.Sprintf("payment-%s", event.PaymentID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPaymentStatusChanged publishes PaymentStatusChanged event
func (ep *EventPublisher) PublishPaymentStatusChanged(ctx context.Context, event *models.PaymentStatusChangedEvent) error {
	key := fmt.Sprintf("payment-%s", event.PaymentID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPaymentsImported publishes PaymentsImported event
func (ep *EventPublisher) PublishPaymentsImported(ctx context.Context, event *models.PaymentsImportedEvent) error {
	return ep.producer.PublishEvent(ctx, "reconciliation", event)
}
