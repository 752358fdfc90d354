package service

import (
	"context"
	"errors"
	"time"

	"checkout-service/internal/broker"
	"checkout-service/internal/gateway"
	"checkout-service/internal/models"
	"checkout-service/internal/status"
	"checkout-service/internal/store"
	"checkout-service/internal/util"
	"checkout-service/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// webhookDedupTTL bounds how long a processed id+status pair suppresses
// duplicate provider deliveries.
const webhookDedupTTL = 24 * time.Hour

// WebhookDeduper records processed webhook deliveries so duplicates can be
// short-circuited. *redisclient.Client implements it.
type WebhookDeduper interface {
	MarkWebhookSeen(ctx context.Context, paymentID, status string, ttl time.Duration) (bool, error)
}

// PaymentService orchestrates the checkout flow: validate the form, create
// the intent at the gateway, observe status changes, and keep the local
// payment log current.
type PaymentService struct {
	gateway   gateway.Client
	store     store.PaymentStore
	dedup     WebhookDeduper
	publisher broker.Publisher
	validator *validation.Validator
	currency  string
	method    string
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service. dedup and publisher may be
// nil; dedup and events are then skipped, correctness does not depend on them.
func NewPaymentService(
	gw gateway.Client,
	st store.PaymentStore,
	dedup WebhookDeduper,
	publisher broker.Publisher,
	validator *validation.Validator,
	currency, method string,
) *PaymentService {
	return &PaymentService{
		gateway:   gw,
		store:     st,
		dedup:     dedup,
		publisher: publisher,
		validator: validator,
		currency:  currency,
		method:    method,
		logger:    util.GetLogger(),
	}
}

// CreateCheckout validates a raw form submission and creates the payment
// intent at the gateway. The local store is not written here: the record
// arrives later through the webhook or reconciliation, once the gateway has
// something authoritative to say.
func (s *PaymentService) CreateCheckout(ctx context.Context, form validation.Form) (*models.PaymentIntent, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreateCheckout")
	defer span.End()

	req, verr := s.validator.Validate(form)
	if verr != nil {
		util.PaymentsFailedTotal.WithLabelValues("validation").Inc()
		return nil, verr
	}

	description := "Payment from " + req.Firstname
	intent, err := s.gateway.CreatePayment(ctx, req, s.currency, s.method, description)
	if err != nil {
		util.PaymentsFailedTotal.WithLabelValues("gateway").Inc()
		return nil, err
	}

	util.PaymentsCreatedTotal.Inc()
	s.logger.Info("Checkout created",
		zap.String("payment_id", intent.ID),
		zap.String("status", intent.Status),
		zap.String("amount", intent.Amount.Value))

	s.publishCreated(ctx, intent)

	return intent, nil
}

// GetStatus fetches the authoritative payment state from the gateway.
// Unknown ids keep their not-found identity for the HTTP layer.
func (s *PaymentService) GetStatus(ctx context.Context, id string) (*models.PaymentIntent, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.GetStatus")
	defer span.End()

	return s.gateway.GetPayment(ctx, id)
}

// HandleWebhook processes a status-change notification. The delivered
// payload is never trusted: the payment is re-fetched from the gateway, then
// upserted locally. Deliveries are at-least-once and possibly duplicated, so
// the whole path is idempotent. The dedup marker is written only after the
// store write succeeds: a failed write leaves no marker, so the provider's
// redelivery gets to repair the local log instead of being skipped.
func (s *PaymentService) HandleWebhook(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandleWebhook")
	defer span.End()

	util.WebhooksReceivedTotal.Inc()

	payment, err := s.gateway.GetPayment(ctx, id)
	if err != nil {
		util.WebhookProcessingFailed.WithLabelValues("gateway").Inc()
		return err
	}

	if err := s.upsert(ctx, payment); err != nil {
		util.WebhookProcessingFailed.WithLabelValues("store").Inc()
		return err
	}

	if s.dedup != nil {
		fresh, err := s.dedup.MarkWebhookSeen(ctx, payment.ID, payment.Status, webhookDedupTTL)
		if err != nil {
			s.logger.Warn("Webhook dedup check failed, continuing",
				zap.String("payment_id", payment.ID),
				zap.Error(err))
		} else if !fresh {
			util.WebhooksDuplicateTotal.Inc()
			s.logger.Info("Duplicate webhook delivery skipped",
				zap.String("payment_id", payment.ID),
				zap.String("status", payment.Status))
			return nil
		}
	}

	display := status.Project(payment.Status)
	s.logger.Info("Webhook processed",
		zap.String("payment_id", payment.ID),
		zap.String("status", payment.Status),
		zap.String("status_title", display.Title),
		zap.Bool("terminal", status.IsTerminal(payment.Status)))

	s.publishStatusChanged(ctx, payment)

	return nil
}

// upsert refreshes the stored record, appending when the id has not been
// seen locally yet. The stored copy collapses statuses outside the local set
// onto the "other" fallback; display and events keep the raw gateway value.
func (s *PaymentService) upsert(ctx context.Context, payment *models.PaymentIntent) error {
	record := *payment
	record.Status = status.Normalize(record.Status)
	err := s.store.UpdateByID(ctx, record.ID, record)
	if errors.Is(err, models.ErrNotFound) {
		return s.store.Append(ctx, record)
	}
	return err
}

// List queries the local payment log with metadata filtering and pagination.
func (s *PaymentService) List(ctx context.Context, filter models.Filter, page models.PageRequest) (*models.PaymentPage, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.List")
	defer span.End()

	return s.store.Query(ctx, filter, page)
}

func (s *PaymentService) publishCreated(ctx context.Context, intent *models.PaymentIntent) {
	if s.publisher == nil {
		return
	}
	event := &models.PaymentCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentCreated,
			Timestamp: time.Now(),
		},
		PaymentID: intent.ID,
		Amount:    intent.Amount,
		Status:    intent.Status,
		Metadata:  intent.Metadata,
	}
	if err := s.publisher.PublishPaymentCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentCreated event", zap.Error(err))
	}
}

func (s *PaymentService) publishStatusChanged(ctx context.Context, payment *models.PaymentIntent) {
	if s.publisher == nil {
		return
	}
	event := &models.PaymentStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentStatusChanged,
			Timestamp: time.Now(),
		},
		PaymentID: payment.ID,
		NewStatus: payment.Status,
		PaidAt:    payment.PaidAt,
	}
	if err := s.publisher.PublishPaymentStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentStatusChanged event", zap.Error(err))
	}
}
