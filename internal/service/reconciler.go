package service

import (
	"context"
	"time"

	"checkout-service/internal/broker"
	"checkout-service/internal/gateway"
	"checkout-service/internal/models"
	"checkout-service/internal/redisclient"
	"checkout-service/internal/status"
	"checkout-service/internal/store"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	syncLockKey = "payment-sync"
	syncLockTTL = 2 * time.Minute
)

// Reconciler imports gateway-known payments that are missing from the local
// store. It is strictly additive: existing records are never mutated or
// deleted (status refresh of known records is the webhook path's job).
type Reconciler struct {
	gateway   gateway.Client
	store     store.PaymentStore
	redis     *redisclient.Client
	publisher broker.Publisher
	logger    *zap.Logger
}

// NewReconciler creates a new reconciler. redis and publisher may be nil.
func NewReconciler(gw gateway.Client, st store.PaymentStore, redis *redisclient.Client, publisher broker.Publisher) *Reconciler {
	return &Reconciler{
		gateway:   gw,
		store:     st,
		redis:     redis,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Synchronize appends every remote payment whose id the local store does not
// have, in one batch write, and returns how many were inserted. Running it
// twice against an unchanged gateway inserts nothing the second time.
func (r *Reconciler) Synchronize(ctx context.Context) (int, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.Synchronize")
	defer span.End()

	util.ReconciliationRunsTotal.Inc()

	if r.redis != nil {
		acquired, err := r.redis.AcquireLock(ctx, syncLockKey, syncLockTTL)
		if err != nil {
			r.logger.Warn("Sync lock unavailable, continuing without it", zap.Error(err))
		} else if !acquired {
			r.logger.Info("Reconciliation already running elsewhere, skipping")
			return 0, nil
		} else {
			defer func() {
				if err := r.redis.ReleaseLock(context.Background(), syncLockKey); err != nil {
					r.logger.Warn("Failed to release sync lock", zap.Error(err))
				}
			}()
		}
	}

	local, err := r.store.ReadAll(ctx)
	if err != nil {
		return 0, err
	}

	remote, err := r.gateway.ListPayments(ctx)
	if err != nil {
		return 0, err
	}

	known := make(map[string]struct{}, len(local))
	for _, p := range local {
		known[p.ID] = struct{}{}
	}

	// imported records enter the local log on the closed status set, like
	// records written through the webhook path
	var missing []models.PaymentIntent
	for _, p := range remote {
		if _, ok := known[p.ID]; !ok {
			p.Status = status.Normalize(p.Status)
			missing = append(missing, p)
			known[p.ID] = struct{}{}
		}
	}

	if len(missing) == 0 {
		r.logger.Info("Reconciliation found nothing to import",
			zap.Int("local", len(local)),
			zap.Int("remote", len(remote)))
		return 0, nil
	}

	if err := r.store.AppendAll(ctx, missing); err != nil {
		return 0, err
	}

	util.ReconciliationInsertedTotal.Add(float64(len(missing)))
	r.logger.Info("Reconciliation imported missing payments",
		zap.Int("inserted", len(missing)),
		zap.Int("local", len(local)),
		zap.Int("remote", len(remote)))

	r.publishImported(ctx, missing)

	return len(missing), nil
}

func (r *Reconciler) publishImported(ctx context.Context, imported []models.PaymentIntent) {
	if r.publisher == nil {
		return
	}
	ids := make([]string, len(imported))
	for i, p := range imported {
		ids[i] = p.ID
	}
	event := &models.PaymentsImportedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentsImported,
			Timestamp: time.Now(),
		},
		Inserted:   len(imported),
		PaymentIDs: ids,
	}
	if err := r.publisher.PublishPaymentsImported(ctx, event); err != nil {
		r.logger.Error("Failed to publish PaymentsImported event", zap.Error(err))
	}
}
