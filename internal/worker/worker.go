package worker

import (
	"context"
	"time"

	"checkout-service/internal/service"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// ReconcileWorker runs the reconciler on a fixed interval so payments the
// webhook never reached (lost deliveries, local development without a public
// URL) still end up in the local store.
type ReconcileWorker struct {
	reconciler *service.Reconciler
	interval   time.Duration
	logger     *zap.Logger
}

// NewReconcileWorker creates a new reconcile worker.
func NewReconcileWorker(reconciler *service.Reconciler, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler: reconciler,
		interval:   interval,
		logger:     util.GetLogger(),
	}
}

// Start runs the worker until the context is cancelled.
func (w *ReconcileWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting reconcile worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Reconcile worker stopping")
			return ctx.Err()
		case <-ticker.C:
			inserted, err := w.reconciler.Synchronize(ctx)
			if err != nil {
				w.logger.Error("Periodic reconciliation failed", zap.Error(err))
				continue
			}
			if inserted > 0 {
				w.logger.Info("Periodic reconciliation imported payments",
					zap.Int("inserted", inserted))
			}
		}
	}
}
