package worker

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// ReconcileStore is the storage view the reconciler sweeps over.
type ReconcileStore interface {
	ListStaleTentativeOrders(ctx context.Context, olderThan time.Time) ([]models.Order, error)
	ListPaidOrdersWithoutItems(ctx context.Context, olderThan time.Time) ([]models.Order, error)
	GetAuditEvent(ctx context.Context, orderID int64, eventID string) (*models.AuditEvent, error)
}

// Reconciler periodically reports orders left in inconsistent states by a
// crash mid-checkout: tentative orders whose charge outcome is unknown, and
// paid orders missing their line-item snapshot. It reports only — the
// original_charge audit entry is the source for manual reconciliation, and
// no automatic retry is attempted.
type Reconciler struct {
	store     ReconcileStore
	sweepTick time.Duration
	maxAge    time.Duration
	logger    *zap.Logger
}

// NewReconciler creates a reconciler that sweeps every sweepTick and flags
// orders older than maxAge.
func NewReconciler(store ReconcileStore, sweepTick, maxAge time.Duration) *Reconciler {
	return &Reconciler{
		store:     store,
		sweepTick: sweepTick,
		maxAge:    maxAge,
		logger:    util.GetLogger(),
	}
}

// Run sweeps until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one reporting pass.
func (r *Reconciler) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.maxAge)

	stale, err := r.store.ListStaleTentativeOrders(ctx, cutoff)
	if err != nil {
		r.logger.Error("Reconcile sweep failed to list tentative orders", zap.Error(err))
	} else {
		util.ReconcileStaleTentative.Set(float64(len(stale)))
		for _, order := range stale {
			// The gateway call outcome for these is unknown: a crash
			// before finalize-or-rollback may have left a gateway-side
			// charge with no paid order.
			r.logger.Warn("Stale tentative order needs manual reconciliation",
				zap.Int64("order_id", order.ID),
				zap.Int64("customer_id", order.CustomerID),
				zap.Time("created_at", order.CreatedAt))
		}
	}

	halfDone, err := r.store.ListPaidOrdersWithoutItems(ctx, cutoff)
	if err != nil {
		r.logger.Error("Reconcile sweep failed to list paid orders", zap.Error(err))
		return
	}
	util.ReconcilePaidWithoutItems.Set(float64(len(halfDone)))

	for _, order := range halfDone {
		charge, err := r.store.GetAuditEvent(ctx, order.ID, models.EventIDOriginalCharge)
		if err != nil {
			r.logger.Error("Failed to load original charge for paid order",
				zap.Int64("order_id", order.ID),
				zap.Error(err))
			continue
		}

		hasLedgerEntry := charge != nil
		r.logger.Warn("Paid order missing line-item snapshot",
			zap.Int64("order_id", order.ID),
			zap.Int64("customer_id", order.CustomerID),
			zap.String("auth_code", order.AuthCode),
			zap.Bool("original_charge_recorded", hasLedgerEntry))
	}
}
