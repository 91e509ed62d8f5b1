package service

import (
	"context"
	"errors"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// AccessGuard verifies that a requested order belongs to the authenticated
// customer. It runs before any read of order detail to prevent cross-customer
// data leakage. Pure read, no side effects.
type AccessGuard struct {
	storage Storage
	logger  *zap.Logger
}

// NewAccessGuard creates a new access guard.
func NewAccessGuard(storage Storage) *AccessGuard {
	return &AccessGuard{
		storage: storage,
		logger:  util.GetLogger(),
	}
}

// AssertOwnership returns the order when it belongs to the customer. A
// missing order reports the same access-denied failure as a foreign one so
// callers cannot probe for order existence.
func (g *AccessGuard) AssertOwnership(ctx context.Context, customerID, orderID int64) (*models.Order, error) {
	order, err := g.storage.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, unauthorizedError()
		}
		return nil, err
	}

	if order.CustomerID != customerID {
		g.logger.Warn("Cross-customer order access denied",
			zap.Int64("customer_id", customerID),
			zap.Int64("order_id", orderID))
		return nil, unauthorizedError()
	}

	return order, nil
}
