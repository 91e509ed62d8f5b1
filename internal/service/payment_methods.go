package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/gateway"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// PaymentMethodService manages the customer's card on file: a stored
// gateway-side payment method charged when checkout receives no one-time
// token.
type PaymentMethodService struct {
	storage Storage
	gateway gateway.Gateway
	logger  *zap.Logger
}

// NewPaymentMethodService creates a new payment method service.
func NewPaymentMethodService(storage Storage, gw gateway.Gateway) *PaymentMethodService {
	return &PaymentMethodService{
		storage: storage,
		gateway: gw,
		logger:  util.GetLogger(),
	}
}

// StoreMethod tokenizes a card on file for the customer. An existing stored
// method is replaced in place at the gateway; a first-time store creates the
// gateway-side reference and records it on the customer row.
func (s *PaymentMethodService) StoreMethod(ctx context.Context, customerID int64, token string) error {
	if token == "" {
		return validationError("stripe_token")
	}

	customer, err := s.storage.GetCustomerByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}

	if customer.GatewayCustomerRef != "" {
		if err := s.gateway.UpdateStoredMethod(ctx, customer.GatewayCustomerRef, token); err != nil {
			return s.mapGatewayError(err)
		}
		s.logger.Info("Stored payment method updated",
			zap.Int64("customer_id", customerID))
		return nil
	}

	ref, err := s.gateway.CreateStoredMethod(ctx, token, customer.Email)
	if err != nil {
		return s.mapGatewayError(err)
	}

	if err := s.storage.SetCustomerGatewayRef(ctx, customerID, ref); err != nil {
		return fmt.Errorf("failed to save gateway reference: %w", err)
	}

	s.logger.Info("Stored payment method created",
		zap.Int64("customer_id", customerID))
	return nil
}

func (s *PaymentMethodService) mapGatewayError(err error) error {
	var gwErr *gateway.ChargeError
	if errors.As(err, &gwErr) {
		return paymentDeclinedError(gwErr.Message)
	}
	return paymentDeclinedError(err.Error())
}
