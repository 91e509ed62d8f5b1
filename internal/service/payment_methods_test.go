package service

import (
	"context"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreMethodCreatesReference(t *testing.T) {
	storage := newMockStorage()
	storage.customer = &models.Customer{ID: 7, Email: "a@example.com"}
	gw := &mockGateway{createdRef: "cus_new"}
	svc := NewPaymentMethodService(storage, gw)

	require.NoError(t, svc.StoreMethod(context.Background(), 7, "tok_visa"))
	assert.Equal(t, "cus_new", storage.gatewayRefSet)
}

func TestStoreMethodUpdatesExistingReference(t *testing.T) {
	storage := newMockStorage()
	storage.customer = &models.Customer{ID: 7, Email: "a@example.com", GatewayCustomerRef: "cus_42"}
	gw := &mockGateway{}
	svc := NewPaymentMethodService(storage, gw)

	require.NoError(t, svc.StoreMethod(context.Background(), 7, "tok_mc"))
	assert.Equal(t, "cus_42", gw.updatedRef)
	assert.Equal(t, "tok_mc", gw.updatedToken)
	assert.Empty(t, storage.gatewayRefSet)
}

func TestStoreMethodRequiresToken(t *testing.T) {
	svc := NewPaymentMethodService(newMockStorage(), &mockGateway{})

	err := svc.StoreMethod(context.Background(), 7, "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}
