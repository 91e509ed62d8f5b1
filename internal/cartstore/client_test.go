package cartstore

import (
	"context"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires Redis")

	client, err := NewClient("localhost:6379", "", 1, time.Hour)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	cart := &models.Cart{
		ID: "cart-roundtrip",
		Items: []models.CartItem{
			{ProductID: 1, Quantity: 2, Active: true},
			{ProductID: 2, Quantity: 1, Active: false},
		},
	}
	require.NoError(t, client.Put(ctx, cart))
	defer client.Delete(ctx, cart.ID)

	got, err := client.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	// Clearing after checkout keeps only the saved-for-later item.
	require.NoError(t, client.ClearActive(ctx, cart.ID))
	got, err = client.Get(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(2), got.Items[0].ProductID)
	assert.False(t, got.Items[0].Active)
}

func TestClearActiveDeletesEmptiedCart(t *testing.T) {
	t.Skip("Integration test - requires Redis")

	client, err := NewClient("localhost:6379", "", 1, time.Hour)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	cart := &models.Cart{
		ID:    "cart-all-active",
		Items: []models.CartItem{{ProductID: 1, Quantity: 1, Active: true}},
	}
	require.NoError(t, client.Put(ctx, cart))

	require.NoError(t, client.ClearActive(ctx, cart.ID))
	_, err = client.Get(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestGetMissingCart(t *testing.T) {
	t.Skip("Integration test - requires Redis")

	client, err := NewClient("localhost:6379", "", 1, time.Hour)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Get(context.Background(), "no-such-cart")
	assert.ErrorIs(t, err, ErrCartNotFound)
}
