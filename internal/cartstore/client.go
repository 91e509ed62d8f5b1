package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/go-redis/redis/v8"
)

// ErrCartNotFound is returned when no cart exists for the given id.
var ErrCartNotFound = errors.New("cart not found")

// Client stores carts in Redis keyed by their opaque id. Carts have no
// server-side owner; possession of the id is the only capability required to
// operate on one.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new cart store backed by Redis.
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get retrieves a cart by its opaque id.
func (c *Client) Get(ctx context.Context, cartID string) (*models.Cart, error) {
	data, err := c.rdb.Get(ctx, cartKey(cartID)).Bytes()
	if err == redis.Nil {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	cart.ID = cartID
	return &cart, nil
}

// Put stores a cart, refreshing its TTL.
func (c *Client) Put(ctx context.Context, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	if err := c.rdb.Set(ctx, cartKey(cart.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// ClearActive removes the active line items from a cart after a successful
// checkout. Saved-for-later items are untouched. A cart left with no items at
// all is deleted outright.
func (c *Client) ClearActive(ctx context.Context, cartID string) error {
	cart, err := c.Get(ctx, cartID)
	if err != nil {
		return err
	}

	remaining := make([]models.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if !item.Active {
			remaining = append(remaining, item)
		}
	}

	if len(remaining) == 0 {
		return c.Delete(ctx, cartID)
	}

	cart.Items = remaining
	return c.Put(ctx, cart)
}

// Delete removes a cart entirely.
func (c *Client) Delete(ctx context.Context, cartID string) error {
	if err := c.rdb.Del(ctx, cartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}
