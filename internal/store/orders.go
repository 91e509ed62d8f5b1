package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront/internal/models"
)

// CreateTentativeOrder inserts the pending order row that precedes the
// gateway call. The returned id is attached to the charge request's metadata
// as the correlation key.
func (s *Store) CreateTentativeOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (customer_id, shipping_method_id, tax_amount, total_amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.CustomerID, order.ShippingMethodID, order.TaxAmount, order.TotalAmount,
		models.OrderStatusPending)
}

// MarkOrderPaid finalizes an order with the gateway's charge identifier and
// settlement reference.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID int64, authCode, settlementRef string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, auth_code = $2, settlement_ref = $3, updated_at = NOW()
		 WHERE id = $4`,
		models.OrderStatusPaid, authCode, settlementRef, orderID)
	return err
}

// DeleteOrder removes a tentative order after a failed charge attempt. This
// is the compensating action: no partial order may ever be visible to the
// customer.
func (s *Store) DeleteOrder(ctx context.Context, orderID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	return err
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByCustomer retrieves a page of order summaries for a customer,
// newest first.
func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID int64, p PageRequest) (*OffsetPage, error) {
	var total int64
	err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM orders WHERE customer_id = $1", customerID)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	err = s.db.SelectContext(ctx, &orders,
		`SELECT * FROM orders WHERE customer_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		customerID, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}

	return NewOffsetPage(orders, total, p), nil
}

// CreateOrderLineItems inserts the immutable snapshot of the cart's active
// items in a single transaction.
func (s *Store) CreateOrderLineItems(ctx context.Context, items []models.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO order_line_items (order_id, product_id, product_name, attributes, quantity, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, query,
			item.OrderID, item.ProductID, item.ProductName, item.Attributes,
			item.Quantity, item.UnitCost); err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}

	return tx.Commit()
}

// ListOrderLineItems retrieves a page of line items for an order.
func (s *Store) ListOrderLineItems(ctx context.Context, orderID int64, p PageRequest) (*OffsetPage, error) {
	var total int64
	err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM order_line_items WHERE order_id = $1", orderID)
	if err != nil {
		return nil, err
	}

	var items []models.OrderLineItem
	err = s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_line_items WHERE order_id = $1 ORDER BY id LIMIT $2 OFFSET $3",
		orderID, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}

	return NewOffsetPage(items, total, p), nil
}

// ListStaleTentativeOrders returns pending orders older than the cutoff.
// These are candidates orphaned by a crash between the gateway call and
// finalize-or-rollback.
func (s *Store) ListStaleTentativeOrders(ctx context.Context, olderThan time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status = $1 AND created_at < $2 ORDER BY created_at",
		models.OrderStatusPending, olderThan)
	return orders, err
}

// ListPaidOrdersWithoutItems returns paid orders that have no line-item
// snapshot, i.e. orders caught by a crash between mark-paid and the cart
// copy. The original_charge audit event is the recovery source.
func (s *Store) ListPaidOrdersWithoutItems(ctx context.Context, olderThan time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		`SELECT o.* FROM orders o
		 WHERE o.status = $1 AND o.updated_at < $2
		   AND NOT EXISTS (SELECT 1 FROM order_line_items i WHERE i.order_id = o.id)
		 ORDER BY o.updated_at`,
		models.OrderStatusPaid, olderThan)
	return orders, err
}
