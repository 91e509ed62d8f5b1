package service

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/store"
)

// Storage is the injected storage-access capability the order core operates
// through. *store.Store satisfies it; tests substitute mocks.
type Storage interface {
	GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error)
	GetShippingMethod(ctx context.Context, id int64) (*models.ShippingMethod, error)
	GetTaxRule(ctx context.Context, region string) (*models.TaxRule, error)
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	SetCustomerGatewayRef(ctx context.Context, customerID int64, ref string) error

	CreateTentativeOrder(ctx context.Context, order *models.Order) error
	MarkOrderPaid(ctx context.Context, orderID int64, authCode, settlementRef string) error
	DeleteOrder(ctx context.Context, orderID int64) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64, p store.PageRequest) (*store.OffsetPage, error)
	CreateOrderLineItems(ctx context.Context, items []models.OrderLineItem) error
	ListOrderLineItems(ctx context.Context, orderID int64, p store.PageRequest) (*store.OffsetPage, error)

	AppendAuditEvent(ctx context.Context, event *models.AuditEvent) error
	GetAuditEvent(ctx context.Context, orderID int64, eventID string) (*models.AuditEvent, error)
	ListAuditEvents(ctx context.Context, orderID int64) ([]models.AuditEvent, error)
}

// CartStorage is the read-and-clear view of the cart store the order core
// uses: the cart is snapshotted at checkout and its active items cleared
// after a successful charge.
type CartStorage interface {
	Get(ctx context.Context, cartID string) (*models.Cart, error)
	ClearActive(ctx context.Context, cartID string) error
}

// EventPublisher publishes order lifecycle events. Publishing is best-effort;
// failures are logged and never fail the request.
type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderDeclined(ctx context.Context, event *models.OrderDeclinedEvent) error
	PublishWebhookRecorded(ctx context.Context, event *models.WebhookRecordedEvent) error
}
