package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog. DiscountPrice is zero when the
// product is not on sale.
type Product struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Price         decimal.Decimal `db:"price" json:"price"`
	DiscountPrice decimal.Decimal `db:"discount_price" json:"discount_price"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// EffectivePrice returns the discounted price when one is set and nonzero,
// otherwise the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if !p.DiscountPrice.IsZero() {
		return p.DiscountPrice
	}
	return p.Price
}

// Customer is the account record backing card-on-file charges.
type Customer struct {
	ID                 int64     `db:"id" json:"id"`
	Email              string    `db:"email" json:"email"`
	GatewayCustomerRef string    `db:"gateway_customer_ref" json:"-"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// Cart is a client-scoped collection of prospective purchase line items,
// identified by an opaque id. Carts have no server-side owner; any holder of
// the id can operate on it.
type Cart struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`
}

// CartItem references a product plus a chosen attribute combination. Active
// items are part of the current purchase intent; inactive items are saved for
// later and survive checkout.
type CartItem struct {
	ProductID  int64  `json:"product_id"`
	Attributes string `json:"attributes"`
	Quantity   int    `json:"quantity"`
	Active     bool   `json:"active"`
}

// ActiveItems returns the items that are part of the current purchase intent.
func (c *Cart) ActiveItems() []CartItem {
	items := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Active {
			items = append(items, item)
		}
	}
	return items
}

// Order is the durable record of a purchase. A row exists only during or
// after a charge attempt; the tentative row created for gateway correlation
// is deleted when the charge fails. Once Status is paid the order and its
// line items are immutable history.
type Order struct {
	ID               int64           `db:"id" json:"id"`
	CustomerID       int64           `db:"customer_id" json:"customer_id"`
	ShippingMethodID int64           `db:"shipping_method_id" json:"shipping_method_id"`
	TaxAmount        decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status           string          `db:"status" json:"status"`
	AuthCode         string          `db:"auth_code" json:"auth_code,omitempty"`
	SettlementRef    string          `db:"settlement_ref" json:"settlement_ref,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Order statuses
const (
	OrderStatusPending = "PENDING"
	OrderStatusPaid    = "PAID"
)

// OrderLineItem is an immutable snapshot of a cart line item taken at the
// moment of successful payment. ProductName and UnitCost are denormalized so
// the historical order renders correctly even if the product record changes.
type OrderLineItem struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"order_id"`
	ProductID   int64           `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Attributes  string          `db:"attributes" json:"attributes"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitCost    decimal.Decimal `db:"unit_cost" json:"unit_cost"`
}

// Subtotal returns quantity times the snapshotted unit cost.
func (i *OrderLineItem) Subtotal() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AuditEvent is an append-only record keyed by (order id, event id). The pair
// is unique at the storage layer; that uniqueness is the sole deduplication
// mechanism for at-least-once webhook delivery.
type AuditEvent struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	EventID   string    `db:"event_id" json:"event_id"`
	Code      int       `db:"code" json:"code"`
	Payload   string    `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Audit event codes
const (
	AuditCodeOriginalCharge = 1
	AuditCodeWebhook        = 2
)

// EventIDOriginalCharge is the event id used to record the gateway's response
// to the synchronous charge attempt.
const EventIDOriginalCharge = "original_charge"

// ShippingMethod is read-only reference data.
type ShippingMethod struct {
	ID   int64           `db:"id" json:"id"`
	Name string          `db:"name" json:"name"`
	Cost decimal.Decimal `db:"cost" json:"cost"`
}

// TaxRule is read-only reference data: a flat rate applied to the cart total.
type TaxRule struct {
	ID     int64           `db:"id" json:"id"`
	Region string          `db:"region" json:"region"`
	Rate   decimal.Decimal `db:"rate" json:"rate"`
}
