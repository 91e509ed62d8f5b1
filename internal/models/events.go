package models

import "time"

// Event types published to the order-events topic
const (
	EventTypeOrderPaid       = "ORDER_PAID"
	EventTypeOrderDeclined   = "ORDER_DECLINED"
	EventTypeWebhookRecorded = "WEBHOOK_RECORDED"
)

// BaseEvent contains common fields for all published events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPaidEvent is published after an order is finalized.
type OrderPaidEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	CustomerID    int64  `json:"customer_id"`
	TotalAmount   string `json:"total_amount"`
	AuthCode      string `json:"auth_code"`
	SettlementRef string `json:"settlement_ref"`
}

// OrderDeclinedEvent is published after a failed charge attempt has been
// compensated. No order row exists for it anymore.
type OrderDeclinedEvent struct {
	BaseEvent
	CustomerID int64  `json:"customer_id"`
	CartID     string `json:"cart_id"`
	Reason     string `json:"reason"`
}

// WebhookRecordedEvent is published when a gateway notification is ingested
// into the audit ledger for the first time. Duplicate deliveries publish
// nothing.
type WebhookRecordedEvent struct {
	BaseEvent
	OrderID        int64  `json:"order_id"`
	GatewayEventID string `json:"gateway_event_id"`
	GatewayType    string `json:"gateway_type"`
}
