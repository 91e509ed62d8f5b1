package broker

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

// EventPublisher publishes order lifecycle events. Messages are keyed by
// order id so downstream consumers see a single order's events in order.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderPaid publishes OrderPaid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOrderDeclined publishes OrderDeclined event. Declined attempts have
// no order id anymore; the cart id keys them instead.
func (ep *EventPublisher) PublishOrderDeclined(ctx context.Context, event *models.OrderDeclinedEvent) error {
	key := fmt.Sprintf("cart-%s", event.CartID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishWebhookRecorded publishes WebhookRecorded event
func (ep *EventPublisher) PublishWebhookRecorded(ctx context.Context, event *models.WebhookRecordedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}
