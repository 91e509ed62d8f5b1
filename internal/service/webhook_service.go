package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookService ingests asynchronous gateway notifications. It verifies
// authenticity, validates shape and environment, deduplicates through the
// audit ledger's uniqueness constraint, and records the event body verbatim.
//
// It records events for audit only: webhook events never drive order-status
// transitions here (a refund event does not revert an order to unpaid). That
// is a deliberate current limitation.
type WebhookService struct {
	storage    Storage
	gateway    gateway.Gateway
	publisher  EventPublisher
	production bool
	logger     *zap.Logger
}

// NewWebhookService creates a new webhook processor. production selects which
// event mode (live vs test) is acceptable.
func NewWebhookService(storage Storage, gw gateway.Gateway, publisher EventPublisher, production bool) *WebhookService {
	return &WebhookService{
		storage:    storage,
		gateway:    gw,
		publisher:  publisher,
		production: production,
		logger:     util.GetLogger(),
	}
}

// HandleWebhook processes one delivery. Redelivery of an already-recorded
// (order id, event id) pair is an explicit success no-op; the gateway owns
// delivery retries for rejected events.
func (s *WebhookService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	ctx, span := util.StartSpan(ctx, "WebhookService.HandleWebhook")
	defer span.End()

	util.WebhooksReceivedTotal.Inc()

	event, err := s.gateway.VerifyEvent(payload, sigHeader)
	if err != nil {
		util.WebhooksRejectedTotal.WithLabelValues("signature").Inc()
		return badSignatureError(err.Error())
	}

	orderID, err := s.validateShape(event)
	if err != nil {
		util.WebhooksRejectedTotal.WithLabelValues("malformed").Inc()
		return err
	}

	if event.Livemode != s.production {
		util.WebhooksRejectedTotal.WithLabelValues("mode_mismatch").Inc()
		return modeMismatchError(fmt.Sprintf("livemode=%t while production=%t", event.Livemode, s.production))
	}

	existing, err := s.storage.GetAuditEvent(ctx, orderID, event.ID)
	if err != nil {
		return fmt.Errorf("failed to check audit ledger: %w", err)
	}
	if existing != nil {
		util.WebhooksDuplicateTotal.Inc()
		s.logger.Info("Duplicate webhook delivery ignored",
			zap.Int64("order_id", orderID),
			zap.String("event_id", event.ID))
		return nil
	}

	audit := &models.AuditEvent{
		OrderID: orderID,
		EventID: event.ID,
		Code:    models.AuditCodeWebhook,
		Payload: string(event.Raw),
	}
	if err := s.storage.AppendAuditEvent(ctx, audit); err != nil {
		// A concurrent duplicate delivery lost the insert race; the
		// uniqueness constraint makes that a success no-op too.
		if errors.Is(err, store.ErrDuplicateEvent) {
			util.WebhooksDuplicateTotal.Inc()
			return nil
		}
		return fmt.Errorf("failed to record webhook event: %w", err)
	}

	s.logger.Info("Webhook event recorded",
		zap.Int64("order_id", orderID),
		zap.String("event_id", event.ID),
		zap.String("type", event.Type))

	published := &models.WebhookRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeWebhookRecorded,
			Timestamp: time.Now(),
		},
		OrderID:        orderID,
		GatewayEventID: event.ID,
		GatewayType:    event.Type,
	}
	if err := s.publisher.PublishWebhookRecorded(ctx, published); err != nil {
		s.logger.Error("Failed to publish WebhookRecorded event", zap.Error(err))
	}

	return nil
}

// validateShape enforces the narrow event contract: a charge-prefixed type, a
// nested charge object whose metadata carries the order id, and a non-empty
// event id. Each missing field is a distinct failure.
func (s *WebhookService) validateShape(event *gateway.Event) (int64, error) {
	if event.ID == "" {
		return 0, malformedEventError("id")
	}
	if !strings.HasPrefix(event.Type, "charge.") {
		return 0, malformedEventError("type")
	}
	if event.Data.Object == nil {
		return 0, malformedEventError("data.object")
	}

	raw, ok := event.Data.Object.Metadata["order_id"]
	if !ok || raw == "" {
		return 0, malformedEventError("data.object.metadata.order_id")
	}
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, malformedEventError("data.object.metadata.order_id")
	}

	return orderID, nil
}
