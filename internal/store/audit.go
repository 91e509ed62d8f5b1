package store

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/models"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// AppendAuditEvent inserts an append-only ledger record. The table carries a
// UNIQUE (order_id, event_id) constraint; a conflicting insert returns
// ErrDuplicateEvent so callers can treat redelivery as a no-op. The
// constraint, not an application-level check, closes the race between
// concurrent duplicate deliveries.
func (s *Store) AppendAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	query := `
		INSERT INTO audit_events (order_id, event_id, code, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, event, query,
		event.OrderID, event.EventID, event.Code, event.Payload)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

// GetAuditEvent looks up a ledger record by its deduplication key.
func (s *Store) GetAuditEvent(ctx context.Context, orderID int64, eventID string) (*models.AuditEvent, error) {
	var event models.AuditEvent
	err := s.db.GetContext(ctx, &event,
		"SELECT * FROM audit_events WHERE order_id = $1 AND event_id = $2",
		orderID, eventID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListAuditEvents retrieves the full ledger for an order, oldest first.
func (s *Store) ListAuditEvents(ctx context.Context, orderID int64) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := s.db.SelectContext(ctx, &events,
		"SELECT * FROM audit_events WHERE order_id = $1 ORDER BY created_at, id",
		orderID)
	return events, err
}
