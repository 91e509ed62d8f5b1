package worker

import (
	"context"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
)

type mockReconcileStore struct {
	stale    []models.Order
	halfDone []models.Order
	audits   map[int64]*models.AuditEvent

	auditLookups []int64
}

func (m *mockReconcileStore) ListStaleTentativeOrders(_ context.Context, _ time.Time) ([]models.Order, error) {
	return m.stale, nil
}

func (m *mockReconcileStore) ListPaidOrdersWithoutItems(_ context.Context, _ time.Time) ([]models.Order, error) {
	return m.halfDone, nil
}

func (m *mockReconcileStore) GetAuditEvent(_ context.Context, orderID int64, _ string) (*models.AuditEvent, error) {
	m.auditLookups = append(m.auditLookups, orderID)
	return m.audits[orderID], nil
}

func TestSweepReportsWithoutMutating(t *testing.T) {
	store := &mockReconcileStore{
		stale: []models.Order{
			{ID: 1, CustomerID: 5, Status: models.OrderStatusPending},
		},
		halfDone: []models.Order{
			{ID: 2, CustomerID: 6, Status: models.OrderStatusPaid, AuthCode: "ch_1"},
			{ID: 3, CustomerID: 7, Status: models.OrderStatusPaid, AuthCode: "ch_2"},
		},
		audits: map[int64]*models.AuditEvent{
			2: {OrderID: 2, EventID: models.EventIDOriginalCharge},
		},
	}

	r := NewReconciler(store, time.Minute, 15*time.Minute)
	r.Sweep(context.Background())

	// Only the paid-without-items orders get a ledger lookup; nothing is
	// written anywhere.
	assert.Equal(t, []int64{2, 3}, store.auditLookups)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := &mockReconcileStore{}
	r := NewReconciler(store, 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after cancel")
	}
}
