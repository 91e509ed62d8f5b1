package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storefront/internal/cartstore"
	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/store"
)

// mockStorage implements Storage in memory for testing.
type mockStorage struct {
	products map[int64]*models.Product
	shipping map[int64]*models.ShippingMethod
	taxRule  *models.TaxRule
	customer *models.Customer

	orders      map[int64]*models.Order
	nextOrderID int64
	lineItems   []models.OrderLineItem
	audits      map[string]*models.AuditEvent

	createTentativeErr error
	markPaidErr        error
	hideAudits         bool
	gatewayRefSet      string
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		products: map[int64]*models.Product{},
		shipping: map[int64]*models.ShippingMethod{},
		orders:   map[int64]*models.Order{},
		audits:   map[string]*models.AuditEvent{},
	}
}

func auditKey(orderID int64, eventID string) string {
	return fmt.Sprintf("%d:%s", orderID, eventID)
}

func (m *mockStorage) GetProductsByIDs(_ context.Context, ids []int64) (map[int64]*models.Product, error) {
	found := map[int64]*models.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

func (m *mockStorage) GetShippingMethod(_ context.Context, id int64) (*models.ShippingMethod, error) {
	method, ok := m.shipping[id]
	if !ok {
		return nil, store.ErrShippingMethodNotFound
	}
	return method, nil
}

func (m *mockStorage) GetTaxRule(_ context.Context, _ string) (*models.TaxRule, error) {
	return m.taxRule, nil
}

func (m *mockStorage) GetCustomerByID(_ context.Context, id int64) (*models.Customer, error) {
	if m.customer == nil || m.customer.ID != id {
		return nil, store.ErrCustomerNotFound
	}
	return m.customer, nil
}

func (m *mockStorage) SetCustomerGatewayRef(_ context.Context, _ int64, ref string) error {
	m.gatewayRefSet = ref
	if m.customer != nil {
		m.customer.GatewayCustomerRef = ref
	}
	return nil
}

func (m *mockStorage) CreateTentativeOrder(_ context.Context, order *models.Order) error {
	if m.createTentativeErr != nil {
		return m.createTentativeErr
	}
	m.nextOrderID++
	order.ID = m.nextOrderID
	order.Status = models.OrderStatusPending
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockStorage) MarkOrderPaid(_ context.Context, orderID int64, authCode, settlementRef string) error {
	if m.markPaidErr != nil {
		return m.markPaidErr
	}
	order, ok := m.orders[orderID]
	if !ok {
		return store.ErrOrderNotFound
	}
	order.Status = models.OrderStatusPaid
	order.AuthCode = authCode
	order.SettlementRef = settlementRef
	order.UpdatedAt = time.Now()
	return nil
}

func (m *mockStorage) DeleteOrder(_ context.Context, orderID int64) error {
	delete(m.orders, orderID)
	return nil
}

func (m *mockStorage) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockStorage) ListOrdersByCustomer(_ context.Context, customerID int64, p store.PageRequest) (*store.OffsetPage, error) {
	var orders []models.Order
	for _, order := range m.orders {
		if order.CustomerID == customerID {
			orders = append(orders, *order)
		}
	}
	return store.NewOffsetPage(orders, int64(len(orders)), p), nil
}

func (m *mockStorage) CreateOrderLineItems(_ context.Context, items []models.OrderLineItem) error {
	m.lineItems = append(m.lineItems, items...)
	return nil
}

func (m *mockStorage) ListOrderLineItems(_ context.Context, orderID int64, p store.PageRequest) (*store.OffsetPage, error) {
	var items []models.OrderLineItem
	for _, item := range m.lineItems {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	return store.NewOffsetPage(items, int64(len(items)), p), nil
}

func (m *mockStorage) AppendAuditEvent(_ context.Context, event *models.AuditEvent) error {
	key := auditKey(event.OrderID, event.EventID)
	if _, ok := m.audits[key]; ok {
		return store.ErrDuplicateEvent
	}
	event.CreatedAt = time.Now()
	copied := *event
	m.audits[key] = &copied
	return nil
}

func (m *mockStorage) GetAuditEvent(_ context.Context, orderID int64, eventID string) (*models.AuditEvent, error) {
	if m.hideAudits {
		return nil, nil
	}
	return m.audits[auditKey(orderID, eventID)], nil
}

func (m *mockStorage) ListAuditEvents(_ context.Context, orderID int64) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	for _, event := range m.audits {
		if event.OrderID == orderID {
			events = append(events, *event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].EventID < events[j].EventID
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

// mockCarts implements CartStorage in memory.
type mockCarts struct {
	carts        map[string]*models.Cart
	clearedCarts []string
}

func newMockCarts() *mockCarts {
	return &mockCarts{carts: map[string]*models.Cart{}}
}

func (m *mockCarts) Get(_ context.Context, cartID string) (*models.Cart, error) {
	cart, ok := m.carts[cartID]
	if !ok {
		return nil, cartstore.ErrCartNotFound
	}
	return cart, nil
}

func (m *mockCarts) ClearActive(_ context.Context, cartID string) error {
	cart, ok := m.carts[cartID]
	if !ok {
		return cartstore.ErrCartNotFound
	}
	remaining := make([]models.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if !item.Active {
			remaining = append(remaining, item)
		}
	}
	cart.Items = remaining
	m.clearedCarts = append(m.clearedCarts, cartID)
	return nil
}

// mockGateway implements gateway.Gateway.
type mockGateway struct {
	chargeResult *gateway.ChargeResult
	chargeErr    error
	lastCharge   *gateway.ChargeRequest

	createdRef   string
	createErr    error
	updateErr    error
	updatedRef   string
	updatedToken string

	event     *gateway.Event
	verifyErr error
}

func (m *mockGateway) Charge(_ context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	m.lastCharge = req
	if m.chargeErr != nil {
		return nil, m.chargeErr
	}
	return m.chargeResult, nil
}

func (m *mockGateway) CreateStoredMethod(_ context.Context, _, _ string) (string, error) {
	return m.createdRef, m.createErr
}

func (m *mockGateway) UpdateStoredMethod(_ context.Context, ref, token string) error {
	m.updatedRef = ref
	m.updatedToken = token
	return m.updateErr
}

func (m *mockGateway) VerifyEvent(payload []byte, _ string) (*gateway.Event, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	event := *m.event
	event.Raw = payload
	return &event, nil
}

// mockPublisher records published lifecycle events.
type mockPublisher struct {
	paid     []*models.OrderPaidEvent
	declined []*models.OrderDeclinedEvent
	recorded []*models.WebhookRecordedEvent
}

func (m *mockPublisher) PublishOrderPaid(_ context.Context, event *models.OrderPaidEvent) error {
	m.paid = append(m.paid, event)
	return nil
}

func (m *mockPublisher) PublishOrderDeclined(_ context.Context, event *models.OrderDeclinedEvent) error {
	m.declined = append(m.declined, event)
	return nil
}

func (m *mockPublisher) PublishWebhookRecorded(_ context.Context, event *models.WebhookRecordedEvent) error {
	m.recorded = append(m.recorded, event)
	return nil
}
