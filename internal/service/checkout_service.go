package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cartstore"
	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutService orchestrates order placement: it snapshots the cart,
// persists a tentative order, drives the payment gateway, and finalizes or
// compensates based on the result.
type CheckoutService struct {
	storage   Storage
	carts     CartStorage
	gateway   gateway.Gateway
	tax       *TaxCalculator
	publisher EventPublisher
	currency  string
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	storage Storage,
	carts CartStorage,
	gw gateway.Gateway,
	tax *TaxCalculator,
	publisher EventPublisher,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		storage:   storage,
		carts:     carts,
		gateway:   gw,
		tax:       tax,
		publisher: publisher,
		currency:  currency,
		logger:    util.GetLogger(),
	}
}

// PlaceOrderRequest represents a checkout request. StripeToken carries a
// fresh one-time payment token; when empty the customer's stored payment
// method is charged instead.
type PlaceOrderRequest struct {
	CartID      string `json:"cart_id"`
	ShippingID  int64  `json:"shipping_id"`
	StripeToken string `json:"stripe_token,omitempty"`
}

// PlaceOrder turns a cart into a paid order. The tentative-order insert
// strictly precedes the gateway call, which strictly precedes
// finalize-or-rollback. A failed charge leaves no order row behind and the
// cart untouched, so the customer can retry with different payment details.
func (s *CheckoutService) PlaceOrder(ctx context.Context, customerID int64, req *PlaceOrderRequest) (int64, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.PlaceOrder")
	defer span.End()

	if req.CartID == "" {
		util.OrdersDeclinedTotal.WithLabelValues("validation").Inc()
		return 0, validationError("cart_id")
	}
	if req.ShippingID == 0 {
		util.OrdersDeclinedTotal.WithLabelValues("validation").Inc()
		return 0, validationError("shipping_id")
	}

	cart, err := s.carts.Get(ctx, req.CartID)
	if err != nil {
		if errors.Is(err, cartstore.ErrCartNotFound) {
			util.OrdersDeclinedTotal.WithLabelValues("empty_cart").Inc()
			return 0, emptyCartError()
		}
		return 0, fmt.Errorf("failed to load cart: %w", err)
	}

	items := cart.ActiveItems()
	cartTotal, products, err := s.cartTotal(ctx, items)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 || cartTotal.IsZero() {
		util.OrdersDeclinedTotal.WithLabelValues("empty_cart").Inc()
		return 0, emptyCartError()
	}

	method, err := s.storage.GetShippingMethod(ctx, req.ShippingID)
	if err != nil {
		if errors.Is(err, store.ErrShippingMethodNotFound) {
			util.OrdersDeclinedTotal.WithLabelValues("validation").Inc()
			return 0, validationError("shipping_id")
		}
		return 0, fmt.Errorf("failed to resolve shipping method: %w", err)
	}

	taxAmount, err := s.tax.TaxFor(ctx, cartTotal)
	if err != nil {
		return 0, fmt.Errorf("failed to compute tax: %w", err)
	}

	orderTotal := cartTotal.Add(method.Cost).Add(taxAmount).Round(2)

	// The tentative row exists only to hand the gateway a correlation key.
	// It is deleted on any charge failure.
	order := &models.Order{
		CustomerID:       customerID,
		ShippingMethodID: req.ShippingID,
		TaxAmount:        taxAmount,
		TotalAmount:      orderTotal,
	}
	if err := s.storage.CreateTentativeOrder(ctx, order); err != nil {
		util.OrdersDeclinedTotal.WithLabelValues("storage").Inc()
		return 0, fmt.Errorf("failed to create tentative order: %w", err)
	}

	result, chargeErr := s.charge(ctx, customerID, order, req.StripeToken)
	if chargeErr != nil {
		return 0, s.compensate(ctx, customerID, order.ID, req.CartID, chargeErr)
	}

	return order.ID, s.finalize(ctx, order, result, cart, items, products)
}

// cartTotal sums effective prices over the active line items.
func (s *CheckoutService) cartTotal(ctx context.Context, items []models.CartItem) (decimal.Decimal, map[int64]*models.Product, error) {
	if len(items) == 0 {
		return decimal.Zero, nil, nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.storage.GetProductsByIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to load products: %w", err)
	}

	total := decimal.Zero
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return decimal.Zero, nil, fmt.Errorf("product not found: %d", item.ProductID)
		}
		total = total.Add(product.EffectivePrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return total, products, nil
}

// charge drives the gateway with the order id stamped into the request
// metadata. Without a one-time token the customer's card on file is used.
func (s *CheckoutService) charge(ctx context.Context, customerID int64, order *models.Order, token string) (*gateway.ChargeResult, error) {
	chargeReq := &gateway.ChargeRequest{
		AmountMinor: order.TotalAmount.Shift(2).IntPart(),
		Currency:    s.currency,
		Description: fmt.Sprintf("Storefront order #%d", order.ID),
		Metadata:    map[string]string{"order_id": fmt.Sprintf("%d", order.ID)},
	}

	if token != "" {
		chargeReq.SourceToken = token
	} else {
		customer, err := s.storage.GetCustomerByID(ctx, customerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
		if customer.GatewayCustomerRef == "" {
			return nil, paymentDeclinedError("no stored payment method on file")
		}
		chargeReq.CustomerRef = customer.GatewayCustomerRef
	}

	return s.gateway.Charge(ctx, chargeReq)
}

// finalize marks the order paid, records the gateway response in the audit
// ledger, snapshots the cart's active items, and clears them from the cart —
// strictly in that order. A crash partway through is not replayed
// automatically; the original_charge ledger entry is the manual recovery
// path.
func (s *CheckoutService) finalize(
	ctx context.Context,
	order *models.Order,
	result *gateway.ChargeResult,
	cart *models.Cart,
	items []models.CartItem,
	products map[int64]*models.Product,
) error {
	if err := s.storage.MarkOrderPaid(ctx, order.ID, result.ChargeID, result.SettlementRef); err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	audit := &models.AuditEvent{
		OrderID: order.ID,
		EventID: models.EventIDOriginalCharge,
		Code:    models.AuditCodeOriginalCharge,
		Payload: string(result.Raw),
	}
	if err := s.storage.AppendAuditEvent(ctx, audit); err != nil && !errors.Is(err, store.ErrDuplicateEvent) {
		return fmt.Errorf("failed to record original charge: %w", err)
	}

	lineItems := make([]models.OrderLineItem, 0, len(items))
	for _, item := range items {
		product := products[item.ProductID]
		lineItems = append(lineItems, models.OrderLineItem{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: product.Name,
			Attributes:  item.Attributes,
			Quantity:    item.Quantity,
			UnitCost:    product.EffectivePrice(),
		})
	}
	if err := s.storage.CreateOrderLineItems(ctx, lineItems); err != nil {
		return fmt.Errorf("failed to snapshot line items: %w", err)
	}

	if err := s.carts.ClearActive(ctx, cart.ID); err != nil {
		// The order is already paid and snapshotted; a lingering cart is
		// an inconvenience, not a correctness problem.
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("cart_id", cart.ID),
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", order.CustomerID),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	event := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPaid,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		AuthCode:      result.ChargeID,
		SettlementRef: result.SettlementRef,
	}
	if err := s.publisher.PublishOrderPaid(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
	}

	return nil
}

// compensate deletes the tentative order after a failed charge and maps the
// gateway failure onto the typed taxonomy. The cart is left untouched.
func (s *CheckoutService) compensate(ctx context.Context, customerID, orderID int64, cartID string, chargeErr error) error {
	if err := s.storage.DeleteOrder(ctx, orderID); err != nil {
		s.logger.Error("Failed to delete tentative order",
			zap.Int64("order_id", orderID),
			zap.Error(err))
	}

	var failure *Error
	var gwErr *gateway.ChargeError
	switch {
	case errors.As(chargeErr, &failure):
		// Already typed (e.g. no stored payment method).
		util.OrdersDeclinedTotal.WithLabelValues("declined").Inc()
	case errors.Is(chargeErr, gateway.ErrInvalidResponse):
		util.OrdersDeclinedTotal.WithLabelValues("gateway_invalid").Inc()
		failure = gatewayInvalidError(chargeErr.Error())
	case errors.As(chargeErr, &gwErr):
		util.OrdersDeclinedTotal.WithLabelValues("declined").Inc()
		failure = paymentDeclinedError(gwErr.Message)
	default:
		util.OrdersDeclinedTotal.WithLabelValues("gateway_error").Inc()
		failure = paymentDeclinedError(chargeErr.Error())
	}

	s.logger.Warn("Charge failed, tentative order rolled back",
		zap.Int64("order_id", orderID),
		zap.String("reason", failure.Detail))

	event := &models.OrderDeclinedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderDeclined,
			Timestamp: time.Now(),
		},
		CustomerID: customerID,
		CartID:     cartID,
		Reason:     failure.Detail,
	}
	if err := s.publisher.PublishOrderDeclined(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderDeclined event", zap.Error(err))
	}

	return failure
}

// OrderShortDetail is the compact order view returned after ownership has
// been asserted.
type OrderShortDetail struct {
	OrderID       int64     `json:"order_id"`
	TotalAmount   string    `json:"total_amount"`
	AuthCode      string    `json:"auth_code"`
	SettlementRef string    `json:"settlement_ref"`
	ShippingType  string    `json:"shipping_type"`
	CreatedAt     time.Time `json:"created_at"`
}

// ShortDetail assembles the short order view, resolving the shipping method
// name from reference data.
func (s *CheckoutService) ShortDetail(ctx context.Context, order *models.Order) (*OrderShortDetail, error) {
	shippingType := ""
	method, err := s.storage.GetShippingMethod(ctx, order.ShippingMethodID)
	if err != nil && !errors.Is(err, store.ErrShippingMethodNotFound) {
		return nil, fmt.Errorf("failed to resolve shipping method: %w", err)
	}
	if method != nil {
		shippingType = method.Name
	}

	return &OrderShortDetail{
		OrderID:       order.ID,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		AuthCode:      order.AuthCode,
		SettlementRef: order.SettlementRef,
		ShippingType:  shippingType,
		CreatedAt:     order.CreatedAt,
	}, nil
}

// ListOrders retrieves a page of the customer's order summaries.
func (s *CheckoutService) ListOrders(ctx context.Context, customerID int64, p store.PageRequest) (*store.OffsetPage, error) {
	return s.storage.ListOrdersByCustomer(ctx, customerID, p.Normalize())
}

// ListOrderItems retrieves a page of an order's snapshotted line items.
// Ownership must already have been asserted by the access guard.
func (s *CheckoutService) ListOrderItems(ctx context.Context, orderID int64, p store.PageRequest) (*store.OffsetPage, error) {
	return s.storage.ListOrderLineItems(ctx, orderID, p.Normalize())
}

// OrderEventSummary is one payment audit ledger entry. Raw gateway payloads
// stay internal; only the ledger keys are exposed.
type OrderEventSummary struct {
	EventID   string    `json:"event_id"`
	Code      int       `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOrderEvents returns the order's payment history, oldest first.
// Ownership must already have been asserted by the access guard.
func (s *CheckoutService) ListOrderEvents(ctx context.Context, orderID int64) ([]OrderEventSummary, error) {
	events, err := s.storage.ListAuditEvents(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit ledger: %w", err)
	}

	summaries := make([]OrderEventSummary, 0, len(events))
	for _, event := range events {
		summaries = append(summaries, OrderEventSummary{
			EventID:   event.EventID,
			Code:      event.Code,
			CreatedAt: event.CreatedAt,
		})
	}
	return summaries, nil
}
