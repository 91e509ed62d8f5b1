package api

import (
	"net/http"
	"strconv"
	"time"

	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	checkout       *service.CheckoutService
	webhooks       *service.WebhookService
	guard          *service.AccessGuard
	paymentMethods *service.PaymentMethodService
	verify         IdentityVerifier
}

// NewHandler creates a new HTTP handler
func NewHandler(
	checkout *service.CheckoutService,
	webhooks *service.WebhookService,
	guard *service.AccessGuard,
	paymentMethods *service.PaymentMethodService,
	verify IdentityVerifier,
) *Handler {
	return &Handler{
		checkout:       checkout,
		webhooks:       webhooks,
		guard:          guard,
		paymentMethods: paymentMethods,
		verify:         verify,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Webhooks carry the gateway's signature instead of a customer identity.
	router.POST("/webhooks/payment", h.receiveWebhook)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(h.verify))
	{
		v1.POST("/checkout", h.placeOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/orders/:id/items", h.getOrderItems)
		v1.GET("/orders/:id/events", h.getOrderEvents)
		v1.POST("/payment-methods", h.storePaymentMethod)
		v1.PUT("/payment-methods", h.storePaymentMethod)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// placeOrder handles checkout requests
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	orderID, err := h.checkout.PlaceOrder(c.Request.Context(), customerID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order_id": orderID})
}

// getOrder handles order short-detail requests
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.guard.AssertOwnership(c.Request.Context(), customerID(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	detail, err := h.checkout.ShortDetail(c.Request.Context(), order)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// getOrderItems handles paginated order line-item requests
func (h *Handler) getOrderItems(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	if _, err := h.guard.AssertOwnership(c.Request.Context(), customerID(c), orderID); err != nil {
		writeError(c, err)
		return
	}

	page, err := h.checkout.ListOrderItems(c.Request.Context(), orderID, pageRequest(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// getOrderEvents handles order payment-history requests
func (h *Handler) getOrderEvents(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	if _, err := h.guard.AssertOwnership(c.Request.Context(), customerID(c), orderID); err != nil {
		writeError(c, err)
		return
	}

	events, err := h.checkout.ListOrderEvents(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// listOrders handles paginated order summary requests
func (h *Handler) listOrders(c *gin.Context) {
	page, err := h.checkout.ListOrders(c.Request.Context(), customerID(c), pageRequest(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// storePaymentMethod handles card-on-file create/update requests
func (h *Handler) storePaymentMethod(c *gin.Context) {
	var req struct {
		StripeToken string `json:"stripe_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.paymentMethods.StoreMethod(c.Request.Context(), customerID(c), req.StripeToken); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stored": true})
}

// receiveWebhook handles payment gateway notifications
func (h *Handler) receiveWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	if err := h.webhooks.HandleWebhook(c.Request.Context(), payload, sig); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func orderIDParam(c *gin.Context) (int64, bool) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return orderID, true
}

func pageRequest(c *gin.Context) store.PageRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return store.PageRequest{Page: page, PageSize: pageSize}
}

// writeError maps the service error taxonomy onto HTTP statuses. Unknown
// errors are storage or wiring failures and surface as server errors without
// leaking internals.
func writeError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindValidation, service.KindEmptyCart,
		service.KindBadSignature, service.KindMalformedEvent, service.KindModeMismatch:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.KindPaymentDeclined, service.KindGatewayInvalid:
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case service.KindUnauthorized:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		util.GetLogger().Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
