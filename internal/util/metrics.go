package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders successfully placed and paid",
	})

	OrdersDeclinedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_declined_total",
		Help: "Total number of checkout attempts that failed",
	}, []string{"reason"})

	GatewayChargeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_charge_latency_seconds",
		Help:    "Latency of payment gateway charge calls",
		Buckets: prometheus.DefBuckets,
	})

	WebhooksReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhooks_received_total",
		Help: "Total number of webhook deliveries received",
	})

	WebhooksDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhooks_duplicate_total",
		Help: "Total number of webhook deliveries deduplicated by the audit ledger",
	})

	WebhooksRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhooks_rejected_total",
		Help: "Total number of webhook deliveries rejected before recording",
	}, []string{"reason"})

	ReconcileStaleTentative = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reconcile_stale_tentative_orders",
		Help: "Tentative orders older than the configured cutoff, awaiting manual reconciliation",
	})

	ReconcilePaidWithoutItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reconcile_paid_orders_without_items",
		Help: "Paid orders missing their line-item snapshot, awaiting manual reconciliation",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
