package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/cartstore"
	"storefront/internal/gateway"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	carts, err := cartstore.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		time.Duration(cfg.Business.CartTTLSeconds)*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer carts.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	gatewayClient := gateway.NewClient(
		cfg.Gateway.BaseURL,
		cfg.Gateway.SecretKey,
		cfg.Gateway.WebhookSecret,
		time.Duration(cfg.Gateway.TimeoutSeconds)*time.Second,
	)

	taxCalculator := service.NewTaxCalculator(db, "default")
	checkoutService := service.NewCheckoutService(db, carts, gatewayClient, taxCalculator,
		eventPublisher, cfg.Gateway.Currency)
	webhookService := service.NewWebhookService(db, gatewayClient, eventPublisher, cfg.IsProduction())
	accessGuard := service.NewAccessGuard(db)
	paymentMethods := service.NewPaymentMethodService(db, gatewayClient)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	reconciler := worker.NewReconciler(db,
		time.Duration(cfg.Business.ReconcileSweepSeconds)*time.Second,
		time.Duration(cfg.Business.TentativeMaxAgeSec)*time.Second)
	go reconciler.Run(workerCtx)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	// The auth layer in front of this core verifies tokens; here the opaque
	// token already is the verified customer id.
	verifier := func(token string) (int64, error) {
		return strconv.ParseInt(token, 10, 64)
	}
	handler := api.NewHandler(checkoutService, webhookService, accessGuard, paymentMethods, verifier)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()

	log.Println("Server exited")
}
