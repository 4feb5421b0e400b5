package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/cart"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/catalog"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/checkout"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/config"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/coupon"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/db"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/events"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/httpapi"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/order"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/payment"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.Lshortfile)

	// DB
	database := db.MustOpen(cfg.DatabaseDSN)
	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	orderRepo := order.NewRepository(database)
	catalogRepo := catalog.NewRepository(database)
	cartRepo := cart.NewRepository(database)
	couponRepo := coupon.NewRepository(database)

	// RabbitMQ
	rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn)
	if err != nil {
		logger.Fatalf("publisher: %v", err)
	}
	defer publisher.Close()

	// Stripe
	gateway := payment.NewStripeGateway(
		cfg.StripeSecretKey,
		cfg.StripeWebhookSecret,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
	)

	shippingFee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		logger.Fatalf("bad SHIPPING_FEE %q: %v", cfg.ShippingFee, err)
	}

	validator := coupon.NewValidator(couponRepo)
	checkoutSvc := checkout.NewService(orderRepo, catalogRepo, cartRepo, validator, gateway, publisher, shippingFee, logger)
	reconciler := payment.NewReconciler(gateway, orderRepo, cartRepo, publisher, logger)

	// HTTP
	router := httpapi.NewRouter(
		httpapi.NewOrderHandler(checkoutSvc, orderRepo),
		httpapi.NewCartHandler(cartRepo),
		httpapi.NewCouponHandler(validator, orderRepo),
		httpapi.NewProductHandler(catalogRepo),
		httpapi.NewWebhookHandler(reconciler, logger),
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Printf("storefront listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
