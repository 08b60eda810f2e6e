package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/maisonessence/storefront-checkout/api/routes"
	"github.com/maisonessence/storefront-checkout/internal/address"
	"github.com/maisonessence/storefront-checkout/internal/cart"
	"github.com/maisonessence/storefront-checkout/internal/checkout"
	"github.com/maisonessence/storefront-checkout/internal/pricing"
	"github.com/maisonessence/storefront-checkout/pkg/commerce"
	"github.com/maisonessence/storefront-checkout/pkg/config"
	"github.com/maisonessence/storefront-checkout/pkg/logger"
	"github.com/maisonessence/storefront-checkout/pkg/metrics"
	"github.com/maisonessence/storefront-checkout/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "checkout-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "checkout-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	commerceClient, err := commerce.NewClient(
		cfg.Commerce.BaseURL,
		commerce.WithTimeout(cfg.Commerce.RequestTimeout),
	)
	if err != nil {
		logg.Error(ctx, "failed to create commerce client", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	cartStore, err := cart.NewStore(redisClient, cfg.Checkout.CartTTL)
	if err != nil {
		logg.Error(ctx, "failed to create cart store", err)
		os.Exit(1)
	}
	snapshotStore, err := checkout.NewRedisSnapshotStore(redisClient, cfg.Checkout.SnapshotTTL)
	if err != nil {
		logg.Error(ctx, "failed to create snapshot store", err)
		os.Exit(1)
	}
	resolver, err := address.NewResolver(commerceClient, checkoutMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create address resolver", err)
		os.Exit(1)
	}
	submitter, err := checkout.NewSubmitter(commerceClient, cfg.Checkout.Currency, checkoutMetrics, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create order submitter", err)
		os.Exit(1)
	}

	taxRate, err := cfg.Checkout.TaxRateDecimal()
	if err != nil {
		logg.Error(ctx, "invalid tax rate", err)
		os.Exit(1)
	}
	giftWrapFee, err := cfg.Checkout.GiftWrapFeeDecimal()
	if err != nil {
		logg.Error(ctx, "invalid gift wrap fee", err)
		os.Exit(1)
	}

	manager, err := checkout.NewManager(checkout.Deps{
		Carts:       cartStore,
		Resolver:    resolver,
		Methods:     commerceClient,
		Submitter:   submitter,
		Snapshots:   snapshotStore,
		Pricing:     pricing.NewEngine(pricing.Params{TaxRate: taxRate, GiftWrapFee: giftWrapFee}),
		Notifier:    checkout.NewLogNotifier(logg),
		Logger:      logg,
		Metrics:     checkoutMetrics,
		CallTimeout: cfg.Commerce.RequestTimeout,
	}, cartStore)
	if err != nil {
		logg.Error(ctx, "failed to create checkout manager", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting checkout api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, manager, commerceClient),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(startCtx, "checkout api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(startCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	if closeErr != nil {
		logg.Error(startCtx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(startCtx, "shutdown complete")
}
