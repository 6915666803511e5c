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
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/attirely/storefront-backend/api/routes"
	"github.com/attirely/storefront-backend/internal/catalog"
	"github.com/attirely/storefront-backend/internal/discount"
	"github.com/attirely/storefront-backend/internal/order"
	"github.com/attirely/storefront-backend/internal/searches"
	"github.com/attirely/storefront-backend/internal/sessions"
	"github.com/attirely/storefront-backend/internal/wishlist"
	"github.com/attirely/storefront-backend/pkg/config"
	"github.com/attirely/storefront-backend/pkg/kvstore"
	"github.com/attirely/storefront-backend/pkg/logger"
	"github.com/attirely/storefront-backend/pkg/metrics"
	"github.com/attirely/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var closers []func() error

	// the kv store backs wishlist and recent searches; redis when configured,
	// in-process otherwise
	var kv kvstore.Store = kvstore.NewMemory()
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)

		redisStore, err := kvstore.NewRedis(redisClient)
		if err != nil {
			logg.Error(context.Background(), "failed to build redis kv store", err)
			os.Exit(1)
		}
		kv = redisStore
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	cat := catalog.NewMemory(catalog.Fixtures()...)
	resolver := discount.NewResolver(discount.DefaultRules()...)
	submitter := order.Simulated{Latency: 500 * time.Millisecond}

	manager, err := sessions.NewManager(cfg.Session, cfg.Pricing, cfg.Checkout, submitter, engineMetrics, zerolog.New(os.Stdout).With().Str("service", "api").Logger())
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}
	manager.Start()
	defer manager.Close()

	wishlistSvc, err := wishlist.NewService(kv, cat)
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}
	searchesSvc, err := searches.NewService(kv)
	if err != nil {
		logg.Error(context.Background(), "failed to create searches service", err)
		os.Exit(1)
	}

	deps := routes.Deps{
		Config:        cfg,
		Logger:        logg,
		Sessions:      manager,
		Catalog:       cat,
		Discounts:     resolver,
		Wishlist:      wishlistSvc,
		Searches:      searchesSvc,
		EngineMetrics: engineMetrics,
		HTTPMetrics:   httpMetrics,
		Registry:      registry,
	}
	if redisClient != nil {
		deps.RedisPinger = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		shutdownErr := server.Shutdown(shutdownCtx)
		for _, closeFn := range closers {
			shutdownErr = multierr.Append(shutdownErr, closeFn())
		}
		if shutdownErr != nil {
			logg.Error(ctx, "shutdown finished with errors", shutdownErr)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}
