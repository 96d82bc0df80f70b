package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Prem931993/buytown-sub000/api"
	"github.com/Prem931993/buytown-sub000/api/controllers"
	"github.com/Prem931993/buytown-sub000/api/routes"
	"github.com/Prem931993/buytown-sub000/internal/engine"
	"github.com/Prem931993/buytown-sub000/internal/payments"
	"github.com/Prem931993/buytown-sub000/pkg/config"
	"github.com/Prem931993/buytown-sub000/pkg/db"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
	"github.com/Prem931993/buytown-sub000/pkg/metrics"
	"github.com/Prem931993/buytown-sub000/pkg/migrate"
	"github.com/Prem931993/buytown-sub000/pkg/redis"
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
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	core, err := engine.New(ctx, engine.Params{Config: cfg, Logger: logg, DB: dbClient, Registry: registry})
	if err != nil {
		logg.Error(ctx, "failed to wire order engine", err)
		os.Exit(1)
	}
	defer func() {
		if err := core.Close(); err != nil {
			logg.Error(context.Background(), "error closing order engine", err)
		}
	}()

	guard, err := payments.NewWebhookGuard(redisClient, cfg.Payments.WebhookGuardTTL)
	if err != nil {
		logg.Error(ctx, "failed to create webhook guard", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(
		cfg,
		logg,
		registry,
		metrics.NewHTTPMetrics(registry),
		map[string]controllers.Pinger{"db": dbClient, "redis": redisClient},
		redisClient,
		core.Cart,
		core.Checkout,
		core.Orders,
		core.Payments,
		guard,
		core.Delivery,
	)

	server := api.NewServer(cfg, os.Getenv("PORT"), handler)
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
}
