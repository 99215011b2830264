package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/backend"
	"gastos/internal/catalog"
	"gastos/internal/cli"
	apphttp "gastos/internal/http"
	"gastos/internal/log"
	"gastos/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	defer result.Close()
	store := result.Backend

	snapshots := catalog.NewCache(store, cfg.CatalogCacheSize, cfg.CatalogCacheTTL)

	opts := []services.ExpenseServiceOption{
		services.WithCatalogCache(snapshots),
		services.WithLogger(logger),
	}
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to connect to AMQP, learning items inline", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(client))
			logger.Info("Learned items go through gastos-worker", "queue", cfg.AMQPQueue)
		}
	}
	// Close also closes the AMQP publisher.
	expenses := services.NewExpenseService(store, store, opts...)
	defer expenses.Close()

	voiceSvc := services.NewVoiceService(snapshots, expenses, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Voice:     voiceSvc,
		Expenses:  expenses,
		Catalog:   snapshots,
		Lister:    store,
		Dashboard: store,
		Ready:     result.Ping,
	},
		apphttp.WithDefaultUser(cfg.DefaultUserID),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithLogger(logger),
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting gastos server", "port", cfg.Port, "backend", backendCfg.Type)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
