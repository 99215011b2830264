package main

import (
	"context"
	"os"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/backend"
	"gastos/internal/cli"
	"gastos/internal/log"
	"gastos/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentRecurring)
	logger.Info("Starting recurring-worker")

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

	opts := []services.ExpenseServiceOption{services.WithLogger(logger)}
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to connect to AMQP, learning items inline", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(client))
		}
	}
	expenses := services.NewExpenseService(store, store, opts...)
	defer expenses.Close()

	processor := services.NewRecurringProcessor(store, expenses, services.RecurringConfig{
		Interval:   cfg.RecurringInterval,
		RunOnStart: true,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Recurring processor stop failed", log.FieldError, err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start recurring processor", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"backend", backendCfg.Type)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring worker stopped")
}
