package main

import (
	"context"
	"errors"
	"os"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/backend"
	"gastos/internal/cli"
	"gastos/internal/log"
	"gastos/internal/storage"
	"gastos/internal/store/memory"
	"gastos/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting gastos-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required: the worker consumes learned items from the broker")
		os.Exit(1)
	}
	if backend.BackendType(cfg.DataBackend) != backend.SQLiteBackend {
		logger.Error("The worker needs the sqlite backend shared with the server", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	seed, err := memory.LoadSeedFile(cfg.CatalogSeedFile)
	if err != nil {
		logger.Error("Failed to load catalog seed", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := worker.StartupSeedCheck(ctx, repo, seed.Rows(), seed.Items, logger); err != nil {
		// The server seeds too; keep consuming.
		logger.Error("Startup seed check failed", log.FieldError, err)
	}

	w := worker.NewCatalogWorker(repo, nil, logger)
	go func() {
		err := client.ConsumeItemLearned(ctx, w.Handler())
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	logger.Info("Worker started", "queue", cfg.AMQPQueue, "db_path", cfg.SQLiteDBPath)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
