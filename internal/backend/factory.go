package backend

import (
	"context"
	"fmt"

	"gastos/internal/log"
	"gastos/internal/storage"
	"gastos/internal/store/memory"
)

var (
	_ Backend = (*memory.Store)(nil)
	_ Backend = (*storage.SQLiteRepository)(nil)
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	seed, err := memory.LoadSeedFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog seed: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	seeded, err := repo.SeedIfEmpty(ctx, seed.Rows(), seed.Items)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"seeded", seeded)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
		Ping:    repo.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	st, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog seed: %w", err)
	}

	source := config.SeedFile
	if source == "" {
		source = "built-in"
	}
	f.logger.Info("Initialized memory backend", "seed", source)

	return &BackendResult{Backend: st}, nil
}
