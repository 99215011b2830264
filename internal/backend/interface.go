// Package backend selects and builds the persistence layer named by the
// configuration.
package backend

import (
	"context"

	"gastos/internal/store"
)

// Backend is everything the services and handlers need from persistence.
type Backend interface {
	store.Catalog
	store.ExpenseWriter
	store.ExpenseLister
	store.DashboardReader
	store.RecurrentStore
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
	// Ping reports readiness; nil means always ready.
	Ping func(ctx context.Context) error
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// SeedFile is a YAML catalog. Empty means the built-in one. The memory
	// backend loads it on every start; SQLite only seeds an empty database.
	SeedFile string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
