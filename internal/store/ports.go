// Package store declares the persistence ports used by services and handlers.
//
// Every read and write is scoped to a user id. Category rows owned by no user
// are shared by everyone and appear in every user's catalog.
package store

import (
	"context"
	"errors"
	"time"

	"gastos/internal/core"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (ref string, err error)
	}

	// CatalogReader exposes the two catalog snapshots consumed by voice resolution.
	CatalogReader interface {
		ListItems(ctx context.Context, userID string) ([]core.CatalogItem, error)
		ListCategoryRows(ctx context.Context, userID string) ([]core.CategoryRow, error)
	}

	// ItemWriter saves an item so future utterances resolve at the item tier.
	// Upserting an existing name replaces its path and unit.
	ItemWriter interface {
		UpsertItem(ctx context.Context, userID string, item core.CatalogItem) error
	}

	// DashboardReader provides aggregated monthly data.
	DashboardReader interface {
		ReadMonthOverview(ctx context.Context, userID string, year, month int) (core.MonthOverview, error)
	}

	// ExpenseLister returns the detailed list of expenses for a given month.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, userID string, year, month int) ([]core.Expense, error)
	}

	// RecurrentStore backs the recurring expense processor.
	RecurrentStore interface {
		CreateRecurrentExpense(ctx context.Context, re core.RecurrentExpenses) (int64, error)
		// ActiveRecurrentExpenses returns templates whose date range covers on.
		ActiveRecurrentExpenses(ctx context.Context, on time.Time) ([]core.RecurrentExpenses, error)
		UpdateRecurrentLastExecution(ctx context.Context, id int64, at time.Time) error
	}
)

// Catalog is the full read/write catalog surface.
type Catalog interface {
	CatalogReader
	ItemWriter
}
