package storage

import (
	"context"
	"fmt"
	"log/slog"

	"gastos/internal/core"
)

// SeedIfEmpty installs shared categories and items when the database has no
// categories yet. It reports whether anything was written.
func (r *SQLiteRepository) SeedIfEmpty(ctx context.Context, rows []core.CategoryRow, items []core.CatalogItem) (bool, error) {
	n, err := r.CountCategoryTypes(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	created, err := r.ImportCategoryRows(ctx, "", rows)
	if err != nil {
		return false, fmt.Errorf("seed categories: %w", err)
	}
	for _, it := range items {
		if err := r.UpsertItem(ctx, "", it); err != nil {
			return false, fmt.Errorf("seed items: %w", err)
		}
	}
	slog.InfoContext(ctx, "Seeded catalog", "categories", created, "items", len(items))
	return true, nil
}
