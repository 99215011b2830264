// Package worker consumes catalog learning messages outside the request path.
package worker

import (
	"context"
	"fmt"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store"
)

// Seeder installs the shared catalog into an empty store.
type Seeder interface {
	SeedIfEmpty(ctx context.Context, rows []core.CategoryRow, items []core.CatalogItem) (bool, error)
}

// CatalogWorker writes items learned from confirmed expenses.
type CatalogWorker struct {
	items  store.ItemWriter
	onSave func(userID string)
	logger *log.Logger
}

// NewCatalogWorker builds a worker writing to items. onSave, when set, runs
// after every stored item; the server uses it to drop cached snapshots.
func NewCatalogWorker(items store.ItemWriter, onSave func(userID string), logger *log.Logger) *CatalogWorker {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &CatalogWorker{
		items:  items,
		onSave: onSave,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleItemLearned stores one learned item. Returning an error asks the
// broker to redeliver.
func (w *CatalogWorker) HandleItemLearned(ctx context.Context, msg *amqp.ItemLearnedMessage) error {
	w.logger.InfoContext(ctx, "Processing learned item",
		"message_id", msg.MessageID,
		log.FieldUserID, msg.UserID,
		"item", msg.Item.Name)

	if err := w.items.UpsertItem(ctx, msg.UserID, msg.Item); err != nil {
		return fmt.Errorf("upsert item %q: %w", msg.Item.Name, err)
	}
	if w.onSave != nil {
		w.onSave(msg.UserID)
	}

	w.logger.InfoContext(ctx, "Learned item stored",
		"message_id", msg.MessageID,
		log.FieldUserID, msg.UserID,
		log.FieldCategoryPath, msg.Item.Path().String(),
		"published_at", msg.Timestamp)
	return nil
}

// Handler adapts the worker to the AMQP consumer.
func (w *CatalogWorker) Handler() amqp.ItemLearnedHandler {
	return w.HandleItemLearned
}

// StartupSeedCheck seeds the shared catalog when the store has none, so a
// fresh deployment resolves categories from its first request.
func StartupSeedCheck(ctx context.Context, s Seeder, rows []core.CategoryRow, items []core.CatalogItem, logger *log.Logger) error {
	seeded, err := s.SeedIfEmpty(ctx, rows, items)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if logger != nil {
		if seeded {
			logger.InfoContext(ctx, "Catalog seeded on startup", "categories", len(rows), "items", len(items))
		} else {
			logger.InfoContext(ctx, "Catalog already present, skipping seed")
		}
	}
	return nil
}
