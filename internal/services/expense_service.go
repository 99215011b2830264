// Package services holds the application use cases: voice interpretation,
// expense creation with catalog learning, and recurring expense processing.
package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store"
)

// ItemPublisher hands learned items to the catalog worker.
type ItemPublisher interface {
	PublishItemLearned(ctx context.Context, msg *amqp.ItemLearnedMessage) error
}

// CatalogInvalidator drops a user's cached catalog snapshot.
type CatalogInvalidator interface {
	Invalidate(userID string)
}

// ExpenseService saves expenses and teaches the catalog the items they name,
// so the next utterance for the same item resolves at the item tier.
type ExpenseService struct {
	writer      store.ExpenseWriter
	items       store.ItemWriter
	publisher   ItemPublisher
	invalidator CatalogInvalidator
	logger      *log.StructuredLogger
}

type ExpenseServiceOption func(*ExpenseService)

// WithPublisher routes item learning through the message broker instead of
// writing the catalog inline.
func WithPublisher(p ItemPublisher) ExpenseServiceOption {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithCatalogCache invalidates the user's snapshot after learning.
func WithCatalogCache(c CatalogInvalidator) ExpenseServiceOption {
	return func(s *ExpenseService) { s.invalidator = c }
}

func WithLogger(l *log.Logger) ExpenseServiceOption {
	return func(s *ExpenseService) { s.logger = log.NewStructuredLogger(l) }
}

func NewExpenseService(writer store.ExpenseWriter, items store.ItemWriter, opts ...ExpenseServiceOption) *ExpenseService {
	s := &ExpenseService{
		writer: writer,
		items:  items,
		logger: log.NewStructuredLogger(log.FromContext(context.Background())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateExpense saves e and then learns its item. Learning failures are
// logged and never fail the request: the expense is already stored.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	if s.writer == nil {
		return "", fmt.Errorf("expense service has no writer")
	}
	if e.Unit == "" {
		e.Unit = core.DefaultUnit
	}
	if err := e.Validate(); err != nil {
		return "", err
	}

	ref, err := s.writer.Append(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save expense: %w", err)
	}
	s.logger.LogExpenseCreated(ctx, e, ref)

	if item, ok := learnableItem(e); ok {
		if err := s.learn(ctx, e.UserID, item); err != nil {
			s.logger.LogError(ctx, "Failed to learn catalog item", err, log.ComponentCatalog, log.OpLearn,
				log.NewFields().WithUser(e.UserID))
		}
	}
	return ref, nil
}

func (s *ExpenseService) learn(ctx context.Context, userID string, item core.CatalogItem) error {
	if s.publisher != nil {
		err := s.publisher.PublishItemLearned(ctx, amqp.NewItemLearnedMessage(userID, item))
		if err == nil {
			s.invalidate(userID)
			return nil
		}
		log.FromContext(ctx).WarnContext(ctx, "Publishing learned item failed, writing inline",
			log.FieldError, err, log.FieldUserID, userID)
	}
	if s.items == nil {
		return nil
	}
	if err := s.items.UpsertItem(ctx, userID, item); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// Close releases the publisher when it holds a connection.
func (s *ExpenseService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		return c.Close()
	}
	return nil
}

func (s *ExpenseService) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}

// learnableItem returns the catalog entry an expense teaches. Placeholder
// items and uncategorized expenses teach nothing.
func learnableItem(e core.Expense) (core.CatalogItem, bool) {
	p := e.Path
	if p.IsGeneral() || strings.TrimSpace(p.N4) == "" || p.N1 == core.UndefinedType {
		return core.CatalogItem{}, false
	}
	return core.CatalogItem{
		Name:        strings.TrimSpace(p.N4),
		N1:          p.N1,
		N2:          p.N2,
		N3:          p.N3,
		DefaultUnit: e.Unit,
	}, true
}
