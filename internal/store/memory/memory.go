// Package memory is an in-process store seeded from a YAML catalog. It backs
// development runs and tests; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gastos/internal/core"
	"gastos/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	rows       []core.CategoryRow
	shared     []core.CatalogItem
	items      map[string][]core.CatalogItem
	expenses   []core.Expense
	recurrents []core.RecurrentExpenses
}

var (
	_ store.Catalog         = (*Store)(nil)
	_ store.ExpenseWriter   = (*Store)(nil)
	_ store.ExpenseLister   = (*Store)(nil)
	_ store.DashboardReader = (*Store)(nil)
	_ store.RecurrentStore  = (*Store)(nil)
)

func New(seed Seed) *Store {
	s := &Store{
		rows:   seed.Rows(),
		shared: dedupeItems(seed.Items),
		items:  make(map[string][]core.CatalogItem, len(seed.Users)),
	}
	for user, u := range seed.Users {
		s.items[user] = dedupeItems(u.Items)
	}
	return s
}

// NewFromFile seeds a store from a YAML catalog, or from the built-in one when
// path is empty.
func NewFromFile(path string) (*Store, error) {
	seed, err := LoadSeedFile(path)
	if err != nil {
		return nil, err
	}
	return New(seed), nil
}

// ListItems returns shared items followed by the user's own. A user item
// shadows a shared one with the same name.
func (s *Store) ListItems(_ context.Context, userID string) ([]core.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	own := s.items[userID]
	out := make([]core.CatalogItem, 0, len(s.shared)+len(own))
	for _, it := range s.shared {
		if findItem(own, it.Name) < 0 {
			out = append(out, it)
		}
	}
	return append(out, own...), nil
}

func (s *Store) ListCategoryRows(_ context.Context, _ string) ([]core.CategoryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.CategoryRow(nil), s.rows...), nil
}

func (s *Store) UpsertItem(_ context.Context, userID string, item core.CatalogItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return core.ErrEmptyItem
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	own := s.items[userID]
	if i := findItem(own, item.Name); i >= 0 {
		own[i] = item
		return nil
	}
	s.items[userID] = append(own, item)
	return nil
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = int64(len(s.expenses) + 1)
	s.expenses = append(s.expenses, e)
	return fmt.Sprintf("mem:%d", e.ID), nil
}

func (s *Store) ListExpenses(_ context.Context, userID string, year, month int) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID == userID && e.Date.Year() == year && e.Date.Month() == month {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ReadMonthOverview(ctx context.Context, userID string, year, month int) (core.MonthOverview, error) {
	expenses, err := s.ListExpenses(ctx, userID, year, month)
	if err != nil {
		return core.MonthOverview{}, err
	}
	return core.SummarizeByType(year, month, expenses), nil
}

func (s *Store) CreateRecurrentExpense(_ context.Context, re core.RecurrentExpenses) (int64, error) {
	if err := re.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	re.ID = int64(len(s.recurrents) + 1)
	s.recurrents = append(s.recurrents, re)
	return re.ID, nil
}

func (s *Store) ActiveRecurrentExpenses(_ context.Context, on time.Time) ([]core.RecurrentExpenses, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day := core.NewDate(on.Year(), int(on.Month()), on.Day())
	var out []core.RecurrentExpenses
	for _, re := range s.recurrents {
		if re.StartDate.After(day.Time) {
			continue
		}
		if !re.EndDate.IsEmpty() && re.EndDate.Before(day.Time) {
			continue
		}
		out = append(out, re)
	}
	return out, nil
}

func (s *Store) UpdateRecurrentLastExecution(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurrents {
		if s.recurrents[i].ID == id {
			s.recurrents[i].LastExecutionDate = at
			return nil
		}
	}
	return fmt.Errorf("recurrent expense %d: %w", id, store.ErrNotFound)
}

func findItem(items []core.CatalogItem, name string) int {
	for i, it := range items {
		if strings.EqualFold(it.Name, name) {
			return i
		}
	}
	return -1
}

// dedupeItems drops blank names and later duplicates, preserving input order.
func dedupeItems(in []core.CatalogItem) []core.CatalogItem {
	out := make([]core.CatalogItem, 0, len(in))
	for _, it := range in {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" || findItem(out, it.Name) >= 0 {
			continue
		}
		out = append(out, it)
	}
	return out
}
