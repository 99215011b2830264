package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store/memory"
)

type fakePublisher struct {
	err    error
	sent   []*amqp.ItemLearnedMessage
	closed bool
}

func (f *fakePublisher) PublishItemLearned(_ context.Context, msg *amqp.ItemLearnedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type fakeInvalidator struct{ users []string }

func (f *fakeInvalidator) Invalidate(userID string) { f.users = append(f.users, userID) }

func pollo(user string) core.Expense {
	return core.Expense{
		UserID:   user,
		Date:     core.NewDate(2025, 3, 4),
		Path:     core.CategoryPath{N1: "Variables", N2: "Alimentación", N3: "Supermercado", N4: "Pollo entero"},
		Quantity: decimal.NewFromInt(2),
		Unit:     "kg",
		Amount:   core.Money{Cents: 30000},
		Source:   core.SourceVoice,
	}
}

func findLearned(t *testing.T, st *memory.Store, user, name string) (core.CatalogItem, bool) {
	t.Helper()
	items, err := st.ListItems(context.Background(), user)
	require.NoError(t, err)
	for _, it := range items {
		if it.Name == name {
			return it, true
		}
	}
	return core.CatalogItem{}, false
}

func TestExpenseService_CreateExpenseLearnsInline(t *testing.T) {
	st := memory.New(memory.DefaultSeed())
	inv := &fakeInvalidator{}
	svc := NewExpenseService(st, st, WithCatalogCache(inv), WithLogger(log.Discard()))

	ref, err := svc.CreateExpense(context.Background(), pollo("ana"))
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	item, ok := findLearned(t, st, "ana", "Pollo entero")
	require.True(t, ok)
	assert.Equal(t, "Supermercado", item.N3)
	assert.Equal(t, "kg", item.DefaultUnit)
	assert.Equal(t, []string{"ana"}, inv.users)

	_, ok = findLearned(t, st, "bruno", "Pollo entero")
	assert.False(t, ok, "items are learned per user")
}

func TestExpenseService_SkipsPlaceholderItems(t *testing.T) {
	tests := []struct {
		name string
		path core.CategoryPath
	}{
		{"general item", core.CategoryPath{N1: "Variables", N2: "Alimentación", N3: "Supermercado", N4: core.GeneralItem}},
		{"undefined type", core.CategoryPath{N1: core.UndefinedType, N4: "Cosa rara"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New(memory.Seed{})
			inv := &fakeInvalidator{}
			svc := NewExpenseService(st, st, WithCatalogCache(inv), WithLogger(log.Discard()))

			e := pollo("ana")
			e.Path = tt.path
			_, err := svc.CreateExpense(context.Background(), e)
			require.NoError(t, err)

			items, err := st.ListItems(context.Background(), "ana")
			require.NoError(t, err)
			assert.Empty(t, items)
			assert.Empty(t, inv.users)
		})
	}
}

func TestExpenseService_PublishesWhenConfigured(t *testing.T) {
	st := memory.New(memory.Seed{})
	pub := &fakePublisher{}
	svc := NewExpenseService(st, st, WithPublisher(pub), WithLogger(log.Discard()))

	_, err := svc.CreateExpense(context.Background(), pollo("ana"))
	require.NoError(t, err)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "ana", pub.sent[0].UserID)
	assert.Equal(t, "Pollo entero", pub.sent[0].Item.Name)

	_, ok := findLearned(t, st, "ana", "Pollo entero")
	assert.False(t, ok, "the worker writes the item, not the request")

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}

func TestExpenseService_FallsBackWhenPublishFails(t *testing.T) {
	st := memory.New(memory.Seed{})
	pub := &fakePublisher{err: amqp.ErrCircuitOpen}
	svc := NewExpenseService(st, st, WithPublisher(pub), WithLogger(log.Discard()))

	_, err := svc.CreateExpense(context.Background(), pollo("ana"))
	require.NoError(t, err)

	_, ok := findLearned(t, st, "ana", "Pollo entero")
	assert.True(t, ok)
}

type failingWriter struct{}

func (failingWriter) Append(context.Context, core.Expense) (string, error) {
	return "", errors.New("disk full")
}

func TestExpenseService_CreateExpenseErrors(t *testing.T) {
	st := memory.New(memory.Seed{})

	_, err := NewExpenseService(nil, st).CreateExpense(context.Background(), pollo("ana"))
	assert.Error(t, err)

	bad := pollo("ana")
	bad.Amount = core.Money{}
	_, err = NewExpenseService(st, st).CreateExpense(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = NewExpenseService(failingWriter{}, st, WithLogger(log.Discard())).CreateExpense(context.Background(), pollo("ana"))
	assert.ErrorContains(t, err, "disk full")
	_, ok := findLearned(t, st, "ana", "Pollo entero")
	assert.False(t, ok, "nothing is learned when the save fails")
}

func TestExpenseService_DefaultsUnit(t *testing.T) {
	st := memory.New(memory.Seed{})
	svc := NewExpenseService(st, st, WithLogger(log.Discard()))

	e := pollo("ana")
	e.Unit = ""
	_, err := svc.CreateExpense(context.Background(), e)
	require.NoError(t, err)

	got, err := st.ListExpenses(context.Background(), "ana", 2025, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.DefaultUnit, got[0].Unit)
}

func TestExpenseService_CloseWithoutPublisher(t *testing.T) {
	assert.NoError(t, NewExpenseService(nil, nil).Close())
}
