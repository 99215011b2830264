package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store/memory"
)

func TestCatalogWorker_HandleItemLearned(t *testing.T) {
	st := memory.New(memory.Seed{})
	var invalidated []string
	w := NewCatalogWorker(st, func(u string) { invalidated = append(invalidated, u) }, log.Discard())

	msg := amqp.NewItemLearnedMessage("ana", core.CatalogItem{
		Name: "Yerba", N1: "Variables", N2: "Alimentación", N3: "Almacén", DefaultUnit: "paquete",
	})
	require.NoError(t, w.Handler()(context.Background(), msg))

	items, err := st.ListItems(context.Background(), "ana")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Yerba", items[0].Name)
	assert.Equal(t, []string{"ana"}, invalidated)
}

func TestCatalogWorker_RejectsBlankItem(t *testing.T) {
	st := memory.New(memory.Seed{})
	w := NewCatalogWorker(st, nil, nil)

	err := w.HandleItemLearned(context.Background(), &amqp.ItemLearnedMessage{UserID: "ana"})
	assert.ErrorIs(t, err, core.ErrEmptyItem)
}

type fakeSeeder struct {
	seeded bool
	err    error
	calls  int
}

func (f *fakeSeeder) SeedIfEmpty(context.Context, []core.CategoryRow, []core.CatalogItem) (bool, error) {
	f.calls++
	return f.seeded, f.err
}

func TestStartupSeedCheck(t *testing.T) {
	seed := memory.DefaultSeed()

	s := &fakeSeeder{seeded: true}
	require.NoError(t, StartupSeedCheck(context.Background(), s, seed.Rows(), seed.Items, log.Discard()))
	assert.Equal(t, 1, s.calls)

	s = &fakeSeeder{err: errors.New("locked")}
	assert.ErrorContains(t, StartupSeedCheck(context.Background(), s, nil, nil, nil), "locked")
}
