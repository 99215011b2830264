package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastos/internal/catalog"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store/memory"
	"gastos/internal/voice"
)

func newVoiceFixture(t *testing.T) (*VoiceService, *memory.Store, *catalog.Cache) {
	t.Helper()
	st := memory.New(memory.DefaultSeed())
	cat := catalog.NewCache(st, 16, time.Minute)
	expenses := NewExpenseService(st, st, WithCatalogCache(cat), WithLogger(log.Discard()))
	svc := NewVoiceService(cat, expenses, log.Discard())
	svc.now = func() time.Time { return time.Date(2025, 5, 20, 18, 30, 0, 0, time.UTC) }
	return svc, st, cat
}

func TestVoiceService_InterpretSavedItem(t *testing.T) {
	svc, _, _ := newVoiceFixture(t)

	got, err := svc.Interpret(context.Background(), "ana", "pollo dos kilos 300")
	require.NoError(t, err)

	assert.Equal(t, voice.ParsedCommand{ItemQuery: "pollo", Quantity: "2", Amount: "300"}, got.Command)
	assert.Equal(t, voice.DraftFields{
		N1: "Variables", N2: "Alimentación", N3: "Pollo y derivados", N4: "Pollo",
		Cantidad: "2", Monto: "300", Unidad: "kg",
		MatchLevel: voice.LevelItem, MatchLabel: "Pollo",
	}, got.Draft)
}

func TestVoiceService_InterpretEmptyQuery(t *testing.T) {
	svc, _, _ := newVoiceFixture(t)

	got, err := svc.Interpret(context.Background(), "ana", "un café 300")
	assert.ErrorIs(t, err, voice.ErrEmptyQuery)
	assert.Equal(t, "300", got.Command.Amount)
}

type brokenSource struct{}

func (brokenSource) Get(context.Context, string) (catalog.Snapshot, error) {
	return catalog.Snapshot{}, errors.New("db down")
}

func TestVoiceService_InterpretCatalogFailure(t *testing.T) {
	svc := NewVoiceService(brokenSource{}, nil, log.Discard())
	_, err := svc.Interpret(context.Background(), "ana", "pollo 300")
	assert.ErrorContains(t, err, "db down")
	assert.NotErrorIs(t, err, voice.ErrEmptyQuery)
}

func TestVoiceService_ConfirmThenLearn(t *testing.T) {
	svc, st, _ := newVoiceFixture(t)
	ctx := context.Background()

	// Free-form at first: nothing in the catalog resembles it.
	first, err := svc.Interpret(ctx, "ana", "mate cocido 2 cajas 1500")
	require.NoError(t, err)
	require.Equal(t, voice.LevelFree, first.Draft.MatchLevel)

	// The user recategorizes it before confirming.
	fields := first.Draft
	fields.N1, fields.N2, fields.N3 = "Variables", "Alimentación", "Almacén"
	fields.Unidad = "caja"
	ref, err := svc.Confirm(ctx, "ana", fields, core.Date{})
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	saved, err := st.ListExpenses(ctx, "ana", 2025, 5)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 20, saved[0].Date.Day())
	assert.True(t, saved[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, int64(150000), saved[0].Amount.Cents)
	assert.Equal(t, core.SourceVoice, saved[0].Source)
	assert.Equal(t, string(voice.LevelFree), saved[0].MatchLevel)

	// The snapshot was invalidated, so the next utterance hits the item tier.
	second, err := svc.Interpret(ctx, "ana", "mate cocido 1 caja 800")
	require.NoError(t, err)
	assert.Equal(t, voice.LevelItem, second.Draft.MatchLevel)
	assert.Equal(t, "Almacén", second.Draft.N3)
	assert.Equal(t, "caja", second.Draft.Unidad)

	// Other users are unaffected.
	other, err := svc.Interpret(ctx, "bruno", "mate cocido 1 caja 800")
	require.NoError(t, err)
	assert.Equal(t, voice.LevelFree, other.Draft.MatchLevel)
}

func TestVoiceService_ConfirmValidation(t *testing.T) {
	svc, _, _ := newVoiceFixture(t)
	base := voice.DraftFields{N1: "Variables", N4: "Pan", Cantidad: "1", Monto: "500"}

	tests := []struct {
		name   string
		mutate func(*voice.DraftFields)
		want   error
	}{
		{"missing amount", func(f *voice.DraftFields) { f.Monto = "" }, core.ErrInvalidAmount},
		{"zero amount", func(f *voice.DraftFields) { f.Monto = "0" }, core.ErrInvalidAmount},
		{"bad quantity", func(f *voice.DraftFields) { f.Cantidad = "dos" }, core.ErrInvalidQuantity},
		{"missing item", func(f *voice.DraftFields) { f.N4 = "" }, core.ErrEmptyItem},
		{"missing type", func(f *voice.DraftFields) { f.N1 = "" }, core.ErrEmptyType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			_, err := svc.Confirm(context.Background(), "ana", f, core.NewDate(2025, 5, 1))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVoiceService_ConfirmDefaults(t *testing.T) {
	svc, _, _ := newVoiceFixture(t)

	e, err := svc.expenseFromDraft("ana", voice.DraftFields{N1: "Variables", N4: "Pan", Monto: "450,5"}, core.Date{})
	require.NoError(t, err)
	assert.True(t, e.Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, core.DefaultUnit, e.Unit)
	assert.Equal(t, int64(45050), e.Amount.Cents)
	assert.Equal(t, core.NewDate(2025, 5, 20), e.Date)
}
