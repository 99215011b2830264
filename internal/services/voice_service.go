package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gastos/internal/catalog"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/voice"
)

// SnapshotSource supplies a user's catalog; *catalog.Cache satisfies it.
type SnapshotSource interface {
	Get(ctx context.Context, userID string) (catalog.Snapshot, error)
}

// ExpenseCreator saves a confirmed expense.
type ExpenseCreator interface {
	CreateExpense(ctx context.Context, e core.Expense) (string, error)
}

// Interpretation is what the client shows for review before confirming.
type Interpretation struct {
	Text    string              `json:"text"`
	Command voice.ParsedCommand `json:"command"`
	Draft   voice.DraftFields   `json:"draft"`
}

// VoiceService turns utterances into drafts and confirmed drafts into expenses.
type VoiceService struct {
	catalog  SnapshotSource
	expenses ExpenseCreator
	logger   *log.StructuredLogger
	now      func() time.Time
}

func NewVoiceService(src SnapshotSource, expenses ExpenseCreator, logger *log.Logger) *VoiceService {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &VoiceService{
		catalog:  src,
		expenses: expenses,
		logger:   log.NewStructuredLogger(logger),
		now:      time.Now,
	}
}

// Interpret parses text and resolves it against the user's catalog.
// voice.ErrEmptyQuery is returned unwrapped so callers can ask to repeat.
func (s *VoiceService) Interpret(ctx context.Context, userID, text string) (Interpretation, error) {
	cmd := voice.Parse(text)
	if strings.TrimSpace(cmd.ItemQuery) == "" {
		return Interpretation{Text: text, Command: cmd}, voice.ErrEmptyQuery
	}

	snap, err := s.catalog.Get(ctx, userID)
	if err != nil {
		return Interpretation{}, fmt.Errorf("load catalog: %w", err)
	}

	draft, err := voice.Resolve(cmd, snap.Items, snap.Categories)
	if err != nil {
		return Interpretation{Text: text, Command: cmd}, err
	}
	s.logger.LogVoiceResolved(ctx, userID, cmd.ItemQuery, string(draft.MatchLevel()), draft.MatchLabel())

	return Interpretation{Text: text, Command: cmd, Draft: draft.Fields()}, nil
}

// Confirm saves a reviewed draft. A missing quantity means one unit; a
// missing date means today.
func (s *VoiceService) Confirm(ctx context.Context, userID string, f voice.DraftFields, date core.Date) (string, error) {
	e, err := s.expenseFromDraft(userID, f, date)
	if err != nil {
		return "", err
	}
	return s.expenses.CreateExpense(ctx, e)
}

func (s *VoiceService) expenseFromDraft(userID string, f voice.DraftFields, date core.Date) (core.Expense, error) {
	qty, err := core.ParseQuantity(f.Cantidad)
	if err != nil {
		return core.Expense{}, fmt.Errorf("cantidad %q: %w", f.Cantidad, core.ErrInvalidQuantity)
	}
	cents, err := core.ParseDecimalToCents(f.Monto)
	if err != nil {
		return core.Expense{}, fmt.Errorf("monto %q: %w", f.Monto, core.ErrInvalidAmount)
	}
	if date.IsEmpty() {
		now := s.now()
		date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	unit := strings.TrimSpace(f.Unidad)
	if unit == "" {
		unit = core.DefaultUnit
	}

	e := core.Expense{
		UserID:     userID,
		Date:       date,
		Path:       f.Path(),
		Quantity:   qty,
		Unit:       unit,
		Amount:     core.Money{Cents: cents},
		Source:     core.SourceVoice,
		MatchLevel: string(f.MatchLevel),
	}
	return e, e.Validate()
}
