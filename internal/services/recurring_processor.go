package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store"
)

// RecurringConfig controls the periodic run of the processor.
type RecurringConfig struct {
	Interval time.Duration
	// RunOnStart processes due templates immediately instead of waiting
	// for the first tick.
	RunOnStart bool
}

func DefaultRecurringConfig() RecurringConfig {
	return RecurringConfig{Interval: time.Hour, RunOnStart: true}
}

// RecurringProcessor materializes due recurring templates into expenses.
type RecurringProcessor struct {
	store    store.RecurrentStore
	expenses ExpenseCreator
	config   RecurringConfig
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRecurringProcessor(rs store.RecurrentStore, expenses ExpenseCreator, config RecurringConfig, logger *log.Logger) *RecurringProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultRecurringConfig().Interval
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &RecurringProcessor{
		store:    rs,
		expenses: expenses,
		config:   config,
		logger:   logger.WithComponent(log.ComponentRecurring),
		now:      time.Now,
	}
}

// ProcessDue creates one expense for every active template due at now and
// returns how many were created. A failing template is logged and skipped.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.expenses == nil {
		return 0, errors.New("recurring processor not initialized")
	}

	templates, err := p.store.ActiveRecurrentExpenses(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list active recurrent expenses: %w", err)
	}

	created := 0
	for _, re := range templates {
		checker, err := CheckerFor(re.Every)
		if err != nil {
			p.logger.WarnContext(ctx, "Skipping recurrent expense", "recurrent_id", re.ID, log.FieldError, err)
			continue
		}
		if !checker.IsDue(re.LastExecutionDate, now, re.StartDate) {
			continue
		}

		day := core.NewDate(now.Year(), int(now.Month()), now.Day())
		ref, err := p.expenses.CreateExpense(ctx, re.ToExpense(day.Time))
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to create expense from recurrent template",
				"recurrent_id", re.ID, log.FieldUserID, re.UserID, log.FieldError, err)
			continue
		}
		// The expense exists either way; a failed update only risks a duplicate next run.
		if err := p.store.UpdateRecurrentLastExecution(ctx, re.ID, now); err != nil {
			p.logger.ErrorContext(ctx, "Failed to record last execution",
				"recurrent_id", re.ID, log.FieldError, err)
		}
		created++
		p.logger.InfoContext(ctx, "Created expense from recurrent template",
			"recurrent_id", re.ID,
			log.FieldUserID, re.UserID,
			log.FieldRef, ref,
			"every", re.Every)
	}

	p.logger.InfoContext(ctx, "Recurring run complete",
		log.FieldOperation, log.OpRecurring,
		"created", created,
		"checked", len(templates))
	return created, nil
}

// Start runs ProcessDue every configured interval until Stop or ctx ends.
func (p *RecurringProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("recurring processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Recurring processor started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish or ctx to end.
func (p *RecurringProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Recurring processor stopped")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Recurring processor stop timed out")
		return ctx.Err()
	}
}

func (p *RecurringProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RecurringProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	if p.config.RunOnStart {
		p.runOnce(ctx)
	}
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *RecurringProcessor) runOnce(ctx context.Context) {
	if _, err := p.ProcessDue(ctx, p.now()); err != nil {
		p.logger.ErrorContext(ctx, "Recurring run failed", log.FieldError, err)
	}
}
