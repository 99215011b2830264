package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
	"gastos/internal/store"
)

func (r *SQLiteRepository) CreateRecurrentExpense(ctx context.Context, re core.RecurrentExpenses) (int64, error) {
	if err := re.Validate(); err != nil {
		return 0, err
	}
	var endDate any
	if !re.EndDate.IsEmpty() {
		endDate = re.EndDate.Format(dateLayout)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurrent_expenses (user_id, start_date, end_date, every, n1, n2, n3, n4, quantity, unit, amount_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		re.UserID, re.StartDate.Format(dateLayout), endDate, string(re.Every),
		re.Path.N1, re.Path.N2, re.Path.N3, re.Path.N4,
		re.Quantity.String(), re.Unit, re.Amount.Cents)
	if err != nil {
		return 0, fmt.Errorf("create recurrent expense: %w", err)
	}
	return res.LastInsertId()
}

// ActiveRecurrentExpenses returns templates whose [start, end] range covers the day of on.
func (r *SQLiteRepository) ActiveRecurrentExpenses(ctx context.Context, on time.Time) ([]core.RecurrentExpenses, error) {
	day := on.Format(dateLayout)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, start_date, COALESCE(end_date, ''), every,
		       n1, n2, n3, n4, quantity, unit, amount_cents, COALESCE(last_execution_date, '')
		FROM recurrent_expenses
		WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY id`, day, day)
	if err != nil {
		return nil, fmt.Errorf("get active recurrent expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurrentExpenses
	for rows.Next() {
		re, err := scanRecurrent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateRecurrentLastExecution(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurrent_expenses SET last_execution_date = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update last execution: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("recurrent expense %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func scanRecurrent(rows *sql.Rows) (core.RecurrentExpenses, error) {
	var (
		re                         core.RecurrentExpenses
		start, end, every, lastRun string
		quantity                   string
	)
	err := rows.Scan(&re.ID, &re.UserID, &start, &end, &every,
		&re.Path.N1, &re.Path.N2, &re.Path.N3, &re.Path.N4,
		&quantity, &re.Unit, &re.Amount.Cents, &lastRun)
	if err != nil {
		return re, fmt.Errorf("scan recurrent expense: %w", err)
	}
	re.Every = core.RepetitionTypes(every)
	if re.StartDate, err = parseDate(start); err != nil {
		return re, err
	}
	if end != "" {
		if re.EndDate, err = parseDate(end); err != nil {
			return re, err
		}
	}
	if re.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return re, fmt.Errorf("recurrent expense %d quantity: %w", re.ID, err)
	}
	if lastRun != "" {
		if re.LastExecutionDate, err = time.Parse(time.RFC3339, lastRun); err != nil {
			return re, fmt.Errorf("recurrent expense %d last execution: %w", re.ID, err)
		}
	}
	return re, nil
}
