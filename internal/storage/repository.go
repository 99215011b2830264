// Package storage is the SQLite persistence layer. Schema changes live in
// migrations/ and are applied on open.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"gastos/internal/core"
	"gastos/internal/store"
)

const dateLayout = time.DateOnly

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ store.Catalog         = (*SQLiteRepository)(nil)
	_ store.ExpenseWriter   = (*SQLiteRepository)(nil)
	_ store.ExpenseLister   = (*SQLiteRepository)(nil)
	_ store.DashboardReader = (*SQLiteRepository)(nil)
	_ store.RecurrentStore  = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, err
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Debug("SQLite repository ready", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append implements store.ExpenseWriter. The reference is the row id.
func (r *SQLiteRepository) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	source := e.Source
	if source == "" {
		source = core.SourceManual
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, date, n1, n2, n3, n4, quantity, unit, amount_cents, source, match_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Date.Format(dateLayout),
		e.Path.N1, e.Path.N2, e.Path.N3, e.Path.N4,
		e.Quantity.String(), e.Unit, e.Amount.Cents, source, e.MatchLevel,
	)
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("read expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"user_id", e.UserID,
		"path", e.Path.String(),
		"amount_cents", e.Amount.Cents)

	return strconv.FormatInt(id, 10), nil
}

const expenseColumns = `id, user_id, date, n1, n2, n3, n4, quantity, unit, amount_cents, source, match_level`

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, store.ErrNotFound)
	}
	return e, err
}

// ListExpenses implements store.ExpenseLister, oldest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, year, month int) ([]core.Expense, error) {
	from, to := monthRange(year, month)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY date, id`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get expenses by month: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReadMonthOverview implements store.DashboardReader.
func (r *SQLiteRepository) ReadMonthOverview(ctx context.Context, userID string, year, month int) (core.MonthOverview, error) {
	ov := core.MonthOverview{Year: year, Month: month}
	from, to := monthRange(year, month)

	rows, err := r.db.QueryContext(ctx, `
		SELECT CASE WHEN n1 = '' THEN ? ELSE n1 END AS name, SUM(amount_cents) AS total
		FROM expenses
		WHERE user_id = ? AND date >= ? AND date < ?
		GROUP BY name
		ORDER BY total DESC, name`, core.UndefinedType, userID, from, to)
	if err != nil {
		return ov, fmt.Errorf("get category sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return ov, fmt.Errorf("scan category sum: %w", err)
		}
		ov.Total.Cents += ca.Amount.Cents
		ov.ByCategory = append(ov.ByCategory, ca)
	}
	return ov, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e        core.Expense
		date     string
		quantity string
	)
	err := s.Scan(&e.ID, &e.UserID, &date,
		&e.Path.N1, &e.Path.N2, &e.Path.N3, &e.Path.N4,
		&quantity, &e.Unit, &e.Amount.Cents, &e.Source, &e.MatchLevel)
	if err != nil {
		return core.Expense{}, err
	}
	if e.Date, err = parseDate(date); err != nil {
		return core.Expense{}, err
	}
	if e.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d quantity %q: %w", e.ID, quantity, err)
	}
	return e, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

// monthRange returns the half-open [from, to) date bounds of a month.
func monthRange(year, month int) (string, string) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start.Format(dateLayout), start.AddDate(0, 1, 0).Format(dateLayout)
}
