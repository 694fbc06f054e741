package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expensedesk/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = time.DateOnly

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps the explicit-id inserts serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

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

// Append stores e under its own ID and returns it.
func (r *SQLiteRepository) Append(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, expense_date, category, subtype, description,
			payer_name, payer_mobile, payment_mode, total_cents, paid_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Date.DateOnly().Format(dateLayout),
		string(e.Category),
		e.Subtype,
		e.Description,
		e.PayerName,
		e.PayerMobile,
		string(e.PaymentMode),
		e.Total.Cents,
		e.Paid.Cents,
	)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"category", e.Category,
		"total_cents", e.Total.Cents,
		"paid_cents", e.Paid.Cents)

	return e.ID, nil
}

// ListAll returns every expense ordered by ID.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Expense, error) {
	return r.query(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY id`)
}

// ListBetween returns expenses dated within [from, to] inclusive, ordered by ID.
// A zero bound is open.
func (r *SQLiteRepository) ListBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	q := `SELECT ` + expenseColumns + ` FROM expenses WHERE 1=1`
	var args []any
	if !from.IsZero() {
		q += ` AND expense_date >= ?`
		args = append(args, core.DayOf(from).Format(dateLayout))
	}
	if !to.IsZero() {
		q += ` AND expense_date <= ?`
		args = append(args, core.DayOf(to).Format(dateLayout))
	}
	q += ` ORDER BY id`
	return r.query(ctx, q, args...)
}

const expenseColumns = `id, expense_date, category, subtype, description,
	payer_name, payer_mobile, payment_mode, total_cents, paid_cents`

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e                 core.Expense
			day, cat, mode    string
			totalCents, paidC int64
		)
		if err := rows.Scan(&e.ID, &day, &cat, &e.Subtype, &e.Description,
			&e.PayerName, &e.PayerMobile, &mode, &totalCents, &paidC); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		d, err := time.Parse(dateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("expense %d: parse date %q: %w", e.ID, day, err)
		}
		e.Date = core.Date{Time: d}
		e.Category = core.Category(cat)
		e.PaymentMode = core.PaymentMode(mode)
		e.Total = core.Money{Cents: totalCents}
		e.Paid = core.Money{Cents: paidC}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}
