// Package storage persists transactions and notifications in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/repository"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ repository.Repository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// brings its schema up to date.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("SQLite database ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, logger: logger, now: time.Now}, nil
}

// WithClock replaces the clock used for created/updated stamps.
func (r *SQLiteRepository) WithClock(now func() time.Time) *SQLiteRepository {
	r.now = now
	return r
}

// DB exposes the handle so the notification store can share the connection pool.
func (r *SQLiteRepository) DB() *sql.DB { return r.db }

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const selectColumns = `id, kind, date, description, amount_cents, category, notes, created_at, updated_at`

func (r *SQLiteRepository) List(ctx context.Context, userID string, kind core.Kind) ([]core.Transaction, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM transactions
		 WHERE user_id = ? AND kind = ?
		 ORDER BY date DESC, id ASC`,
		userID, string(kind))
	if err != nil {
		return nil, unavailable("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list transactions", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, userID string, kind core.Kind, id string) (core.Transaction, error) {
	rowID, err := parseID(kind, id)
	if err != nil {
		return core.Transaction{}, err
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE user_id = ? AND kind = ? AND id = ?`,
		userID, string(kind), rowID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("%s %q: %w", kind, id, core.ErrNotFound)
	}
	return t, err
}

func (r *SQLiteRepository) Create(ctx context.Context, userID string, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	now := r.now().UTC().Format(timeLayout)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, kind, date, description, amount_cents, category, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, string(t.Kind), formatDate(t.Date), t.Description, t.Amount.Cents, t.Category, t.Notes, now, now)
	if err != nil {
		return "", unavailable("insert transaction", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", unavailable("read inserted id", err)
	}

	r.logger.DebugContext(ctx, "Transaction saved",
		log.NewFields().
			WithUser(userID).
			WithTransaction(string(t.Kind), strconv.FormatInt(id, 10), t.Amount.Cents, t.Category).
			WithOperation(log.OpCreate).
			ToSlice()...)
	return strconv.FormatInt(id, 10), nil
}

func (r *SQLiteRepository) Update(ctx context.Context, userID string, kind core.Kind, id string, p core.Patch) error {
	if err := p.Validate(kind); err != nil {
		return err
	}
	rowID, err := parseID(kind, id)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET date = ?, description = ?, amount_cents = ?, category = ?, notes = ?, updated_at = ?
		 WHERE user_id = ? AND kind = ? AND id = ?`,
		formatDate(p.Date), p.Description, p.Amount.Cents, p.Category, p.Notes, r.now().UTC().Format(timeLayout),
		userID, string(kind), rowID)
	if err != nil {
		return unavailable("update transaction", err)
	}
	return requireAffected(res, kind, id)
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID string, kind core.Kind, id string) error {
	rowID, err := parseID(kind, id)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND kind = ? AND id = ?`,
		userID, string(kind), rowID)
	if err != nil {
		return unavailable("delete transaction", err)
	}
	return requireAffected(res, kind, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                            core.Transaction
		id                           int64
		kind, date, created, updated string
	)
	err := s.Scan(&id, &kind, &date, &t.Description, &t.Amount.Cents, &t.Category, &t.Notes, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, unavailable("scan transaction", err)
	}

	t.ID = strconv.FormatInt(id, 10)
	t.Kind = core.Kind(kind)
	if t.Date, err = core.NormalizeDate(date); err != nil {
		return t, fmt.Errorf("transaction %d: %w", id, err)
	}
	if d, err := core.NormalizeDate(created); err == nil {
		t.CreatedAt = d.Time
	}
	if d, err := core.NormalizeDate(updated); err == nil {
		t.UpdatedAt = d.Time
	}
	return t, nil
}

func formatDate(d core.Date) string {
	return d.UTC().Format(timeLayout)
}

// parseID maps a non-numeric id to not found; such a row cannot exist.
func parseID(kind core.Kind, id string) (int64, error) {
	if err := kind.Validate(); err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", kind, id, core.ErrNotFound)
	}
	return n, nil
}

func requireAffected(res sql.Result, kind core.Kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrUnavailable, err)
}
