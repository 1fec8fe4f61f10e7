package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ledger/internal/core"
	applog "ledger/internal/log"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexicographically in the same order as time.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound reports a missing row, or one owned by another user.
var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction stores t and returns it with its ID. A zero CreatedAt
// is stamped with the current time.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		UserID:      t.UserID,
		Description: strings.TrimSpace(t.Description),
		Amount:      t.Amount,
		Type:        string(t.Type),
		Category:    t.Category,
		CreatedAt:   formatTime(t.CreatedAt),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		applog.FieldTransactionID, row.ID,
		applog.FieldUserID, row.UserID,
		applog.FieldAmount, row.Amount,
		applog.FieldType, row.Type,
		applog.FieldCategory, row.Category)

	return toCore(row)
}

// DeleteTransaction removes the user's transaction. A row owned by someone
// else is reported as ErrNotFound.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite",
		applog.FieldTransactionID, id,
		applog.FieldUserID, userID)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return toCore(row)
}

// ListTransactions returns the user's history, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ListUserIDs returns every user with at least one transaction.
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	ids, err := r.queries.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

// Currency returns the user's display currency, or the default when none
// is stored.
func (r *SQLiteRepository) Currency(ctx context.Context, userID int64) (string, error) {
	currency, err := r.queries.GetCurrency(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && currency == "") {
		return core.DefaultCurrency, nil
	}
	if err != nil {
		return "", fmt.Errorf("get currency: %w", err)
	}
	return currency, nil
}

// SetCurrency stores the user's display currency, one of
// core.AllowedCurrencies.
func (r *SQLiteRepository) SetCurrency(ctx context.Context, userID int64, currency string) error {
	currency, err := core.ParseCurrency(currency)
	if err != nil {
		return err
	}
	if err := r.queries.UpsertCurrency(ctx, userID, currency); err != nil {
		return fmt.Errorf("set currency: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func toCore(row Transaction) (core.Transaction, error) {
	created, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at of transaction %d: %w", row.ID, err)
	}
	return core.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Description: row.Description,
		Amount:      row.Amount,
		Type:        core.TransactionType(row.Type),
		Category:    row.Category,
		CreatedAt:   created,
	}, nil
}
