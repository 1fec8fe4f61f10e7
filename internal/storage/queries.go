package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Transaction is the database row.
type Transaction struct {
	ID          int64
	UserID      int64
	Description string
	Amount      int64
	Type        string
	Category    string
	CreatedAt   string
}

const createTransaction = `
INSERT INTO transactions (user_id, description, amount, type, category, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, user_id, description, amount, type, category, created_at
`

type CreateTransactionParams struct {
	UserID      int64
	Description string
	Amount      int64
	Type        string
	Category    string
	CreatedAt   string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.UserID,
		arg.Description,
		arg.Amount,
		arg.Type,
		arg.Category,
		arg.CreatedAt,
	)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Description,
		&i.Amount,
		&i.Type,
		&i.Category,
		&i.CreatedAt,
	)
	return i, err
}

const deleteTransaction = `
DELETE FROM transactions WHERE id = ? AND user_id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getTransaction = `
SELECT id, user_id, description, amount, type, category, created_at
FROM transactions
WHERE id = ? AND user_id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id, userID int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id, userID)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Description,
		&i.Amount,
		&i.Type,
		&i.Category,
		&i.CreatedAt,
	)
	return i, err
}

const listTransactions = `
SELECT id, user_id, description, amount, type, category, created_at
FROM transactions
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListTransactions(ctx context.Context, userID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Description,
			&i.Amount,
			&i.Type,
			&i.Category,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCurrency = `
SELECT currency FROM user_settings WHERE user_id = ?
`

func (q *Queries) GetCurrency(ctx context.Context, userID int64) (string, error) {
	row := q.db.QueryRowContext(ctx, getCurrency, userID)
	var currency string
	err := row.Scan(&currency)
	return currency, err
}

const upsertCurrency = `
INSERT INTO user_settings (user_id, currency) VALUES (?, ?)
ON CONFLICT (user_id) DO UPDATE SET currency = excluded.currency
`

func (q *Queries) UpsertCurrency(ctx context.Context, userID int64, currency string) error {
	_, err := q.db.ExecContext(ctx, upsertCurrency, userID, currency)
	return err
}

const listUserIDs = `
SELECT DISTINCT user_id FROM transactions ORDER BY user_id
`

func (q *Queries) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listUserIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
