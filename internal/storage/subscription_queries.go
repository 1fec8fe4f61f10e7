package storage

import (
	"context"
)

// Subscription is the database row.
type Subscription struct {
	ID       int64
	UserID   int64
	Name     string
	Amount   float64
	Currency string
	Period   string
	NextDate string
}

const createSubscription = `
INSERT INTO subscriptions (user_id, name, amount, currency, period, next_date)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, user_id, name, amount, currency, period, next_date
`

type CreateSubscriptionParams struct {
	UserID   int64
	Name     string
	Amount   float64
	Currency string
	Period   string
	NextDate string
}

func (q *Queries) CreateSubscription(ctx context.Context, arg CreateSubscriptionParams) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, createSubscription,
		arg.UserID,
		arg.Name,
		arg.Amount,
		arg.Currency,
		arg.Period,
		arg.NextDate,
	)
	var i Subscription
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Amount,
		&i.Currency,
		&i.Period,
		&i.NextDate,
	)
	return i, err
}

const listSubscriptions = `
SELECT id, user_id, name, amount, currency, period, next_date
FROM subscriptions
WHERE user_id = ?
ORDER BY next_date, id
`

func (q *Queries) ListSubscriptions(ctx context.Context, userID int64) ([]Subscription, error) {
	return q.scanSubscriptions(ctx, listSubscriptions, userID)
}

const listDueSubscriptions = `
SELECT id, user_id, name, amount, currency, period, next_date
FROM subscriptions
WHERE next_date <= ?
ORDER BY next_date, id
`

func (q *Queries) ListDueSubscriptions(ctx context.Context, through string) ([]Subscription, error) {
	return q.scanSubscriptions(ctx, listDueSubscriptions, through)
}

func (q *Queries) scanSubscriptions(ctx context.Context, query string, args ...interface{}) ([]Subscription, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Subscription
	for rows.Next() {
		var i Subscription
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Name,
			&i.Amount,
			&i.Currency,
			&i.Period,
			&i.NextDate,
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

const deleteSubscription = `
DELETE FROM subscriptions WHERE id = ? AND user_id = ?
`

func (q *Queries) DeleteSubscription(ctx context.Context, id, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSubscription, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const advanceSubscription = `
UPDATE subscriptions SET next_date = ? WHERE id = ?
`

func (q *Queries) AdvanceSubscription(ctx context.Context, id int64, nextDate string) (int64, error) {
	result, err := q.db.ExecContext(ctx, advanceSubscription, nextDate, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getQuickButtons = `
SELECT buttons FROM quick_buttons WHERE user_id = ?
`

func (q *Queries) GetQuickButtons(ctx context.Context, userID int64) (string, error) {
	row := q.db.QueryRowContext(ctx, getQuickButtons, userID)
	var buttons string
	err := row.Scan(&buttons)
	return buttons, err
}

const upsertQuickButtons = `
INSERT INTO quick_buttons (user_id, buttons) VALUES (?, ?)
ON CONFLICT (user_id) DO UPDATE SET buttons = excluded.buttons
`

func (q *Queries) UpsertQuickButtons(ctx context.Context, userID int64, buttons string) error {
	_, err := q.db.ExecContext(ctx, upsertQuickButtons, userID, buttons)
	return err
}
