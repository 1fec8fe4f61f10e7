package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ledger/internal/core"
	applog "ledger/internal/log"
)

// CreateSubscription stores s and returns it with its ID.
func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	if err := s.Validate(); err != nil {
		return core.Subscription{}, err
	}
	row, err := r.queries.CreateSubscription(ctx, CreateSubscriptionParams{
		UserID:   s.UserID,
		Name:     strings.TrimSpace(s.Name),
		Amount:   s.Amount,
		Currency: s.Currency,
		Period:   string(s.Period),
		NextDate: s.NextDate.String(),
	})
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved to SQLite",
		applog.FieldSubscription, row.ID,
		applog.FieldUserID, row.UserID,
		applog.FieldPeriod, row.Period)
	return subscriptionToCore(row)
}

// ListSubscriptions returns the user's subscriptions, soonest first.
func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error) {
	rows, err := r.queries.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subscriptionsToCore(rows)
}

// ListDueSubscriptions returns every user's subscriptions whose next
// payment falls on or before through.
func (r *SQLiteRepository) ListDueSubscriptions(ctx context.Context, through core.Date) ([]core.Subscription, error) {
	rows, err := r.queries.ListDueSubscriptions(ctx, through.String())
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	return subscriptionsToCore(rows)
}

// DeleteSubscription removes the user's subscription; someone else's is
// reported as ErrNotFound.
func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, userID, id int64) error {
	n, err := r.queries.DeleteSubscription(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete subscription %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Subscription deleted from SQLite",
		applog.FieldSubscription, id,
		applog.FieldUserID, userID)
	return nil
}

// AdvanceSubscription moves the next payment date of subscription id.
func (r *SQLiteRepository) AdvanceSubscription(ctx context.Context, id int64, next core.Date) error {
	n, err := r.queries.AdvanceSubscription(ctx, id, next.String())
	if err != nil {
		return fmt.Errorf("advance subscription %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// QuickButtons returns the user's saved entry shortcuts; none yields an
// empty slice.
func (r *SQLiteRepository) QuickButtons(ctx context.Context, userID int64) ([]string, error) {
	raw, err := r.queries.GetQuickButtons(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quick buttons: %w", err)
	}
	buttons := []string{}
	if err := json.Unmarshal([]byte(raw), &buttons); err != nil {
		return nil, fmt.Errorf("decode quick buttons of user %d: %w", userID, err)
	}
	return buttons, nil
}

// SetQuickButtons replaces the user's entry shortcuts.
func (r *SQLiteRepository) SetQuickButtons(ctx context.Context, userID int64, buttons []string) error {
	if buttons == nil {
		buttons = []string{}
	}
	raw, err := json.Marshal(buttons)
	if err != nil {
		return fmt.Errorf("encode quick buttons: %w", err)
	}
	if err := r.queries.UpsertQuickButtons(ctx, userID, string(raw)); err != nil {
		return fmt.Errorf("set quick buttons: %w", err)
	}
	return nil
}

func subscriptionsToCore(rows []Subscription) ([]core.Subscription, error) {
	out := make([]core.Subscription, 0, len(rows))
	for _, row := range rows {
		s, err := subscriptionToCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func subscriptionToCore(row Subscription) (core.Subscription, error) {
	next, err := core.ParseDay(row.NextDate)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("parse next_date of subscription %d: %w", row.ID, err)
	}
	return core.Subscription{
		ID:       row.ID,
		UserID:   row.UserID,
		Name:     row.Name,
		Amount:   row.Amount,
		Currency: row.Currency,
		Period:   core.Frequency(row.Period),
		NextDate: next,
	}, nil
}
