package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"ledger/internal/core"
	applog "ledger/internal/log"
)

// SubscriptionStore persists subscriptions; storage.SQLiteRepository and
// memory.Store satisfy it.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
	ListSubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error)
	DeleteSubscription(ctx context.Context, userID, id int64) error
}

// AddSubscriptionRequest is the add form of the subscriptions screen.
// Currency defaults to RUB.
type AddSubscriptionRequest struct {
	Name     string
	Amount   float64
	Currency string
	Date     string
	Period   string
}

type SubscriptionService struct {
	store SubscriptionStore
}

func NewSubscriptionService(store SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{store: store}
}

// Add validates the form and stores the subscription.
func (s *SubscriptionService) Add(ctx context.Context, userID int64, req AddSubscriptionRequest) (core.Subscription, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return core.Subscription{}, inputError("name must be a non-empty string")
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return core.Subscription{}, inputError("amount must be numeric")
	}
	if req.Amount < 0 {
		return core.Subscription{}, inputError("amount must be >= 0")
	}

	currency := core.DefaultCurrency
	if strings.TrimSpace(req.Currency) != "" {
		c, err := core.ParseCurrency(req.Currency)
		if err != nil {
			return core.Subscription{}, inputError("Invalid currency. Allowed: %s", strings.Join(core.AllowedCurrencies, ", "))
		}
		currency = c
	}

	next, err := core.ParseDay(req.Date)
	if err != nil {
		return core.Subscription{}, inputError("date must be in YYYY-MM-DD format")
	}

	period, err := core.ParseFrequency(req.Period)
	if err != nil {
		return core.Subscription{}, inputError("Invalid period. Allowed: %s", strings.Join(core.FrequencyNames(), ", "))
	}

	sub := core.Subscription{
		UserID:   userID,
		Name:     name,
		Amount:   req.Amount,
		Currency: currency,
		Period:   period,
		NextDate: next,
	}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, inputError("%s", err.Error())
	}

	saved, err := s.store.CreateSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	slog.InfoContext(ctx, "Subscription added",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldUserID, userID,
		applog.FieldSubscription, saved.ID,
		applog.FieldPeriod, saved.Period)
	return saved, nil
}

// List returns the user's subscriptions ordered by next payment date.
func (s *SubscriptionService) List(ctx context.Context, userID int64) ([]core.Subscription, error) {
	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if subs == nil {
		subs = []core.Subscription{}
	}
	return subs, nil
}

// Delete removes the user's subscription. The error wraps
// storage.ErrNotFound when it does not exist or belongs to someone else.
func (s *SubscriptionService) Delete(ctx context.Context, userID, id int64) error {
	if id <= 0 {
		return inputError("Missing id")
	}
	if err := s.store.DeleteSubscription(ctx, userID, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	slog.InfoContext(ctx, "Subscription deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldUserID, userID,
		applog.FieldSubscription, id)
	return nil
}
