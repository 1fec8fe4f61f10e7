package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	applog "ledger/internal/log"
)

// Store is the persistence the service needs; storage.SQLiteRepository and
// memory.Store both satisfy it.
type Store interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	Currency(ctx context.Context, userID int64) (string, error)
	Close() error
}

// Publisher announces history changes; *amqp.Client satisfies it.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
	Close() error
}

// InputError is a request problem the caller can fix. Its message is safe
// to show to the user.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputError(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// CreateRequest is a free-text entry such as "такси 450".
type CreateRequest struct {
	Text string
	Type string
	Date string
}

// TransactionService orchestrates history operations across the store,
// the stats cache and the event publisher.
type TransactionService struct {
	store     Store
	publisher Publisher
	stats     cache.Cache[core.Stats]
	now       func() time.Time
}

// NewTransactionService wires the service. publisher and stats may be nil.
func NewTransactionService(store Store, publisher Publisher, stats cache.Cache[core.Stats]) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		stats:     stats,
		now:       time.Now,
	}
}

// Create parses the entry text, stores the transaction and publishes
// transaction.created.
func (s *TransactionService) Create(ctx context.Context, userID int64, req CreateRequest) (core.Transaction, error) {
	text := strings.TrimSpace(req.Text)

	amount, err := core.ExtractAmount(text)
	switch {
	case errors.Is(err, core.ErrAmountNotFound):
		return core.Transaction{}, inputError("Amount not found")
	case err != nil:
		return core.Transaction{}, inputError("Amount must be between 1 and %d", core.MaxAmount)
	}

	forced := core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type)))
	if forced != "" && !forced.IsValid() {
		return core.Transaction{}, inputError("type must be income or expense")
	}
	kind, category := core.Categorize(text, forced)

	t := core.Transaction{
		UserID:      userID,
		Description: text,
		Amount:      amount,
		Type:        kind,
		Category:    category,
		CreatedAt:   s.now().UTC(),
	}
	if req.Date != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			return core.Transaction{}, inputError("%s", err.Error())
		}
		t.CreatedAt = d
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, inputError("%s", err.Error())
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.invalidate(userID)
	s.publish(ctx, amqp.EventTransactionCreated, userID, saved.ID)

	slog.InfoContext(ctx, "Transaction created",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithUser(userID).
			WithTransaction(saved.ID, saved.Amount, saved.Category, string(saved.Type)).
			ToSlice()...)
	return saved, nil
}

// Delete removes the user's transaction. The error wraps
// storage.ErrNotFound when it does not exist or belongs to someone else.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if id <= 0 {
		return inputError("Missing id")
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.invalidate(userID)
	s.publish(ctx, amqp.EventTransactionDeleted, userID, id)

	slog.InfoContext(ctx, "Transaction deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldUserID, userID,
		applog.FieldTransactionID, id)
	return nil
}

// Stats summarises the user's history for the period, from cache when a
// fresh entry exists.
func (s *TransactionService) Stats(ctx context.Context, userID int64, period core.Period) (core.Stats, error) {
	key := statsKey(userID, period)
	if s.stats != nil {
		if cached, ok := s.stats.Get(key); ok {
			return cached, nil
		}
	}

	records, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return core.Stats{}, fmt.Errorf("list transactions: %w", err)
	}
	currency, err := s.store.Currency(ctx, userID)
	if err != nil {
		return core.Stats{}, fmt.Errorf("load currency: %w", err)
	}

	stats := core.Summarize(records, currency, period, s.now())
	if s.stats != nil {
		s.stats.Set(key, stats)
	}
	return stats, nil
}

// History returns the user's full history, newest first.
func (s *TransactionService) History(ctx context.Context, userID int64) ([]core.Transaction, error) {
	records, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return records, nil
}

func (s *TransactionService) publish(ctx context.Context, event string, userID, id int64) {
	publishEvent(ctx, s.publisher, event, userID, id)
}

func publishEvent(ctx context.Context, publisher Publisher, event string, userID, id int64) {
	if publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping event", applog.FieldEvent, event)
		return
	}
	// The write already succeeded; a lost event only delays the mirror.
	if err := publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(event, userID, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldEvent, event,
			applog.FieldTransactionID, id,
			applog.FieldError, err)
	}
}

func (s *TransactionService) invalidate(userID int64) {
	if s.stats != nil {
		s.stats.DeletePrefix(statsPrefix(userID))
	}
}

func statsPrefix(userID int64) string {
	return "stats:" + strconv.FormatInt(userID, 10) + ":"
}

func statsKey(userID int64, period core.Period) string {
	return statsPrefix(userID) + string(period)
}

// Close closes the store and the publisher.
func (s *TransactionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}
	return nil
}
