package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/sheets"
)

// HistoryReader is the storage the worker reads from;
// storage.SQLiteRepository satisfies it.
type HistoryReader interface {
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	Currency(ctx context.Context, userID int64) (string, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// Consumer delivers transaction events; *amqp.Client satisfies it.
type Consumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler amqp.EventHandler) error
}

// MirrorWorker keeps each user's Google Sheet in line with storage. Every
// event rewrites the whole history of the user it names, so lost or
// reordered events heal on the next one.
type MirrorWorker struct {
	storage     HistoryReader
	writer      sheets.HistoryWriter
	concurrency int
}

func NewMirrorWorker(storage HistoryReader, writer sheets.HistoryWriter, concurrency int) *MirrorWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &MirrorWorker{
		storage:     storage,
		writer:      writer,
		concurrency: concurrency,
	}
}

// HandleTransactionEvent processes a single event from AMQP.
func (w *MirrorWorker) HandleTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldEvent, ev.Event,
		applog.FieldUserID, ev.UserID,
		applog.FieldTransactionID, ev.TransactionID)

	if err := w.SyncUser(ctx, ev.UserID); err != nil {
		return fmt.Errorf("handle %s: %w", ev.Event, err)
	}
	return nil
}

// SyncUser rewrites the user's sheet from storage. Each call reads
// storage afresh, so a write never carries a snapshot older than the call.
func (w *MirrorWorker) SyncUser(ctx context.Context, userID int64) error {
	records, err := w.storage.ListTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("list transactions for user %d: %w", userID, err)
	}
	currency, err := w.storage.Currency(ctx, userID)
	if err != nil {
		return fmt.Errorf("load currency for user %d: %w", userID, err)
	}
	if err := w.writer.WriteHistory(ctx, userID, currency, records); err != nil {
		return fmt.Errorf("write history for user %d: %w", userID, err)
	}
	return nil
}

// StartupSync mirrors every known user once. It recovers from events
// lost while the worker was down. Failures are logged and counted; the
// sync carries on with the remaining users.
func (w *MirrorWorker) StartupSync(ctx context.Context) error {
	users, err := w.storage.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users for startup sync: %w", err)
	}
	if len(users) == 0 {
		slog.InfoContext(ctx, "No users to mirror on startup", applog.FieldComponent, applog.ComponentWorker)
		return nil
	}

	start := time.Now()
	errs := make([]error, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, userID := range users {
		g.Go(func() error {
			errs[i] = w.SyncUser(gctx, userID)
			if errs[i] != nil {
				slog.ErrorContext(gctx, "Failed to mirror user during startup",
					applog.FieldComponent, applog.ComponentWorker,
					applog.FieldUserID, userID,
					applog.FieldError, errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	slog.InfoContext(ctx, "Startup sync completed",
		applog.FieldComponent, applog.ComponentWorker,
		"total", len(users),
		"synced", len(users)-failed,
		"errors", failed,
		applog.FieldDuration, time.Since(start).Milliseconds())

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Run performs the startup sync, then consumes events until ctx ends.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	if err := w.StartupSync(ctx); err != nil {
		return err
	}
	return consumer.ConsumeTransactionEvents(ctx, w.HandleTransactionEvent)
}
