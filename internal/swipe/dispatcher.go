package swipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	applog "ledger/internal/log"
)

var ErrNotRevealed = errors.New("row is not revealed")

// Deleter removes a row's record, usually over the network.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// DeleterFunc adapts a function to Deleter.
type DeleterFunc func(ctx context.Context, id string) error

func (f DeleterFunc) Delete(ctx context.Context, id string) error {
	return f(ctx, id)
}

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Deleter  Deleter
	Feedback Feedback
	Logger   *slog.Logger
	// OnDeleted runs after a successful delete; the list owner reloads
	// and re-renders from it.
	OnDeleted func(ctx context.Context, rowID string)
}

// Dispatcher commits the delete action of a revealed row.
type Dispatcher struct {
	deleter   Deleter
	feedback  Feedback
	logger    *slog.Logger
	onDeleted func(ctx context.Context, rowID string)
	inflight  singleflight.Group
}

// NewDispatcher creates a dispatcher around cfg.Deleter.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		deleter:   cfg.Deleter,
		feedback:  newSafeFeedback(cfg.Feedback),
		logger:    logger.With(applog.FieldComponent, applog.ComponentSwipe),
		onDeleted: cfg.OnDeleted,
	}
}

// Commit deletes the record behind a revealed row.
//
// On success the row's tracker is removed from its registry, the other
// rows are closed and OnDeleted runs. On failure the tracker is left
// exactly as it was so the user can retry or dismiss it. Concurrent
// commits of the same row share a single delete call.
func (d *Dispatcher) Commit(ctx context.Context, t *Tracker) error {
	snap := t.Snapshot()
	if snap.RowID == "" {
		return ErrEmptyRowID
	}
	if snap.State != Revealed || t.Destroyed() {
		return fmt.Errorf("commit row %s (%s): %w", snap.RowID, snap.State, ErrNotRevealed)
	}
	if d.deleter == nil {
		return errors.New("no deleter configured")
	}

	d.feedback.Impact(ImpactHeavy)

	_, err, _ := d.inflight.Do(snap.RowID, func() (any, error) {
		if err := d.deleter.Delete(ctx, snap.RowID); err != nil {
			d.feedback.Notify(NotificationError)
			d.logger.ErrorContext(ctx, "Failed to delete row",
				applog.FieldRowID, snap.RowID,
				applog.FieldOperation, applog.OpDelete,
				applog.FieldError, err)
			return nil, err
		}
		d.deleted(ctx, t, snap.RowID)
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("delete row %s: %w", snap.RowID, err)
	}
	return nil
}

func (d *Dispatcher) deleted(ctx context.Context, t *Tracker, rowID string) {
	d.feedback.Notify(NotificationSuccess)
	d.logger.InfoContext(ctx, "Row deleted",
		applog.FieldRowID, rowID,
		applog.FieldOperation, applog.OpDelete)

	if reg := t.Registry(); reg != nil {
		reg.Remove(rowID)
		reg.CloseAll()
	} else {
		t.Destroy()
	}

	if d.onDeleted != nil {
		d.onDeleted(ctx, rowID)
	}
}

// CommitAsync runs Commit on its own goroutine so other rows stay
// interactive. The channel receives exactly one result.
func (d *Dispatcher) CommitAsync(ctx context.Context, t *Tracker) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- d.Commit(ctx, t)
	}()
	return done
}
