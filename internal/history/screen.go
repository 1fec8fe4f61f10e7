package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/swipe"
)

// PreviewLimit is how many rows the home screen preview shows.
const PreviewLimit = 5

var ErrUnknownRow = errors.New("row is not rendered")

// Config wires a Screen.
type Config struct {
	Source    Source
	Deleter   swipe.Deleter
	Options   swipe.Options
	Feedback  swipe.Feedback
	Scheduler swipe.Scheduler
	Logger    *slog.Logger
	// OnChange observes tracker transitions in both lists.
	OnChange swipe.ChangeFunc
	// OnRender runs after every successful load.
	OnRender func()
}

// Screen owns the preview and full history lists and the delete
// dispatcher they share.
type Screen struct {
	source     Source
	dispatcher *swipe.Dispatcher
	logger     *slog.Logger
	onRender   func()

	Preview *View
	Full    *View

	mu     sync.Mutex
	period core.Period
}

func NewScreen(cfg Config) *Screen {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	swipeCfg := swipe.Config{
		Options:   cfg.Options,
		Feedback:  cfg.Feedback,
		Scheduler: cfg.Scheduler,
		Logger:    logger,
		OnChange:  cfg.OnChange,
	}

	s := &Screen{
		source:   cfg.Source,
		logger:   logger.With(applog.FieldComponent, applog.ComponentHistory),
		onRender: cfg.OnRender,
		Preview:  NewView("preview", PreviewLimit, swipeCfg),
		Full:     NewView("full", 0, swipeCfg),
		period:   core.PeriodAll,
	}
	s.dispatcher = swipe.NewDispatcher(swipe.DispatcherConfig{
		Deleter:  cfg.Deleter,
		Feedback: cfg.Feedback,
		Logger:   logger,
		OnDeleted: func(ctx context.Context, rowID string) {
			// The record may be shown in both lists; neither keeps it
			// even when the reload below fails.
			s.CloseAll()
			s.Preview.Remove(rowID)
			s.Full.Remove(rowID)
			if err := s.Load(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Failed to reload after delete",
					applog.FieldRowID, rowID,
					applog.FieldError, err)
			}
		},
	})
	return s
}

// Period returns the active period filter.
func (s *Screen) Period() core.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Load fetches the active period and re-renders both lists.
func (s *Screen) Load(ctx context.Context) error {
	period := s.Period()
	records, err := s.source.Transactions(ctx, period)
	if err != nil {
		return fmt.Errorf("load %s history: %w", period, err)
	}
	if err := s.Preview.Render(records); err != nil {
		return err
	}
	if err := s.Full.Render(records); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "History rendered",
		applog.FieldPeriod, period,
		applog.FieldRows, len(records))
	if s.onRender != nil {
		s.onRender()
	}
	return nil
}

// SetPeriod collapses every row, switches the filter and reloads.
func (s *Screen) SetPeriod(ctx context.Context, period core.Period) error {
	s.CloseAll()
	s.mu.Lock()
	s.period = period
	s.mu.Unlock()
	return s.Load(ctx)
}

// Navigate collapses every row before the screen changes.
func (s *Screen) Navigate() {
	s.CloseAll()
}

// CloseAll collapses revealed rows in both lists.
func (s *Screen) CloseAll() {
	s.Preview.Registry().CloseAll()
	s.Full.Registry().CloseAll()
}

// CloseAllExcept collapses revealed rows in both lists other than keep.
func (s *Screen) CloseAllExcept(keep *swipe.Tracker) {
	s.Preview.Registry().CloseAllExcept(keep)
	s.Full.Registry().CloseAllExcept(keep)
}

// Delete commits the revealed row rowID of view. On success the lists
// are reloaded before Delete returns.
func (s *Screen) Delete(ctx context.Context, view *View, rowID string) error {
	row, ok := view.Row(rowID)
	if !ok {
		return fmt.Errorf("delete %s from %s: %w", rowID, view.Name(), ErrUnknownRow)
	}
	return s.dispatcher.Commit(ctx, row.Tracker)
}

// DeleteAsync is Delete on its own goroutine. The channel receives
// exactly one result.
func (s *Screen) DeleteAsync(ctx context.Context, view *View, rowID string) <-chan error {
	row, ok := view.Row(rowID)
	if !ok {
		done := make(chan error, 1)
		done <- fmt.Errorf("delete %s from %s: %w", rowID, view.Name(), ErrUnknownRow)
		return done
	}
	return s.dispatcher.CommitAsync(ctx, row.Tracker)
}

// Close destroys both lists' trackers.
func (s *Screen) Close() {
	s.Preview.Teardown()
	s.Full.Teardown()
}
