package swipe

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	applog "ledger/internal/log"
)

var (
	ErrEmptyRowID   = errors.New("empty row id")
	ErrDuplicateRow = errors.New("duplicate row id")
	ErrForeignRow   = errors.New("tracker belongs to another registry")
)

// Config wires a registry and the trackers it creates.
type Config struct {
	Options   Options
	Feedback  Feedback
	Scheduler Scheduler
	Logger    *slog.Logger
	// OnChange observes every tracker state transition.
	OnChange ChangeFunc
}

func (c Config) withDefaults() Config {
	if c.Options == (Options{}) {
		c.Options = DefaultOptions()
	}
	c.Feedback = newSafeFeedback(c.Feedback)
	if c.Scheduler == nil {
		c.Scheduler = SystemScheduler
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Registry holds the live trackers of one rendered list. Independent
// lists each get their own registry.
type Registry struct {
	mu       sync.Mutex
	cfg      Config
	logger   *slog.Logger
	trackers []*Tracker
	byRow    map[string]*Tracker

	scrollTimer Timer
	scrollGen   uint64
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	cfg = cfg.withDefaults()
	return &Registry{
		cfg:    cfg,
		logger: cfg.Logger.With(applog.FieldComponent, applog.ComponentSwipe),
		byRow:  make(map[string]*Tracker),
	}
}

// Options returns the gesture geometry shared by the registry's trackers.
func (r *Registry) Options() Options {
	return r.cfg.Options
}

// Track creates a tracker for rowID and registers it.
func (r *Registry) Track(rowID string) (*Tracker, error) {
	t := NewTracker(rowID, r.cfg)
	if err := r.Register(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Register adds a tracker created with NewTracker.
func (r *Registry) Register(t *Tracker) error {
	if t.rowID == "" {
		return ErrEmptyRowID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byRow[t.rowID]; exists {
		return fmt.Errorf("register row %s: %w", t.rowID, ErrDuplicateRow)
	}
	if !t.attach(r) {
		return fmt.Errorf("register row %s: %w", t.rowID, ErrForeignRow)
	}
	r.trackers = append(r.trackers, t)
	r.byRow[t.rowID] = t
	return nil
}

// Rebuild replaces every tracker with a fresh one per row id, in order.
// The registry is left untouched when rowIDs contains an empty or
// repeated id.
func (r *Registry) Rebuild(rowIDs []string) ([]*Tracker, error) {
	seen := make(map[string]struct{}, len(rowIDs))
	for _, id := range rowIDs {
		if id == "" {
			return nil, ErrEmptyRowID
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("rebuild row %s: %w", id, ErrDuplicateRow)
		}
		seen[id] = struct{}{}
	}

	created := make([]*Tracker, len(rowIDs))
	byRow := make(map[string]*Tracker, len(rowIDs))
	for i, id := range rowIDs {
		t := NewTracker(id, r.cfg)
		t.registry = r
		created[i] = t
		byRow[id] = t
	}

	r.mu.Lock()
	old := r.trackers
	r.trackers = append([]*Tracker(nil), created...)
	r.byRow = byRow
	r.mu.Unlock()

	for _, t := range old {
		t.Destroy()
	}

	r.logger.Debug("Registry rebuilt", "rows", len(created), "destroyed", len(old))
	return created, nil
}

// Lookup returns the tracker for rowID.
func (r *Registry) Lookup(rowID string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byRow[rowID]
	return t, ok
}

// Remove destroys the tracker for rowID. Unknown rows are ignored.
func (r *Registry) Remove(rowID string) bool {
	r.mu.Lock()
	t, ok := r.byRow[rowID]
	if ok {
		delete(r.byRow, rowID)
		for i, cur := range r.trackers {
			if cur == t {
				r.trackers = append(r.trackers[:i], r.trackers[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if ok {
		t.Destroy()
	}
	return ok
}

// Len returns the number of live trackers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

// Trackers returns the live trackers in registration order.
func (r *Registry) Trackers() []*Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Tracker(nil), r.trackers...)
}

// Revealed returns the trackers currently snapped open.
func (r *Registry) Revealed() []*Tracker {
	var out []*Tracker
	for _, t := range r.Trackers() {
		if t.State() == Revealed {
			out = append(out, t)
		}
	}
	return out
}

// CloseAll collapses every revealed row. It never fails and calling it
// again has no further effect.
func (r *Registry) CloseAll() {
	for _, t := range r.Trackers() {
		t.Close()
	}
}

// CloseAllExcept collapses every revealed row other than keep.
func (r *Registry) CloseAllExcept(keep *Tracker) {
	for _, t := range r.Trackers() {
		if t != keep {
			t.Close()
		}
	}
}

// NotifyScroll records scroll activity. Once the list has been quiet for
// ScrollQuietPeriod every revealed row is closed.
func (r *Registry) NotifyScroll() {
	r.mu.Lock()
	if r.scrollTimer != nil {
		r.scrollTimer.Stop()
	}
	r.scrollGen++
	gen := r.scrollGen
	quiet := r.cfg.Options.ScrollQuietPeriod
	if quiet <= 0 {
		r.scrollTimer = nil
		r.mu.Unlock()
		r.CloseAll()
		return
	}
	r.scrollTimer = r.cfg.Scheduler.AfterFunc(quiet, func() {
		r.scrollSettled(gen)
	})
	r.mu.Unlock()
}

func (r *Registry) scrollSettled(gen uint64) {
	r.mu.Lock()
	if gen != r.scrollGen {
		r.mu.Unlock()
		return
	}
	r.scrollTimer = nil
	r.mu.Unlock()

	r.logger.Debug("Scroll settled, closing rows")
	r.CloseAll()
}

// Reset destroys every tracker and cancels a pending scroll close.
func (r *Registry) Reset() {
	r.mu.Lock()
	old := r.trackers
	r.trackers = nil
	r.byRow = make(map[string]*Tracker)
	r.scrollGen++
	if r.scrollTimer != nil {
		r.scrollTimer.Stop()
		r.scrollTimer = nil
	}
	r.mu.Unlock()

	for _, t := range old {
		t.Destroy()
	}
}
