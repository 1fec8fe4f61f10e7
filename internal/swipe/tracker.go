package swipe

import (
	"math"
	"sync"
)

// State is the phase of a row's swipe gesture.
type State int

const (
	Idle State = iota
	Dragging
	Revealed
	Closing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Revealed:
		return "revealed"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// Snapshot is the visual state of a row at one instant.
type Snapshot struct {
	RowID string
	State State
	// Offset is the horizontal translation of the row, in [-MaxReveal, 0].
	Offset float64
	// BackgroundVisible reports whether the action surface shows.
	BackgroundVisible bool
}

// ChangeFunc observes state transitions. It is called without any
// tracker or registry lock held.
type ChangeFunc func(from, to State, snap Snapshot)

// Tracker follows the pointer over one list row.
//
// Every pointer-down starts a new measurement: the drag distance is
// always computed from the current gesture's own start point, so
// re-dragging a revealed row behaves exactly like dragging an idle one.
type Tracker struct {
	mu sync.Mutex

	rowID     string
	opts      Options
	feedback  Feedback
	scheduler Scheduler
	onChange  ChangeFunc
	registry  *Registry

	state      State
	active     bool
	startX     float64
	currentX   float64
	offset     float64
	background bool
	closeTimer Timer
	gen        uint64
	destroyed  bool
}

// NewTracker creates a standalone tracker. Zero values in cfg fall back
// to DefaultOptions, NopFeedback and SystemScheduler.
func NewTracker(rowID string, cfg Config) *Tracker {
	cfg = cfg.withDefaults()
	return &Tracker{
		rowID:     rowID,
		opts:      cfg.Options,
		feedback:  cfg.Feedback,
		scheduler: cfg.Scheduler,
		onChange:  cfg.OnChange,
	}
}

// RowID returns the identifier of the row the tracker belongs to.
func (t *Tracker) RowID() string {
	return t.rowID
}

// State returns the current gesture phase.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Snapshot returns the current visual state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Registry returns the registry the tracker belongs to, or nil.
func (t *Tracker) Registry() *Registry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registry
}

// Destroyed reports whether the tracker's row has been removed.
func (t *Tracker) Destroyed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyed
}

// PointerDown starts a gesture at horizontal position x.
func (t *Tracker) PointerDown(x float64) {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	from := t.state
	if from == Closing {
		// The snap-back is abandoned; the row is already heading to 0.
		t.background = false
	}
	t.stopCloseLocked()
	t.active = true
	t.startX = x
	t.currentX = x
	t.state = Dragging
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(from, Dragging, snap)
}

// PointerMove updates the gesture with the pointer's new position.
// Moves without a preceding PointerDown are ignored.
func (t *Tracker) PointerMove(x float64) {
	t.mu.Lock()
	if t.destroyed || !t.active {
		t.mu.Unlock()
		return
	}
	t.currentX = x
	delta := t.startX - t.currentX

	pulse := false
	if delta > 0 {
		t.offset = -math.Min(delta, t.opts.MaxReveal)
		if -t.offset > t.opts.VisibilityThreshold && !t.background {
			t.background = true
			pulse = true
		}
	}
	t.mu.Unlock()

	if pulse {
		t.feedback.Impact(ImpactLight)
	}
}

// PointerUp ends the gesture and either snaps the row open or starts
// closing it.
func (t *Tracker) PointerUp() {
	t.release()
}

// PointerCancel ends the gesture exactly like PointerUp.
func (t *Tracker) PointerCancel() {
	t.release()
}

func (t *Tracker) release() {
	t.mu.Lock()
	if t.destroyed || !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	delta := t.startX - t.currentX

	if delta > t.opts.RevealThreshold {
		t.state = Revealed
		t.offset = -t.opts.MaxReveal
		t.background = true
		snap := t.snapshotLocked()
		reg := t.registry
		t.mu.Unlock()

		t.notify(Dragging, Revealed, snap)
		t.feedback.Impact(ImpactMedium)
		if reg != nil {
			reg.CloseAllExcept(t)
		}
		return
	}

	to := t.beginCloseLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(Dragging, Closing, snap)
	if to == Idle {
		t.notify(Closing, Idle, snap)
	}
}

// Close collapses a revealed row. Rows that are idle, already closing,
// or under an active drag are left alone.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.destroyed || t.state != Revealed {
		t.mu.Unlock()
		return
	}
	to := t.beginCloseLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(Revealed, Closing, snap)
	if to == Idle {
		t.notify(Closing, Idle, snap)
	}
}

// Destroy detaches the tracker from its row. Every later call is a no-op.
func (t *Tracker) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	t.stopCloseLocked()
	t.destroyed = true
	t.active = false
	t.registry = nil
}

// beginCloseLocked moves the row to Closing and schedules the end of the
// animation. With a zero CloseDuration the row lands in Idle at once and
// Idle is returned.
func (t *Tracker) beginCloseLocked() State {
	t.stopCloseLocked()
	t.offset = 0

	if t.opts.CloseDuration <= 0 {
		t.state = Idle
		t.background = false
		return Idle
	}

	t.state = Closing
	gen := t.gen
	t.closeTimer = t.scheduler.AfterFunc(t.opts.CloseDuration, func() {
		t.finishClose(gen)
	})
	return Closing
}

func (t *Tracker) finishClose(gen uint64) {
	t.mu.Lock()
	if t.destroyed || gen != t.gen || t.state != Closing {
		t.mu.Unlock()
		return
	}
	t.state = Idle
	t.background = false
	t.closeTimer = nil
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(Closing, Idle, snap)
}

// stopCloseLocked cancels a pending animation; the generation bump
// invalidates a callback that already fired but has not run yet.
func (t *Tracker) stopCloseLocked() {
	t.gen++
	if t.closeTimer != nil {
		t.closeTimer.Stop()
		t.closeTimer = nil
	}
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		RowID:             t.rowID,
		State:             t.state,
		Offset:            t.offset,
		BackgroundVisible: t.background,
	}
}

func (t *Tracker) notify(from, to State, snap Snapshot) {
	if from == to || t.onChange == nil {
		return
	}
	snap.State = to
	t.onChange(from, to, snap)
}

func (t *Tracker) attach(r *Registry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed || (t.registry != nil && t.registry != r) {
		return false
	}
	t.registry = r
	return true
}
