package swipe

import (
	"sort"
	"sync"
	"time"
)

// manualScheduler fires callbacks only when Advance moves time past them.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs due callbacks in deadline order,
// outside the scheduler lock.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	var pending []*manualTimer
	for _, t := range s.timers {
		switch {
		case t.stopped:
		case t.at <= s.now:
			t.fired = true
			due = append(due, t)
		default:
			pending = append(pending, t)
		}
	}
	s.timers = pending
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	for _, t := range due {
		t.f()
	}
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type recordedFeedback struct {
	mu      sync.Mutex
	impacts []ImpactStyle
	notes   []NotificationType
}

func (f *recordedFeedback) Impact(style ImpactStyle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.impacts = append(f.impacts, style)
}

func (f *recordedFeedback) Notify(kind NotificationType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, kind)
}

func (f *recordedFeedback) Impacts() []ImpactStyle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ImpactStyle(nil), f.impacts...)
}

func (f *recordedFeedback) Notes() []NotificationType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]NotificationType(nil), f.notes...)
}

func (f *recordedFeedback) count(style ImpactStyle) int {
	n := 0
	for _, s := range f.Impacts() {
		if s == style {
			n++
		}
	}
	return n
}

type panickingFeedback struct{}

func (panickingFeedback) Impact(ImpactStyle)      { panic("impact") }
func (panickingFeedback) Notify(NotificationType) { panic("notify") }

func newTestRegistry() (*Registry, *manualScheduler, *recordedFeedback) {
	sched := &manualScheduler{}
	fb := &recordedFeedback{}
	reg := NewRegistry(Config{
		Options:   DefaultOptions(),
		Feedback:  fb,
		Scheduler: sched,
	})
	return reg, sched, fb
}

// drag performs a full gesture from start to end.
func drag(t *Tracker, start, end float64) {
	t.PointerDown(start)
	t.PointerMove(end)
	t.PointerUp()
}
