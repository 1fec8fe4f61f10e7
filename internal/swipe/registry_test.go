package swipe

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRegistry_OpeningOneRowClosesTheOther(t *testing.T) {
	reg, sched, _ := newTestRegistry()
	a, _ := reg.Track("a")
	b, _ := reg.Track("b")

	drag(a, 200, 100)
	if got := a.State(); got != Revealed {
		t.Fatalf("row a = %v, want revealed", got)
	}

	drag(b, 200, 100)
	if got := b.State(); got != Revealed {
		t.Fatalf("row b = %v, want revealed", got)
	}
	if got := a.State(); got != Closing {
		t.Fatalf("row a = %v, want closing", got)
	}
	sched.Advance(300 * time.Millisecond)
	if snap := a.Snapshot(); snap.State != Idle || snap.Offset != 0 {
		t.Fatalf("row a = %+v, want idle", snap)
	}
	if got := len(reg.Revealed()); got != 1 {
		t.Fatalf("revealed rows = %d, want 1", got)
	}
}

func TestRegistry_AtMostOneRevealed(t *testing.T) {
	reg, sched, _ := newTestRegistry()
	var rows []*Tracker
	for i := 0; i < 6; i++ {
		tr, err := reg.Track(fmt.Sprint(i))
		if err != nil {
			t.Fatalf("track: %v", err)
		}
		rows = append(rows, tr)
	}

	sequence := []int{0, 3, 3, 1, 5, 2, 0, 4}
	for step, i := range sequence {
		drag(rows[i], 300, 150)
		if got := len(reg.Revealed()); got > 1 {
			t.Fatalf("step %d: %d rows revealed", step, got)
		}
		sched.Advance(50 * time.Millisecond)
		if got := len(reg.Revealed()); got > 1 {
			t.Fatalf("step %d after tick: %d rows revealed", step, got)
		}
	}
}

func TestRegistry_CloseAllIsIdempotent(t *testing.T) {
	reg, sched, _ := newTestRegistry()
	a, _ := reg.Track("a")
	b, _ := reg.Track("b")
	drag(a, 200, 100)

	reg.CloseAll()
	first := []Snapshot{a.Snapshot(), b.Snapshot()}
	pending := sched.Pending()
	reg.CloseAll()
	second := []Snapshot{a.Snapshot(), b.Snapshot()}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d changed on second CloseAll: %+v -> %+v", i, first[i], second[i])
		}
	}
	if sched.Pending() != pending {
		t.Fatalf("second CloseAll scheduled more work: %d -> %d", pending, sched.Pending())
	}

	sched.Advance(300 * time.Millisecond)
	reg.CloseAll()
	if a.State() != Idle || b.State() != Idle {
		t.Fatalf("rows = %v/%v, want idle", a.State(), b.State())
	}
}

func TestRegistry_CloseAllIsReentrant(t *testing.T) {
	sched := &manualScheduler{}
	var reg *Registry
	calls := 0
	reg = NewRegistry(Config{
		Scheduler: sched,
		OnChange: func(_, to State, _ Snapshot) {
			if to == Closing {
				calls++
				reg.CloseAll()
			}
		},
	})
	a, _ := reg.Track("a")
	drag(a, 200, 100)

	reg.CloseAll()
	if got := a.State(); got != Closing {
		t.Fatalf("state = %v, want closing", got)
	}
	if calls != 1 {
		t.Fatalf("closing transitions = %d, want 1", calls)
	}
}

func TestRegistry_CloseAllLeavesActiveDrag(t *testing.T) {
	reg, _, _ := newTestRegistry()
	a, _ := reg.Track("a")
	a.PointerDown(200)
	a.PointerMove(150)

	reg.CloseAll()
	if got := a.State(); got != Dragging {
		t.Fatalf("state = %v, want dragging", got)
	}
}

func TestRegistry_ScrollIsDebounced(t *testing.T) {
	reg, sched, _ := newTestRegistry()
	a, _ := reg.Track("a")
	drag(a, 200, 100)

	for i := 0; i < 5; i++ {
		reg.NotifyScroll()
		sched.Advance(60 * time.Millisecond)
	}
	if got := a.State(); got != Revealed {
		t.Fatalf("state = %v, want revealed while scrolling continues", got)
	}

	sched.Advance(40 * time.Millisecond)
	if got := a.State(); got != Closing {
		t.Fatalf("state = %v, want closing after the quiet period", got)
	}
	sched.Advance(300 * time.Millisecond)
	if got := a.State(); got != Idle {
		t.Fatalf("state = %v, want idle", got)
	}
}

func TestRegistry_TrackRejectsBadIDs(t *testing.T) {
	reg, _, _ := newTestRegistry()
	if _, err := reg.Track(""); !errors.Is(err, ErrEmptyRowID) {
		t.Fatalf("empty id err = %v, want ErrEmptyRowID", err)
	}
	if _, err := reg.Track("a"); err != nil {
		t.Fatalf("track: %v", err)
	}
	if _, err := reg.Track("a"); !errors.Is(err, ErrDuplicateRow) {
		t.Fatalf("duplicate err = %v, want ErrDuplicateRow", err)
	}
}

func TestRegistry_RegisterForeignTracker(t *testing.T) {
	one, _, _ := newTestRegistry()
	two, _, _ := newTestRegistry()
	tr := NewTracker("x", Config{})

	if err := one.Register(tr); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := two.Register(tr); !errors.Is(err, ErrForeignRow) {
		t.Fatalf("err = %v, want ErrForeignRow", err)
	}
	if tr.Registry() != one {
		t.Fatal("tracker moved to the second registry")
	}
}

func TestRegistry_RebuildReplacesTrackers(t *testing.T) {
	reg, _, _ := newTestRegistry()
	old, _ := reg.Track("a")
	drag(old, 200, 100)

	created, err := reg.Rebuild([]string{"c", "b", "a"})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(created) != 3 || reg.Len() != 3 {
		t.Fatalf("created %d, registry holds %d, want 3", len(created), reg.Len())
	}
	for i, id := range []string{"c", "b", "a"} {
		if created[i].RowID() != id {
			t.Fatalf("created[%d] = %s, want %s", i, created[i].RowID(), id)
		}
		if created[i].State() != Idle {
			t.Fatalf("fresh tracker %s not idle", id)
		}
	}
	if !old.Destroyed() {
		t.Fatal("old tracker survived the rebuild")
	}
	if got, _ := reg.Lookup("a"); got == old {
		t.Fatal("lookup returned the destroyed tracker")
	}
}

func TestRegistry_RebuildValidatesFirst(t *testing.T) {
	reg, _, _ := newTestRegistry()
	a, _ := reg.Track("a")

	if _, err := reg.Rebuild([]string{"x", "x"}); !errors.Is(err, ErrDuplicateRow) {
		t.Fatalf("err = %v, want ErrDuplicateRow", err)
	}
	if _, err := reg.Rebuild([]string{"x", ""}); !errors.Is(err, ErrEmptyRowID) {
		t.Fatalf("err = %v, want ErrEmptyRowID", err)
	}
	if a.Destroyed() || reg.Len() != 1 {
		t.Fatal("failed rebuild touched the registry")
	}
}

func TestRegistry_RemoveAndUnknownRows(t *testing.T) {
	reg, _, _ := newTestRegistry()
	a, _ := reg.Track("a")

	if reg.Remove("missing") {
		t.Fatal("removed an unknown row")
	}
	if !reg.Remove("a") {
		t.Fatal("did not remove row a")
	}
	if !a.Destroyed() || reg.Len() != 0 {
		t.Fatal("row a still live")
	}
	a.Close()
	reg.CloseAll()
	reg.CloseAllExcept(a)
}

func TestRegistry_ResetCancelsScroll(t *testing.T) {
	reg, sched, _ := newTestRegistry()
	a, _ := reg.Track("a")
	drag(a, 200, 100)
	reg.NotifyScroll()

	reg.Reset()
	sched.Advance(time.Second)
	if reg.Len() != 0 || !a.Destroyed() {
		t.Fatal("reset left trackers behind")
	}
}

func TestRegistry_IndependentLists(t *testing.T) {
	sched := &manualScheduler{}
	preview := NewRegistry(Config{Scheduler: sched})
	full := NewRegistry(Config{Scheduler: sched})
	p, _ := preview.Track("1")
	f, _ := full.Track("1")

	drag(p, 200, 100)
	drag(f, 200, 100)
	if p.State() != Revealed || f.State() != Revealed {
		t.Fatalf("states = %v/%v, want both revealed", p.State(), f.State())
	}

	full.NotifyScroll()
	sched.Advance(100 * time.Millisecond)
	if p.State() != Revealed {
		t.Fatal("scrolling one list closed a row in another")
	}
}
