package tui

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"ledger/internal/core"
	"ledger/internal/history"
	"ledger/internal/swipe"
)

type cell struct {
	r     rune
	style tcell.Style
}

// fakeCanvas records what was drawn and replays queued events.
type fakeCanvas struct {
	mu     sync.Mutex
	width  int
	height int
	cells  map[[2]int]cell
	beeps  int
	shows  int
	events chan tcell.Event
}

func newFakeCanvas(width, height int) *fakeCanvas {
	return &fakeCanvas{
		width:  width,
		height: height,
		cells:  make(map[[2]int]cell),
		events: make(chan tcell.Event, 16),
	}
}

func (c *fakeCanvas) Size() (int, int) { return c.width, c.height }

func (c *fakeCanvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cells = make(map[[2]int]cell)
}

func (c *fakeCanvas) SetContent(x, y int, primary rune, _ []rune, style tcell.Style) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cells[[2]int{x, y}] = cell{r: primary, style: style}
}

func (c *fakeCanvas) Show() {
	c.mu.Lock()
	c.shows++
	c.mu.Unlock()
}

func (c *fakeCanvas) Beep() error {
	c.mu.Lock()
	c.beeps++
	c.mu.Unlock()
	return nil
}

func (c *fakeCanvas) PollEvent() tcell.Event {
	ev, ok := <-c.events
	if !ok {
		return nil
	}
	return ev
}

// line returns row y as text, trailing blanks included.
func (c *fakeCanvas) line(y int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]rune, 0, c.width)
	for x := 0; x < c.width; x++ {
		cl, ok := c.cells[[2]int{x, y}]
		if !ok || cl.r == 0 {
			out = append(out, ' ')
			continue
		}
		out = append(out, cl.r)
	}
	return string(out)
}

func (c *fakeCanvas) at(x, y int) cell {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cells[[2]int{x, y}]
}

func (c *fakeCanvas) beepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beeps
}

func records(n int) []core.Transaction {
	out := make([]core.Transaction, n)
	for i := range out {
		id := n - i
		out[i] = core.Transaction{
			ID:          int64(id),
			Description: fmt.Sprintf("обед %d", id),
			Amount:      int64(250 * id),
			Type:        core.Expense,
			Category:    core.CategoryFood,
			CreatedAt:   time.Date(2025, 3, 15, 12, id, 0, 0, time.UTC),
		}
	}
	return out
}

// instantOptions closes rows without an animation so tests need no clock.
func instantOptions() swipe.Options {
	o := swipe.DefaultOptions()
	o.CloseDuration = 0
	o.ScrollQuietPeriod = 0
	return o
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		typ    core.TransactionType
		amount int64
		want   string
	}{
		{core.Income, 5000, "+5 000"},
		{core.Expense, 300, "-300"},
		{core.Expense, 1234567, "-1 234 567"},
		{core.Income, 10_000_000, "+10 000 000"},
	}
	for _, tt := range tests {
		got := formatAmount(core.Transaction{Type: tt.typ, Amount: tt.amount})
		if got != tt.want {
			t.Errorf("formatAmount(%s %d) = %q, want %q", tt.typ, tt.amount, got, tt.want)
		}
	}
}

func TestRowTextFillsWidth(t *testing.T) {
	tx := core.Transaction{
		ID:          1,
		Description: "очень длинное описание обеда в столовой у работы",
		Amount:      450,
		Type:        core.Expense,
		Category:    "Транспортные расходы",
		CreatedAt:   time.Date(2025, 3, 15, 9, 5, 0, 0, time.UTC),
	}

	for _, width := range []int{80, 50, 20, 1} {
		got := rowText(tx, width)
		if w := runewidth.StringWidth(got); w != width {
			t.Errorf("width %d: got %d columns: %q", width, w, got)
		}
	}
	if got := rowText(tx, 0); got != "" {
		t.Errorf("width 0: got %q", got)
	}

	wide := rowText(tx, 80)
	if wide[:11] != "15.03 09:05" {
		t.Errorf("unexpected date prefix: %q", wide)
	}
	for _, want := range []string{"Транспорт…", "-450", "очень"} {
		if !strings.Contains(wide, want) {
			t.Errorf("row %q missing %q", wide, want)
		}
	}
}

func TestCellGeometry(t *testing.T) {
	if got := offsetCells(0); got != 0 {
		t.Errorf("offsetCells(0) = %d", got)
	}
	if got := offsetCells(-90); got != 11 {
		t.Errorf("offsetCells(-90) = %d, want 11", got)
	}
	if got := offsetCells(-4); got != 1 {
		t.Errorf("offsetCells(-4) = %d, want 1", got)
	}
	if got := revealCells(swipe.DefaultOptions()); got != 12 {
		t.Errorf("revealCells = %d, want 12", got)
	}
	if got := pointerX(10); got != 80 {
		t.Errorf("pointerX(10) = %v", got)
	}
}

func TestDrawRowRevealed(t *testing.T) {
	reg := swipe.NewRegistry(swipe.Config{Options: instantOptions()})
	tr, err := reg.Track("1")
	if err != nil {
		t.Fatal(err)
	}
	row := history.Row{Transaction: records(1)[0], Tracker: tr}
	canvas := newFakeCanvas(40, 3)

	drawRow(canvas, 0, 40, row)
	if got := canvas.line(0); got != rowText(row.Transaction, 40) {
		t.Fatalf("idle row drawn as %q", got)
	}

	tr.PointerDown(200)
	tr.PointerMove(100)
	tr.PointerUp()
	if tr.State() != swipe.Revealed {
		t.Fatalf("row not revealed: %s", tr.State())
	}

	canvas.Clear()
	drawRow(canvas, 0, 40, row)
	line := []rune(canvas.line(0))
	if got := string(line[31:38]); got != deleteLabel {
		t.Fatalf("delete label not drawn: %q", string(line))
	}
	if canvas.at(29, 0).style != styleDanger {
		t.Error("uncovered columns should use the danger style")
	}
	if canvas.at(28, 0).style == styleDanger {
		t.Error("row content should not use the danger style")
	}
	want := []rune(rowText(row.Transaction, 40))[11:22]
	if got := string(line[:11]); got != string(want) {
		t.Errorf("row content not shifted: %q", string(line))
	}
}

func TestDrawRowNarrowSurfaceUsesMark(t *testing.T) {
	opts := instantOptions()
	opts.MaxReveal = 40
	opts.RevealThreshold = 30
	reg := swipe.NewRegistry(swipe.Config{Options: opts})
	tr, _ := reg.Track("1")
	tr.PointerDown(200)
	tr.PointerMove(100)
	tr.PointerUp()

	canvas := newFakeCanvas(30, 1)
	drawRow(canvas, 0, 30, history.Row{Transaction: records(1)[0], Tracker: tr})
	if got := canvas.at(27, 0).r; got != '✕' {
		t.Fatalf("expected the close mark, got %q in %q", got, canvas.line(0))
	}
}
