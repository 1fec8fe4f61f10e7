package tui

import "ledger/internal/history"

const (
	headerLines = 2
	footerLines = 1
)

// placement is a row drawn at screen line y.
type placement struct {
	view *history.View
	row  history.Row
	y    int
}

type layout struct {
	rows       []placement
	previewTop int
	fullTop    int
	scroll     int
}

// computeLayout stacks the preview and the scrolled full list between the
// header and the footer. scroll is clamped to the rows available.
func computeLayout(height int, preview, full *history.View, scroll int) layout {
	var l layout
	y := headerLines
	l.previewTop = y - 1
	for _, r := range preview.Rows() {
		if y >= height-footerLines {
			return l
		}
		l.rows = append(l.rows, placement{view: preview, row: r, y: y})
		y++
	}

	l.fullTop = y
	y++
	rows := full.Rows()
	visible := height - footerLines - y
	if visible < 0 {
		visible = 0
	}
	l.scroll = clampScroll(scroll, len(rows), visible)
	for _, r := range rows[l.scroll:] {
		if y >= height-footerLines {
			break
		}
		l.rows = append(l.rows, placement{view: full, row: r, y: y})
		y++
	}
	return l
}

func clampScroll(scroll, total, visible int) int {
	last := total - visible
	if last < 0 {
		last = 0
	}
	if scroll > last {
		scroll = last
	}
	if scroll < 0 {
		scroll = 0
	}
	return scroll
}

// at returns the row drawn at line y.
func (l layout) at(y int) (placement, bool) {
	for _, p := range l.rows {
		if p.y == y {
			return p, true
		}
	}
	return placement{}, false
}
