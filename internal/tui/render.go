// Package tui renders the history lists in a terminal and turns mouse
// drags into swipe gestures.
package tui

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"ledger/internal/core"
	"ledger/internal/history"
	"ledger/internal/swipe"
)

// pxPerCell converts terminal columns to gesture pixels.
const pxPerCell = 8.0

const deleteLabel = "Удалить"

var (
	styleDefault = tcell.StyleDefault
	styleHeader  = tcell.StyleDefault.Bold(true)
	styleIncome  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleMuted   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleDanger  = tcell.StyleDefault.Background(tcell.ColorRed).Foreground(tcell.ColorWhite).Bold(true)
)

// Canvas is the part of tcell.Screen the app draws on.
type Canvas interface {
	Size() (width, height int)
	Clear()
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Show()
	Beep() error
	PollEvent() tcell.Event
}

func pointerX(col int) float64 {
	return float64(col) * pxPerCell
}

// offsetCells is how many columns a row is shifted left.
func offsetCells(offset float64) int {
	return int(math.Round(-offset / pxPerCell))
}

// revealCells is the width of the action surface of a revealed row.
func revealCells(opts swipe.Options) int {
	return int(math.Ceil(opts.MaxReveal / pxPerCell))
}

// formatAmount renders a signed amount with space-grouped thousands.
func formatAmount(t core.Transaction) string {
	sign := "-"
	if t.Type == core.Income {
		sign = "+"
	}
	return sign + humanize.FormatInteger("# ###.", int(t.Amount))
}

// rowText lays out one transaction in exactly width columns.
func rowText(t core.Transaction, width int) string {
	if width <= 0 {
		return ""
	}
	head := t.CreatedAt.UTC().Format("02.01 15:04") + "  " +
		runewidth.FillRight(runewidth.Truncate(t.Category, 10, "…"), 10) + " " +
		runewidth.FillLeft(formatAmount(t), 12) + "  "

	descWidth := width - runewidth.StringWidth(head)
	if descWidth <= 0 {
		return runewidth.FillRight(runewidth.Truncate(head, width, "…"), width)
	}
	return head + runewidth.FillRight(runewidth.Truncate(t.Description, descWidth, "…"), descWidth)
}

// drawString draws s from column x, clipped to [0, maxX). It returns the
// column after the last rune.
func drawString(c Canvas, x, y, maxX int, s string, style tcell.Style) int {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x >= 0 && x+w <= maxX {
			c.SetContent(x, y, r, nil, style)
		}
		x += w
	}
	return x
}

func fill(c Canvas, x0, x1, y int, style tcell.Style) {
	for x := x0; x < x1; x++ {
		c.SetContent(x, y, ' ', nil, style)
	}
}

// drawRow paints a row shifted by its gesture offset, with the delete
// surface in the columns it uncovers.
func drawRow(c Canvas, y, width int, row history.Row) {
	snap := row.Tracker.Snapshot()
	shift := offsetCells(snap.Offset)
	if shift > width {
		shift = width
	}

	style := styleDefault
	if row.Transaction.Type == core.Income {
		style = styleIncome
	}
	fill(c, 0, width, y, styleDefault)
	drawString(c, -shift, y, width-shift, rowText(row.Transaction, width), style)

	if !snap.BackgroundVisible || shift == 0 {
		return
	}
	fill(c, width-shift, width, y, styleDanger)
	label := deleteLabel
	if runewidth.StringWidth(label) > shift {
		label = "✕"
	}
	lw := runewidth.StringWidth(label)
	if lw <= shift {
		drawString(c, width-shift+(shift-lw)/2, y, width, label, styleDanger)
	}
}
