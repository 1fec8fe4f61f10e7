package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"

	"ledger/internal/core"
	"ledger/internal/history"
	applog "ledger/internal/log"
	"ledger/internal/swipe"
)

// Backend is the API the terminal client talks to; *client.Client
// satisfies it.
type Backend interface {
	swipe.Deleter
	Stats(ctx context.Context, period core.Period) (core.Stats, error)
}

// statsSource feeds the lists from /api/stats and keeps the summary of
// the last load for the header.
type statsSource struct {
	backend Backend

	mu   sync.Mutex
	last core.Stats
}

func (s *statsSource) Transactions(ctx context.Context, period core.Period) ([]core.Transaction, error) {
	stats, err := s.backend.Stats(ctx, period)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.last = stats
	s.mu.Unlock()
	return stats.History, nil
}

func (s *statsSource) Last() core.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

var periodKeys = map[rune]core.Period{
	'1': core.PeriodAll,
	'2': core.PeriodDay,
	'3': core.PeriodWeek,
	'4': core.PeriodMonth,
}

type Config struct {
	Backend   Backend
	Options   swipe.Options
	Scheduler swipe.Scheduler
	Logger    *slog.Logger
}

// App is the terminal history screen.
type App struct {
	canvas Canvas
	source *statsSource
	screen *history.Screen
	opts   swipe.Options
	logger *slog.Logger
	redraw chan struct{}
	// async runs network work off the event loop.
	async func(func())

	mu     sync.Mutex
	status string
	scroll int
	help   bool
	drag   *swipe.Tracker
	layout layout
}

func New(canvas Canvas, cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := cfg.Options
	if opts == (swipe.Options{}) {
		opts = swipe.DefaultOptions()
	}

	a := &App{
		canvas: canvas,
		source: &statsSource{backend: cfg.Backend},
		opts:   opts,
		logger: logger.With(applog.FieldComponent, applog.ComponentTUI),
		redraw: make(chan struct{}, 1),
		async:  func(f func()) { go f() },
	}
	a.screen = history.NewScreen(history.Config{
		Source:    a.source,
		Deleter:   cfg.Backend,
		Options:   opts,
		Feedback:  feedback{app: a},
		Scheduler: cfg.Scheduler,
		Logger:    logger,
		OnChange:  func(_, _ swipe.State, _ swipe.Snapshot) { a.requestRedraw() },
		OnRender:  a.requestRedraw,
	})
	return a
}

func (a *App) requestRedraw() {
	select {
	case a.redraw <- struct{}{}:
	default:
	}
}

func (a *App) setStatus(format string, args ...any) {
	a.mu.Lock()
	a.status = fmt.Sprintf(format, args...)
	a.mu.Unlock()
	a.requestRedraw()
}

// Run loads the history and processes terminal events until the user
// quits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.screen.Close()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := a.canvas.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	a.reload(ctx)
	a.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if quit := a.handleEvent(ctx, ev); quit {
				return nil
			}
			a.draw()
		case <-a.redraw:
			a.draw()
		}
	}
}

func (a *App) reload(ctx context.Context) {
	a.async(func() {
		if err := a.screen.Load(ctx); err != nil {
			a.logger.ErrorContext(ctx, "Failed to load history", applog.FieldError, err)
			a.setStatus("Ошибка загрузки: %v", err)
		}
	})
}

// handleEvent applies one terminal event and reports whether to quit.
func (a *App) handleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ctx, ev)
	case *tcell.EventMouse:
		a.handleMouse(ctx, ev)
	case *tcell.EventResize:
		a.screen.CloseAll()
	}
	return false
}

func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		a.scrollBy(-1)
		return false
	case tcell.KeyDown:
		a.scrollBy(1)
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch r := ev.Rune(); r {
	case 'q':
		return true
	case 'r':
		a.reload(ctx)
	case '?':
		a.screen.Navigate()
		a.mu.Lock()
		a.help = !a.help
		a.mu.Unlock()
	default:
		if period, ok := periodKeys[r]; ok {
			a.async(func() {
				if err := a.screen.SetPeriod(ctx, period); err != nil {
					a.setStatus("Ошибка загрузки: %v", err)
				}
			})
		}
	}
	return false
}

func (a *App) scrollBy(n int) {
	a.mu.Lock()
	a.scroll += n
	a.mu.Unlock()
	a.screen.Full.Registry().NotifyScroll()
}

func (a *App) handleMouse(ctx context.Context, ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()
	down := buttons&tcell.Button1 != 0

	a.mu.Lock()
	drag := a.drag
	lay := a.layout
	a.mu.Unlock()

	switch {
	case buttons&tcell.WheelUp != 0:
		a.scrollBy(-1)
	case buttons&tcell.WheelDown != 0:
		a.scrollBy(1)
	case down && drag == nil:
		p, ok := lay.at(y)
		if !ok {
			// A press off every row still counts as a tap outside.
			a.screen.CloseAll()
			return
		}
		width, _ := a.canvas.Size()
		if p.row.Tracker.State() == swipe.Revealed && x >= width-revealCells(a.opts) {
			a.commit(ctx, p)
			return
		}
		a.screen.CloseAllExcept(p.row.Tracker)
		a.mu.Lock()
		a.drag = p.row.Tracker
		a.mu.Unlock()
		p.row.Tracker.PointerDown(pointerX(x))
	case down:
		drag.PointerMove(pointerX(x))
	case drag != nil:
		a.mu.Lock()
		a.drag = nil
		a.mu.Unlock()
		drag.PointerMove(pointerX(x))
		drag.PointerUp()
	}
}

func (a *App) commit(ctx context.Context, p placement) {
	rowID := p.row.Transaction.RowID()
	done := a.screen.DeleteAsync(ctx, p.view, rowID)
	a.async(func() {
		err := <-done
		switch {
		case err == nil:
		case errors.Is(err, swipe.ErrNotRevealed):
			a.logger.DebugContext(ctx, "Commit on a row that is no longer revealed", applog.FieldRowID, rowID)
		default:
			a.setStatus("Не удалось удалить: %v", err)
		}
	})
}

func (a *App) draw() {
	width, height := a.canvas.Size()
	a.canvas.Clear()

	a.mu.Lock()
	lay := computeLayout(height, a.screen.Preview, a.screen.Full, a.scroll)
	a.scroll = lay.scroll
	a.layout = lay
	status := a.status
	help := a.help
	a.mu.Unlock()

	stats := a.source.Last()
	header := fmt.Sprintf("Баланс: %s %s   Период: %s   Доход: %s   Расход: %s",
		humanize.FormatInteger("# ###.", int(stats.TotalBalance)), stats.Currency,
		a.screen.Period(),
		humanize.FormatInteger("# ###.", int(stats.Period.Income)),
		humanize.FormatInteger("# ###.", int(stats.Period.Expense)))
	drawString(a.canvas, 0, 0, width, header, styleHeader)

	if help {
		for i, line := range helpLines {
			drawString(a.canvas, 2, headerLines+i, width, line, styleDefault)
		}
		a.canvas.Show()
		return
	}

	drawString(a.canvas, 0, lay.previewTop, width, "Последние операции", styleMuted)
	if lay.fullTop > 0 {
		drawString(a.canvas, 0, lay.fullTop, width, "История", styleMuted)
	}
	for _, p := range lay.rows {
		drawRow(a.canvas, p.y, width, p.row)
	}

	footer := "q выход · 1-4 период · r обновить · ? помощь"
	if status != "" {
		footer = status
	}
	drawString(a.canvas, 0, height-1, width, footer, styleMuted)
	a.canvas.Show()
}

var helpLines = []string{
	"Проведите строку влево, чтобы открыть кнопку «Удалить».",
	"Нажмите «Удалить», чтобы удалить операцию.",
	"Прокрутка или смена периода закрывает открытые строки.",
	"1 все · 2 день · 3 неделя · 4 месяц",
	"? вернуться к списку",
}

// feedback shows gesture outcomes in the status line and rings the bell
// on errors.
type feedback struct {
	app *App
}

func (f feedback) Impact(swipe.ImpactStyle) {}

func (f feedback) Notify(kind swipe.NotificationType) {
	switch kind {
	case swipe.NotificationSuccess:
		f.app.setStatus("Удалено")
	case swipe.NotificationError:
		_ = f.app.canvas.Beep()
	}
}
