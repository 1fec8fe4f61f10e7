// Package history drives the transaction lists of the mini-app: a short
// preview on the home screen and the full history. Each list owns its own
// swipe registry, rebuilt every time the list is rendered.
package history

import (
	"context"
	"fmt"
	"sync"

	"ledger/internal/core"
	"ledger/internal/swipe"
)

// Source loads the rows of a period, newest first. *client.Client
// satisfies it.
type Source interface {
	Transactions(ctx context.Context, period core.Period) ([]core.Transaction, error)
}

// Row is one rendered transaction and the tracker following its gestures.
type Row struct {
	Transaction core.Transaction
	Tracker     *swipe.Tracker
}

// View is one rendered list. Limit caps the rows shown; zero shows all.
type View struct {
	name     string
	limit    int
	registry *swipe.Registry

	mu   sync.RWMutex
	rows []Row
}

func NewView(name string, limit int, cfg swipe.Config) *View {
	return &View{
		name:     name,
		limit:    limit,
		registry: swipe.NewRegistry(cfg),
	}
}

func (v *View) Name() string { return v.name }

// Registry returns the registry owning this list's trackers.
func (v *View) Registry() *swipe.Registry { return v.registry }

// Render replaces the list content. Every previous tracker is destroyed
// and one fresh tracker is created per shown row, in order.
func (v *View) Render(records []core.Transaction) error {
	if v.limit > 0 && len(records) > v.limit {
		records = records[:v.limit]
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.RowID()
	}

	trackers, err := v.registry.Rebuild(ids)
	if err != nil {
		return fmt.Errorf("render %s: %w", v.name, err)
	}

	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{Transaction: r, Tracker: trackers[i]}
	}

	v.mu.Lock()
	v.rows = rows
	v.mu.Unlock()
	return nil
}

// Rows returns the rendered rows in display order.
func (v *View) Rows() []Row {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Row(nil), v.rows...)
}

// Row returns the rendered row for rowID.
func (v *View) Row(rowID string) (Row, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, r := range v.rows {
		if r.Transaction.RowID() == rowID {
			return r, true
		}
	}
	return Row{}, false
}

// Remove drops the row for rowID and destroys its tracker. It reports
// whether the row was rendered.
func (v *View) Remove(rowID string) bool {
	v.mu.Lock()
	found := false
	for i, r := range v.rows {
		if r.Transaction.RowID() == rowID {
			v.rows = append(v.rows[:i:i], v.rows[i+1:]...)
			found = true
			break
		}
	}
	v.mu.Unlock()
	v.registry.Remove(rowID)
	return found
}

// Len returns the number of rendered rows.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.rows)
}

// Teardown destroys every tracker and empties the list.
func (v *View) Teardown() {
	v.registry.Reset()
	v.mu.Lock()
	v.rows = nil
	v.mu.Unlock()
}
