// Package memory is an in-process transaction store for development and
// tests. It mirrors the SQLite repository's contract.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	items    map[int64]core.Transaction
	currency map[int64]string
	now      func() time.Time

	nextSubID int64
	subs      map[int64]core.Subscription
	buttons   map[int64][]string
}

func New() *Store {
	return &Store{
		items:    make(map[int64]core.Transaction),
		currency: make(map[int64]string),
		now:      time.Now,
		subs:     make(map[int64]core.Subscription),
		buttons:  make(map[int64][]string),
	}
}

// CreateTransaction stores a copy of t with a fresh ID.
func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	t.Description = strings.TrimSpace(t.Description)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	t.CreatedAt = t.CreatedAt.UTC()
	s.items[t.ID] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok || t.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

// ListTransactions returns the user's history, newest first.
func (s *Store) ListTransactions(_ context.Context, userID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListUserIDs returns every user with at least one transaction, ascending.
func (s *Store) ListUserIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	seen := make(map[int64]struct{})
	for _, t := range s.items {
		seen[t.UserID] = struct{}{}
	}
	s.mu.Unlock()

	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *Store) Currency(_ context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.currency[userID]; ok {
		return c, nil
	}
	return core.DefaultCurrency, nil
}

func (s *Store) SetCurrency(_ context.Context, userID int64, currency string) error {
	currency, err := core.ParseCurrency(currency)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency[userID] = currency
	return nil
}

func (s *Store) CreateSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	sub.ID = s.nextSubID
	sub.Name = strings.TrimSpace(sub.Name)
	s.subs[sub.ID] = sub
	return sub, nil
}

// ListSubscriptions returns the user's subscriptions, soonest first.
func (s *Store) ListSubscriptions(_ context.Context, userID int64) ([]core.Subscription, error) {
	return s.selectSubs(func(sub core.Subscription) bool { return sub.UserID == userID }), nil
}

func (s *Store) ListDueSubscriptions(_ context.Context, through core.Date) ([]core.Subscription, error) {
	return s.selectSubs(func(sub core.Subscription) bool { return !sub.NextDate.After(through.Time) }), nil
}

func (s *Store) selectSubs(keep func(core.Subscription) bool) []core.Subscription {
	s.mu.Lock()
	out := make([]core.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		if keep(sub) {
			out = append(out, sub)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].NextDate.Equal(out[j].NextDate.Time) {
			return out[i].ID < out[j].ID
		}
		return out[i].NextDate.Before(out[j].NextDate.Time)
	})
	return out
}

func (s *Store) DeleteSubscription(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok || sub.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.subs, id)
	return nil
}

func (s *Store) AdvanceSubscription(_ context.Context, id int64, next core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return storage.ErrNotFound
	}
	sub.NextDate = next
	s.subs[id] = sub
	return nil
}

func (s *Store) QuickButtons(_ context.Context, userID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.buttons[userID]...), nil
}

func (s *Store) SetQuickButtons(_ context.Context, userID int64, buttons []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons[userID] = append([]string{}, buttons...)
	return nil
}

func (s *Store) Close() error { return nil }
