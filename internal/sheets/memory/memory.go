// Package memory is an in-process HistoryWriter for development and
// tests. It keeps the last history written for each user.
package memory

import (
	"context"
	"sync"

	"ledger/internal/core"
	ports "ledger/internal/sheets"
)

// Snapshot is one mirrored history.
type Snapshot struct {
	Currency string
	Records  []core.Transaction
}

type Store struct {
	mu     sync.Mutex
	users  map[int64]Snapshot
	writes int
}

var _ ports.HistoryWriter = (*Store)(nil)

func New() *Store {
	return &Store{users: make(map[int64]Snapshot)}
}

// WriteHistory replaces the user's snapshot with a copy of records.
func (s *Store) WriteHistory(_ context.Context, userID int64, currency string, records []core.Transaction) error {
	if userID <= 0 {
		return core.ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = Snapshot{
		Currency: currency,
		Records:  append([]core.Transaction(nil), records...),
	}
	s.writes++
	return nil
}

// History returns the last snapshot written for userID.
func (s *Store) History(userID int64) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.users[userID]
	return snap, ok
}

// Writes counts successful writes across all users.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
