package memory

import (
	"context"
	"fmt"
	"sync"

	"conti/internal/core"
	"conti/internal/ledger"
)

// Store is a mutex-guarded in-memory entry store. It is the default
// backend for local development and the workhorse of the test suite.
type Store struct {
	mu      sync.Mutex
	entries []core.Entry
	nextID  int64
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1}
}

// Append stores a copy of the entry and returns its assigned id.
func (s *Store) Append(_ context.Context, e core.Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	e.Split = e.Split.Clone()
	s.nextID++
	s.entries = append(s.entries, e)
	return e.ID, nil
}

// ListEntries returns a snapshot copy of all entries, oldest first.
func (s *Store) ListEntries(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// DeleteEntry removes the entry with the given id.
func (s *Store) DeleteEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("entry %d: %w", id, ledger.ErrNotFound)
}

// SetSettled flips the settled flag on the entry with the given id.
func (s *Store) SetSettled(_ context.Context, id int64, settled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Settled = settled
			return nil
		}
	}
	return fmt.Errorf("entry %d: %w", id, ledger.ErrNotFound)
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
