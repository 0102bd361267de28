// Package memory holds ledger entries in process memory, for tests and for
// running without Google credentials.
package memory

import (
	"context"
	"sync"

	"tiffin/internal/ledger"
)

type Store struct {
	mu      sync.Mutex
	entries []ledger.Entry
}

func New() *Store {
	return &Store{}
}

var _ ledger.Appender = (*Store)(nil)

func (s *Store) Append(_ context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// Entries returns a copy of everything appended so far.
func (s *Store) Entries() []ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Entry(nil), s.entries...)
}
