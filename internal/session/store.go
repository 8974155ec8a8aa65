// Package session keeps the last committed table list of each editing session
// and applies assistant action batches on top of it.
package session

import (
	"sync"

	"github.com/tordrt/schemagraph/internal/schema"
)

// Store maps session ids to their last committed table list.
//
// Entries are created on first commit and overwritten on every later commit;
// they are never evicted. Concurrent commits to the same id are
// last-write-wins.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]schema.Table
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{sessions: make(map[string][]schema.Table)}
}

// Get returns a copy of the tables stored for id
func (s *Store) Get(id string) ([]schema.Table, bool) {
	s.mu.RLock()
	tables, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	// Stored lists are never mutated in place, so copying outside the lock is safe.
	return schema.CloneTables(tables), true
}

// Put replaces the tables stored for id with a copy of tables
func (s *Store) Put(id string, tables []schema.Table) {
	snapshot := schema.CloneTables(tables)
	if snapshot == nil {
		snapshot = []schema.Table{}
	}
	s.mu.Lock()
	s.sessions[id] = snapshot
	s.mu.Unlock()
}

// Len returns the number of sessions held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
