// Package memory implements the record store with an in-memory map.
// Intended for demos and testing, with no hosted API or database required.
package memory

import (
	"context"
	"sync"

	"rollcall/internal/store"
	"rollcall/internal/types"
)

// Store holds records in memory behind a mutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]*types.Record
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string]*types.Record)}
}

// Put inserts or replaces a record. Used by seeding and tests.
func (s *Store) Put(r *types.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r.Clone()
}

// Fetch returns a copy of the record, or store.ErrNotFound.
func (s *Store) Fetch(_ context.Context, id string) (*types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.Clone(), nil
}

// Update applies a change-set atomically under the store mutex.
func (s *Store) Update(_ context.Context, id string, changes map[types.FieldName]types.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return store.ErrNotFound
	}
	for name, ch := range changes {
		if ch.Cleared {
			delete(r.Values, name)
		} else {
			r.Values[name] = ch.Value
		}
	}
	return nil
}
