package inmemory

import (
	"context"
	"fmt"
	"sync"

	agerrors "github.com/coverbridge/salesagent/errors"
	"github.com/coverbridge/salesagent/session"
)

// Store keeps session records in process memory. Useful for tests and
// single-instance deployments.
type Store struct {
	mu      sync.RWMutex
	records map[string]*session.Record
}

var _ session.Store = (*Store)(nil)

// New creates an in-memory session store.
func New() *Store {
	return &Store{
		records: make(map[string]*session.Record),
	}
}

// Save persists a record.
func (s *Store) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record cannot be nil or missing ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record.Clone()
	return nil
}

// Load retrieves a record by ID.
func (s *Store) Load(ctx context.Context, id string) (*session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, agerrors.ErrSessionNotFound)
	}
	return record.Clone(), nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// List returns all stored session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

// Count returns the number of stored sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Exists checks whether a session is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok, nil
}
