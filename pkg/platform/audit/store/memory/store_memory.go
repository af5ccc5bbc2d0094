// Package memory provides an in-memory audit store for tests and for
// running without Postgres.
package memory

import (
	"context"
	"sync"

	"registrar/pkg/domain"
	"registrar/pkg/platform/audit"
)

type Store struct {
	mu     sync.RWMutex
	events map[domain.AccountID][]audit.Event
}

func New() *Store {
	return &Store{events: make(map[domain.AccountID][]audit.Event)}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.AccountID] = append(s.events[event.AccountID], event)
	return nil
}

func (s *Store) ListByAccount(_ context.Context, accountID domain.AccountID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events[accountID]
	out := make([]audit.Event, len(events))
	copy(out, events)
	return out, nil
}

// Clear empties the store between tests.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[domain.AccountID][]audit.Event)
}
