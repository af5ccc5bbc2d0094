package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"registrar/internal/account/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// InMemory mirrors the PostgreSQL store's semantics for unit tests and local
// development: sequential IDs, byte-exact display-name uniqueness, CreatedAt
// assigned at insert.
type InMemory struct {
	mu     sync.Mutex
	nextID domain.AccountID
	byID   map[domain.AccountID]*models.Account
	byName map[string]domain.AccountID

	// failing simulates a store outage for every call when set.
	failing bool
}

func NewInMemory() *InMemory {
	return &InMemory{
		nextID: 1,
		byID:   make(map[domain.AccountID]*models.Account),
		byName: make(map[string]domain.AccountID),
	}
}

// SetFailing toggles simulated unavailability.
func (s *InMemory) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

// Count reports how many accounts exist; used by tests asserting row counts.
func (s *InMemory) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *InMemory) Exists(ctx context.Context, displayName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return false, fmt.Errorf("account store: %w", sentinel.ErrUnavailable)
	}
	_, ok := s.byName[displayName]
	return ok, nil
}

func (s *InMemory) Insert(ctx context.Context, account *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, fmt.Errorf("account store: %w", sentinel.ErrUnavailable)
	}
	if _, ok := s.byName[account.DisplayName]; ok {
		return nil, fmt.Errorf("display name %q: %w", account.DisplayName, sentinel.ErrConflict)
	}

	stored := *account
	stored.ID = s.nextID
	stored.CreatedAt = time.Now().UTC()
	s.nextID++

	s.byID[stored.ID] = &stored
	s.byName[stored.DisplayName] = stored.ID

	out := stored
	return &out, nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, fmt.Errorf("account store: %w", sentinel.ErrUnavailable)
	}
	a, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, sentinel.ErrNotFound)
	}
	out := *a
	return &out, nil
}

func (s *InMemory) FindByDisplayName(ctx context.Context, displayName string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, fmt.Errorf("account store: %w", sentinel.ErrUnavailable)
	}
	id, ok := s.byName[displayName]
	if !ok {
		return nil, fmt.Errorf("account %q: %w", displayName, sentinel.ErrNotFound)
	}
	out := *s.byID[id]
	return &out, nil
}

func (s *InMemory) Update(ctx context.Context, account *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, fmt.Errorf("account store: %w", sentinel.ErrUnavailable)
	}
	current, ok := s.byID[account.ID]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", account.ID, sentinel.ErrNotFound)
	}
	if account.DisplayName != current.DisplayName {
		if _, taken := s.byName[account.DisplayName]; taken {
			return nil, fmt.Errorf("display name %q: %w", account.DisplayName, sentinel.ErrConflict)
		}
		delete(s.byName, current.DisplayName)
		s.byName[account.DisplayName] = account.ID
	}

	stored := *account
	stored.CreatedAt = current.CreatedAt
	s.byID[account.ID] = &stored

	out := stored
	return &out, nil
}
