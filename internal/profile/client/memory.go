package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"registrar/internal/profile/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// InMemory is an in-process profile service used in local development and
// tests. It mirrors the remote contract, including duplicate detection on the
// account link key, and can inject latency or a configurable number of
// failures to exercise the orchestrator's retry and partial paths.
type InMemory struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile

	// Latency is applied to every call before any other behavior.
	Latency time.Duration

	failuresLeft int
	failWith     error
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[string]*models.Profile)}
}

// FailNext makes the next n CreateProfile calls return err.
func (m *InMemory) FailNext(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failuresLeft = n
	m.failWith = err
}

func (m *InMemory) CreateProfile(ctx context.Context, req models.CreationRequest, timeout time.Duration) (*models.Profile, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failuresLeft > 0 {
		m.failuresLeft--
		return nil, m.failWith
	}

	if _, exists := m.profiles[req.AccountID]; exists {
		return nil, fmt.Errorf("profile already exists for account %s: %w", req.AccountID, sentinel.ErrConflict)
	}

	p := &models.Profile{
		ID:          domain.ProfileID(uuid.NewString()),
		AccountID:   req.AccountID,
		Username:    req.Username,
		Email:       req.Email,
		Phone:       req.Phone,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		City:        req.City,
	}
	m.profiles[req.AccountID] = p

	cp := *p
	return &cp, nil
}

func (m *InMemory) FindByAccountID(ctx context.Context, accountID string) (*models.Profile, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[accountID]
	if !ok {
		return nil, fmt.Errorf("no profile for account %s: %w", accountID, sentinel.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

// Count reports how many profiles exist; used by tests asserting row counts.
func (m *InMemory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.profiles)
}

func (m *InMemory) sleep(ctx context.Context) error {
	if m.Latency == 0 {
		return nil
	}
	select {
	case <-time.After(m.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
