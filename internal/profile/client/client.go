// Package client talks to the profile service over its internal HTTP API.
//
// Adapters translate transport failures into sentinel errors and never retry:
// retry and backoff policy belongs to the registration orchestrator so it
// stays centralized and observable.
package client

import (
	"context"
	"time"

	"registrar/internal/profile/models"
)

// Client is the profile service boundary.
//
// CreateProfile applies the caller-supplied timeout to the single attempt it
// makes. Error translation contract:
//   - sentinel.ErrTimeout: the attempt's deadline expired
//   - sentinel.ErrConflict: a profile already exists for the account
//   - sentinel.ErrUnavailable: the service could not be reached or failed
//   - sentinel.ErrNotFound: (FindByAccountID only) no profile for the account
type Client interface {
	CreateProfile(ctx context.Context, req models.CreationRequest, timeout time.Duration) (*models.Profile, error)
	FindByAccountID(ctx context.Context, accountID string) (*models.Profile, error)
}
