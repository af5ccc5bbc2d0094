// Package store owns account persistence. Stores are pure I/O: uniqueness is
// enforced by the backing store's constraint, and violations surface as
// sentinel.ErrConflict so the service can translate them. Orchestration,
// validation, and retry policy belong to the service layer.
package store

import (
	"context"

	"registrar/internal/account/models"
	"registrar/pkg/domain"
)

// CredentialStore is the relational account boundary.
//
// Error translation contract:
//   - sentinel.ErrConflict: display-name uniqueness violated
//   - sentinel.ErrNotFound: no account with the given key
//   - anything else: the store itself failed (callers treat as unavailable)
type CredentialStore interface {
	// Exists reports whether an account with the display name is present.
	// This backs the orchestrator's fast-path check; the correctness
	// mechanism is Insert's unique constraint.
	Exists(ctx context.Context, displayName string) (bool, error)

	// Insert persists a new account, assigning ID and CreatedAt exactly once.
	Insert(ctx context.Context, account *models.Account) (*models.Account, error)

	FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error)
	FindByDisplayName(ctx context.Context, displayName string) (*models.Account, error)

	// Update persists mutable fields. Display-name changes hit the same
	// unique constraint as Insert.
	Update(ctx context.Context, account *models.Account) (*models.Account, error)
}
