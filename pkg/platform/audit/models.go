// Package audit captures the operational trail of the registration workflow.
// Partial registrations must be visible somewhere besides the HTTP response;
// this trail is where operators and the reconciler find them.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"registrar/pkg/domain"
)

// Action names the audited occurrence.
type Action string

const (
	ActionAccountRegistered      Action = "account_registered"
	ActionRegistrationPartial    Action = "registration_partial"
	ActionRegistrationReconciled Action = "registration_reconciled"
	ActionReconcileFailed        Action = "reconcile_failed"
	ActionAccountUpdated         Action = "account_updated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Never put credential
// material in Detail.
type Event struct {
	ID        uuid.UUID        `json:"id"`
	AccountID domain.AccountID `json:"account_id"`
	Action    Action           `json:"action"`
	Detail    string           `json:"detail,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Store is an append-only event sink with per-account retrieval for
// operator tooling.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID domain.AccountID) ([]Event, error)
}
