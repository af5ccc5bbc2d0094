package models

import (
	"time"
	"unicode/utf8"

	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// Status is the account lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Field-level validation bounds. The transport layer checks these too, but
// the service re-enforces them so the invariants hold regardless of caller.
const (
	MinDisplayNameLength = 4
	MinCredentialLength  = 6
)

// Account is the canonical identity record in the credential store.
//
// Invariants:
//   - DisplayName is unique across all accounts (enforced by the store's
//     unique index, not by callers)
//   - CredentialHash is opaque and never serialized or logged
//   - ID and CreatedAt are assigned by the store at insert and immutable after
type Account struct {
	ID             domain.AccountID `json:"id"`
	DisplayName    string           `json:"display_name"`
	CredentialHash string           `json:"-"`
	ContactEmail   string           `json:"contact_email"`
	ContactPhone   string           `json:"contact_phone"`
	RoleID         int              `json:"role_id"`
	Status         Status           `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

// AccountView is the outward-facing shape of an account, combined with the
// linked profile when registration completed fully.
type AccountView struct {
	ID           domain.AccountID `json:"id"`
	DisplayName  string           `json:"display_name"`
	ContactEmail string           `json:"contact_email"`
	ContactPhone string           `json:"contact_phone"`
	RoleID       int              `json:"role_id"`
	Status       Status           `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`

	ProfileID        domain.ProfileID `json:"profile_id,omitempty"`
	ProfileUsername  string           `json:"profile_username,omitempty"`
}

// RegistrationRequest is the external-facing input to RegisterAccount.
// RawCredential is hashed immediately and never stored or logged.
// The name fields pass through to the profile service only.
type RegistrationRequest struct {
	DisplayName   string `json:"display_name"`
	ContactEmail  string `json:"contact_email"`
	ContactPhone  string `json:"contact_phone"`
	RawCredential string `json:"raw_credential"`
	RoleID        int    `json:"role_id,omitempty"`

	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	City        string `json:"city,omitempty"`
}

// Validate enforces the registration field invariants.
func (r RegistrationRequest) Validate() error {
	if utf8.RuneCountInString(r.DisplayName) < MinDisplayNameLength {
		return dErrors.New(dErrors.CodeValidation, "display name must be at least 4 characters")
	}
	if utf8.RuneCountInString(r.RawCredential) < MinCredentialLength {
		return dErrors.New(dErrors.CodeValidation, "credential must be at least 6 characters")
	}
	return nil
}

// NewAccount builds the account to insert for a validated registration.
// Status defaults to active here and nowhere else; the store assigns ID and
// CreatedAt at insert time.
func NewAccount(req RegistrationRequest, credentialHash string) *Account {
	return &Account{
		DisplayName:    req.DisplayName,
		CredentialHash: credentialHash,
		ContactEmail:   req.ContactEmail,
		ContactPhone:   req.ContactPhone,
		RoleID:         req.RoleID,
		Status:         StatusActive,
	}
}

// UpdateRequest mutates the non-identity fields of an account. Nil fields are
// left untouched. Display-name changes re-enter the uniqueness check.
type UpdateRequest struct {
	DisplayName  *string `json:"display_name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	RoleID       *int    `json:"role_id,omitempty"`
	Status       *Status `json:"status,omitempty"`
}

// Apply copies the requested changes onto the account, validating as it goes.
func (u UpdateRequest) Apply(a *Account) error {
	if u.DisplayName != nil {
		if utf8.RuneCountInString(*u.DisplayName) < MinDisplayNameLength {
			return dErrors.New(dErrors.CodeValidation, "display name must be at least 4 characters")
		}
		a.DisplayName = *u.DisplayName
	}
	if u.ContactEmail != nil {
		a.ContactEmail = *u.ContactEmail
	}
	if u.ContactPhone != nil {
		a.ContactPhone = *u.ContactPhone
	}
	if u.RoleID != nil {
		a.RoleID = *u.RoleID
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return dErrors.New(dErrors.CodeValidation, "status must be active or inactive")
		}
		a.Status = *u.Status
	}
	return nil
}
