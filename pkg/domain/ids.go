// Package domain defines the typed identifiers shared across the service.
//
// The credential store assigns numeric surrogate keys; the profile service
// generates opaque string keys. Keeping both as distinct types stops the two
// from being mixed up at compile time, and AccountID.String is the single
// place where the numeric-to-string link key conversion happens.
package domain

import (
	"strconv"

	dErrors "registrar/pkg/domain-errors"
)

// AccountID is the credential store's numeric surrogate key for an account.
// The zero value means "not yet assigned".
type AccountID int64

// String renders the ID in the form used as a profile link key.
func (id AccountID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsZero reports whether the ID has not been assigned by the store.
func (id AccountID) IsZero() bool {
	return id == 0
}

// ParseAccountID parses a path or query parameter into an AccountID.
// IDs must be positive integers; everything else is rejected at the boundary.
func ParseAccountID(raw string) (AccountID, error) {
	if raw == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "account id is required")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "account id must be a positive integer")
	}
	return AccountID(n), nil
}

// ProfileID is the profile service's generated string key. It is opaque to
// this service; we never parse or derive anything from it.
type ProfileID string

func (id ProfileID) String() string {
	return string(id)
}
