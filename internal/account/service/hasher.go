package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns a raw credential into its stored form. The raw value must not
// outlive the call.
type Hasher interface {
	Hash(raw string) (string, error)
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt-backed Hasher. A non-positive cost falls
// back to the library default.
func NewBcryptHasher(cost int) Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(hashed), nil
}
