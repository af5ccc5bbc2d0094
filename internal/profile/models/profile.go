// Package models defines the profile records owned by the remote profile
// service. The JSON field names are the profile service's wire contract.
package models

import (
	"registrar/pkg/domain"
)

// Profile is the secondary identity-linked record living in the profile
// service's graph store. AccountID is a weak reference: it denotes the
// relationship back to the account but implies no ownership and never
// cascades.
type Profile struct {
	ID          domain.ProfileID `json:"id"`
	AccountID   string           `json:"userId"`
	Username    string           `json:"username"`
	Email       string           `json:"email"`
	Phone       string           `json:"phone"`
	FirstName   string           `json:"firstName"`
	LastName    string           `json:"lastName"`
	DateOfBirth string           `json:"dob,omitempty"`
	City        string           `json:"city,omitempty"`
}

// CreationRequest is the payload sent to the profile service when an account
// registers. AccountID carries the numeric account key in string form.
type CreationRequest struct {
	AccountID   string `json:"userId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dob,omitempty"`
	City        string `json:"city,omitempty"`
}
