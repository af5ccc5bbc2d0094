package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	accountmodels "registrar/internal/account/models"
	profilemodels "registrar/internal/profile/models"
	"registrar/pkg/domain"
)

func TestToProfileCreationRequest(t *testing.T) {
	req := accountmodels.RegistrationRequest{
		DisplayName:  "alice",
		ContactEmail: "a@x.com",
		ContactPhone: "555-0100",
		FirstName:    "Alice",
		LastName:     "Smith",
		DateOfBirth:  "1990-02-03",
		City:         "Hanoi",
	}

	got := ToProfileCreationRequest(req, domain.AccountID(42))

	assert.Equal(t, "42", got.AccountID, "numeric key converts to string link key")
	assert.Equal(t, "alice", got.Username, "display name becomes username")
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Equal(t, "1990-02-03", got.DateOfBirth)
	assert.Equal(t, "Hanoi", got.City)
}

func TestToView(t *testing.T) {
	now := time.Now()
	a := &accountmodels.Account{
		ID:             7,
		DisplayName:    "alice",
		CredentialHash: "sekret-hash",
		ContactEmail:   "a@x.com",
		RoleID:         1,
		Status:         accountmodels.StatusActive,
		CreatedAt:      now,
	}

	view := ToView(a)

	assert.Equal(t, domain.AccountID(7), view.ID)
	assert.Equal(t, "alice", view.DisplayName)
	assert.Equal(t, now, view.CreatedAt)
	assert.Empty(t, view.ProfileID)
}

func TestToViewWithProfile(t *testing.T) {
	a := &accountmodels.Account{ID: 7, DisplayName: "alice", Status: accountmodels.StatusActive}
	p := &profilemodels.Profile{ID: "p-1", AccountID: "7", Username: "alice"}

	view := ToViewWithProfile(a, p)
	assert.Equal(t, domain.ProfileID("p-1"), view.ProfileID)
	assert.Equal(t, "alice", view.ProfileUsername)

	view = ToViewWithProfile(a, nil)
	assert.Empty(t, view.ProfileID)
}
