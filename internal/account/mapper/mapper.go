// Package mapper translates between the orchestrator's canonical registration
// fields and the shapes each store expects. Pure functions, no I/O; malformed
// input here is a programming error, not a runtime condition.
package mapper

import (
	accountmodels "registrar/internal/account/models"
	profilemodels "registrar/internal/profile/models"
	"registrar/pkg/domain"
)

// ToProfileCreationRequest derives the profile-service payload from a
// registration and the account ID the credential store assigned. The numeric
// key becomes the string link key, and the display name becomes the profile
// username (it may diverge later; this copy happens once, at creation).
func ToProfileCreationRequest(req accountmodels.RegistrationRequest, accountID domain.AccountID) profilemodels.CreationRequest {
	return profilemodels.CreationRequest{
		AccountID:   accountID.String(),
		Username:    req.DisplayName,
		Email:       req.ContactEmail,
		Phone:       req.ContactPhone,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		City:        req.City,
	}
}

// ToView projects an account into its outward shape. The credential hash
// never crosses this boundary.
func ToView(a *accountmodels.Account) *accountmodels.AccountView {
	return &accountmodels.AccountView{
		ID:           a.ID,
		DisplayName:  a.DisplayName,
		ContactEmail: a.ContactEmail,
		ContactPhone: a.ContactPhone,
		RoleID:       a.RoleID,
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
	}
}

// ToViewWithProfile projects an account and its linked profile into the
// combined registration result.
func ToViewWithProfile(a *accountmodels.Account, p *profilemodels.Profile) *accountmodels.AccountView {
	view := ToView(a)
	if p != nil {
		view.ProfileID = p.ID
		view.ProfileUsername = p.Username
	}
	return view
}
