// Package handler exposes account registration and lookup over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"registrar/internal/account/models"
	"registrar/internal/account/service"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/audit"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// Service is the account surface the handler depends on.
type Service interface {
	RegisterAccount(ctx context.Context, req models.RegistrationRequest) (*models.AccountView, error)
	GetAccount(ctx context.Context, id domain.AccountID) (*models.AccountView, error)
	UpdateAccount(ctx context.Context, id domain.AccountID, upd models.UpdateRequest) (*models.AccountView, error)
	AuditTrail(ctx context.Context, id domain.AccountID) ([]audit.Event, error)
}

type Handler struct {
	accounts Service
	logger   *slog.Logger
}

func New(accounts Service, logger *slog.Logger) *Handler {
	return &Handler{accounts: accounts, logger: logger}
}

// Register mounts the account routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/accounts", h.handleRegister)
	r.Get("/accounts/{accountID}", h.handleGet)
	r.Patch("/accounts/{accountID}", h.handleUpdate)
	r.Get("/accounts/{accountID}/audit", h.handleAuditTrail)
}

// registrationPendingResponse is the body of a 202: the account exists, the
// profile is still being created, and the ID is the caller's handle to check
// back with.
type registrationPendingResponse struct {
	AccountID string `json:"account_id"`
	Status    string `json:"status"`
	Detail    string `json:"detail"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[models.RegistrationRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := validateRegistration(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.accounts.RegisterAccount(ctx, req)
	if err != nil {
		var partial *service.PartialRegistrationError
		if errors.As(err, &partial) {
			httputil.WriteJSON(w, http.StatusAccepted, registrationPendingResponse{
				AccountID: partial.AccountID.String(),
				Status:    "pending_profile",
				Detail:    "account created; profile creation is still in progress",
			})
			return
		}
		if !dErrors.HasCode(err, dErrors.CodeValidation) && !dErrors.HasCode(err, dErrors.CodeConflict) {
			h.logger.ErrorContext(ctx, "registration failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}

	view, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	upd, ok := httputil.DecodeJSON[models.UpdateRequest](w, r, h.logger)
	if !ok {
		return
	}
	if upd.ContactEmail != nil && *upd.ContactEmail != "" && !govalidator.IsEmail(*upd.ContactEmail) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "contact email is not a valid address"))
		return
	}

	view, err := h.accounts.UpdateAccount(r.Context(), id, upd)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}

	// Listing the trail of an unknown account is a 404, not an empty list.
	if _, err := h.accounts.GetAccount(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.accounts.AuditTrail(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) accountID(w http.ResponseWriter, r *http.Request) (domain.AccountID, bool) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "account id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// validateRegistration checks the wire-format fields the service does not own:
// the service enforces length invariants, the handler enforces shape.
func validateRegistration(req models.RegistrationRequest) error {
	if req.ContactEmail != "" && !govalidator.IsEmail(req.ContactEmail) {
		return dErrors.New(dErrors.CodeValidation, "contact email is not a valid address")
	}
	if req.DateOfBirth != "" && !govalidator.IsTime(req.DateOfBirth, "2006-01-02") {
		return dErrors.New(dErrors.CodeValidation, "date of birth must be YYYY-MM-DD")
	}
	return nil
}
