// Package service orchestrates registration across the credential store and
// the profile service. The two stores share no transaction, so the workflow
// here is ordered for safety: the account insert happens exactly once, and
// everything after it either completes or degrades to a repairable partial
// state instead of rolling the account back.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/account/cache"
	"registrar/internal/account/mapper"
	"registrar/internal/account/metrics"
	"registrar/internal/account/models"
	"registrar/internal/account/store"
	"registrar/internal/profile/client"
	profilemodels "registrar/internal/profile/models"
	"registrar/internal/reconcile"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/publisher"
	"registrar/pkg/platform/sentinel"
)

var tracer = otel.Tracer("registrar/internal/account/service")

// PartialRegistrationError reports that the account was created but the
// profile side never confirmed. The account ID is the caller's handle for
// checking back once reconciliation catches up.
type PartialRegistrationError struct {
	AccountID domain.AccountID
	Err       error
}

func (e *PartialRegistrationError) Error() string {
	return fmt.Sprintf("registration of account %s incomplete: %v", e.AccountID, e.Err)
}

func (e *PartialRegistrationError) Unwrap() error { return e.Err }

// Service coordinates the registration workflow.
type Service struct {
	accounts store.CredentialStore
	profiles client.Client
	hasher   Hasher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *publisher.Publisher
	cache    *cache.ViewCache
	repairs  chan<- reconcile.Task

	profileTimeout time.Duration
	profileRetries int
	profileBackoff time.Duration
}

// Config wires the service. Accounts, Profiles and Hasher are required;
// everything else degrades gracefully when omitted.
type Config struct {
	Accounts store.CredentialStore
	Profiles client.Client
	Hasher   Hasher
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Audit    *publisher.Publisher
	Cache    *cache.ViewCache
	Repairs  chan<- reconcile.Task

	// ProfileTimeout bounds each individual profile call. ProfileRetries is
	// the number of additional attempts after the first; backoff doubles from
	// ProfileBackoff between attempts.
	ProfileTimeout time.Duration
	ProfileRetries int
	ProfileBackoff time.Duration
}

func New(cfg Config) *Service {
	s := &Service{
		accounts:       cfg.Accounts,
		profiles:       cfg.Profiles,
		hasher:         cfg.Hasher,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		audit:          cfg.Audit,
		cache:          cfg.Cache,
		repairs:        cfg.Repairs,
		profileTimeout: cfg.ProfileTimeout,
		profileRetries: cfg.ProfileRetries,
		profileBackoff: cfg.ProfileBackoff,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.profileTimeout <= 0 {
		s.profileTimeout = 3 * time.Second
	}
	if s.profileRetries < 0 {
		s.profileRetries = 0
	}
	if s.profileBackoff <= 0 {
		s.profileBackoff = 100 * time.Millisecond
	}
	return s
}

// RegisterAccount runs the full registration workflow: validate, hash the
// credential, insert the account, then create the linked profile. The insert
// is never retried; profile creation is retried with backoff and, when
// exhausted, the account survives as a partial registration.
func (s *Service) RegisterAccount(ctx context.Context, req models.RegistrationRequest) (*models.AccountView, error) {
	ctx, span := tracer.Start(ctx, "account.register",
		trace.WithAttributes(attribute.Int("display_name.length", len(req.DisplayName))))
	defer span.End()
	start := time.Now()

	if err := req.Validate(); err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeValidation)
		return nil, err
	}

	// Fast-path duplicate check. The unique index behind Insert is what
	// actually guarantees uniqueness under races.
	taken, err := s.accounts.Exists(ctx, req.DisplayName)
	if err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeUnavailable)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}
	if taken {
		s.metrics.RecordRegistration(metrics.OutcomeConflict)
		return nil, s.conflictErr(ctx, req.DisplayName, nil)
	}

	hash, err := s.hasher.Hash(req.RawCredential)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash credential")
	}

	account, err := s.accounts.Insert(ctx, models.NewAccount(req, hash))
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.RecordRegistration(metrics.OutcomeConflict)
			return nil, s.conflictErr(ctx, req.DisplayName, err)
		}
		s.metrics.RecordRegistration(metrics.OutcomeUnavailable)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}
	span.SetAttributes(attribute.Int64("account.id", int64(account.ID)))
	logger := s.logger.With("account_id", account.ID, "display_name", account.DisplayName)

	profileReq := mapper.ToProfileCreationRequest(req, account.ID)
	profile, err := s.createProfile(ctx, profileReq)
	if err != nil {
		logger.Warn("profile creation incomplete, queueing repair", "error", err)
		s.metrics.RecordRegistration(metrics.OutcomePartial)
		s.metrics.ObserveWorkflowDuration(time.Since(start).Seconds())
		s.emitAudit(ctx, account.ID, audit.ActionRegistrationPartial, "profile creation pending")
		s.enqueueRepair(reconcile.Task{AccountID: account.ID, Request: profileReq})
		return nil, dErrors.Wrap(
			&PartialRegistrationError{AccountID: account.ID, Err: err},
			dErrors.CodePartialRegistration,
			"account created but profile creation is pending")
	}

	view := mapper.ToViewWithProfile(account, profile)
	s.cache.Put(ctx, view)
	s.emitAudit(ctx, account.ID, audit.ActionAccountRegistered, "")
	s.metrics.RecordRegistration(metrics.OutcomeSucceeded)
	s.metrics.ObserveWorkflowDuration(time.Since(start).Seconds())
	logger.Info("account registered", "profile_id", profile.ID)
	return view, nil
}

// createProfile drives the bounded retry loop around the profile client.
// A remote duplicate means a previous attempt landed after its deadline, so
// it resolves to success through a reverse lookup rather than an error.
func (s *Service) createProfile(ctx context.Context, req profilemodels.CreationRequest) (*profilemodels.Profile, error) {
	ctx, span := tracer.Start(ctx, "account.create_profile")
	defer span.End()

	attempts := 1 + s.profileRetries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		s.metrics.RecordProfileAttempt()
		profile, err := s.profiles.CreateProfile(ctx, req, s.profileTimeout)
		if err == nil {
			return profile, nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			existing, findErr := s.profiles.FindByAccountID(ctx, req.AccountID)
			if findErr == nil {
				return existing, nil
			}
			err = findErr
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < attempts {
			backoff := s.profileBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	span.SetAttributes(attribute.Int("profile.attempts", attempts))
	return nil, lastErr
}

// GetAccount serves the combined account view, preferring the cache. Only
// complete views (profile included) are cached so a repaired registration
// becomes visible as soon as the reconciler finishes.
func (s *Service) GetAccount(ctx context.Context, id domain.AccountID) (*models.AccountView, error) {
	if view, ok := s.cache.Get(ctx, id); ok {
		return view, nil
	}

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}

	profile, err := s.profiles.FindByAccountID(ctx, id.String())
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.Warn("profile lookup failed, serving account only",
				"account_id", id, "error", err)
		}
		return mapper.ToView(account), nil
	}

	view := mapper.ToViewWithProfile(account, profile)
	s.cache.Put(ctx, view)
	return view, nil
}

// UpdateAccount applies a partial update. Display-name changes re-enter the
// uniqueness check through the store's constraint.
func (s *Service) UpdateAccount(ctx context.Context, id domain.AccountID, upd models.UpdateRequest) (*models.AccountView, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}

	if err := upd.Apply(account); err != nil {
		return nil, err
	}

	updated, err := s.accounts.Update(ctx, account)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "display name already registered")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
		}
	}

	s.cache.Invalidate(ctx, id)
	s.emitAudit(ctx, id, audit.ActionAccountUpdated, "")
	return mapper.ToView(updated), nil
}

// AuditTrail lists the recorded events for an account, newest last.
func (s *Service) AuditTrail(ctx context.Context, id domain.AccountID) ([]audit.Event, error) {
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.List(ctx, id)
}

// conflictErr builds the duplicate-name error. The existing account's ID is
// included when it can be resolved, so a caller retrying a registration that
// already succeeded can fetch its result.
func (s *Service) conflictErr(ctx context.Context, displayName string, cause error) error {
	msg := "display name already registered"
	if existing, err := s.accounts.FindByDisplayName(ctx, displayName); err == nil {
		msg = fmt.Sprintf("display name already registered to account %s", existing.ID)
	}
	if cause != nil {
		return dErrors.Wrap(cause, dErrors.CodeConflict, msg)
	}
	return dErrors.New(dErrors.CodeConflict, msg)
}

func (s *Service) emitAudit(ctx context.Context, id domain.AccountID, action audit.Action, detail string) {
	if s.audit == nil {
		return
	}
	event := audit.Event{AccountID: id, Action: action, Detail: detail}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.Warn("emit audit event", "account_id", id, "action", action, "error", err)
	}
}

func (s *Service) enqueueRepair(task reconcile.Task) {
	if s.repairs == nil {
		return
	}
	select {
	case s.repairs <- task:
	default:
		s.logger.Warn("repair queue full, dropping task", "account_id", task.AccountID)
	}
}
