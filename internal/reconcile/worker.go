// Package reconcile repairs partial registrations in the background. When
// the registration workflow exhausts its profile-creation retries it hands
// the account here instead of blocking the caller any longer.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"registrar/internal/account/metrics"
	"registrar/internal/profile/client"
	profilemodels "registrar/internal/profile/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/publisher"
	"registrar/pkg/platform/sentinel"
)

// Task is one partial registration awaiting repair. The profile request is
// carried in full because the name fields are not persisted on the account.
type Task struct {
	AccountID domain.AccountID
	Request   profilemodels.CreationRequest
}

// Worker consumes repair tasks from a channel and replays profile creation
// with its own attempt budget, independent of the foreground one.
type Worker struct {
	profiles client.Client
	audit    *publisher.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger

	inbox    <-chan Task
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

type Config struct {
	Profiles client.Client
	Audit    *publisher.Publisher
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Inbox    <-chan Task

	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
}

func NewWorker(cfg Config) *Worker {
	w := &Worker{
		profiles: cfg.Profiles,
		audit:    cfg.Audit,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		inbox:    cfg.Inbox,
		timeout:  cfg.Timeout,
		attempts: cfg.Attempts,
		backoff:  cfg.Backoff,
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	if w.timeout <= 0 {
		w.timeout = 3 * time.Second
	}
	if w.attempts <= 0 {
		w.attempts = 5
	}
	if w.backoff <= 0 {
		w.backoff = time.Second
	}
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.process(ctx, task)
		}
	}
}

func (w *Worker) process(ctx context.Context, task Task) {
	logger := w.logger.With("account_id", task.AccountID)

	for attempt := 1; attempt <= w.attempts; attempt++ {
		profile, err := w.profiles.CreateProfile(ctx, task.Request, w.timeout)
		if errors.Is(err, sentinel.ErrConflict) {
			// Someone created it between attempts. Confirm and call it repaired.
			profile, err = w.profiles.FindByAccountID(ctx, task.Request.AccountID)
		}
		if err == nil {
			logger.Info("partial registration repaired",
				"profile_id", profile.ID, "attempt", attempt)
			w.metrics.RecordReconcile("repaired")
			w.emit(ctx, task.AccountID, audit.ActionRegistrationReconciled)
			return
		}
		if ctx.Err() != nil {
			logger.Warn("reconcile interrupted by shutdown", "attempt", attempt)
			return
		}
		logger.Warn("reconcile attempt failed", "attempt", attempt, "error", err)

		if attempt < w.attempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.backoff * time.Duration(attempt)):
			}
		}
	}

	logger.Error("reconcile exhausted, profile still missing", "attempts", w.attempts)
	w.metrics.RecordReconcile("failed")
	w.emit(ctx, task.AccountID, audit.ActionReconcileFailed)
}

func (w *Worker) emit(ctx context.Context, accountID domain.AccountID, action audit.Action) {
	if w.audit == nil {
		return
	}
	if err := w.audit.Emit(ctx, audit.Event{AccountID: accountID, Action: action}); err != nil {
		w.logger.Warn("emit reconcile audit event", "account_id", accountID, "error", err)
	}
}
