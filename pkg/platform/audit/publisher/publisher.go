// Package publisher emits audit events to a store and, optionally, an
// external sink. Emission is synchronous by default; an async buffer keeps
// auditing off the registration hot path when configured.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"registrar/pkg/domain"
	"registrar/pkg/platform/audit"
	"registrar/pkg/requestcontext"
)

// Sink receives a copy of every event after it is stored. Sink failures are
// logged, never propagated; the store is the source of truth.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

type Publisher struct {
	store  audit.Store
	sink   Sink
	logger *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer processes events on a background goroutine through a
// buffered channel of the given size. When the buffer is full events are
// dropped rather than blocking the caller.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithSink fans events out to an external sink after persisting them.
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		p.sink = sink
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records an event. Missing identity and timing fields are filled from
// the context before the event leaves the caller's goroutine.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.inbox == nil {
		return p.write(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.Warn("audit buffer full, dropping event",
			"action", event.Action, "account_id", event.AccountID)
		return nil
	}
}

func (p *Publisher) List(ctx context.Context, accountID domain.AccountID) ([]audit.Event, error) {
	return p.store.ListByAccount(ctx, accountID)
}

// Close stops the background worker, draining any buffered events first.
// Safe to call in sync mode and safe to call more than once.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.once.Do(func() {
		close(p.inbox)
	})
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.write(ctx, event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "err", err)
		}
		cancel()
	}
}

func (p *Publisher) write(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.sink != nil {
		if err := p.sink.Publish(ctx, event); err != nil {
			p.logger.Warn("audit sink publish failed", "action", event.Action, "err", err)
		}
	}
	return nil
}
