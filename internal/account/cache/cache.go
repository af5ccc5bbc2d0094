// Package cache provides a Redis-backed read-through cache for account views.
// A cache failure is never a request failure: reads fall back to the store
// and writes are best-effort.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"registrar/internal/account/models"
	platformredis "registrar/internal/platform/redis"
	"registrar/pkg/domain"
)

// ViewCache stores AccountView projections keyed by account ID.
type ViewCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New builds a ViewCache. Returns nil when the redis client is nil
// (cache disabled); a nil *ViewCache is safe to call.
func New(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *ViewCache {
	if client == nil {
		return nil
	}
	return &ViewCache{client: client, ttl: ttl, logger: logger}
}

func key(id domain.AccountID) string {
	return "account:view:" + id.String()
}

// Get retrieves a cached view. Returns (nil, false) on miss or any error.
func (c *ViewCache) Get(ctx context.Context, id domain.AccountID) (*models.AccountView, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var view models.AccountView
	if err := json.Unmarshal(data, &view); err != nil {
		c.logger.Warn("discarding undecodable cached view", "account_id", id, "error", err)
		return nil, false
	}
	return &view, true
}

// Put stores a view. Errors are logged, not returned.
func (c *ViewCache) Put(ctx context.Context, view *models.AccountView) {
	if c == nil {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn("marshal account view for cache", "account_id", view.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, key(view.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("write account view to cache", "account_id", view.ID, "error", err)
	}
}

// Invalidate drops a cached view after a mutation.
func (c *ViewCache) Invalidate(ctx context.Context, id domain.AccountID) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.Warn("invalidate cached view", "account_id", id, "error", err)
	}
}
