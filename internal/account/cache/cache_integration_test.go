//go:build integration

package cache_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"registrar/internal/account/cache"
	"registrar/internal/account/models"
	platformredis "registrar/internal/platform/redis"
	"registrar/pkg/testutil/containers"
)

func TestViewCacheRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	client := &platformredis.Client{Client: rc.Client}
	c := cache.New(client, time.Minute, slog.New(slog.DiscardHandler))

	view := &models.AccountView{
		ID:          7,
		DisplayName: "alice",
		Status:      models.StatusActive,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	_, ok := c.Get(ctx, 7)
	require.False(t, ok, "empty cache misses")

	c.Put(ctx, view)

	got, ok := c.Get(ctx, 7)
	require.True(t, ok)
	require.Equal(t, view.DisplayName, got.DisplayName)
	require.True(t, view.CreatedAt.Equal(got.CreatedAt))

	c.Invalidate(ctx, 7)
	_, ok = c.Get(ctx, 7)
	require.False(t, ok, "invalidated view misses")
}

func TestViewCacheDisabled(t *testing.T) {
	var c *cache.ViewCache
	ctx := context.Background()

	// Nil cache is inert: no panics, always a miss.
	c.Put(ctx, &models.AccountView{ID: 1})
	_, ok := c.Get(ctx, 1)
	require.False(t, ok)
	c.Invalidate(ctx, 1)
}
