package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/engagement-engine/internal/config"
	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := models.UsageRow{
		Username:     "alice",
		Tier:         "premium",
		MessagesLeft: 42,
	}
	err := cache.Set("usage:alice", expected, time.Minute)
	require.NoError(t, err)

	var actual models.UsageRow
	found, err := cache.Get("usage:alice", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected.Username, actual.Username)
	assert.Equal(t, expected.Tier, actual.Tier)
	assert.Equal(t, expected.MessagesLeft, actual.MessagesLeft)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out models.UsageRow
	found, err := cache.Get("no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("usage:bob", models.UsageRow{Username: "bob"}, time.Minute))
	require.NoError(t, cache.Invalidate("usage:bob"))

	var out models.UsageRow
	found, err := cache.Get("usage:bob", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
