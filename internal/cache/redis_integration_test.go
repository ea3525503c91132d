//go:build integration
// +build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dukerupert/usps/internal/cache"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Integration(t *testing.T) {
	_ = godotenv.Load("../../.env.test")
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set in .env.test")
	}

	ctx := context.Background()
	client, err := cache.NewRedisClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store := cache.NewRedisStore(client)
	key := cache.KeyPrefix + "integration-test"
	t.Cleanup(func() { client.Del(ctx, key) })

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, key, []byte(`{"city":"SPRINGFIELD"}`), time.Minute))

	b, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"city":"SPRINGFIELD"}`, string(b))
}
