package redis

import (
	"context"
	"testing"
	"time"

	cache "encore/internal/cache/iface"
	"encore/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) cache.Cache {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)
	c, err := NewRedisCache("localhost:6379", "", 0, log)
	require.NoError(t, err)
	return c
}

func TestBasicOperations(t *testing.T) {
	c := setupCache(t)
	defer c.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		key := "test:basic:key1"
		defer c.Delete(ctx, key)

		require.NoError(t, c.Set(ctx, key, "test-value", 0))

		result, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "test-value", result)
	})

	t.Run("Set with TTL", func(t *testing.T) {
		key := "test:basic:key2"

		require.NoError(t, c.Set(ctx, key, "test-value-with-ttl", 2*time.Second))

		time.Sleep(3 * time.Second)

		_, err := c.Get(ctx, key)
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})

	t.Run("Delete", func(t *testing.T) {
		key := "test:basic:key3"

		require.NoError(t, c.Set(ctx, key, "test-value-delete", 0))
		require.NoError(t, c.Delete(ctx, key))

		_, err := c.Get(ctx, key)
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})
}

func TestListOperations(t *testing.T) {
	c := setupCache(t)
	defer c.Close()

	ctx := context.Background()
	key := "test:list:runs"
	defer c.Delete(ctx, key)

	t.Run("RPush and LRange", func(t *testing.T) {
		require.NoError(t, c.RPush(ctx, key, "run1", "run2", "run3", "run4"))

		results, err := c.LRange(ctx, key, 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"run1", "run2", "run3", "run4"}, results)
	})

	t.Run("LTrim keeps the tail", func(t *testing.T) {
		require.NoError(t, c.LTrim(ctx, key, -2, -1))

		results, err := c.LRange(ctx, key, 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"run3", "run4"}, results)
	})

	t.Run("LTrim past the end empties the list", func(t *testing.T) {
		require.NoError(t, c.LTrim(ctx, key, 2, -1))

		results, err := c.LRange(ctx, key, 0, -1)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
