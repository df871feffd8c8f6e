package memory

import (
	"context"
	"testing"
	"time"

	cache "encore/internal/cache/iface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewMemoryCache().(*memoryCache)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "chat:availability", "online", time.Minute))

	val, err := c.Get(ctx, "chat:availability")
	require.NoError(t, err)
	assert.Equal(t, "online", val)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "chat:availability")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestListOperations(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.RPush(ctx, "runs", "a", "b", "c", "d"))

	tests := []struct {
		name        string
		start, stop int64
		want        []string
	}{
		{name: "all", start: 0, stop: -1, want: []string{"a", "b", "c", "d"}},
		{name: "tail", start: -2, stop: -1, want: []string{"c", "d"}},
		{name: "stop past end", start: 1, stop: 10, want: []string{"b", "c", "d"}},
		{name: "empty window", start: 3, stop: 1, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.LRange(ctx, "runs", tt.start, tt.stop)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	require.NoError(t, c.LTrim(ctx, "runs", -3, -1))
	got, err := c.LRange(ctx, "runs", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, got)

	require.NoError(t, c.LTrim(ctx, "runs", 3, -1))
	got, err = c.LRange(ctx, "runs", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, got)
}
