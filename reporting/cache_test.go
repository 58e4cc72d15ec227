package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires Redis on localhost:6379; skipped otherwise.
const testRedisAddr = "localhost:6379"

func setupRedisCache(t *testing.T) *RedisCache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	cache := NewRedisCache(client, "test:reports:"+t.Name()+":", time.Minute)
	require.NoError(t, cache.Clear(ctx))
	t.Cleanup(func() {
		cache.Clear(ctx)
		cache.Close()
	})
	return cache
}

func TestRedisCache_GetSetClear(t *testing.T) {
	cache := setupRedisCache(t)
	ctx := context.Background()

	var stats DashboardStats
	hit, err := cache.Get(ctx, "stats", &stats)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "stats", DashboardStats{TotalProducts: 8, TotalRevenue: 12.5}))

	hit, err = cache.Get(ctx, "stats", &stats)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(8), stats.TotalProducts)
	assert.Equal(t, 12.5, stats.TotalRevenue)

	require.NoError(t, cache.Clear(ctx))
	hit, err = cache.Get(ctx, "stats", &stats)
	require.NoError(t, err)
	assert.False(t, hit)

	s := cache.Stats()
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(2), s.Misses)
	assert.Equal(t, uint64(1), s.Sets)
}
