package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/termpremium/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.ErrorIs(t, client.Ping(context.Background()), ErrDisabled)
	assert.NoError(t, client.Close())
}

func TestNewClient_Unreachable(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "1"},
	}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), BacktestRunLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, BacktestRunLimit.Limit, remaining)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(context.Background(), "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(context.Background(), "key"))
}

func TestCacheKeys(t *testing.T) {
	fp := "0123456789abcdef0123456789abcdef"

	assert.Equal(t, "report:0123456789abcdef:1950:2015:3:USA:zero_fill",
		ReportKey(fp, 1950, 2015, 3, "USA", "zero_fill"))
	assert.Equal(t, "quality:abc:1950:2015:3:USA",
		QualityKey("abc", 1950, 2015, 3, "USA"))
}

func TestRateLimitConfig_ForClient(t *testing.T) {
	scoped := BacktestRunLimit.ForClient("10.0.0.1")
	assert.Equal(t, "backtest_run:10.0.0.1", scoped.Key)
	assert.Equal(t, "backtest_run", BacktestRunLimit.Key)
}

func TestCache_Integration(t *testing.T) {
	// Skip if REDIS_HOST is not set
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Redis.Enabled = true

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	cache := NewCache(client, "termpremium_test")

	type payload struct {
		Year  int     `json:"year"`
		Index float64 `json:"index"`
	}
	require.NoError(t, cache.Set(ctx, "k", payload{1950, 1.05}, time.Minute))

	var got payload
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{1950, 1.05}, got)

	require.NoError(t, cache.Delete(ctx, "k"))
	found, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	limiter := NewRateLimiter(client, "termpremium_test")
	limit := RateLimitConfig{Key: "it", Limit: 2, Window: time.Second}.ForClient(time.Now().String())
	a, _, _ := limiter.Allow(ctx, limit)
	b, _, _ := limiter.Allow(ctx, limit)
	c, _, _ := limiter.Allow(ctx, limit)
	assert.True(t, a)
	assert.True(t, b)
	assert.False(t, c)
}
