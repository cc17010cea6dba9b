package cache

import (
	"context"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{}
	cfg.Cache.PricesExpiration = 15 * time.Minute

	return NewRedisCache(client, cfg), mr
}

func TestPrices(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	err := c.SetPrices(ctx, map[string]decimal.Decimal{
		"005930": decimal.NewFromInt(70000),
		"SPY":    decimal.RequireFromString("512.37"),
	})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, mr.TTL("price:SPY"))

	prices, err := c.GetPrices(ctx, []string{"005930", "SPY", "QQQ"})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.True(t, decimal.RequireFromString("512.37").Equal(prices["SPY"]))
	assert.NotContains(t, prices, "QQQ")

	mr.FastForward(16 * time.Minute)
	prices, err = c.GetPrices(ctx, []string{"SPY"})
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestGetPrices_SkipsGarbage(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("price:SPY", "not a number"))

	prices, err := c.GetPrices(context.Background(), []string{"SPY"})

	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestFlushPrices(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("session:1", "{}"))
	require.NoError(t, c.SetPrices(ctx, map[string]decimal.Decimal{"SPY": decimal.NewFromInt(1), "QQQ": decimal.NewFromInt(2)}))

	require.NoError(t, c.FlushPrices(ctx))

	assert.False(t, mr.Exists("price:SPY"))
	assert.False(t, mr.Exists("price:QQQ"))
	assert.True(t, mr.Exists("session:1"))
}
