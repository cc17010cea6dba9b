package cache

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const pricePrefix = "price:"

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func (r *RedisCache) SetPrices(ctx context.Context, prices map[string]decimal.Decimal) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.SetPrices"
	slog.Debug("start SetPrices", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(prices)))

	if len(prices) == 0 {
		return nil
	}

	pipe := r.redis.Pipeline()
	for ticker, price := range prices {
		pipe.Set(ctx, pricePrefix+ticker, price.String(), r.cfg.Cache.PricesExpiration)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetPrices completed", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}

// GetPrices returns cached prices, tickers without a cached value are absent from the result.
func (r *RedisCache) GetPrices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.GetPrices"
	slog.Debug("GetPrices start", slog.String("rqID", rqID), slog.String("op", op))

	res := make(map[string]decimal.Decimal, len(tickers))
	if len(tickers) == 0 {
		return res, nil
	}

	keys := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		keys = append(keys, pricePrefix+ticker)
	}

	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Error("failed on redis.MGet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	for i, value := range values {
		str, ok := value.(string)
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(str)
		if err != nil {
			slog.Warn("can't parse cached price", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", keys[i]), slog.String("value", str))
			continue
		}
		res[tickers[i]] = price
	}

	slog.Debug("GetPrices finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("hits", len(res)), slog.Int("requested", len(tickers)))

	return res, nil
}

func (r *RedisCache) FlushPrices(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.FlushPrices"
	slog.Debug("FlushPrices start", slog.String("rqID", rqID), slog.String("op", op))

	deleted := 0
	iter := r.redis.Scan(ctx, 0, pricePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.redis.Del(ctx, iter.Val()).Err(); err != nil {
			slog.Error("failed on redis.Del", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()), slog.String("key", iter.Val()))
			return err
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		slog.Error("failed on redis.Scan", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Info("price cache flushed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("deleted", deleted))

	return nil
}
