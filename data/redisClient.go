package data

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 3 * time.Second

// NewRedisClient connects to redis used by the price cache and bot sessions.
func NewRedisClient(ctx context.Context, cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	connAttempts := defaultConnAttempts
	var pong string
	var err error

	for connAttempts > 0 {
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		pong, err = rdb.Ping(pingCtx).Result()
		cancel()
		if err == nil {
			break
		}

		slog.Info("Redis is trying to connect", slog.Int("attempts left", connAttempts), slog.String("err", err.Error()))

		time.Sleep(connRetryInterval)

		connAttempts--
	}

	if err != nil {
		slog.Error("Error while connecting Redis", slog.String("error", err.Error()))
		panic(err)
	}
	slog.Info("Redis connected", slog.String("pong", pong))

	return rdb
}
