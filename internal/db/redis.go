package db

import (
	"context"
	"fmt"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	redisConnectTimeout = 30 * time.Second
	redisRetryInterval  = 2 * time.Second
	redisPingTimeout    = 2 * time.Second
)

// OpenRedis connects to Redis with a bounded retry loop so a server restart
// does not race a slower Redis container.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	deadline := time.Now().Add(redisConnectTimeout)
	var lastErr error
	for time.Now().Before(deadline) {
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			return client, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisRetryInterval):
		}
	}
	return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, lastErr)
}
