package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fb-video-manager/infrastructure/logger"
)

// NewCache connects to Redis. Callers treat a nil client as "cache disabled"
// rather than a fatal condition.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("addr", addr).WithField("error", err).Warn("Redis not reachable")
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	return client, nil
}
