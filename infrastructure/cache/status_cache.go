package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"fb-video-manager/infrastructure/logger"
)

const (
	keySchedulerStatus = "scheduler:status"
	keyUpcoming        = "scheduler:upcoming"
)

// StatusCache is a read-through cache for scheduler status and the merged
// upcoming view. It never serves as a source of truth: a nil client or any
// Redis error just means a miss, and writers always hit the database first.
type StatusCache struct {
	client *redis.Client
}

func NewStatusCache(client *redis.Client) *StatusCache {
	return &StatusCache{client: client}
}

func (c *StatusCache) GetStatus(ctx context.Context, out interface{}) bool {
	return c.get(ctx, keySchedulerStatus, out)
}

func (c *StatusCache) SetStatus(ctx context.Context, v interface{}, ttl time.Duration) {
	c.set(ctx, keySchedulerStatus, v, ttl)
}

func (c *StatusCache) GetUpcoming(ctx context.Context, out interface{}) bool {
	return c.get(ctx, keyUpcoming, out)
}

func (c *StatusCache) SetUpcoming(ctx context.Context, v interface{}, ttl time.Duration) {
	c.set(ctx, keyUpcoming, v, ttl)
}

// InvalidateUpcoming drops the cached view after any scheduled post mutation.
func (c *StatusCache) InvalidateUpcoming(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, keyUpcoming).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Error invalidating upcoming cache")
	}
}

func (c *StatusCache) get(ctx context.Context, key string, out interface{}) bool {
	if c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Error reading cache")
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Error decoding cache entry")
		return false
	}
	return true
}

func (c *StatusCache) set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Error encoding cache entry")
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Error writing cache")
	}
}
