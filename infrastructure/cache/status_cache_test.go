package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fb-video-manager/infrastructure/cache"
)

// A nil Redis client means caching is disabled; every operation must be a
// safe no-op and every read a miss.
func TestStatusCache_NilClient(t *testing.T) {
	statusCache := cache.NewStatusCache(nil)
	assert.NotNil(t, statusCache)

	ctx := context.Background()
	statusCache.SetStatus(ctx, map[string]interface{}{"running": true}, time.Minute)
	statusCache.SetUpcoming(ctx, []string{"a"}, time.Minute)
	statusCache.InvalidateUpcoming(ctx)

	var out map[string]interface{}
	assert.False(t, statusCache.GetStatus(ctx, &out))
	assert.False(t, statusCache.GetUpcoming(ctx, &out))
}
