package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// BarCache is a read-through cache for bar histories, keyed by
// symbol/timeframe/limit. A cache failure is always treated as a miss.
type BarCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBarCache wraps a Redis client. TTL of zero defaults to five
// minutes, which keeps intra-scan refetches cheap without serving a
// stale close for long.
func NewBarCache(client *redis.Client, ttl time.Duration) *BarCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BarCache{client: client, ttl: ttl}
}

func barKey(symbol, timeframe string, limit int) string {
	return fmt.Sprintf("bars:%s:%s:%d", symbol, timeframe, limit)
}

// GetBars returns the cached history for the key, or ok=false on a miss
// or any cache error.
func (c *BarCache) GetBars(ctx context.Context, symbol, timeframe string, limit int) ([]Bar, bool) {
	key := barKey(symbol, timeframe, limit)
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("bar cache read failed")
		}
		return nil, false
	}

	var bars []Bar
	if err := json.Unmarshal([]byte(raw), &bars); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("bar cache entry corrupt")
		return nil, false
	}
	return bars, true
}

// PutBars stores a history under the key with the cache TTL.
func (c *BarCache) PutBars(ctx context.Context, symbol, timeframe string, limit int, bars []Bar) error {
	raw, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("marshal bars for cache: %w", err)
	}
	return c.client.Set(ctx, barKey(symbol, timeframe, limit), raw, c.ttl).Err()
}

// Close releases the underlying Redis connection.
func (c *BarCache) Close() error {
	return c.client.Close()
}
