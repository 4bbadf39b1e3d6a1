package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/database"
	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/models"
)

// AggregateCacheStats is a snapshot of the cache counters.
type AggregateCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// RedisAggregateCache caches aggregated windows in Redis. Entries are
// keyed by (station, window, bucket) and removed as a whole on
// invalidation, never mutated in place, so concurrent readers see either
// the old or the new window, never a torn one.
type RedisAggregateCache struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger *logrus.Entry

	mu    sync.RWMutex
	stats AggregateCacheStats
}

func NewRedisAggregateCache(redisClient *database.RedisClient, ttl time.Duration, logger *logging.Logger) *RedisAggregateCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisAggregateCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger.WithComponent("aggregate_cache"),
	}
}

func windowKey(stationID int64, from, to time.Time, bucket time.Duration) string {
	return fmt.Sprintf("agg:%d:%d:%d:%d", stationID, from.Unix(), to.Unix(), int64(bucket.Seconds()))
}

// GetWindow returns the cached window, if present and parseable.
func (c *RedisAggregateCache) GetWindow(ctx context.Context, stationID int64, from, to time.Time, bucket time.Duration) ([]models.AggregatedPoint, bool) {
	key := windowKey(stationID, from, to, bucket)

	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("Redis get failed")
		}
		c.recordMiss()
		return nil, false
	}

	var points []models.AggregatedPoint
	if err := json.Unmarshal([]byte(data), &points); err != nil {
		c.logger.WithError(err).Warn("Failed to decode cached window")
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return points, true
}

// SetWindow stores a window. Failures are logged and swallowed: the cache
// is an optimization, not a source of truth.
func (c *RedisAggregateCache) SetWindow(ctx context.Context, stationID int64, from, to time.Time, bucket time.Duration, points []models.AggregatedPoint) {
	data, err := json.Marshal(points)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode window for caching")
		return
	}

	key := windowKey(stationID, from, to, bucket)
	if err := c.redis.Set(ctx, key, string(data), c.ttl); err != nil {
		c.logger.WithError(err).Warn("Redis set failed")
		return
	}

	c.mu.Lock()
	c.stats.Sets++
	c.mu.Unlock()
}

// InvalidateStation drops every cached window for the station. Called
// synchronously when a new report is inserted.
func (c *RedisAggregateCache) InvalidateStation(ctx context.Context, stationID int64) error {
	pattern := fmt.Sprintf("agg:%d:*", stationID)
	if err := c.redis.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate aggregate cache for station %d: %w", stationID, err)
	}
	c.logger.WithField("station_id", stationID).Debug("Aggregate cache invalidated")
	return nil
}

// Stats returns a copy of the current counters.
func (c *RedisAggregateCache) Stats() AggregateCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *RedisAggregateCache) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *RedisAggregateCache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}
