package series

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"shademap/internal/types"
)

// DefaultCacheTTL bounds how long a generated or fetched series stays warm.
// Series are keyed by their full lookup tuple, so staleness only matters for
// the live path.
const DefaultCacheTTL = 15 * time.Minute

// Cache is a read-through Redis cache for series lookups. All cache failures
// are logged and treated as misses; the cache never surfaces an error to the
// provider.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a series cache on the given Redis client.
func NewCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

// key builds the cache key from the full lookup tuple.
func key(lat, lng float64, startDate, endDate time.Time, field string) string {
	return fmt.Sprintf("series:%s:%.4f:%.4f:%s:%s",
		field, lat, lng,
		startDate.UTC().Format("2006-01-02"),
		endDate.UTC().Format("2006-01-02"),
	)
}

// Get returns the cached series for the lookup tuple, or nil on miss.
func (c *Cache) Get(ctx context.Context, lat, lng float64, startDate, endDate time.Time, field string) *types.Series {
	k := key(lat, lng, startDate, endDate, field)
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "series cache read failed", "key", k, "error", err)
		}
		return nil
	}
	var s types.Series
	if err := json.Unmarshal(raw, &s); err != nil {
		c.logger.WarnContext(ctx, "series cache entry corrupt, discarding", "key", k, "error", err)
		return nil
	}
	return &s
}

// Put stores the series under its lookup tuple with the configured TTL.
func (c *Cache) Put(ctx context.Context, s *types.Series, startDate, endDate time.Time) {
	raw, err := json.Marshal(s)
	if err != nil {
		c.logger.WarnContext(ctx, "series cache marshal failed", "field", s.Field, "error", err)
		return
	}
	k := key(s.Latitude, s.Longitude, startDate, endDate, s.Field)
	if err := c.rdb.Set(ctx, k, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "series cache write failed", "key", k, "error", err)
	}
}
