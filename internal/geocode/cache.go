package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/maiimostafaa/voyager-sub001/internal/metrics"
	"github.com/maiimostafaa/voyager-sub001/internal/shared/geo"

	"github.com/redis/go-redis/v9"
)

// reverseHashPrecision of 7 is a ~150m cell, well inside any city.
const reverseHashPrecision = 7

// CachedGeocoder memoizes lookups in Redis. Reverse lookups are keyed by
// geohash cell so nearby posts share an entry.
type CachedGeocoder struct {
	next Geocoder
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

// WithCache wraps next in a Redis cache. A zero ttl or nil client disables
// caching and returns next unchanged.
func WithCache(next Geocoder, rdb *redis.Client, ttl time.Duration, log *slog.Logger) Geocoder {
	if rdb == nil || ttl <= 0 {
		return next
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedGeocoder{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedGeocoder) Search(ctx context.Context, query string) ([]Place, error) {
	key := "geocode:search:" + strings.ToLower(strings.TrimSpace(query))
	var places []Place
	if c.load(ctx, "search", key, &places) {
		return places, nil
	}
	places, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, places)
	return places, nil
}

func (c *CachedGeocoder) Reverse(ctx context.Context, p geo.Point) (Address, error) {
	key := "geocode:reverse:" + geo.Geohash(p, reverseHashPrecision)
	var addr Address
	if c.load(ctx, "reverse", key, &addr) {
		return addr, nil
	}
	addr, err := c.next.Reverse(ctx, p)
	if err != nil {
		return Address{}, err
	}
	c.store(ctx, key, addr)
	return addr, nil
}

func (c *CachedGeocoder) load(ctx context.Context, op, key string, out any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.log.WarnContext(ctx, "geocode cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.WarnContext(ctx, "geocode cache entry corrupt", "key", key, "error", err)
		return false
	}
	metrics.RecordGeocodeCacheHit(op)
	return true
}

func (c *CachedGeocoder) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "geocode cache write failed", "key", key, "error", err)
	}
}
