package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ForecastCache stores non-degraded forecasts by rounded coordinate
type ForecastCache interface {
	Get(ctx context.Context, key string) (Forecast, bool, error)
	Set(ctx context.Context, key string, f Forecast) error
}

// CacheKey rounds coordinates to two decimals (about 1 km)
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("forecast:%.2f:%.2f", lat, lon)
}

type memoryEntry struct {
	forecast Forecast
	expires  time.Time
}

// MemoryCache drops expired entries when they are read and sweeps the whole
// map at most once per TTL on writes.
type MemoryCache struct {
	ttl       time.Duration
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Forecast, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Forecast{}, false, nil
	}
	if now := c.now(); !now.Before(e.expires) {
		c.mu.Lock()
		// another writer may have refreshed the key since the read
		if cur, ok := c.entries[key]; ok && !now.Before(cur.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return Forecast{}, false, nil
	}
	return cloneForecast(e.forecast), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, f Forecast) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if !now.Before(c.nextSweep) {
		c.sweepLocked(now)
		c.nextSweep = now.Add(c.ttl)
	}
	c.entries[key] = memoryEntry{forecast: cloneForecast(f), expires: now.Add(c.ttl)}
	return nil
}

func (c *MemoryCache) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
}

func cloneForecast(f Forecast) Forecast {
	f.Days = append([]DailyWeather(nil), f.Days...)
	return f
}

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Forecast, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Forecast{}, false, nil
	}
	if err != nil {
		return Forecast{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var f Forecast
	if err := json.Unmarshal(data, &f); err != nil {
		return Forecast{}, false, fmt.Errorf("decode cached forecast: %w", err)
	}
	return f, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, f Forecast) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// CachingForecaster serves forecasts from a cache. Cache errors are logged
// and bypassed; degraded forecasts are never stored so the provider is
// retried on the next call.
type CachingForecaster struct {
	next   Forecaster
	cache  ForecastCache
	logger *slog.Logger
}

func NewCachingForecaster(next Forecaster, cache ForecastCache, logger *slog.Logger) *CachingForecaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingForecaster{next: next, cache: cache, logger: logger}
}

func (c *CachingForecaster) Forecast(ctx context.Context, lat, lon float64) Forecast {
	key := CacheKey(lat, lon)

	f, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("forecast cache read failed", "key", key, "error", err)
	} else if ok {
		return f
	}

	f = c.next.Forecast(ctx, lat, lon)
	if f.Degraded {
		return f
	}
	if err := c.cache.Set(ctx, key, f); err != nil {
		c.logger.Warn("forecast cache write failed", "key", key, "error", err)
	}
	return f
}
