package collector

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"BreakoutSentinel/internal/metrics"
	"BreakoutSentinel/internal/model"
)

// Cache stores fetched bars by key for a limited time.
type Cache interface {
	Get(ctx context.Context, key string) ([]model.OHLCV, bool, error)
	Set(ctx context.Context, key string, bars []model.OHLCV, ttl time.Duration) error
}

// CacheKey identifies a fetch by symbol, period and interval.
func CacheKey(req model.Request) string {
	return "bars:" + req.Symbol + ":" + req.Period + ":" + req.Interval
}

type memEntry struct {
	bars    []model.OHLCV
	expires time.Time
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]model.OHLCV, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.bars, true, nil
}

// Set stores bars under key and drops every entry that has already expired.
func (c *MemoryCache) Set(_ context.Context, key string, bars []model.OHLCV, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memEntry{bars: bars, expires: now.Add(ttl)}
	return nil
}

// RedisCache keeps bars as JSON values with an expiry.
type RedisCache struct {
	client *goredis.Client
}

// NewRedisCache connects to addr and pings the server.
func NewRedisCache(ctx context.Context, addr string, db int) (*RedisCache, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]model.OHLCV, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	var bars []model.OHLCV
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, false, errors.Wrap(err, "decode cached bars")
	}
	return bars, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, bars []model.OHLCV, ttl time.Duration) error {
	raw, err := json.Marshal(bars)
	if err != nil {
		return errors.Wrap(err, "encode bars")
	}
	return errors.Wrap(c.client.Set(ctx, key, raw, ttl).Err(), "redis set")
}

// Close releases the connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }

// CachedFetcher memoizes another Fetcher. Cache failures are logged and
// the request falls through to the provider.
type CachedFetcher struct {
	Fetcher Fetcher
	Cache   Cache
	TTL     time.Duration
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func (f *CachedFetcher) Name() string { return f.Fetcher.Name() }

func (f *CachedFetcher) FetchBars(ctx context.Context, req model.Request) ([]model.OHLCV, error) {
	if f.TTL <= 0 {
		return f.Fetcher.FetchBars(ctx, req)
	}
	key := CacheKey(req)
	bars, ok, err := f.Cache.Get(ctx, key)
	if err != nil {
		f.Logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	f.Metrics.ObserveCache(ok)
	if ok {
		return bars, nil
	}

	bars, err = f.Fetcher.FetchBars(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := f.Cache.Set(ctx, key, bars, f.TTL); err != nil {
		f.Logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return bars, nil
}
