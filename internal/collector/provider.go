package collector

import (
	"context"

	"go.uber.org/zap"

	"BreakoutSentinel/internal/config"
	"BreakoutSentinel/internal/metrics"
)

// NewFetcherFromConfig builds the configured provider wrapped in a cache.
// Redis is used when cache.redis_addr is set and reachable, memory otherwise.
// The returned close func releases the cache connection.
func NewFetcherFromConfig(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (Fetcher, func()) {
	var base Fetcher
	switch cfg.DataSource.Provider {
	case "vstrader":
		base = NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		base = &MockFetcher{}
	default:
		base = NewYahooFetcher(cfg.Proxy)
	}

	var cache Cache = NewMemoryCache()
	closeFn := func() {}
	if addr := cfg.Cache.RedisAddr; addr != "" {
		rc, err := NewRedisCache(ctx, addr, cfg.Cache.RedisDB)
		if err != nil {
			logger.Warn("redis cache unavailable, using memory", zap.String("addr", addr), zap.Error(err))
		} else {
			cache = rc
			closeFn = func() { rc.Close() }
		}
	}

	logger.Info("data source ready", zap.String("provider", base.Name()), zap.Duration("cache_ttl", cfg.Cache.TTL))
	return &CachedFetcher{
		Fetcher: base,
		Cache:   cache,
		TTL:     cfg.Cache.TTL,
		Metrics: m,
		Logger:  logger.Named("cache"),
	}, closeFn
}
