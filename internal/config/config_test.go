package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutSentinel/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, []int{9, 20, 50, 200}, cfg.Analysis.SMAWindows)
	assert.Equal(t, 20, cfg.Analysis.VolumeWindow)
	assert.Len(t, cfg.Analysis.Strategies, 3)
	assert.Equal(t, []WatchItem{{Symbol: "AAPL", Interval: "1h", Period: "1mo"}}, cfg.Watchlist)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 4, cfg.Schedule.Concurrency)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
data_source:
  provider: mock
cache:
  ttl: 90s
analysis:
  sma_windows: [3, 5]
  volume_window: 10
  strategies:
    - id: scalp
      fast: SMA3
      slow: SMA5
      volume: VolumeMA10
watchlist:
  - symbol: " msft "
    interval: 1d
  - symbol: TSLA
    interval: 1wk
    period: 2y
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "mock", cfg.DataSource.Provider)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Cache.RedisDB)
	assert.Equal(t, []int{3, 5}, cfg.Analysis.SMAWindows)
	assert.Equal(t, 10, cfg.Analysis.VolumeWindow)
	assert.Equal(t, 14, cfg.Analysis.RSILength)
	assert.Equal(t, []model.StrategyDefinition{{ID: "scalp", Fast: "SMA3", Slow: "SMA5", Volume: "VolumeMA10"}}, cfg.Analysis.Strategies)
	assert.Equal(t, WatchItem{Symbol: "MSFT", Interval: "1d", Period: "1mo"}, cfg.Watchlist[0])
	assert.Equal(t, WatchItem{Symbol: "TSLA", Interval: "1wk", Period: "2y"}, cfg.Watchlist[1])
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "analysis: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"vstrader without url", func(c *Config) { c.DataSource.Provider = "vstrader" }},
		{"fast not below slow", func(c *Config) { c.Analysis.MACDFast = 30 }},
		{"duplicate sma", func(c *Config) { c.Analysis.SMAWindows = []int{9, 9} }},
		{"duplicate strategy", func(c *Config) {
			c.Analysis.Strategies = append(c.Analysis.Strategies, c.Analysis.Strategies[0])
		}},
		{"strategy line not in sma windows", func(c *Config) { c.Analysis.SMAWindows = []int{10, 30} }},
		{"strategy volume line not configured", func(c *Config) { c.Analysis.VolumeWindow = 30 }},
		{"unknown strategy line", func(c *Config) {
			c.Analysis.Strategies = []model.StrategyDefinition{{ID: "x", Fast: "EMA9", Slow: "SMA20"}}
		}},
		{"bad interval", func(c *Config) { c.Watchlist[0].Interval = "5m" }},
		{"bad period", func(c *Config) { c.Watchlist[0].Period = "10y" }},
		{"zero lookback", func(c *Config) { c.Schedule.NotifyLookbackBars = -1 }},
		{"zero concurrency", func(c *Config) { c.Schedule.Concurrency = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(model.Request{Symbol: "AAPL", Interval: "1d", Period: "6mo"}))

	err := ValidateRequest(model.Request{Symbol: " ", Interval: "1d", Period: "6mo"})
	assert.True(t, model.IsValidation(err))

	err = ValidateRequest(model.Request{Symbol: "AAPL", Interval: "2h", Period: "6mo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval")
}
