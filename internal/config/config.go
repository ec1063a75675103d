package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"BreakoutSentinel/internal/calculator"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/strategy"
)

// Allowed request values, matching the options the scan form offers.
var (
	Intervals = []string{"1h", "1d", "1wk", "1mo"}
	Periods   = []string{"1mo", "3mo", "6mo", "1y", "2y"}
)

// Default request.
const (
	DefaultSymbol   = "AAPL"
	DefaultInterval = "1h"
	DefaultPeriod   = "1mo"
)

// WatchItem is one watchlist entry scanned on schedule.
type WatchItem struct {
	Symbol   string `yaml:"symbol"`
	Interval string `yaml:"interval"`
	Period   string `yaml:"period"`
}

// Request converts the entry to an analysis request.
func (w WatchItem) Request() model.Request {
	return model.Request{Symbol: w.Symbol, Interval: w.Interval, Period: w.Period}
}

// Analysis configures the indicator engine and breakout strategies.
type Analysis struct {
	calculator.WindowConfig `yaml:",inline"`
	Strategies              []model.StrategyDefinition `yaml:"strategies"`
	MinBars                 int                        `yaml:"min_bars"`
	MaxReportEvents         int                        `yaml:"max_report_events"`
}

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo, vstrader or mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Cache struct {
		TTL       time.Duration `yaml:"ttl"`
		RedisAddr string        `yaml:"redis_addr"`
		RedisDB   int           `yaml:"redis_db"`
	} `yaml:"cache"`
	Analysis  Analysis    `yaml:"analysis"`
	Watchlist []WatchItem `yaml:"watchlist"`
	Schedule  struct {
		ScanCron           string `yaml:"scan_cron"`
		NotifyLookbackBars int    `yaml:"notify_lookback_bars"`
		Concurrency        int    `yaml:"concurrency"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env (if present), the YAML file at path, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	override(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	override(&c.DataSource.Provider, "DATA_PROVIDER")
	override(&c.DataSource.BaseURL, "VSTRADER_BASE_URL")
	override(&c.DataSource.APIKey, "VSTRADER_API_KEY")
	override(&c.Proxy, "HTTPS_PROXY")
	override(&c.Cache.RedisAddr, "REDIS_ADDR")
	override(&c.Database.SQLitePath, "SQLITE_PATH")
	override(&c.Log.Level, "LOG_LEVEL")
	override(&c.Schedule.ScanCron, "CRON_SCAN")
	override(&c.Metrics.Listen, "METRICS_LISTEN")

	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Cache.RedisDB = db
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}

	def := calculator.DefaultWindows()
	a := &c.Analysis
	if len(a.SMAWindows) == 0 {
		a.SMAWindows = def.SMAWindows
	}
	if a.VolumeWindow == 0 {
		a.VolumeWindow = def.VolumeWindow
	}
	if a.RSILength == 0 {
		a.RSILength = def.RSILength
	}
	if a.MACDFast == 0 {
		a.MACDFast = def.MACDFast
	}
	if a.MACDSlow == 0 {
		a.MACDSlow = def.MACDSlow
	}
	if a.MACDSignal == 0 {
		a.MACDSignal = def.MACDSignal
	}
	if len(a.Strategies) == 0 {
		a.Strategies = strategy.DefaultStrategies()
	}
	if a.MinBars == 0 {
		a.MinBars = 1
	}
	if a.MaxReportEvents == 0 {
		a.MaxReportEvents = 10
	}

	if len(c.Watchlist) == 0 {
		c.Watchlist = []WatchItem{{Symbol: DefaultSymbol, Interval: DefaultInterval, Period: DefaultPeriod}}
	}
	for i := range c.Watchlist {
		w := &c.Watchlist[i]
		w.Symbol = strings.ToUpper(strings.TrimSpace(w.Symbol))
		if w.Interval == "" {
			w.Interval = DefaultInterval
		}
		if w.Period == "" {
			w.Period = DefaultPeriod
		}
	}

	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 5 * * * 1-5"
	}
	if c.Schedule.NotifyLookbackBars == 0 {
		c.Schedule.NotifyLookbackBars = 1
	}
	if c.Schedule.Concurrency == 0 {
		c.Schedule.Concurrency = 4
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/breakout_sentinel.db"
	}
}

// Validate checks the analysis settings and the watchlist. Telegram and the
// metrics listener stay optional.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "vstrader":
		if c.DataSource.BaseURL == "" {
			return errors.New("data_source.base_url is required for the vstrader provider")
		}
	default:
		return errors.Errorf("data_source.provider %q is not one of yahoo, vstrader, mock", c.DataSource.Provider)
	}

	// ComputeIndicators validates the windows, and on an empty series it
	// still yields every configured line name.
	lines, err := calculator.ComputeIndicators(nil, c.Analysis.WindowConfig)
	if err != nil {
		return errors.Wrap(err, "analysis")
	}
	if err := strategy.ValidateDefinitions(c.Analysis.Strategies, lines); err != nil {
		return errors.Wrap(err, "analysis.strategies")
	}
	if c.Analysis.MinBars < 1 {
		return errors.New("analysis.min_bars must be at least 1")
	}

	for i, w := range c.Watchlist {
		if err := ValidateRequest(w.Request()); err != nil {
			return errors.Wrapf(err, "watchlist[%d]", i)
		}
	}
	if c.Schedule.NotifyLookbackBars < 1 {
		return errors.New("schedule.notify_lookback_bars must be at least 1")
	}
	if c.Schedule.Concurrency < 1 {
		return errors.New("schedule.concurrency must be at least 1")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	return nil
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// ValidateRequest checks a symbol is present and interval/period are among
// the allowed options.
func ValidateRequest(r model.Request) error {
	if strings.TrimSpace(r.Symbol) == "" {
		return model.Invalid("symbol", "is required")
	}
	if !contains(Intervals, r.Interval) {
		return model.Invalid("interval", "%q is not one of %s", r.Interval, strings.Join(Intervals, ", "))
	}
	if !contains(Periods, r.Period) {
		return model.Invalid("period", "%q is not one of %s", r.Period, strings.Join(Periods, ", "))
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
