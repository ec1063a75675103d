package collector

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"BreakoutSentinel/internal/calculator"
	"BreakoutSentinel/internal/config"
	"BreakoutSentinel/internal/metrics"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/strategy"
)

// Collector runs the fetch, indicator and breakout pipeline for one request
// at a time. Runs share nothing except what the Fetcher caches.
type Collector struct {
	fetcher  Fetcher
	settings config.Analysis
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewCollector creates a new Collector. m may be nil.
func NewCollector(fetcher Fetcher, settings config.Analysis, m *metrics.Metrics, logger *zap.Logger) *Collector {
	return &Collector{
		fetcher:  fetcher,
		settings: settings,
		metrics:  m,
		logger:   logger.Named("collector"),
		now:      time.Now,
	}
}

// Analyze fetches bars for req and computes indicators and breakout events.
// A symbol without data gives an empty Analysis, not an error.
func (c *Collector) Analyze(ctx context.Context, req model.Request) (*model.Analysis, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if err := config.ValidateRequest(req); err != nil {
		return nil, err
	}
	log := c.logger.With(zap.String("symbol", req.Symbol), zap.String("interval", req.Interval), zap.String("period", req.Period))

	fetchStart := c.now()
	raw, err := c.fetcher.FetchBars(ctx, req)
	c.metrics.ObserveFetch(c.fetcher.Name(), c.now().Sub(fetchStart))
	if err != nil {
		c.metrics.ObserveScan("error", 0, 0)
		return nil, errors.Wrapf(err, "fetch %s from %s", req.Symbol, c.fetcher.Name())
	}

	start := c.now()
	a, err := c.analyze(req, raw)
	if err != nil {
		c.metrics.ObserveScan("invalid", 0, 0)
		log.Warn("analysis rejected", zap.Int("bars", len(raw)), zap.Error(err))
		return nil, err
	}

	status := "ok"
	if a.Empty() {
		status = "empty"
	}
	c.metrics.ObserveScan(status, len(a.Series), c.now().Sub(start))
	log.Info("analysis complete",
		zap.Stringer("run_id", a.RunID),
		zap.Int("bars", len(a.Series)),
		zap.Int("events", len(a.Events)),
	)
	return a, nil
}

func (c *Collector) analyze(req model.Request, raw []model.OHLCV) (*model.Analysis, error) {
	series, err := calculator.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if len(series) > 0 {
		if err := calculator.RequireBars(series, c.settings.MinBars); err != nil {
			return nil, err
		}
	}
	set, err := calculator.ComputeIndicators(series, c.settings.WindowConfig)
	if err != nil {
		return nil, err
	}
	events, err := strategy.DetectBreakouts(series, set, c.settings.Strategies)
	if err != nil {
		return nil, err
	}
	return &model.Analysis{
		RunID:      uuid.New(),
		Request:    req,
		Series:     series,
		Indicators: set,
		Events:     events,
		At:         c.now().UTC(),
	}, nil
}
