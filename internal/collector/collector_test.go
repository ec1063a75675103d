package collector

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"BreakoutSentinel/internal/calculator"
	"BreakoutSentinel/internal/config"
	"BreakoutSentinel/internal/metrics"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/strategy"
)

func defaultSettings() config.Analysis {
	return config.Analysis{
		WindowConfig: calculator.DefaultWindows(),
		Strategies:   strategy.DefaultStrategies(),
		MinBars:      1,
	}
}

func TestCollector_Analyze(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	fetcher := &MockFetcher{End: time.Date(2024, 6, 28, 20, 0, 0, 0, time.UTC)}
	c := NewCollector(fetcher, defaultSettings(), m, zap.NewNop())

	req := model.Request{Symbol: " aapl ", Interval: "1d", Period: "1y"}
	a, err := c.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", a.Request.Symbol)
	assert.False(t, a.Empty())
	assert.Len(t, a.Series, 260)
	assert.Equal(t, 260, a.Indicators.Len)
	for _, name := range []string{"SMA9", "SMA200", "VolumeMA20", "RSI14", "MACD", "MACDSignal", "MACDHist"} {
		l, ok := a.Indicators.Get(name)
		require.True(t, ok, name)
		assert.Len(t, l, 260)
	}
	for i := 1; i < len(a.Events); i++ {
		assert.LessOrEqual(t, a.Events[i-1].Index, a.Events[i].Index)
	}

	again, err := c.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a.Events, again.Events, "runs over the same bars agree")
	assert.NotEqual(t, a.RunID, again.RunID)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues("ok")))
}

func TestCollector_EmptyData(t *testing.T) {
	c := NewCollector(&MockFetcher{Bars: []model.OHLCV{}}, defaultSettings(), nil, zap.NewNop())
	a, err := c.Analyze(context.Background(), model.Request{Symbol: "NOPE", Interval: "1d", Period: "1mo"})
	require.NoError(t, err)
	assert.True(t, a.Empty())
	assert.Empty(t, a.Events)
}

func TestCollector_InvalidBars(t *testing.T) {
	bars := []model.OHLCV{{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: math.NaN()}}
	c := NewCollector(&MockFetcher{Bars: bars}, defaultSettings(), nil, zap.NewNop())
	_, err := c.Analyze(context.Background(), model.Request{Symbol: "AAPL", Interval: "1d", Period: "1mo"})
	assert.True(t, model.IsValidation(err))
}

func TestCollector_MinBars(t *testing.T) {
	settings := defaultSettings()
	settings.MinBars = 500
	c := NewCollector(&MockFetcher{}, settings, nil, zap.NewNop())
	_, err := c.Analyze(context.Background(), model.Request{Symbol: "AAPL", Interval: "1d", Period: "1mo"})
	assert.True(t, model.IsValidation(err))
}

func TestCollector_BadRequestSkipsFetch(t *testing.T) {
	fetcher := &MockFetcher{}
	c := NewCollector(fetcher, defaultSettings(), nil, zap.NewNop())
	_, err := c.Analyze(context.Background(), model.Request{Symbol: "AAPL", Interval: "5m", Period: "1mo"})
	assert.True(t, model.IsValidation(err))
	assert.Zero(t, fetcher.Calls())
}

func TestCollector_FetchError(t *testing.T) {
	c := NewCollector(&MockFetcher{Err: assert.AnError}, defaultSettings(), nil, zap.NewNop())
	_, err := c.Analyze(context.Background(), model.Request{Symbol: "AAPL", Interval: "1d", Period: "1mo"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "fetch AAPL from mock")
}
