package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"BreakoutSentinel/internal/collector"
	"BreakoutSentinel/internal/config"
	"BreakoutSentinel/internal/metrics"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/recorder"
)

var t0 = time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return nil
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

// breakoutBars falls then climbs so that SMA9 crosses above SMA20 on bar 25,
// with a volume spike on that bar.
func breakoutBars(n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := 107 - float64(i)
		if i >= 18 {
			c = 90 + 2*float64(i-17)
		}
		vol := 1000.0
		if i == 25 {
			vol = 5000
		}
		bars[i] = model.OHLCV{Time: t0.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c, Volume: vol}
	}
	return bars
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	cfg.Watchlist = []config.WatchItem{{Symbol: "AAPL", Interval: "1h", Period: "1mo"}}
	return cfg
}

func newScheduler(t *testing.T, bars []model.OHLCV, rec recorder.Recorder) (*Scheduler, *fakeNotifier) {
	cfg := testConfig(t)
	col := collector.NewCollector(&collector.MockFetcher{Bars: bars}, cfg.Analysis, nil, zap.NewNop())
	n := &fakeNotifier{}
	return NewScheduler(context.Background(), col, n, rec, cfg, zap.NewNop()), n
}

func TestScanWatchlist_AlertsOnLastBar(t *testing.T) {
	s, n := newScheduler(t, breakoutBars(26), recorder.NewNoopRecorder())

	assert.Equal(t, 1, s.ScanWatchlist(context.Background()))
	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Breakout</b> AAPL")
	assert.Contains(t, msgs[0], "fast_trend")
}

func TestScanWatchlist_OldBreakoutNotAlerted(t *testing.T) {
	s, n := newScheduler(t, breakoutBars(30), recorder.NewNoopRecorder())
	assert.Zero(t, s.ScanWatchlist(context.Background()))
	assert.Empty(t, n.messages())

	s.Config.Schedule.NotifyLookbackBars = 5
	assert.Equal(t, 1, s.ScanWatchlist(context.Background()))
}

func TestScanWatchlist_RecordedBreakoutAlertedOnce(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "s.db"), zap.NewNop())
	require.NoError(t, err)
	defer rec.Close()

	s, n := newScheduler(t, breakoutBars(26), rec)
	assert.Equal(t, 1, s.ScanWatchlist(context.Background()))
	assert.Equal(t, 0, s.ScanWatchlist(context.Background()))
	assert.Len(t, n.messages(), 1)

	reply := s.HandleCommand(context.Background(), "/history aapl")
	assert.Contains(t, reply, "Recent breakouts: AAPL")
	assert.Contains(t, reply, "fast_trend")
}

func TestScanWatchlist_CountsOnlyNewBreakouts(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "s.db"), zap.NewNop())
	require.NoError(t, err)
	defer rec.Close()

	s, _ := newScheduler(t, breakoutBars(26), rec)
	s.Metrics = metrics.New(prometheus.NewRegistry())
	for i := 0; i < 3; i++ {
		s.ScanWatchlist(context.Background())
	}
	s.HandleCommand(context.Background(), "/scan AAPL 1h 1mo")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.BreakoutsTotal.WithLabelValues("fast_trend")))
}

func TestScanWatchlist_Concurrent(t *testing.T) {
	s, n := newScheduler(t, breakoutBars(26), recorder.NewNoopRecorder())
	for _, sym := range []string{"MSFT", "TSLA", "NVDA", "AMZN", "META"} {
		s.Config.Watchlist = append(s.Config.Watchlist, config.WatchItem{Symbol: sym, Interval: "1d", Period: "3mo"})
	}
	s.Config.Schedule.Concurrency = 2
	assert.Equal(t, 6, s.ScanWatchlist(context.Background()))
	assert.Len(t, n.messages(), 6)
}

func TestScanWatchlist_ErrorNotified(t *testing.T) {
	cfg := testConfig(t)
	col := collector.NewCollector(&collector.MockFetcher{Err: assert.AnError}, cfg.Analysis, nil, zap.NewNop())
	n := &fakeNotifier{}
	s := NewScheduler(context.Background(), col, n, recorder.NewNoopRecorder(), cfg, zap.NewNop())

	assert.Zero(t, s.ScanWatchlist(context.Background()))
	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Analysis of AAPL failed")
}

func TestHandleCommand(t *testing.T) {
	s, _ := newScheduler(t, breakoutBars(26), recorder.NewNoopRecorder())
	ctx := context.Background()

	reply := s.HandleCommand(ctx, "/scan msft 1d 6mo")
	assert.Contains(t, reply, "<b>MSFT</b> | 1d · 6mo")
	assert.Contains(t, reply, "fast_trend")

	reply = s.HandleCommand(ctx, "/scan@BreakoutBot")
	assert.Contains(t, reply, "<b>AAPL</b> | 1h · 1mo")

	reply = s.HandleCommand(ctx, "/scan AAPL 5m")
	assert.Contains(t, reply, "Invalid input for AAPL")

	assert.Contains(t, s.HandleCommand(ctx, "/watchlist"), "AAPL  1h · 1mo")
	assert.Contains(t, s.HandleCommand(ctx, "/history"), "Usage")
	assert.Contains(t, s.HandleCommand(ctx, "hello"), "/scan SYMBOL")
	assert.Contains(t, s.HandleCommand(ctx, ""), "/scan SYMBOL")
}

func TestHandleCommand_NoData(t *testing.T) {
	s, _ := newScheduler(t, []model.OHLCV{}, recorder.NewNoopRecorder())
	assert.Contains(t, s.HandleCommand(context.Background(), "/scan ZZZZ"), "No data found for ZZZZ")
}

func TestRegisterAll(t *testing.T) {
	s, _ := newScheduler(t, breakoutBars(26), recorder.NewNoopRecorder())
	require.NoError(t, s.RegisterAll())
	assert.Len(t, s.Cron.Entries(), 1)

	s.Config.Schedule.ScanCron = "not a cron"
	assert.Error(t, s.RegisterAll())
}
