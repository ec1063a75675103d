package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"BreakoutSentinel/internal/model"
)

func TestObserveScan(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveScan("ok", 250, 3*time.Millisecond)
	m.ObserveScan("error", 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues("error")))
	assert.Equal(t, 250.0, testutil.ToFloat64(m.BarsAnalyzed))
	assert.Zero(t, testutil.CollectAndCount(m.BreakoutsTotal))
}

func TestObserveBreakouts(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveBreakouts([]model.BreakoutEvent{
		{StrategyID: "fast_trend", Index: 25},
		{StrategyID: "fast_trend", Index: 40},
		{StrategyID: "long_trend", Index: 40},
	})
	m.ObserveBreakouts(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakoutsTotal.WithLabelValues("fast_trend")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakoutsTotal.WithLabelValues("long_trend")))
}

func TestObserveCache(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveScan("ok", 1, time.Second)
	m.ObserveBreakouts([]model.BreakoutEvent{{StrategyID: "fast_trend"}})
	m.ObserveFetch("yahoo", time.Second)
	m.ObserveCache(true)
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveFetch("yahoo", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "breakout_fetch_duration_seconds"))
}
