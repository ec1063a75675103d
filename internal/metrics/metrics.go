// Package metrics holds the Prometheus collectors for scans and data fetches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"BreakoutSentinel/internal/model"
)

// Metrics groups all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ScansTotal     *prometheus.CounterVec // labels: status
	BreakoutsTotal *prometheus.CounterVec // labels: strategy; new events only
	AnalyzeDur     prometheus.Histogram
	FetchDur       *prometheus.HistogramVec // labels: provider
	CacheLookups   *prometheus.CounterVec   // labels: result
	BarsAnalyzed   prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_scans_total",
			Help: "Analyses run, by outcome.",
		}, []string{"status"}),
		BreakoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_events_total",
			Help: "Breakout events seen for the first time, by strategy.",
		}, []string{"strategy"}),
		AnalyzeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "breakout_analyze_duration_seconds",
			Help:    "Indicator and breakout computation time.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "breakout_fetch_duration_seconds",
			Help:    "Market data fetch time, by provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_fetch_cache_lookups_total",
			Help: "Fetch cache lookups, by result (hit/miss).",
		}, []string{"result"}),
		BarsAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breakout_bars_analyzed_total",
			Help: "Bars fed through the indicator engine.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.ScansTotal, m.BreakoutsTotal, m.AnalyzeDur, m.FetchDur, m.CacheLookups, m.BarsAnalyzed)
	return m
}

// ObserveScan records the outcome of one analysis.
func (m *Metrics) ObserveScan(status string, bars int, dur time.Duration) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(status).Inc()
	m.BarsAnalyzed.Add(float64(bars))
	m.AnalyzeDur.Observe(dur.Seconds())
}

// ObserveBreakouts counts events the recorder has not seen before. Events
// that repeat across scans of overlapping windows must be filtered out by
// the caller.
func (m *Metrics) ObserveBreakouts(fresh []model.BreakoutEvent) {
	if m == nil {
		return
	}
	for _, e := range fresh {
		m.BreakoutsTotal.WithLabelValues(e.StrategyID).Inc()
	}
}

// ObserveFetch records one provider round trip.
func (m *Metrics) ObserveFetch(provider string, dur time.Duration) {
	if m == nil {
		return
	}
	m.FetchDur.WithLabelValues(provider).Observe(dur.Seconds())
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
