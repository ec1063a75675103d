package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/pkg/errors"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/retrier"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Retrier *retrier.Retrier
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		Retrier: newRetrier(),
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API.
type vsBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    *float64 `json:"volume"`
}

// FetchBars downloads bars for req. Weekly requests fall back to daily bars
// aggregated into ISO weeks when the weekly endpoint fails.
func (f *VsTraderFetcher) FetchBars(ctx context.Context, req model.Request) ([]model.OHLCV, error) {
	bars, err := f.fetch(ctx, req.Symbol, req.Interval, req.Period)
	if err == nil || req.Interval != "1wk" || ctx.Err() != nil {
		return bars, err
	}
	daily, dailyErr := f.fetch(ctx, req.Symbol, "1d", req.Period)
	if dailyErr != nil {
		return nil, errors.Wrapf(dailyErr, "weekly fetch failed (%v); daily fallback", err)
	}
	return aggregateDailyToWeekly(daily), nil
}

func (f *VsTraderFetcher) fetch(ctx context.Context, symbol, interval, period string) ([]model.OHLCV, error) {
	q := url.Values{"symbol": {symbol}, "interval": {interval}, "period": {period}}
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, q.Encode())
	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}

	var vsBars []vsBar
	if err := getJSON(ctx, f.Client, f.Retrier, endpoint, header, &vsBars); err != nil {
		return nil, errors.Wrapf(err, "vstrader %s %s", symbol, interval)
	}
	bars := make([]model.OHLCV, len(vsBars))
	for i, vb := range vsBars {
		var vol float64
		if vb.Volume != nil {
			vol = *vb.Volume
		}
		bars[i] = model.OHLCV{
			Time:   time.Unix(vb.Timestamp, 0).UTC(),
			Open:   vb.Open,
			High:   vb.High,
			Low:    vb.Low,
			Close:  vb.Close,
			Volume: vol,
		}
	}
	return bars, nil
}

// aggregateDailyToWeekly folds daily bars into one bar per ISO week, stamped
// with the week's first trading day. The input is sorted by time first.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	daily = append([]model.OHLCV(nil), daily...)
	sort.SliceStable(daily, func(i, j int) bool { return daily[i].Time.Before(daily[j].Time) })

	var weekly []model.OHLCV
	lastKey := -1
	for _, d := range daily {
		year, week := d.Time.UTC().ISOWeek()
		key := year*100 + week
		if key != lastKey {
			weekly = append(weekly, d)
			lastKey = key
			continue
		}
		w := &weekly[len(weekly)-1]
		if d.High > w.High {
			w.High = d.High
		}
		if d.Low < w.Low {
			w.Low = d.Low
		}
		w.Close = d.Close
		w.Volume += d.Volume
	}
	return weekly
}
