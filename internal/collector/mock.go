package collector

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"BreakoutSentinel/internal/model"
)

// MockFetcher returns deterministic synthetic bars for development and testing.
type MockFetcher struct {
	Price float64       // base price, 100 when zero
	Bars  []model.OHLCV // returned verbatim when set
	End   time.Time     // time of the last bar, now when zero
	Err   error         // returned instead of bars when set
	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many times FetchBars ran.
func (m *MockFetcher) Calls() int { return int(m.calls.Load()) }

func (m *MockFetcher) FetchBars(ctx context.Context, req model.Request) ([]model.OHLCV, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	price := m.Price
	if price == 0 {
		price = 100
	}
	step := intervalStep(req.Interval)
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(step)
	}
	return generateMockBars(price, barCount(req.Interval, req.Period), end, step), nil
}

// generateMockBars draws a slow uptrend with a sine swing so that the
// moving averages cross, and a volume pattern that spikes every few bars.
func generateMockBars(basePrice float64, count int, end time.Time, step time.Duration) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/6) + 0.0005*float64(i))
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1_000_000 + float64((i*37)%11)*100_000,
		}
	}
	return bars
}

func intervalStep(interval string) time.Duration {
	switch interval {
	case "1h":
		return time.Hour
	case "1wk":
		return 7 * 24 * time.Hour
	case "1mo":
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// barCount approximates how many trading bars a period holds.
func barCount(interval, period string) int {
	days := map[string]int{"1mo": 30, "3mo": 91, "6mo": 182, "1y": 365, "2y": 730}[period]
	if days == 0 {
		days = 30
	}
	var n int
	switch interval {
	case "1h":
		n = days * 5 / 7 * 7
	case "1wk":
		n = days / 7
	case "1mo":
		n = days / 30
	default:
		n = days * 5 / 7
	}
	if n < 1 {
		n = 1
	}
	return n
}
