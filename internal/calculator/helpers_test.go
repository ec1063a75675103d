package calculator

import (
	"time"

	"BreakoutSentinel/internal/model"
)

var t0 = time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

func seriesFromCloses(closes []float64, volume float64) model.Series {
	s := make(model.Series, len(closes))
	for i, c := range closes {
		s[i] = model.OHLCV{
			Time:   t0.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 1,
			Low:    c - 0.5,
			Close:  c,
			Volume: volume,
		}
	}
	return s
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func line(vals ...float64) model.Line {
	out := make(model.Line, len(vals))
	for i, v := range vals {
		out[i] = model.Some(v)
	}
	return out
}
