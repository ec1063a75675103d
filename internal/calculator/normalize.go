package calculator

import (
	"math"
	"sort"
	"time"

	"BreakoutSentinel/internal/model"
)

// Normalize validates raw bars and returns them as a Series: sorted by time,
// with only the first occurrence of each timestamp kept. Later duplicates are
// dropped without being validated. A missing (NaN) volume is treated as zero.
// Empty input yields an empty series.
func Normalize(raw []model.OHLCV) (model.Series, error) {
	seen := make(map[time.Time]struct{}, len(raw))
	out := make(model.Series, 0, len(raw))
	for i, b := range raw {
		// time.Time with different locations must still collide
		key := b.Time.UTC()
		if _, dup := seen[key]; dup {
			continue
		}
		if err := validateBar(i, b); err != nil {
			return nil, err
		}
		seen[key] = struct{}{}
		if math.IsNaN(b.Volume) {
			b.Volume = 0
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// RequireBars fails when a caller needs at least n bars and the series is shorter.
func RequireBars(s model.Series, n int) error {
	if len(s) < n {
		return model.Invalid("series", "need at least %d bars, got %d", n, len(s))
	}
	return nil
}

func validateBar(i int, b model.OHLCV) error {
	if b.Time.IsZero() {
		return model.Invalid("bar", "#%d has no timestamp", i)
	}
	prices := [...]struct {
		name string
		v    float64
	}{{"close", b.Close}, {"open", b.Open}, {"high", b.High}, {"low", b.Low}}
	for _, p := range prices {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) || p.v <= 0 {
			return model.Invalid("bar", "#%d at %s has non-positive %s %v", i, b.Time.Format(time.RFC3339), p.name, p.v)
		}
	}
	if math.IsInf(b.Volume, 0) || b.Volume < 0 {
		return model.Invalid("bar", "#%d at %s has invalid volume %v", i, b.Time.Format(time.RFC3339), b.Volume)
	}
	return nil
}
