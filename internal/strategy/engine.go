package strategy

import (
	"BreakoutSentinel/internal/calculator"
	"BreakoutSentinel/internal/model"
)

// Strategy ids of the default set.
const (
	FastTrend  = "fast_trend"
	MidTrend   = "mid_trend"
	MajorTrend = "major_trend"
)

// DefaultStrategies returns the SMA 9/20, 20/50 and 50/200 breakout pairs.
func DefaultStrategies() []model.StrategyDefinition {
	return []model.StrategyDefinition{
		{ID: FastTrend, Fast: calculator.SMAName(9), Slow: calculator.SMAName(20)},
		{ID: MidTrend, Fast: calculator.SMAName(20), Slow: calculator.SMAName(50)},
		{ID: MajorTrend, Fast: calculator.SMAName(50), Slow: calculator.SMAName(200)},
	}
}

// ValidateDefinitions checks ids are present and unique, and, when set is
// non-nil, that every referenced line exists in it.
func ValidateDefinitions(defs []model.StrategyDefinition, set *model.IndicatorSet) error {
	ids := make(map[string]bool, len(defs))
	for i, d := range defs {
		if d.ID == "" {
			return model.Invalid("strategy", "#%d has no id", i)
		}
		if ids[d.ID] {
			return model.Invalid("strategy", "duplicate id %q", d.ID)
		}
		ids[d.ID] = true
		if d.Fast == "" || d.Slow == "" {
			return model.Invalid("strategy", "%q needs both fast and slow lines", d.ID)
		}
		if d.Fast == d.Slow {
			return model.Invalid("strategy", "%q compares %s with itself", d.ID, d.Fast)
		}
		if set == nil {
			continue
		}
		for _, name := range []string{d.Fast, d.Slow, d.VolumeLine()} {
			if _, ok := set.Get(name); !ok {
				return model.Invalid("strategy", "%q references unknown indicator %s", d.ID, name)
			}
		}
	}
	return nil
}

// DetectBreakouts flags, for each strategy, the bars where its fast line
// crosses above its slow line while volume exceeds the strategy's volume
// average. Events come out in bar order; strategies firing on the same bar
// each get their own event, in definition order.
func DetectBreakouts(s model.Series, set *model.IndicatorSet, defs []model.StrategyDefinition) ([]model.BreakoutEvent, error) {
	if set == nil {
		return nil, model.Invalid("indicators", "missing indicator set")
	}
	if set.Len != len(s) {
		return nil, model.Invalid("indicators", "set covers %d bars, series has %d", set.Len, len(s))
	}
	if err := ValidateDefinitions(defs, set); err != nil {
		return nil, err
	}
	if len(s) < 2 {
		return nil, nil
	}

	// fired[i] lists strategy positions confirmed at bar i
	fired := make(map[int][]int)
	for pos, d := range defs {
		fast, _ := set.Get(d.Fast)
		slow, _ := set.Get(d.Slow)
		volMA, _ := set.Get(d.VolumeLine())
		if len(fast) != len(s) || len(slow) != len(s) || len(volMA) != len(s) {
			return nil, model.Invalid("strategy", "%q lines are not aligned with the series", d.ID)
		}

		idx, err := calculator.CrossesAbove(fast, slow)
		if err != nil {
			return nil, err
		}
		for _, i := range idx {
			if volumeConfirms(s[i].Volume, volMA[i]) {
				fired[i] = append(fired[i], pos)
			}
		}
	}

	var events []model.BreakoutEvent
	for i := range s {
		for _, pos := range fired[i] {
			events = append(events, model.BreakoutEvent{
				Time:       s[i].Time,
				Index:      i,
				StrategyID: defs[pos].ID,
				Close:      s[i].Close,
				Volume:     s[i].Volume,
			})
		}
	}
	return events, nil
}

func volumeConfirms(volume float64, avg model.Optional) bool {
	return avg.Valid && volume > avg.Value
}
