package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultVolumeLine is the volume average a breakout must exceed when a
// strategy does not name one.
const DefaultVolumeLine = "VolumeMA20"

// StrategyDefinition names a fast/slow indicator pair whose upward crossing,
// confirmed by volume, is a breakout.
type StrategyDefinition struct {
	ID     string `yaml:"id"`
	Fast   string `yaml:"fast"`
	Slow   string `yaml:"slow"`
	Volume string `yaml:"volume,omitempty"` // empty means DefaultVolumeLine
}

// VolumeLine returns the volume average line this strategy filters on.
func (d StrategyDefinition) VolumeLine() string {
	if d.Volume == "" {
		return DefaultVolumeLine
	}
	return d.Volume
}

// BreakoutEvent is one confirmed crossover.
type BreakoutEvent struct {
	Time       time.Time
	Index      int
	StrategyID string
	Close      float64
	Volume     float64
}

// Request identifies the data an analysis runs over.
type Request struct {
	Symbol   string
	Interval string
	Period   string
}

// Analysis is the result of one pipeline run for a single request.
type Analysis struct {
	RunID      uuid.UUID
	Request    Request
	Series     Series
	Indicators *IndicatorSet
	Events     []BreakoutEvent
	At         time.Time
}

// Empty reports whether the data source returned no bars.
func (a *Analysis) Empty() bool { return len(a.Series) == 0 }

// EventsSince returns events on the last n bars of the series.
func (a *Analysis) EventsSince(lastBars int) []BreakoutEvent {
	cutoff := len(a.Series) - lastBars
	var out []BreakoutEvent
	for _, e := range a.Events {
		if e.Index >= cutoff {
			out = append(out, e)
		}
	}
	return out
}
