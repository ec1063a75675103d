package model

import "sort"

// Optional is a real value that may be undefined, e.g. before an indicator's lookback is satisfied.
type Optional struct {
	Value float64
	Valid bool
}

// Some wraps a defined value.
func Some(v float64) Optional { return Optional{Value: v, Valid: true} }

// Line is an indicator series, one Optional per bar of the source Series.
type Line []Optional

// NewLine returns a line of n undefined values.
func NewLine(n int) Line { return make(Line, n) }

// FirstValid returns the index of the first defined value, or -1.
func (l Line) FirstValid() int {
	for i, v := range l {
		if v.Valid {
			return i
		}
	}
	return -1
}

// Last returns the final value of the line (possibly undefined).
func (l Line) Last() Optional {
	if len(l) == 0 {
		return Optional{}
	}
	return l[len(l)-1]
}

// Indicator line names used by the default window configuration.
const (
	NameMACD       = "MACD"
	NameMACDSignal = "MACDSignal"
	NameMACDHist   = "MACDHist"
)

// IndicatorSet maps indicator names to lines aligned with a Series of length Len.
type IndicatorSet struct {
	Len   int
	Lines map[string]Line
}

// NewIndicatorSet creates an empty set for a series of n bars.
func NewIndicatorSet(n int) *IndicatorSet {
	return &IndicatorSet{Len: n, Lines: make(map[string]Line)}
}

// Add stores a line under name, replacing any previous one.
func (s *IndicatorSet) Add(name string, l Line) {
	s.Lines[name] = l
}

// Get returns the named line.
func (s *IndicatorSet) Get(name string) (Line, bool) {
	l, ok := s.Lines[name]
	return l, ok
}

// Names lists the indicator names in sorted order.
func (s *IndicatorSet) Names() []string {
	names := make([]string, 0, len(s.Lines))
	for n := range s.Lines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Latest returns the last value of every line, keyed by name.
func (s *IndicatorSet) Latest() map[string]Optional {
	out := make(map[string]Optional, len(s.Lines))
	for n, l := range s.Lines {
		out[n] = l.Last()
	}
	return out
}
