package model

import "time"

// Field selects which value of a bar an indicator reads.
type Field int

const (
	FieldClose Field = iota
	FieldOpen
	FieldHigh
	FieldLow
	FieldVolume
)

func (f Field) String() string {
	switch f {
	case FieldOpen:
		return "open"
	case FieldHigh:
		return "high"
	case FieldLow:
		return "low"
	case FieldVolume:
		return "volume"
	default:
		return "close"
	}
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Value returns the requested field of the bar.
func (b OHLCV) Value(f Field) float64 {
	switch f {
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldVolume:
		return b.Volume
	default:
		return b.Close
	}
}

// Series is an ordered run of bars with strictly increasing, unique timestamps.
// Only the calculator's normalizer should construct one from raw data.
type Series []OHLCV

// Values extracts one field of every bar, index-aligned to the series.
func (s Series) Values(f Field) []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Value(f)
	}
	return out
}

// Closes is shorthand for Values(FieldClose).
func (s Series) Closes() []float64 { return s.Values(FieldClose) }

// Last returns the most recent bar.
func (s Series) Last() (OHLCV, bool) {
	if len(s) == 0 {
		return OHLCV{}, false
	}
	return s[len(s)-1], true
}
