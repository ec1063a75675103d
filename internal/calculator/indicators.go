package calculator

import (
	"strconv"

	"BreakoutSentinel/internal/model"
)

// WindowConfig lists the lookbacks ComputeIndicators uses.
type WindowConfig struct {
	SMAWindows   []int `yaml:"sma_windows"`
	VolumeWindow int   `yaml:"volume_window"`
	RSILength    int   `yaml:"rsi_length"`
	MACDFast     int   `yaml:"macd_fast"`
	MACDSlow     int   `yaml:"macd_slow"`
	MACDSignal   int   `yaml:"macd_signal"`
}

// DefaultWindows returns SMA 9/20/50/200, volume MA 20, RSI 14 and MACD 12/26/9.
func DefaultWindows() WindowConfig {
	return WindowConfig{
		SMAWindows:   []int{9, 20, 50, 200},
		VolumeWindow: 20,
		RSILength:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
	}
}

// Validate rejects non-positive or contradictory windows.
func (w WindowConfig) Validate() error {
	seen := make(map[int]bool, len(w.SMAWindows))
	for _, n := range w.SMAWindows {
		if n <= 0 {
			return model.Invalid("sma_windows", "window must be positive, got %d", n)
		}
		if seen[n] {
			return model.Invalid("sma_windows", "duplicate window %d", n)
		}
		seen[n] = true
	}
	if w.VolumeWindow <= 0 {
		return model.Invalid("volume_window", "must be positive, got %d", w.VolumeWindow)
	}
	if w.RSILength <= 0 {
		return model.Invalid("rsi_length", "must be positive, got %d", w.RSILength)
	}
	if w.MACDFast <= 0 || w.MACDSlow <= 0 || w.MACDSignal <= 0 {
		return model.Invalid("macd", "periods must be positive, got %d/%d/%d", w.MACDFast, w.MACDSlow, w.MACDSignal)
	}
	if w.MACDFast >= w.MACDSlow {
		return model.Invalid("macd", "fast period %d must be below slow period %d", w.MACDFast, w.MACDSlow)
	}
	return nil
}

// SMAName is the IndicatorSet key of a close-price SMA.
func SMAName(window int) string { return "SMA" + strconv.Itoa(window) }

// VolumeName is the IndicatorSet key of a volume SMA.
func VolumeName(window int) string { return "VolumeMA" + strconv.Itoa(window) }

// RSIName is the IndicatorSet key of an RSI line.
func RSIName(length int) string { return "RSI" + strconv.Itoa(length) }

// ComputeIndicators derives every configured indicator line from the series.
// Lines are index-aligned with s; values before a lookback is satisfied are
// undefined. An empty series yields a set of empty lines.
func ComputeIndicators(s model.Series, w WindowConfig) (*model.IndicatorSet, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	set := model.NewIndicatorSet(len(s))
	closes := s.Closes()

	for _, n := range w.SMAWindows {
		l, err := SMA(closes, n)
		if err != nil {
			return nil, err
		}
		set.Add(SMAName(n), l)
	}

	vol, err := SMA(s.Values(model.FieldVolume), w.VolumeWindow)
	if err != nil {
		return nil, err
	}
	set.Add(VolumeName(w.VolumeWindow), vol)

	rsi, err := RSI(closes, w.RSILength)
	if err != nil {
		return nil, err
	}
	set.Add(RSIName(w.RSILength), rsi)

	macd, sig, hist, err := MACD(closes, w.MACDFast, w.MACDSlow, w.MACDSignal)
	if err != nil {
		return nil, err
	}
	set.Add(model.NameMACD, macd)
	set.Add(model.NameMACDSignal, sig)
	set.Add(model.NameMACDHist, hist)

	return set, nil
}
