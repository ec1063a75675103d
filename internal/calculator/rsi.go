package calculator

import (
	"BreakoutSentinel/internal/model"
)

// RSI computes the Wilder-smoothed relative strength index of closes. The
// first `length` gains/losses seed the averages with a simple mean; position i
// is defined once i >= length.
func RSI(closes []float64, length int) (model.Line, error) {
	if length <= 0 {
		return nil, model.Invalid("rsi length", "must be positive, got %d", length)
	}
	out := model.NewLine(len(closes))
	if len(closes) <= length {
		return out, nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= length; i++ {
		gain, loss := change(closes[i-1], closes[i])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(length)
	avgLoss /= float64(length)
	out[length] = model.Some(rsiValue(avgGain, avgLoss))

	p := float64(length)
	for i := length + 1; i < len(closes); i++ {
		gain, loss := change(closes[i-1], closes[i])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = model.Some(rsiValue(avgGain, avgLoss))
	}
	return out, nil
}

func change(prev, cur float64) (gain, loss float64) {
	d := cur - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
