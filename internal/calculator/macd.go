package calculator

import (
	"BreakoutSentinel/internal/model"
)

// EMA computes an exponential moving average with k = 2/(n+1).
//
// Every EMA in this package follows one seeding rule: the recurrence starts
// from the first defined input, and the output stays undefined until n inputs
// have been consumed. Undefined inputs after the seed are skipped and leave
// the output undefined at that position.
func EMA(in model.Line, n int) (model.Line, error) {
	if n <= 0 {
		return nil, model.Invalid("ema period", "must be positive, got %d", n)
	}
	out := model.NewLine(len(in))
	k := 2.0 / float64(n+1)

	var ema float64
	seen := 0
	for i, v := range in {
		if !v.Valid {
			continue
		}
		if seen == 0 {
			ema = v.Value
		} else {
			ema = v.Value*k + ema*(1-k)
		}
		seen++
		if seen >= n {
			out[i] = model.Some(ema)
		}
	}
	return out, nil
}

// MACD returns the MACD line (EMA(fast) - EMA(slow)), its EMA(signal) signal
// line, and the histogram (MACD - signal). With the EMA seeding rule the MACD
// line is defined from slow-1 and the signal from slow+signal-2.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist model.Line, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, nil, nil, model.Invalid("macd", "periods must be positive, got %d/%d/%d", fast, slow, signal)
	}
	if fast >= slow {
		return nil, nil, nil, model.Invalid("macd", "fast period %d must be below slow period %d", fast, slow)
	}

	src := defined(closes)
	fastLine, err := EMA(src, fast)
	if err != nil {
		return nil, nil, nil, err
	}
	slowLine, err := EMA(src, slow)
	if err != nil {
		return nil, nil, nil, err
	}

	macd = model.NewLine(len(closes))
	for i := range closes {
		if fastLine[i].Valid && slowLine[i].Valid {
			macd[i] = model.Some(fastLine[i].Value - slowLine[i].Value)
		}
	}

	sig, err = EMA(macd, signal)
	if err != nil {
		return nil, nil, nil, err
	}
	hist = model.NewLine(len(closes))
	for i := range closes {
		if macd[i].Valid && sig[i].Valid {
			hist[i] = model.Some(macd[i].Value - sig[i].Value)
		}
	}
	return macd, sig, hist, nil
}

func defined(values []float64) model.Line {
	out := make(model.Line, len(values))
	for i, v := range values {
		out[i] = model.Some(v)
	}
	return out
}
