package calculator

import (
	"math"

	"BreakoutSentinel/internal/model"
)

// resyncEvery bounds drift of the sliding sum on long series: the window is
// re-summed from scratch at this interval.
const resyncEvery = 4096

// SMA computes the simple moving average of values over window. Position i is
// defined once i >= window-1.
func SMA(values []float64, window int) (model.Line, error) {
	if window <= 0 {
		return nil, model.Invalid("window", "must be positive, got %d", window)
	}
	out := model.NewLine(len(values))
	if len(values) < window {
		return out, nil
	}

	var sum neumaier
	for i := 0; i < window; i++ {
		sum.add(values[i])
	}
	out[window-1] = model.Some(sum.value() / float64(window))

	for i := window; i < len(values); i++ {
		if (i-window+1)%resyncEvery == 0 {
			sum = neumaier{}
			for j := i - window + 1; j <= i; j++ {
				sum.add(values[j])
			}
		} else {
			sum.add(values[i])
			sum.add(-values[i-window])
		}
		out[i] = model.Some(sum.value() / float64(window))
	}
	return out, nil
}

// SMAOf computes the SMA of one field of the series.
func SMAOf(s model.Series, f model.Field, window int) (model.Line, error) {
	return SMA(s.Values(f), window)
}

// neumaier is a compensated running sum.
type neumaier struct {
	sum, c float64
}

func (n *neumaier) add(x float64) {
	t := n.sum + x
	if math.Abs(n.sum) >= math.Abs(x) {
		n.c += (n.sum - t) + x
	} else {
		n.c += (x - t) + n.sum
	}
	n.sum = t
}

func (n *neumaier) value() float64 { return n.sum + n.c }
