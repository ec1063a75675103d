package calculator

import (
	"BreakoutSentinel/internal/model"
)

// CrossesAbove returns every index i >= 1 where fast moved from strictly below
// slow at i-1 to strictly above it at i. All four values must be defined; a
// bar where the lines are equal is neither the before nor the after of a cross.
func CrossesAbove(fast, slow model.Line) ([]int, error) {
	return crosses(fast, slow, func(a, b float64) bool { return a > b })
}

// CrossesBelow is the mirror of CrossesAbove.
func CrossesBelow(fast, slow model.Line) ([]int, error) {
	return crosses(fast, slow, func(a, b float64) bool { return a < b })
}

func crosses(fast, slow model.Line, after func(a, b float64) bool) ([]int, error) {
	if len(fast) != len(slow) {
		return nil, model.Invalid("crossover", "line lengths differ: %d vs %d", len(fast), len(slow))
	}
	var idx []int
	for i := 1; i < len(fast); i++ {
		pf, ps, cf, cs := fast[i-1], slow[i-1], fast[i], slow[i]
		if !pf.Valid || !ps.Valid || !cf.Valid || !cs.Valid {
			continue
		}
		if after(cf.Value, cs.Value) && after(ps.Value, pf.Value) {
			idx = append(idx, i)
		}
	}
	return idx, nil
}
