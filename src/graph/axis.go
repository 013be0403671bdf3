package graph

import (
	"math"
	"strconv"
)

// clampDimensions applies the width and per-panel height bounds used for figures.
func clampDimensions(width, panelHeight int) (int, int) {
	w := width
	if w < 800 {
		w = 800
	}
	h := panelHeight
	if h <= 0 {
		h = int(float32(w) * 0.5)
	}
	if h < 180 {
		h = 180
	}
	if h > 1200 {
		h = 1200
	}
	return w, h
}

// timeTicks returns about n tick positions from 0 using a 1,2,2.5,5 * 10^k step. The last
// tick is the first step multiple >= maxSeconds, so the ticks also define the axis range.
func timeTicks(maxSeconds float64, n int) []float64 {
	if maxSeconds <= 0 {
		maxSeconds = 1
	}
	if n < 2 {
		return []float64{0, maxSeconds}
	}
	step := niceStep(maxSeconds / float64(n-1))
	end := round6(math.Ceil(round6(maxSeconds/step)) * step)
	out := make([]float64, 0, n+1)
	for i := 0; ; i++ {
		v := round6(float64(i) * step)
		out = append(out, v)
		if v >= end {
			break
		}
	}
	return out
}

// niceStep rounds a raw step up to 1, 2, 2.5, 5 or 10 times a power of ten.
func niceStep(raw float64) float64 {
	mag := pow10Floor(raw)
	norm := raw / mag
	switch {
	case norm <= 1:
		return mag
	case norm <= 2:
		return 2 * mag
	case norm <= 2.5:
		return 2.5 * mag
	case norm <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

func pow10Floor(x float64) float64 {
	if x <= 0 {
		return 1
	}
	return math.Pow(10, math.Floor(math.Log10(x)))
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// zeroAnchoredTicks returns ticks from 0 covering max with roughly n marks. The last tick is
// always >= max so it can double as the axis upper bound.
func zeroAnchoredTicks(max float64, n int) []float64 {
	if math.IsNaN(max) || max <= 0 {
		max = 1
	}
	if n < 2 {
		n = 2
	}
	// 5% headroom keeps the curve off the frame
	top := max * 1.05
	step := niceStep(top / float64(n-1))
	var out []float64
	for v := 0.0; v < top+step; v += step {
		out = append(out, round6(v))
		if v >= top {
			break
		}
	}
	return out
}

// integerTicks returns 0..>max ticks with an integer step, for counts such as replicas.
// The bound is computed in float64 so counts near math.MaxInt still yield a usable axis.
func integerTicks(max int, n int) []float64 {
	if n < 2 {
		n = 2
	}
	top := math.Max(float64(max), 1) + 1
	step := math.Max(math.Ceil(top/float64(n-1)), 1)
	var out []float64
	for i := 0; ; i++ {
		v := float64(i) * step
		out = append(out, v)
		if v >= top {
			break
		}
	}
	return out
}

// formatTick provides a compact tick label.
func formatTick(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 1e15:
		return strconv.FormatFloat(v, 'g', 3, 64)
	case v == math.Trunc(v) || av >= 100:
		return strconv.FormatInt(int64(math.Round(v)), 10)
	case av >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}
