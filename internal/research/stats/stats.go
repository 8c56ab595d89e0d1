package stats

import (
	"math"
	"sort"
)

// Mean of the defined values in vals; NaN when none are defined.
func Mean(vals []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Median skips NaN entries. An empty or all-NaN input yields NaN.
func Median(vals []float64) float64 {
	d := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			d = append(d, v)
		}
	}
	if len(d) == 0 {
		return math.NaN()
	}
	sort.Float64s(d)
	m := len(d) / 2
	if len(d)%2 == 1 {
		return d[m]
	}
	return (d[m-1] + d[m]) / 2
}

// PctChange returns the fractional change (cur-prev)/prev between consecutive
// values. The output has len(vals)-1 entries; a change off a zero or NaN base
// is NaN. A shrinking loss (-2 to -1) reads as a negative change.
func PctChange(vals []float64) []float64 {
	if len(vals) < 2 {
		return nil
	}
	out := make([]float64, len(vals)-1)
	for i := 1; i < len(vals); i++ {
		prev, cur := vals[i-1], vals[i]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(cur) {
			out[i-1] = math.NaN()
			continue
		}
		out[i-1] = (cur - prev) / prev
	}
	return out
}

// RollingMedian is the trailing median over window entries. Positions before
// the first full window, and windows containing NaN, are NaN.
func RollingMedian(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	for i := range vals {
		out[i] = math.NaN()
		if window <= 0 || i+1 < window {
			continue
		}
		w := vals[i+1-window : i+1]
		full := true
		for _, v := range w {
			if math.IsNaN(v) {
				full = false
				break
			}
		}
		if full {
			out[i] = Median(w)
		}
	}
	return out
}

// Last returns the trailing n entries of vals (all of them when shorter).
func Last(vals []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if len(vals) <= n {
		return vals
	}
	return vals[len(vals)-n:]
}

// OLS fits y = intercept + slope*x by least squares. NaN is returned when
// fewer than two points are given or x has no variance.
func OLS(xs, ys []float64) (slope, intercept float64) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return math.NaN(), math.NaN()
	}
	mx, my := Mean(xs), Mean(ys)
	num, den := 0.0, 0.0
	for i := range xs {
		dx := xs[i] - mx
		num += dx * (ys[i] - my)
		den += dx * dx
	}
	if den == 0 {
		return math.NaN(), math.NaN()
	}
	slope = num / den
	return slope, my - slope*mx
}

// Index returns the 1-based time index 1..n.
func Index(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

// AnyNegative reports whether any defined value is below zero.
func AnyNegative(vals []float64) bool {
	for _, v := range vals {
		if v < 0 {
			return true
		}
	}
	return false
}
