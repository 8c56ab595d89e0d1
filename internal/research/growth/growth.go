package growth

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"

	"robostock/internal/research/stats"
	"robostock/internal/types"
)

const (
	BaseLatest  = "latest"
	BaseMedian3 = "median3"
)

// Options controls the estimator. Zero fields fall back to the defaults.
type Options struct {
	Window int     // most recent points used by the regression
	Floor  float64 // lower bound on the median-method rate
}

func DefaultOptions() Options {
	return Options{Window: 10, Floor: 0.01}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Window <= 1 {
		o.Window = d.Window
	}
	if o.Floor == 0 {
		o.Floor = d.Floor
	}
	return o
}

// Known returns the defined values of s in year order.
func Known(s types.Series) []float64 {
	out := make([]float64, 0, s.Len())
	for _, v := range s.Values {
		if types.Known(v) {
			out = append(out, v.Float64)
		}
	}
	return out
}

// Estimate runs both growth methods over s. Fewer than two usable points is
// reported as ErrInsufficientData.
func Estimate(s types.Series, opts Options) (types.GrowthEstimate, error) {
	opts = opts.withDefaults()
	vals := Known(s)
	if len(vals) < 2 {
		return types.GrowthEstimate{}, fmt.Errorf("growth needs 2 points, have %d: %w", len(vals), types.ErrInsufficientData)
	}

	model, rate := Regression(vals, opts.Window)
	changes := stats.PctChange(vals)
	return types.GrowthEstimate{
		Model:      model,
		Rate:       rate,
		MedianRate: MedianRate(changes, opts.Floor),
		Flag:       Flag(changes),
		Points:     len(vals),
		History:    append([]float64(nil), stats.Last(vals, 3)...),
	}, nil
}

// Regression fits the trailing window of vals against a 1-based index. A
// log-linear fit is used when every value is positive and its slope b gives
// the rate e^b - 1. Otherwise a linear fit is used and the slope is scaled
// by the window mean; a zero mean leaves the rate undefined.
func Regression(vals []float64, window int) (types.RegressionModel, null.Float) {
	w := stats.Last(vals, window)
	xs := stats.Index(len(w))

	positive := true
	for _, v := range w {
		if v <= 0 {
			positive = false
			break
		}
	}

	if positive {
		logs := make([]float64, len(w))
		for i, v := range w {
			logs[i] = math.Log(v)
		}
		slope, _ := stats.OLS(xs, logs)
		return types.ModelLogLinear, types.Value(math.Exp(slope) - 1)
	}

	slope, _ := stats.OLS(xs, w)
	mean := stats.Mean(w)
	if mean == 0 {
		return types.ModelLinear, null.Float{}
	}
	return types.ModelLinear, types.Value(slope / mean)
}

// MedianRate takes the smaller of the median of the last three changes and
// the median of the last three 3-period rolling medians, floored.
func MedianRate(changes []float64, floor float64) float64 {
	raw := stats.Median(stats.Last(changes, 3))
	rolling := stats.Median(stats.Last(stats.RollingMedian(changes, 3), 3))

	rate := floor
	switch {
	case !math.IsNaN(raw) && !math.IsNaN(rolling):
		rate = math.Min(raw, rolling)
	case !math.IsNaN(raw):
		rate = raw
	case !math.IsNaN(rolling):
		rate = rolling
	}
	if math.IsInf(rate, 0) || rate < floor {
		return floor
	}
	return rate
}

// Flag is Negative when any of the three most recent changes fell.
func Flag(changes []float64) string {
	if stats.AnyNegative(stats.Last(changes, 3)) {
		return types.FlagNegative
	}
	return types.FlagPositive
}

// Base picks the starting value for a projection.
func Base(s types.Series, mode string) (null.Float, error) {
	vals := Known(s)
	if len(vals) == 0 {
		return null.Float{}, fmt.Errorf("no base value: %w", types.ErrMissingData)
	}
	switch mode {
	case "", BaseLatest:
		return null.FloatFrom(vals[len(vals)-1]), nil
	case BaseMedian3:
		return null.FloatFrom(stats.Median(stats.Last(vals, 3))), nil
	}
	return null.Float{}, fmt.Errorf("invalid base mode %q", mode)
}
