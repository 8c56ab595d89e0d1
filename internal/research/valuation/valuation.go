package valuation

import (
	"errors"
	"fmt"
	"math"

	"github.com/guregu/null/v6"

	"robostock/internal/types"
)

const (
	DefaultDiscountRate = 0.09
	DefaultHorizon      = 10

	irrLow  = -0.99
	irrHigh = 10.0
	irrStep = 0.01
	irrTol  = 1e-10
)

// Inputs to a single company valuation.
type Inputs struct {
	Base         null.Float
	Price        null.Float
	Growth       types.GrowthEstimate
	DiscountRate float64
	Horizon      int
}

// Project compounds base forward: year i is base*(1+rate)^i for i=1..years.
func Project(base, rate float64, years int) []float64 {
	if years <= 0 {
		return nil
	}
	out := make([]float64, years)
	v := base
	for i := range out {
		v *= 1 + rate
		out[i] = v
	}
	return out
}

// NPV discounts flows at rate with the first flow at t=1.
func NPV(rate float64, flows []float64) float64 {
	factor := 1.0
	sum := 0.0
	for _, f := range flows {
		factor /= 1 + rate
		sum += f * factor
	}
	return sum
}

// presentValue treats flows[0] as t=0.
func presentValue(rate float64, flows []float64) float64 {
	if len(flows) == 0 {
		return 0
	}
	return flows[0] + NPV(rate, flows[1:])
}

// IRR finds the rate that zeroes the present value of flows, where flows[0]
// is at t=0. Sign changes are bracketed on a grid over (-0.99, 10] and the
// one nearest zero is refined by bisection. No root yields null.
func IRR(flows []float64) null.Float {
	if len(flows) < 2 {
		return null.Float{}
	}
	for _, f := range flows {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return null.Float{}
		}
	}

	best := math.NaN()
	lo := irrLow
	flo := presentValue(lo, flows)
	for hi := lo + irrStep; hi <= irrHigh+irrStep/2; hi += irrStep {
		fhi := presentValue(hi, flows)
		var root float64
		switch {
		case flo == 0:
			root = lo
		case fhi == 0:
			root = hi
		case (flo < 0) != (fhi < 0):
			root = bisect(flows, lo, hi, flo)
		default:
			lo, flo = hi, fhi
			continue
		}
		if math.IsNaN(best) || math.Abs(root) < math.Abs(best) {
			best = root
		}
		lo, flo = hi, fhi
	}
	return types.Value(best)
}

func bisect(flows []float64, lo, hi, flo float64) float64 {
	for i := 0; i < 200 && hi-lo > irrTol; i++ {
		mid := (lo + hi) / 2
		fm := presentValue(mid, flows)
		if fm == 0 {
			return mid
		}
		if (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// irrFor prepends the purchase price as the t=0 outflow.
func irrFor(price null.Float, projection []float64) null.Float {
	if !types.Known(price) || price.Float64 <= 0 || len(projection) == 0 {
		return null.Float{}
	}
	flows := append([]float64{-price.Float64}, projection...)
	return IRR(flows)
}

// Value projects both growth estimates over the horizon, discounts each
// projection and solves the implied IRR. Whatever could be computed is
// returned alongside a joined error describing what could not.
func Value(in Inputs) (types.Valuation, error) {
	if in.DiscountRate == 0 {
		in.DiscountRate = DefaultDiscountRate
	}
	if in.Horizon <= 0 {
		in.Horizon = DefaultHorizon
	}

	v := types.Valuation{Base: in.Base, Model: in.Growth.Model}
	if !types.Known(in.Base) {
		return v, fmt.Errorf("base value: %w", types.ErrMissingData)
	}
	var errs []error

	v.MedianProjection = Project(in.Base.Float64, in.Growth.MedianRate, in.Horizon)
	v.NPVMean = types.Value(NPV(in.DiscountRate, v.MedianProjection))

	if types.Known(in.Growth.Rate) {
		v.RegProjection = Project(in.Base.Float64, in.Growth.Rate.Float64, in.Horizon)
		v.NPVRegression = types.Value(NPV(in.DiscountRate, v.RegProjection))
	} else {
		errs = append(errs, fmt.Errorf("%s growth rate: %w", in.Growth.Model, types.ErrUndefined))
	}

	if !types.Known(in.Price) || in.Price.Float64 <= 0 {
		errs = append(errs, fmt.Errorf("price: %w", types.ErrMissingData))
		return v, errors.Join(errs...)
	}
	v.IRRMean = irrFor(in.Price, v.MedianProjection)
	v.IRR = irrFor(in.Price, v.RegProjection)
	if v.RegProjection != nil && !v.IRR.Valid {
		errs = append(errs, fmt.Errorf("irr has no root: %w", types.ErrUndefined))
	}
	return v, errors.Join(errs...)
}
