package types

import (
	"math"

	"github.com/guregu/null/v6"
)

// Known reports whether f holds a finite value. NaN and ±Inf are treated
// the same as null everywhere in the pipeline.
func Known(f null.Float) bool {
	return f.Valid && !math.IsNaN(f.Float64) && !math.IsInf(f.Float64, 0)
}

// Finite normalises f so that non-finite values become null.
func Finite(f null.Float) null.Float {
	if Known(f) {
		return f
	}
	return null.Float{}
}

// Value wraps v, mapping NaN and ±Inf to null.
func Value(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// Div returns a/b, or null when either side is unknown or b is zero.
func Div(a, b null.Float) null.Float {
	if !Known(a) || !Known(b) || b.Float64 == 0 {
		return null.Float{}
	}
	return Value(a.Float64 / b.Float64)
}

func Add(a, b null.Float) null.Float {
	if !Known(a) || !Known(b) {
		return null.Float{}
	}
	return Value(a.Float64 + b.Float64)
}

func Sub(a, b null.Float) null.Float {
	if !Known(a) || !Known(b) {
		return null.Float{}
	}
	return Value(a.Float64 - b.Float64)
}

// Abs keeps unknown values unknown.
func Abs(a null.Float) null.Float {
	if !Known(a) {
		return null.Float{}
	}
	return null.FloatFrom(math.Abs(a.Float64))
}
