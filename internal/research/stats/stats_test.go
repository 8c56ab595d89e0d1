package stats

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"skips nan", []float64{math.NaN(), 5, 1}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.in); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if !math.IsNaN(Median(nil)) {
		t.Error("Expected NaN for empty input")
	}
	if !math.IsNaN(Median([]float64{math.NaN()})) {
		t.Error("Expected NaN for all-NaN input")
	}
}

func TestPctChange(t *testing.T) {
	got := PctChange([]float64{1, 1.1, 0, 2})
	if len(got) != 3 {
		t.Fatalf("Expected 3 changes, got %d", len(got))
	}
	if math.Abs(got[0]-0.1) > 1e-12 {
		t.Errorf("Expected 0.1, got %v", got[0])
	}
	if got[1] != -1 {
		t.Errorf("Expected -1, got %v", got[1])
	}
	if !math.IsNaN(got[2]) {
		t.Errorf("Expected NaN for change off zero, got %v", got[2])
	}

	if PctChange([]float64{1}) != nil {
		t.Error("Expected nil for a single value")
	}
}

func TestPctChangeNegativeBase(t *testing.T) {
	// Divides by the signed previous value: a shrinking loss is negative.
	got := PctChange([]float64{-4, -3, -2, -1})
	want := []float64{-0.25, -1.0 / 3, -0.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestRollingMedian(t *testing.T) {
	got := RollingMedian([]float64{1, 5, 3, math.NaN(), 2, 4, 6}, 3)
	want := []float64{math.NaN(), math.NaN(), 3, math.NaN(), math.NaN(), math.NaN(), 4}
	for i := range want {
		if math.IsNaN(want[i]) != math.IsNaN(got[i]) || (!math.IsNaN(want[i]) && got[i] != want[i]) {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestOLS(t *testing.T) {
	slope, intercept := OLS([]float64{1, 2, 3, 4}, []float64{3, 5, 7, 9})
	if math.Abs(slope-2) > 1e-12 || math.Abs(intercept-1) > 1e-12 {
		t.Errorf("Expected slope 2 intercept 1, got %v %v", slope, intercept)
	}

	s, _ := OLS([]float64{1, 1}, []float64{2, 3})
	if !math.IsNaN(s) {
		t.Errorf("Expected NaN slope for zero variance, got %v", s)
	}
}

func TestLast(t *testing.T) {
	v := []float64{1, 2, 3, 4}
	if got := Last(v, 2); len(got) != 2 || got[0] != 3 {
		t.Errorf("Expected [3 4], got %v", got)
	}
	if got := Last(v, 10); len(got) != 4 {
		t.Errorf("Expected all 4 values, got %v", got)
	}
}
