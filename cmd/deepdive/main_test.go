package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/guregu/null/v6"

	"robostock/internal/types"
)

func TestPrintValuationNPVOrder(t *testing.T) {
	r := &types.CompanyResult{
		NPVMean:        null.FloatFrom(12.5),
		NPVRegression:  null.FloatFrom(20),
		RegressionType: types.ModelLogLinear,
	}

	for i := 0; i < 20; i++ {
		var buf bytes.Buffer
		printValuation(&buf, r)
		out := buf.String()

		mean := strings.Index(out, "npv_mean: ")
		reg := strings.Index(out, "npv_log-linear: ")
		if mean < 0 || reg < 0 {
			t.Fatalf("Expected both NPV lines, got:\n%s", out)
		}
		if mean > reg {
			t.Fatalf("Expected npv_mean before the regression NPV, got:\n%s", out)
		}
		if !strings.Contains(out, "12.50") || !strings.Contains(out, "20.00") {
			t.Errorf("Unexpected NPV values:\n%s", out)
		}
	}
}

func TestRegressionNPVLabelDefault(t *testing.T) {
	r := &types.CompanyResult{}
	if got := r.RegressionNPVLabel(); got != "npv_regression" {
		t.Errorf("Expected npv_regression, got %s", got)
	}
}
