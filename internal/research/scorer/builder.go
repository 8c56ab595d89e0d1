package scorer

import (
	"fmt"

	"github.com/guregu/null/v6"

	"robostock/internal/types"
)

// builder accumulates one CompanyResult. Every result, whether fully
// computed or not, goes through build.
type builder struct {
	res types.CompanyResult
}

func newBuilder(symbol string) *builder {
	return &builder{res: types.CompanyResult{Symbol: symbol}}
}

func (b *builder) fail(stage, field string, err error) {
	b.res.Failures = append(b.res.Failures, types.Failure{
		Stage:   stage,
		Field:   field,
		Kind:    types.KindOf(err),
		Message: err.Error(),
	})
}

// soft records a failure that was replaced by a documented default.
func (b *builder) soft(stage, field string, err error) {
	b.fail(stage, field, err)
	b.res.Failures[len(b.res.Failures)-1].Soft = true
}

// failAll records each error of a joined error separately.
func (b *builder) failAll(stage string, err error) {
	if err == nil {
		return
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			b.fail(stage, "", e)
		}
		return
	}
	b.fail(stage, "", err)
}

// derived stores v in dst, recording why it is unknown when it is: a
// missing input is missing data, otherwise the computation was undefined.
func (b *builder) derived(dst *null.Float, field string, v null.Float, inputs ...null.Float) {
	*dst = types.Finite(v)
	if dst.Valid {
		return
	}
	for _, in := range inputs {
		if !types.Known(in) {
			b.fail("scoring", field, types.ErrMissingData)
			return
		}
	}
	b.fail("scoring", field, types.ErrUndefined)
}

func (b *builder) build() types.CompanyResult {
	r := b.res
	r.ErrorMessage = types.JoinFailures(r.Failures)
	switch {
	case r.ErrorMessage == "":
		r.Status = types.StatusComplete
	case !anyKnown(r.IRR, r.NPVMean, r.NPVRegression, r.ROC, r.EarningsYield, r.MOP, r.QA, r.EBIT):
		r.Status = types.StatusFailed
	default:
		r.Status = types.StatusPartial
	}
	return r
}

func anyKnown(vals ...null.Float) bool {
	for _, v := range vals {
		if types.Known(v) {
			return true
		}
	}
	return false
}

var errNoOverlap = fmt.Errorf("income and balance statements share no fiscal year: %w", types.ErrMissingData)
