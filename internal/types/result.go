package types

import (
	"time"

	"github.com/guregu/null/v6"
)

// RegressionModel names the regression sub-method that produced a growth
// estimate.
type RegressionModel string

const (
	ModelLogLinear RegressionModel = "log-linear"
	ModelLinear    RegressionModel = "linear"
)

const (
	FlagPositive = "Positive"
	FlagNegative = "Negative"
)

// GrowthEstimate carries both growth methods side by side.
type GrowthEstimate struct {
	Model      RegressionModel `json:"model"`
	Rate       null.Float      `json:"rate"`
	MedianRate float64         `json:"median_rate"`
	Flag       string          `json:"flag"`
	Points     int             `json:"points"`
	History    []float64       `json:"history"`
}

// Valuation is the output of the valuation engine for one company.
type Valuation struct {
	Base             null.Float      `json:"base"`
	Model            RegressionModel `json:"model"`
	MedianProjection []float64       `json:"median_projection"`
	RegProjection    []float64       `json:"regression_projection"`
	IRR              null.Float      `json:"irr"`
	IRRMean          null.Float      `json:"irr_mean"`
	NPVMean          null.Float      `json:"npv_mean"`
	NPVRegression    null.Float      `json:"npv_regression"`
}

type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
)

// CompanyResult is the terminal flat record for one company. It is built
// once by the scorer and never mutated afterwards.
type CompanyResult struct {
	Symbol   string     `json:"symbol"`
	Name     string     `json:"name"`
	Price    null.Float `json:"price"`
	Exchange string     `json:"exchange"`
	Industry string     `json:"industry"`
	Sector   string     `json:"sector"`
	Currency string     `json:"currency"`

	IRR            null.Float      `json:"irr"`
	IRRMean        null.Float      `json:"irr_mean"`
	NPVMean        null.Float      `json:"npv_mean"`
	NPVRegression  null.Float      `json:"npv_regression"`
	RegressionType RegressionModel `json:"regression_type"`
	GrowthMedian   null.Float      `json:"eps_roc"`
	GrowthRate     null.Float      `json:"growth_regression"`
	GrowthFlag     string          `json:"eps_roc_flag"`
	Base           null.Float      `json:"eps_base"`
	History        []float64       `json:"eps_list"`

	ROC           null.Float `json:"ROC"`
	EarningsYield null.Float `json:"EarningsYield"`
	ROE           null.Float `json:"ROE"`
	MOP           null.Float `json:"MOP"`
	QA            null.Float `json:"QA"`
	EBIT          null.Float `json:"EBIT"`
	MarketCap     null.Float `json:"MCap"`
	PE            null.Float `json:"PE"`

	DividendRatio float64      `json:"dividend_ratio"`
	DividendTrend []float64    `json:"dividend_trend"`
	BuybackTrend  []float64    `json:"buyback_trend"`
	RevenueTrend  []null.Float `json:"revenue_trend"`
	RevenueChange []null.Float `json:"revenue_change"`

	Status       Status    `json:"status"`
	Failures     []Failure `json:"failures,omitempty"`
	ErrorMessage string    `json:"error_message"`
}

// NPVByMethod labels both NPVs with the projection that produced them so the
// regression NPV reads e.g. "npv_log-linear".
func (r *CompanyResult) NPVByMethod() map[string]null.Float {
	return map[string]null.Float{
		"npv_mean":             r.NPVMean,
		r.RegressionNPVLabel(): r.NPVRegression,
	}
}

// RegressionNPVLabel names the regression NPV after the model that fit it.
func (r *CompanyResult) RegressionNPVLabel() string {
	if r.RegressionType == "" {
		return "npv_regression"
	}
	return "npv_" + string(r.RegressionType)
}

// CombinedYear is one year of the merged income + balance table with the
// derived ratios.
type CombinedYear struct {
	Year    int        `json:"year"`
	Income  IncomeRow  `json:"income"`
	Balance BalanceRow `json:"balance"`

	OperatingMargin   null.Float `json:"MOP"`
	QuickAssets       null.Float `json:"QA"`
	EBIT              null.Float `json:"EBIT"`
	NetWorkingCapital null.Float `json:"NetWorkingCapital"`
	ROC               null.Float `json:"ROC"`
	ROE               null.Float `json:"ROE"`
	GrossMargin       null.Float `json:"gross_margin"`
	RevenueChange     null.Float `json:"revenue_change"`
}

type JoinPolicy string

const (
	JoinInner JoinPolicy = "inner"
	JoinOuter JoinPolicy = "outer"
)

// Combined is the year-aligned table for one company.
type Combined struct {
	Join             JoinPolicy     `json:"join"`
	Years            []CombinedYear `json:"years"`
	IncomeOnlyYears  []int          `json:"income_only_years,omitempty"`
	BalanceOnlyYears []int          `json:"balance_only_years,omitempty"`
	Dropped          int            `json:"dropped"`
}

// Latest returns the most recent combined year.
func (c *Combined) Latest() (CombinedYear, bool) {
	if c == nil || len(c.Years) == 0 {
		return CombinedYear{}, false
	}
	return c.Years[len(c.Years)-1], true
}

// Series is an ascending per-year sequence of one metric.
type Series struct {
	Years  []int        `json:"years"`
	Values []null.Float `json:"values"`
}

func (s Series) Len() int { return len(s.Values) }

// PayoutYear is one merged income + cash-flow year.
type PayoutYear struct {
	Year           int        `json:"year"`
	NetIncome      null.Float `json:"net_income"`
	DividendsPaid  null.Float `json:"dividends_paid"`
	Repurchased    null.Float `json:"repurchased"`
	PayoutRatio    null.Float `json:"payout_ratio"`
	BuybackOutflow null.Float `json:"buyback_outflow"`
}

// RankedRow is a CompanyResult with its magic-formula ranks.
type RankedRow struct {
	CompanyResult
	ROCRank           int `json:"ROC_rank"`
	EarningsYieldRank int `json:"EarningsYield_rank"`
	TotalRank         int `json:"Total_rank"`
}

// RankedTable rows are ordered by TotalRank ascending.
type RankedTable struct {
	Rows []RankedRow `json:"rows"`
}

func (t *RankedTable) Len() int { return len(t.Rows) }

// Find returns the row for symbol.
func (t *RankedTable) Find(symbol string) (RankedRow, bool) {
	for _, r := range t.Rows {
		if r.Symbol == symbol {
			return r, true
		}
	}
	return RankedRow{}, false
}

// CompanyDetail backs single-company views.
type CompanyDetail struct {
	Result   CompanyResult `json:"result"`
	Combined Combined      `json:"combined"`
	Payouts  []PayoutYear  `json:"payouts"`
}

// ScreenRun is the outcome of one batch run over a universe.
type ScreenRun struct {
	RunID      string          `json:"run_id"`
	Exchange   string          `json:"exchange"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Results    []CompanyResult `json:"results"`
	Table      RankedTable     `json:"table"`
}

// Failed returns the results that could not be analysed at all.
func (r *ScreenRun) Failed() []CompanyResult {
	var out []CompanyResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}
