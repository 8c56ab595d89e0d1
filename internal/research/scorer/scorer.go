package scorer

import (
	"fmt"

	"github.com/guregu/null/v6"

	"robostock/internal/research/growth"
	"robostock/internal/research/normalize"
	"robostock/internal/research/valuation"
	"robostock/internal/types"
)

const (
	dividendYears = 4
	revenueYears  = 5
)

// Config holds the valuation methodology for one run.
type Config struct {
	Metric       string
	BaseMode     string
	Growth       growth.Options
	DiscountRate float64
	Horizon      int
	Join         types.JoinPolicy
}

// DefaultConfig returns the standard methodology: EPS, latest base,
// 9% discount rate, ten-year horizon, inner join.
func DefaultConfig() Config {
	return Config{
		Metric:       "eps",
		BaseMode:     growth.BaseLatest,
		Growth:       growth.DefaultOptions(),
		DiscountRate: valuation.DefaultDiscountRate,
		Horizon:      valuation.DefaultHorizon,
		Join:         types.JoinInner,
	}
}

// Scorer turns one company's raw data into a CompanyResult.
type Scorer struct {
	config Config
}

func New(config Config) *Scorer {
	return &Scorer{config: config}
}

// Score runs normalize, growth, valuation and scoring for one company. It
// never fails: anything that cannot be computed is left unknown and
// described in the result's failures.
func (s *Scorer) Score(data *types.CompanyData) *types.CompanyDetail {
	b := newBuilder(data.Symbol)
	s.identity(b, data)

	combined := normalize.Combine(data.Income, data.Balance, s.config.Join)
	s.statements(b, data, combined)
	s.value(b, data)
	s.scoring(b, data, combined)

	payouts := normalize.MergeCashFlow(data.Income, data.CashFlow)
	s.payouts(b, payouts)
	s.revenue(b, data)

	return &types.CompanyDetail{
		Result:   b.build(),
		Combined: combined,
		Payouts:  payouts,
	}
}

// Failed builds the result for a company whose data could not be fetched.
func (s *Scorer) Failed(listing types.Listing, stage string, err error) types.CompanyResult {
	b := newBuilder(listing.Symbol)
	s.identity(b, &types.CompanyData{Symbol: listing.Symbol, Listing: listing})
	b.res.DividendTrend = []float64{0}
	b.res.BuybackTrend = []float64{0}
	b.fail(stage, "", err)
	b.res.Failures[len(b.res.Failures)-1].Kind = types.KindBatchItem
	return b.build()
}

func (s *Scorer) identity(b *builder, data *types.CompanyData) {
	b.res.Name = data.Name()
	b.res.Price = data.Price()
	b.res.Exchange = data.Exchange()
	if p := data.Profile; p != nil {
		b.res.Industry = p.Industry
		b.res.Sector = p.Sector
		b.res.Currency = p.Currency
	}
}

func (s *Scorer) statements(b *builder, data *types.CompanyData, combined types.Combined) {
	if data.Profile == nil {
		b.fail("profile", "", types.ErrMissingData)
	}
	if len(data.Income) == 0 {
		b.fail("income", "", fmt.Errorf("statement empty: %w", types.ErrMissingData))
	}
	if len(data.Balance) == 0 {
		b.fail("balance", "", fmt.Errorf("statement empty: %w", types.ErrMissingData))
	}
	if len(data.Income) > 0 && len(data.Balance) > 0 && len(combined.Years) == 0 {
		b.fail("normalize", "", errNoOverlap)
	}
}

func (s *Scorer) value(b *builder, data *types.CompanyData) {
	series, err := normalize.MetricSeries(data.Income, s.config.Metric)
	if err != nil {
		b.fail("growth", s.config.Metric, err)
		return
	}
	est, err := growth.Estimate(series, s.config.Growth)
	if err != nil {
		b.fail("growth", s.config.Metric, err)
		return
	}
	b.res.RegressionType = est.Model
	b.res.GrowthMedian = null.FloatFrom(est.MedianRate)
	b.res.GrowthRate = est.Rate
	b.res.GrowthFlag = est.Flag
	b.res.History = est.History

	base, err := growth.Base(series, s.config.BaseMode)
	if err != nil {
		b.fail("valuation", "base", err)
		return
	}
	b.res.Base = base

	v, err := valuation.Value(valuation.Inputs{
		Base:         base,
		Price:        b.res.Price,
		Growth:       est,
		DiscountRate: s.config.DiscountRate,
		Horizon:      s.config.Horizon,
	})
	b.res.IRR = v.IRR
	b.res.IRRMean = v.IRRMean
	b.res.NPVMean = v.NPVMean
	b.res.NPVRegression = v.NPVRegression
	b.failAll("valuation", err)
}

func (s *Scorer) scoring(b *builder, data *types.CompanyData, combined types.Combined) {
	b.res.PE = data.Ratios.PE()
	if data.Market != nil {
		b.res.MarketCap = types.Finite(data.Market.MarketCap)
	}

	latest, ok := combined.Latest()
	if !ok {
		b.res.ROE = roe(data.Ratios, null.Float{})
		return
	}
	in, bal := latest.Income, latest.Balance

	b.derived(&b.res.EBIT, "EBIT", latest.EBIT, in.Revenue, in.CostOfRevenue, in.OperatingExpenses)
	b.derived(&b.res.ROC, "ROC", latest.ROC,
		latest.EBIT, bal.TotalCurrentAssets, bal.TotalCurrentLiabilities, bal.PropertyPlantEquipmentNet)
	b.derived(&b.res.MOP, "MOP", latest.OperatingMargin, in.OperatingIncome, in.Revenue)
	b.derived(&b.res.QA, "QA", latest.QuickAssets,
		bal.TotalCurrentAssets, bal.Inventory, bal.TotalCurrentLiabilities)
	b.res.ROE = roe(data.Ratios, latest.ROE)

	// An empty market snapshot leaves earnings yield unknown without
	// counting as a failure.
	if !types.Known(b.res.MarketCap) {
		return
	}
	ev := types.Add(b.res.MarketCap, types.Sub(bal.TotalDebt, bal.TaxPayables))
	b.derived(&b.res.EarningsYield, "EarningsYield", types.Div(latest.EBIT, ev),
		latest.EBIT, bal.TotalDebt, bal.TaxPayables)
}

func roe(r *types.RatioSnapshot, fallback null.Float) null.Float {
	if r != nil && types.Known(r.ReturnOnEquityTTM) {
		return r.ReturnOnEquityTTM
	}
	return types.Finite(fallback)
}

// payouts fills the dividend and buyback trends from the most recent merged
// years. A gap in either falls back to a single zero.
func (s *Scorer) payouts(b *builder, rows []types.PayoutYear) {
	if len(rows) > dividendYears {
		rows = rows[len(rows)-dividendYears:]
	}

	dividends, dErr := trend(rows, func(p types.PayoutYear) null.Float { return p.PayoutRatio })
	if dErr != nil {
		b.soft("dividend", "dividend_ratio", dErr)
		b.res.DividendTrend = []float64{0}
		b.res.DividendRatio = 0
	} else {
		b.res.DividendTrend = dividends
		b.res.DividendRatio = dividends[len(dividends)-1]
	}

	buybacks, bErr := trend(rows, func(p types.PayoutYear) null.Float { return p.BuybackOutflow })
	if bErr != nil {
		b.soft("buyback", "buyback_trend", bErr)
		b.res.BuybackTrend = []float64{0}
	} else {
		b.res.BuybackTrend = buybacks
	}
}

func trend(rows []types.PayoutYear, get func(types.PayoutYear) null.Float) ([]float64, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no overlapping income and cash-flow years: %w", types.ErrMissingData)
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		v := get(r)
		if !types.Known(v) {
			return nil, fmt.Errorf("year %d: %w", r.Year, types.ErrMissingData)
		}
		out[i] = v.Float64
	}
	return out, nil
}

// revenue keeps the last five revenues and the change into each of them.
func (s *Scorer) revenue(b *builder, data *types.CompanyData) {
	series := normalize.Revenue(data.Income)
	n := series.Len()
	if n == 0 {
		return
	}
	start := 0
	if n > revenueYears {
		start = n - revenueYears
	}
	b.res.RevenueTrend = append([]null.Float(nil), series.Values[start:]...)
	b.res.RevenueChange = make([]null.Float, 0, n-start)
	for i := start; i < n; i++ {
		if i == 0 {
			b.res.RevenueChange = append(b.res.RevenueChange, null.Float{})
			continue
		}
		prev := series.Values[i-1]
		b.res.RevenueChange = append(b.res.RevenueChange,
			types.Div(types.Sub(series.Values[i], prev), prev))
	}
}
