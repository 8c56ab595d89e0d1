package normalize

import (
	"fmt"
	"sort"

	"github.com/guregu/null/v6"

	"robostock/internal/types"
)

// byYear indexes the rows of one statement by calendar year. When a year
// appears twice the row with the later date wins. Rows whose year cannot be
// derived are counted in dropped.
func byYear[T types.Dated](rows []T) (index map[int]T, years []int, dropped int) {
	index = make(map[int]T, len(rows))
	for _, r := range rows {
		y, ok := types.YearOf(r)
		if !ok {
			dropped++
			continue
		}
		if prev, seen := index[y]; seen {
			pd, _ := prev.DateKey()
			rd, _ := r.DateKey()
			if rd <= pd {
				continue
			}
		} else {
			years = append(years, y)
		}
		index[y] = r
	}
	sort.Ints(years)
	return index, years, dropped
}

// ParseJoin maps a config value onto a JoinPolicy. Empty means inner.
func ParseJoin(s string) (types.JoinPolicy, error) {
	switch types.JoinPolicy(s) {
	case "", types.JoinInner:
		return types.JoinInner, nil
	case types.JoinOuter:
		return types.JoinOuter, nil
	}
	return "", fmt.Errorf("invalid join policy %q: must be 'inner' or 'outer'", s)
}

// Combine aligns income and balance statements on calendar year and derives
// the per-year ratios. Undefined ratios (zero or unknown denominators) are
// left null on their own row; every other field of the row is kept.
func Combine(income types.IncomeStatement, balance types.BalanceSheet, join types.JoinPolicy) types.Combined {
	if join == "" {
		join = types.JoinInner
	}
	is, isYears, isDropped := byYear(income)
	bs, bsYears, bsDropped := byYear(balance)

	out := types.Combined{Join: join, Dropped: isDropped + bsDropped}

	var years []int
	for _, y := range isYears {
		if _, ok := bs[y]; ok {
			years = append(years, y)
		} else {
			out.IncomeOnlyYears = append(out.IncomeOnlyYears, y)
		}
	}
	for _, y := range bsYears {
		if _, ok := is[y]; !ok {
			out.BalanceOnlyYears = append(out.BalanceOnlyYears, y)
		}
	}
	if join == types.JoinOuter {
		years = append(years, out.IncomeOnlyYears...)
		years = append(years, out.BalanceOnlyYears...)
		sort.Ints(years)
	}

	out.Years = make([]types.CombinedYear, 0, len(years))
	for i, y := range years {
		row := derive(y, is[y], bs[y])
		if i > 0 {
			row.RevenueChange = change(out.Years[i-1].Income.Revenue, row.Income.Revenue)
		}
		out.Years = append(out.Years, row)
	}
	return out
}

func derive(year int, in types.IncomeRow, bal types.BalanceRow) types.CombinedYear {
	row := types.CombinedYear{Year: year, Income: in, Balance: bal}

	row.OperatingMargin = types.Div(in.OperatingIncome, in.Revenue)
	row.QuickAssets = types.Div(types.Sub(bal.TotalCurrentAssets, bal.Inventory), bal.TotalCurrentLiabilities)
	row.EBIT = types.Sub(types.Sub(in.Revenue, in.CostOfRevenue), in.OperatingExpenses)
	row.NetWorkingCapital = types.Sub(bal.TotalCurrentAssets, bal.TotalCurrentLiabilities)
	row.ROC = types.Div(row.EBIT, types.Add(row.NetWorkingCapital, bal.PropertyPlantEquipmentNet))
	row.ROE = types.Div(in.NetIncome, types.Sub(bal.TotalAssets, bal.TotalLiabilities))
	row.GrossMargin = types.Div(types.Sub(in.Revenue, in.CostOfRevenue), in.Revenue)
	return row
}

// change is the fractional change from prev to cur, null off a zero base.
func change(prev, cur null.Float) null.Float {
	return types.Div(types.Sub(cur, prev), prev)
}

// MetricSeries extracts one income-statement metric as an ascending
// per-year series. Rows without a derivable year are skipped.
func MetricSeries(income types.IncomeStatement, metric string) (types.Series, error) {
	is, years, _ := byYear(income)
	s := types.Series{Years: years, Values: make([]null.Float, 0, len(years))}
	for _, y := range years {
		v, ok := is[y].Metric(metric)
		if !ok {
			return types.Series{}, fmt.Errorf("unknown metric %q: %w", metric, types.ErrMissingData)
		}
		s.Values = append(s.Values, types.Finite(v))
	}
	return s, nil
}

// Revenue returns the ascending revenue series of the income statement.
func Revenue(income types.IncomeStatement) types.Series {
	s, _ := MetricSeries(income, "revenue")
	return s
}

// MergeCashFlow inner-joins income and cash-flow statements on year and
// derives payout and buyback figures per year.
func MergeCashFlow(income types.IncomeStatement, cashflow types.CashFlowStatement) []types.PayoutYear {
	is, isYears, _ := byYear(income)
	cf, _, _ := byYear(cashflow)

	out := make([]types.PayoutYear, 0, len(isYears))
	for _, y := range isYears {
		c, ok := cf[y]
		if !ok {
			continue
		}
		ni := is[y].NetIncome
		if !types.Known(ni) {
			ni = c.NetIncome
		}
		out = append(out, types.PayoutYear{
			Year:           y,
			NetIncome:      types.Finite(ni),
			DividendsPaid:  types.Finite(c.DividendsPaid),
			Repurchased:    types.Finite(c.CommonStockRepurchased),
			PayoutRatio:    types.Div(types.Abs(c.DividendsPaid), ni),
			BuybackOutflow: types.Abs(c.CommonStockRepurchased),
		})
	}
	return out
}
