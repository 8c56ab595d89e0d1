package ranking

import (
	"math"
	"sort"
	"testing"

	"github.com/guregu/null/v6"

	"robostock/internal/types"
)

func result(symbol string, roc, ey float64) types.CompanyResult {
	r := types.CompanyResult{Symbol: symbol}
	if !math.IsNaN(roc) {
		r.ROC = null.FloatFrom(roc)
	}
	if !math.IsNaN(ey) {
		r.EarningsYield = null.FloatFrom(ey)
	}
	return r
}

func TestRankTopCompanyScoresTwo(t *testing.T) {
	batch := []types.CompanyResult{
		result("MID", 0.20, 0.08),
		result("TOP", 0.40, 0.15),
		result("LOW", 0.05, 0.02),
		result("MIX", 0.30, 0.01),
	}
	table := Rank(batch)

	if table.Rows[0].Symbol != "TOP" {
		t.Fatalf("Expected TOP first, got %s", table.Rows[0].Symbol)
	}
	if table.Rows[0].TotalRank != 2 {
		t.Errorf("Expected combined rank 2, got %d", table.Rows[0].TotalRank)
	}

	for _, col := range []func(types.RankedRow) int{
		func(r types.RankedRow) int { return r.ROCRank },
		func(r types.RankedRow) int { return r.EarningsYieldRank },
	} {
		ranks := make([]int, 0, len(table.Rows))
		for _, r := range table.Rows {
			ranks = append(ranks, col(r))
		}
		sort.Ints(ranks)
		for i, r := range ranks {
			if r != i+1 {
				t.Fatalf("Expected ranks to be a permutation of 1..N, got %v", ranks)
			}
		}
	}

	mix, _ := table.Find("MIX")
	if mix.ROCRank != 2 || mix.EarningsYieldRank != 4 || mix.TotalRank != 6 {
		t.Errorf("Unexpected ranks for MIX: %+v", mix)
	}
}

func TestRankTiesAreStable(t *testing.T) {
	batch := []types.CompanyResult{
		result("A", 0.1, 0.1),
		result("B", 0.1, 0.1),
		result("C", 0.1, 0.1),
	}
	table := Rank(batch)
	for i, want := range []string{"A", "B", "C"} {
		row := table.Rows[i]
		if row.Symbol != want {
			t.Errorf("position %d: expected %s, got %s", i, want, row.Symbol)
		}
		if row.ROCRank != i+1 || row.EarningsYieldRank != i+1 {
			t.Errorf("%s: expected ranks %d, got %d/%d", want, i+1, row.ROCRank, row.EarningsYieldRank)
		}
	}
}

func TestRankUnknownLast(t *testing.T) {
	batch := []types.CompanyResult{
		result("NOEY", 0.5, math.NaN()),
		result("OK", 0.1, 0.05),
		result("INF", 0.2, 0.01),
	}
	batch[2].EarningsYield = null.FloatFrom(math.Inf(1))

	table := Rank(batch)
	noey, _ := table.Find("NOEY")
	if noey.ROCRank != 1 || noey.EarningsYieldRank != 2 {
		t.Errorf("Expected NOEY ranks 1/2, got %d/%d", noey.ROCRank, noey.EarningsYieldRank)
	}
	inf, _ := table.Find("INF")
	if inf.EarningsYieldRank != 3 {
		t.Errorf("Expected infinite yield to rank as unknown after NOEY, got %d", inf.EarningsYieldRank)
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); got.Len() != 0 {
		t.Errorf("Expected empty table, got %d rows", got.Len())
	}
}

func TestScreenFiltersThenRanks(t *testing.T) {
	big := result("BIG", 0.10, 0.05)
	big.MarketCap = null.FloatFrom(5e9)
	small := result("SMALL", 0.90, 0.90)
	small.MarketCap = null.FloatFrom(1e8)
	unknown := result("UNK", 0.50, 0.50)

	batch := []types.CompanyResult{big, small, unknown}
	f := Filter{MinMarketCapBillions: Bound(1)}

	table := Screen(batch, f)
	if table.Len() != 1 || table.Rows[0].Symbol != "BIG" {
		t.Fatalf("Expected only BIG, got %+v", table.Rows)
	}
	if table.Rows[0].TotalRank != 2 {
		t.Errorf("Expected BIG re-ranked to 2, got %d", table.Rows[0].TotalRank)
	}

	f.KeepUnknown = true
	if got := Screen(batch, f); got.Len() != 2 {
		t.Errorf("Expected unknown market cap to pass with keep_unknown, got %d rows", got.Len())
	}

	f = Filter{MinMarketCapBillions: Bound(1), RankBeforeFilter: true}
	table = Screen(batch, f)
	if table.Len() != 1 || table.Rows[0].TotalRank != 6 {
		t.Errorf("Expected BIG to keep its whole-batch rank 6, got %+v", table.Rows)
	}
}

func TestFilterMatch(t *testing.T) {
	base := types.CompanyResult{
		Symbol:        "X",
		Sector:        "Technology",
		Industry:      "Software",
		Exchange:      "NASDAQ",
		ROC:           null.FloatFrom(0.3),
		PE:            null.FloatFrom(12),
		MarketCap:     null.FloatFrom(2e9),
		DividendRatio: 0.2,
	}
	noDividend := base
	noDividend.DividendRatio = 0
	bank := base
	bank.Sector = "Financial Services"
	noPE := base
	noPE.PE = null.Float{}

	tests := []struct {
		name   string
		filter Filter
		in     types.CompanyResult
		want   bool
	}{
		{"empty filter", Filter{}, base, true},
		{"min roc pass", Filter{MinROC: Bound(0.3)}, base, true},
		{"min roc fail", Filter{MinROC: Bound(0.31)}, base, false},
		{"min pe unknown", Filter{MinPE: Bound(5)}, noPE, false},
		{"min pe unknown kept", Filter{MinPE: Bound(5), KeepUnknown: true}, noPE, true},
		{"absolute market cap", Filter{MinMarketCap: Bound(3e9)}, base, false},
		{"sector include", Filter{Sectors: []string{"technology"}}, base, true},
		{"sector include miss", Filter{Sectors: []string{"Energy"}}, base, false},
		{"sector exclude", Filter{ExcludeSectors: DefaultExcludedSectors}, bank, false},
		{"industry exclude", Filter{ExcludeIndustries: []string{"Software"}}, base, false},
		{"exchange include", Filter{Exchanges: []string{"NYSE"}}, base, false},
		{"exchange exclude", Filter{ExcludeExchanges: []string{"NASDAQ"}}, base, false},
		{"dividend only", Filter{DividendOnly: true}, base, true},
		{"dividend only no payer", Filter{DividendOnly: true}, noDividend, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.in); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScreenTopN(t *testing.T) {
	batch := []types.CompanyResult{
		result("A", 0.1, 0.1),
		result("B", 0.3, 0.3),
		result("C", 0.2, 0.2),
	}
	table := Screen(batch, Filter{TopN: 2})
	if table.Len() != 2 || table.Rows[0].Symbol != "B" || table.Rows[1].Symbol != "C" {
		t.Errorf("Expected B, C; got %+v", table.Rows)
	}
}
