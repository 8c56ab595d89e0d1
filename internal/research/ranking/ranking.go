package ranking

import (
	"sort"

	"github.com/guregu/null/v6"

	"robostock/internal/types"
)

// Rank assigns magic-formula ranks. ROC and earnings yield are each ranked
// 1..N, highest first, ties and unknown values kept in input order with
// unknowns after every known value. Rows are returned by total rank.
func Rank(results []types.CompanyResult) types.RankedTable {
	n := len(results)
	rows := make([]types.RankedRow, n)
	for i := range results {
		rows[i] = types.RankedRow{CompanyResult: results[i]}
	}

	for pos, i := range order(n, func(i int) null.Float { return rows[i].ROC }) {
		rows[i].ROCRank = pos + 1
	}
	for pos, i := range order(n, func(i int) null.Float { return rows[i].EarningsYield }) {
		rows[i].EarningsYieldRank = pos + 1
	}
	for i := range rows {
		rows[i].TotalRank = rows[i].ROCRank + rows[i].EarningsYieldRank
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].TotalRank < rows[b].TotalRank
	})
	return types.RankedTable{Rows: rows}
}

// order returns row indices sorted by value descending, unknown last.
func order(n int, value func(int) null.Float) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := value(idx[a]), value(idx[b])
		ka, kb := types.Known(va), types.Known(vb)
		if ka != kb {
			return ka
		}
		if !ka {
			return false
		}
		return va.Float64 > vb.Float64
	})
	return idx
}

// Screen filters the batch and ranks what passes. With RankBeforeFilter the
// ranks are computed over the whole batch and kept on the surviving rows.
func Screen(results []types.CompanyResult, f Filter) types.RankedTable {
	if f.RankBeforeFilter {
		return Apply(Rank(results), f)
	}
	kept := make([]types.CompanyResult, 0, len(results))
	for _, r := range results {
		if f.Match(r) {
			kept = append(kept, r)
		}
	}
	return limit(Rank(kept), f.TopN)
}

// Apply filters an already ranked table without re-ranking it.
func Apply(t types.RankedTable, f Filter) types.RankedTable {
	rows := make([]types.RankedRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		if f.Match(r.CompanyResult) {
			rows = append(rows, r)
		}
	}
	return limit(types.RankedTable{Rows: rows}, f.TopN)
}

func limit(t types.RankedTable, n int) types.RankedTable {
	if n > 0 && len(t.Rows) > n {
		t.Rows = t.Rows[:n]
	}
	return t
}
