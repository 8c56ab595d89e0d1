package ranking

import (
	"strings"

	"github.com/guregu/null/v6"

	"robostock/internal/types"
)

// DefaultExcludedSectors are the financial sectors the magic formula is not
// meant for.
var DefaultExcludedSectors = []string{"Banking", "Insurance", "Financial Services"}

// Filter is a conjunction of predicates over CompanyResult. Nil bounds and
// empty lists are not applied. An unknown value fails a lower bound unless
// KeepUnknown is set.
type Filter struct {
	MinMarketCap         *float64 `yaml:"min_market_cap" json:"min_market_cap,omitempty"`
	MinMarketCapBillions *float64 `yaml:"min_market_cap_billions" json:"min_market_cap_billions,omitempty"`
	MinROC               *float64 `yaml:"min_roc" json:"min_roc,omitempty"`
	MinPE                *float64 `yaml:"min_pe" json:"min_pe,omitempty"`

	Sectors           []string `yaml:"sector" json:"sector,omitempty"`
	ExcludeSectors    []string `yaml:"exclude_sectors" json:"exclude_sectors,omitempty"`
	ExcludeIndustries []string `yaml:"exclude_industries" json:"exclude_industries,omitempty"`
	Exchanges         []string `yaml:"exchange" json:"exchange,omitempty"`
	ExcludeExchanges  []string `yaml:"exclude_exchanges" json:"exclude_exchanges,omitempty"`

	DividendOnly     bool `yaml:"dividend_only" json:"dividend_only,omitempty"`
	KeepUnknown      bool `yaml:"keep_unknown" json:"keep_unknown,omitempty"`
	RankBeforeFilter bool `yaml:"rank_before_filter" json:"rank_before_filter,omitempty"`
	TopN             int  `yaml:"top_n" json:"top_n,omitempty"`
}

// Bound returns a pointer suitable for the Min* fields.
func Bound(v float64) *float64 { return &v }

func (f Filter) minMarketCap() *float64 {
	if f.MinMarketCap != nil {
		return f.MinMarketCap
	}
	if f.MinMarketCapBillions != nil {
		return Bound(*f.MinMarketCapBillions * 1e9)
	}
	return nil
}

// Match reports whether r passes every predicate.
func (f Filter) Match(r types.CompanyResult) bool {
	if !f.atLeast(r.MarketCap, f.minMarketCap()) ||
		!f.atLeast(r.ROC, f.MinROC) ||
		!f.atLeast(r.PE, f.MinPE) {
		return false
	}
	if len(f.Sectors) > 0 && !contains(f.Sectors, r.Sector) {
		return false
	}
	if contains(f.ExcludeSectors, r.Sector) || contains(f.ExcludeIndustries, r.Industry) {
		return false
	}
	if len(f.Exchanges) > 0 && !contains(f.Exchanges, r.Exchange) {
		return false
	}
	if contains(f.ExcludeExchanges, r.Exchange) {
		return false
	}
	if f.DividendOnly && !(r.DividendRatio > 0) {
		return false
	}
	return true
}

func (f Filter) atLeast(v null.Float, bound *float64) bool {
	if bound == nil {
		return true
	}
	if !types.Known(v) {
		return f.KeepUnknown
	}
	return v.Float64 >= *bound
}

func contains(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
