package types

import (
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// Dated is implemented by every statement row. Rows carry the report date
// and, when the source provides it, the fiscal/calendar year label.
type Dated interface {
	DateKey() (date string, calendarYear string)
}

// IncomeRow is one fiscal year of an income statement.
type IncomeRow struct {
	Date              string     `json:"date"`
	CalendarYear      string     `json:"calendarYear,omitempty"`
	Revenue           null.Float `json:"revenue"`
	CostOfRevenue     null.Float `json:"costOfRevenue"`
	OperatingExpenses null.Float `json:"operatingExpenses"`
	OperatingIncome   null.Float `json:"operatingIncome"`
	InterestExpense   null.Float `json:"interestExpense"`
	IncomeTaxExpense  null.Float `json:"incomeTaxExpense"`
	NetIncome         null.Float `json:"netIncome"`
	EPS               null.Float `json:"eps"`
	EPSDiluted        null.Float `json:"epsdiluted"`
}

func (r IncomeRow) DateKey() (string, string) { return r.Date, r.CalendarYear }

// Metric returns the named income-statement field. Names follow the
// upstream JSON keys so the configured valuation metric can be any of them.
func (r IncomeRow) Metric(name string) (null.Float, bool) {
	switch strings.ToLower(name) {
	case "eps":
		return r.EPS, true
	case "epsdiluted":
		return r.EPSDiluted, true
	case "revenue":
		return r.Revenue, true
	case "netincome":
		return r.NetIncome, true
	case "operatingincome":
		return r.OperatingIncome, true
	}
	return null.Float{}, false
}

// BalanceRow is one fiscal year of a balance-sheet statement.
type BalanceRow struct {
	Date                      string     `json:"date"`
	CalendarYear              string     `json:"calendarYear,omitempty"`
	CashAndCashEquivalents    null.Float `json:"cashAndCashEquivalents"`
	NetReceivables            null.Float `json:"netReceivables"`
	Inventory                 null.Float `json:"inventory"`
	TotalCurrentAssets        null.Float `json:"totalCurrentAssets"`
	PropertyPlantEquipmentNet null.Float `json:"propertyPlantEquipmentNet"`
	TotalAssets               null.Float `json:"totalAssets"`
	TotalCurrentLiabilities   null.Float `json:"totalCurrentLiabilities"`
	TaxPayables               null.Float `json:"taxPayables"`
	TotalDebt                 null.Float `json:"totalDebt"`
	TotalLiabilities          null.Float `json:"totalLiabilities"`
}

func (r BalanceRow) DateKey() (string, string) { return r.Date, r.CalendarYear }

// CashFlowRow is one fiscal year of a cash-flow statement. Outflows such as
// dividends and repurchases are reported negative by the upstream source.
type CashFlowRow struct {
	Date                   string     `json:"date"`
	CalendarYear           string     `json:"calendarYear,omitempty"`
	NetIncome              null.Float `json:"netIncome"`
	CapitalExpenditure     null.Float `json:"capitalExpenditure"`
	FreeCashFlow           null.Float `json:"freeCashFlow"`
	DividendsPaid          null.Float `json:"dividendsPaid"`
	CommonStockRepurchased null.Float `json:"commonStockRepurchased"`
}

func (r CashFlowRow) DateKey() (string, string) { return r.Date, r.CalendarYear }

type (
	IncomeStatement   []IncomeRow
	BalanceSheet      []BalanceRow
	CashFlowStatement []CashFlowRow
)

// YearOf derives the calendar year for a row: the year component of its
// date, falling back to the calendar-year label. ok is false when neither
// parses.
func YearOf(d Dated) (year int, ok bool) {
	date, label := d.DateKey()
	date = strings.TrimSpace(date)
	if len(date) >= 10 {
		if t, err := time.Parse("2006-01-02", date[:10]); err == nil {
			return t.Year(), true
		}
	}
	if len(date) == 4 {
		if y, err := strconv.Atoi(date); err == nil {
			return y, true
		}
	}
	if y, err := strconv.Atoi(strings.TrimSpace(label)); err == nil && y > 0 {
		return y, true
	}
	return 0, false
}
