package fmp

import (
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"robostock/internal/types"
)

// The API mixes numbers, quoted numbers and nulls for the same field across
// companies, so every numeric field decodes through decimal.NullDecimal.

type listingDTO struct {
	Symbol            string              `json:"symbol"`
	Name              string              `json:"name"`
	Price             decimal.NullDecimal `json:"price"`
	Exchange          string              `json:"exchange"`
	ExchangeShortName string              `json:"exchangeShortName"`
	Type              string              `json:"type"`
}

type profileDTO struct {
	Symbol            string              `json:"symbol"`
	CompanyName       string              `json:"companyName"`
	Price             decimal.NullDecimal `json:"price"`
	Currency          string              `json:"currency"`
	Exchange          string              `json:"exchange"`
	ExchangeShortName string              `json:"exchangeShortName"`
	Industry          string              `json:"industry"`
	Sector            string              `json:"sector"`
}

type incomeDTO struct {
	Date              string              `json:"date"`
	CalendarYear      string              `json:"calendarYear"`
	Revenue           decimal.NullDecimal `json:"revenue"`
	CostOfRevenue     decimal.NullDecimal `json:"costOfRevenue"`
	OperatingExpenses decimal.NullDecimal `json:"operatingExpenses"`
	OperatingIncome   decimal.NullDecimal `json:"operatingIncome"`
	InterestExpense   decimal.NullDecimal `json:"interestExpense"`
	IncomeTaxExpense  decimal.NullDecimal `json:"incomeTaxExpense"`
	NetIncome         decimal.NullDecimal `json:"netIncome"`
	EPS               decimal.NullDecimal `json:"eps"`
	EPSDiluted        decimal.NullDecimal `json:"epsdiluted"`
}

type balanceDTO struct {
	Date                      string              `json:"date"`
	CalendarYear              string              `json:"calendarYear"`
	CashAndCashEquivalents    decimal.NullDecimal `json:"cashAndCashEquivalents"`
	NetReceivables            decimal.NullDecimal `json:"netReceivables"`
	Inventory                 decimal.NullDecimal `json:"inventory"`
	TotalCurrentAssets        decimal.NullDecimal `json:"totalCurrentAssets"`
	PropertyPlantEquipmentNet decimal.NullDecimal `json:"propertyPlantEquipmentNet"`
	TotalAssets               decimal.NullDecimal `json:"totalAssets"`
	TotalCurrentLiabilities   decimal.NullDecimal `json:"totalCurrentLiabilities"`
	TaxPayables               decimal.NullDecimal `json:"taxPayables"`
	TotalDebt                 decimal.NullDecimal `json:"totalDebt"`
	TotalLiabilities          decimal.NullDecimal `json:"totalLiabilities"`
}

type cashFlowDTO struct {
	Date                   string              `json:"date"`
	CalendarYear           string              `json:"calendarYear"`
	NetIncome              decimal.NullDecimal `json:"netIncome"`
	CapitalExpenditure     decimal.NullDecimal `json:"capitalExpenditure"`
	FreeCashFlow           decimal.NullDecimal `json:"freeCashFlow"`
	DividendsPaid          decimal.NullDecimal `json:"dividendsPaid"`
	CommonStockRepurchased decimal.NullDecimal `json:"commonStockRepurchased"`
}

type marketCapDTO struct {
	Symbol    string              `json:"symbol"`
	Date      string              `json:"date"`
	MarketCap decimal.NullDecimal `json:"marketCap"`
}

type ratiosDTO struct {
	ReturnOnEquityTTM     decimal.NullDecimal `json:"returnOnEquityTTM"`
	PERatioTTM            decimal.NullDecimal `json:"peRatioTTM"`
	PriceEarningsRatioTTM decimal.NullDecimal `json:"priceEarningsRatioTTM"`
	DividendYieldTTM      decimal.NullDecimal `json:"dividendYielTTM"`
}

func num(d decimal.NullDecimal) null.Float {
	if !d.Valid {
		return null.Float{}
	}
	f, _ := d.Decimal.Float64()
	return types.Value(f)
}

func (d listingDTO) toListing() types.Listing {
	return types.Listing{
		Symbol:            d.Symbol,
		Name:              d.Name,
		Price:             num(d.Price),
		Exchange:          d.Exchange,
		ExchangeShortName: d.ExchangeShortName,
		Type:              d.Type,
	}
}

func (d profileDTO) toProfile() *types.CompanyProfile {
	return &types.CompanyProfile{
		Symbol:            d.Symbol,
		CompanyName:       d.CompanyName,
		Price:             num(d.Price),
		Currency:          d.Currency,
		Exchange:          d.Exchange,
		ExchangeShortName: d.ExchangeShortName,
		Industry:          d.Industry,
		Sector:            d.Sector,
	}
}

func (d incomeDTO) toRow() types.IncomeRow {
	return types.IncomeRow{
		Date:              d.Date,
		CalendarYear:      d.CalendarYear,
		Revenue:           num(d.Revenue),
		CostOfRevenue:     num(d.CostOfRevenue),
		OperatingExpenses: num(d.OperatingExpenses),
		OperatingIncome:   num(d.OperatingIncome),
		InterestExpense:   num(d.InterestExpense),
		IncomeTaxExpense:  num(d.IncomeTaxExpense),
		NetIncome:         num(d.NetIncome),
		EPS:               num(d.EPS),
		EPSDiluted:        num(d.EPSDiluted),
	}
}

func (d balanceDTO) toRow() types.BalanceRow {
	return types.BalanceRow{
		Date:                      d.Date,
		CalendarYear:              d.CalendarYear,
		CashAndCashEquivalents:    num(d.CashAndCashEquivalents),
		NetReceivables:            num(d.NetReceivables),
		Inventory:                 num(d.Inventory),
		TotalCurrentAssets:        num(d.TotalCurrentAssets),
		PropertyPlantEquipmentNet: num(d.PropertyPlantEquipmentNet),
		TotalAssets:               num(d.TotalAssets),
		TotalCurrentLiabilities:   num(d.TotalCurrentLiabilities),
		TaxPayables:               num(d.TaxPayables),
		TotalDebt:                 num(d.TotalDebt),
		TotalLiabilities:          num(d.TotalLiabilities),
	}
}

func (d cashFlowDTO) toRow() types.CashFlowRow {
	return types.CashFlowRow{
		Date:                   d.Date,
		CalendarYear:           d.CalendarYear,
		NetIncome:              num(d.NetIncome),
		CapitalExpenditure:     num(d.CapitalExpenditure),
		FreeCashFlow:           num(d.FreeCashFlow),
		DividendsPaid:          num(d.DividendsPaid),
		CommonStockRepurchased: num(d.CommonStockRepurchased),
	}
}

func (d ratiosDTO) toRatios() *types.RatioSnapshot {
	return &types.RatioSnapshot{
		ReturnOnEquityTTM:     num(d.ReturnOnEquityTTM),
		PERatioTTM:            num(d.PERatioTTM),
		PriceEarningsRatioTTM: num(d.PriceEarningsRatioTTM),
		DividendYieldTTM:      num(d.DividendYieldTTM),
	}
}
