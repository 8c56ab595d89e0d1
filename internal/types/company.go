package types

import "github.com/guregu/null/v6"

// Listing is one entry of the exchange ticker list that defines a run's
// universe.
type Listing struct {
	Symbol            string     `json:"symbol"`
	Name              string     `json:"name"`
	Exchange          string     `json:"exchange"`
	ExchangeShortName string     `json:"exchangeShortName"`
	Type              string     `json:"type"`
	Price             null.Float `json:"price"`
}

type CompanyProfile struct {
	Symbol            string     `json:"symbol"`
	CompanyName       string     `json:"companyName"`
	Price             null.Float `json:"price"`
	Currency          string     `json:"currency"`
	Exchange          string     `json:"exchange"`
	ExchangeShortName string     `json:"exchangeShortName"`
	Industry          string     `json:"industry"`
	Sector            string     `json:"sector"`
}

// MarketSnapshot is the zero-or-one market capitalization row. A nil
// *MarketSnapshot means the source returned no rows: market cap is unknown.
type MarketSnapshot struct {
	Symbol    string     `json:"symbol"`
	Date      string     `json:"date"`
	MarketCap null.Float `json:"marketCap"`
}

// RatioSnapshot holds trailing-twelve-month ratios. Any field may be null.
type RatioSnapshot struct {
	ReturnOnEquityTTM     null.Float `json:"returnOnEquityTTM"`
	PERatioTTM            null.Float `json:"peRatioTTM"`
	PriceEarningsRatioTTM null.Float `json:"priceEarningsRatioTTM"`
	DividendYieldTTM      null.Float `json:"dividendYieldTTM"`
}

// PE returns the trailing P/E, preferring peRatioTTM.
func (r *RatioSnapshot) PE() null.Float {
	if r == nil {
		return null.Float{}
	}
	if Known(r.PERatioTTM) {
		return r.PERatioTTM
	}
	return Finite(r.PriceEarningsRatioTTM)
}

// CompanyData is everything the data source supplies for one company.
type CompanyData struct {
	Symbol   string            `json:"symbol"`
	Listing  Listing           `json:"listing"`
	Profile  *CompanyProfile   `json:"profile,omitempty"`
	Income   IncomeStatement   `json:"income"`
	Balance  BalanceSheet      `json:"balance"`
	CashFlow CashFlowStatement `json:"cashFlow"`
	Market   *MarketSnapshot   `json:"market,omitempty"`
	Ratios   *RatioSnapshot    `json:"ratios,omitempty"`
}

// Name returns the best available display name.
func (c *CompanyData) Name() string {
	if c.Profile != nil && c.Profile.CompanyName != "" {
		return c.Profile.CompanyName
	}
	return c.Listing.Name
}

// Price returns the profile price, falling back to the listing price.
func (c *CompanyData) Price() null.Float {
	if c.Profile != nil && Known(c.Profile.Price) {
		return c.Profile.Price
	}
	return Finite(c.Listing.Price)
}

// Exchange returns the short exchange code when known.
func (c *CompanyData) Exchange() string {
	if c.Profile != nil {
		if c.Profile.ExchangeShortName != "" {
			return c.Profile.ExchangeShortName
		}
		if c.Profile.Exchange != "" {
			return c.Profile.Exchange
		}
	}
	if c.Listing.ExchangeShortName != "" {
		return c.Listing.ExchangeShortName
	}
	return c.Listing.Exchange
}
