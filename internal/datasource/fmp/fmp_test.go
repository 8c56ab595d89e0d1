package fmp

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"robostock/internal/research/scorer"
	"robostock/internal/types"
)

func fixtureServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	routes := map[string]string{
		"/stock/list": `[
			{"symbol":"AAA","name":"Alpha","price":10.5,"exchange":"NASDAQ Global Select","exchangeShortName":"NASDAQ","type":"stock"},
			{"symbol":"BBB","name":"Beta","price":"3.2","exchange":"New York Stock Exchange","exchangeShortName":"NYSE","type":"stock"},
			{"symbol":"","name":"Blank","exchangeShortName":"NASDAQ"}
		]`,
		"/profile/AAA":          `[{"symbol":"AAA","companyName":"Alpha Inc","price":11,"currency":"USD","exchangeShortName":"NASDAQ","industry":"Software","sector":"Technology"}]`,
		"/income-statement/AAA": `[{"date":"2023-12-31","calendarYear":"2023","revenue":1000,"eps":2.5,"netIncome":null},{"date":"2022-12-31","revenue":"900","eps":2.1}]`,
		"/balance-sheet-statement/AAA": `[{"date":"2023-12-31","totalCurrentAssets":500,"totalCurrentLiabilities":200}]`,
		"/cash-flow-statement/AAA":     `[{"date":"2023-12-31","dividendsPaid":-50,"commonStockRepurchased":-20}]`,
		"/market-capitalization/AAA":   `[]`,
		"/ratios-ttm/AAA":              `[{"returnOnEquityTTM":0.2,"peRatioTTM":18.5}]`,
		// CCC has no cash-flow statement.
		"/profile/CCC":                 `[{"symbol":"CCC","companyName":"Gamma","price":30,"sector":"Industrials"}]`,
		"/income-statement/CCC":        `[{"date":"2023-12-31","revenue":1000,"costOfRevenue":400,"operatingExpenses":300,"operatingIncome":300,"eps":3}]`,
		"/balance-sheet-statement/CCC": `[{"date":"2023-12-31","totalCurrentAssets":500,"inventory":100,"totalCurrentLiabilities":200,"propertyPlantEquipmentNet":700,"totalDebt":0,"taxPayables":0}]`,
		"/market-capitalization/CCC":   `[{"symbol":"CCC","date":"2024-01-02","marketCap":3000}]`,
		"/ratios-ttm/CCC":              `[]`,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.URL.Query().Get("apikey") != "k" {
			w.Write([]byte(`{"Error Message":"Invalid API KEY."}`))
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
}

func newTestClient(t *testing.T, srv *httptest.Server, key string, cache *Cache) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: key, MaxRetries: 1, Cache: cache})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("Expected error without API key")
	}
}

func TestListCompaniesFiltersExchange(t *testing.T) {
	srv := fixtureServer(t, nil)
	defer srv.Close()
	c := newTestClient(t, srv, "k", nil)

	got, err := c.ListCompanies(context.Background(), "nasdaq")
	if err != nil {
		t.Fatalf("ListCompanies: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "AAA" {
		t.Fatalf("Expected only AAA, got %+v", got)
	}
	if got[0].Price.Float64 != 10.5 {
		t.Errorf("Expected price 10.5, got %v", got[0].Price)
	}

	all, err := c.ListCompanies(context.Background(), "")
	if err != nil {
		t.Fatalf("ListCompanies: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 listings with symbols, got %d", len(all))
	}
	if !types.Known(all[1].Price) || all[1].Price.Float64 != 3.2 {
		t.Errorf("Expected quoted price to decode, got %v", all[1].Price)
	}
}

func TestFetchCompany(t *testing.T) {
	srv := fixtureServer(t, nil)
	defer srv.Close()
	c := newTestClient(t, srv, "k", nil)

	data, err := c.FetchCompany(context.Background(), types.Listing{Symbol: "AAA", Name: "Alpha"})
	if err != nil {
		t.Fatalf("FetchCompany: %v", err)
	}
	if data.Profile == nil || data.Profile.Sector != "Technology" {
		t.Fatalf("Expected profile, got %+v", data.Profile)
	}
	if len(data.Income) != 2 || data.Income[1].Revenue.Float64 != 900 {
		t.Errorf("Unexpected income rows %+v", data.Income)
	}
	if data.Income[0].NetIncome.Valid {
		t.Errorf("Expected null net income to stay unknown")
	}
	if data.Market != nil {
		t.Errorf("Expected nil market snapshot for empty response")
	}
	if data.Ratios.PE().Float64 != 18.5 {
		t.Errorf("Expected PE 18.5, got %v", data.Ratios.PE())
	}
	if data.CashFlow[0].DividendsPaid.Float64 != -50 {
		t.Errorf("Unexpected dividends %v", data.CashFlow[0].DividendsPaid)
	}
}

func TestFetchCompanyMissingStatement(t *testing.T) {
	srv := fixtureServer(t, nil)
	defer srv.Close()
	c := newTestClient(t, srv, "k", nil)

	_, err := c.FetchCompany(context.Background(), types.Listing{Symbol: "ZZZ"})
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestAPIErrorObject(t *testing.T) {
	srv := fixtureServer(t, nil)
	defer srv.Close()
	c := newTestClient(t, srv, "wrong", nil)

	if _, err := c.ListCompanies(context.Background(), ""); err == nil {
		t.Fatal("Expected error for error-object response")
	}
}

func TestCacheServesRepeatRequests(t *testing.T) {
	var hits int32
	srv := fixtureServer(t, &hits)
	defer srv.Close()

	cache, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	c := newTestClient(t, srv, "k", cache)

	for i := 0; i < 3; i++ {
		if _, err := c.ListCompanies(context.Background(), "NASDAQ"); err != nil {
			t.Fatalf("ListCompanies: %v", err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Expected 1 upstream hit, got %d", n)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache, err := NewCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if err := cache.Set("k", []byte(`[1]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok := cache.Get("k"); !ok || string(got) != "[1]" {
		t.Fatalf("Expected fresh hit, got %q %v", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("k"); ok {
		t.Error("Expected expired entry to miss")
	}
}

func TestFetchCompanyMissingCashFlow(t *testing.T) {
	srv := fixtureServer(t, nil)
	defer srv.Close()
	c := newTestClient(t, srv, "k", nil)

	data, err := c.FetchCompany(context.Background(), types.Listing{Symbol: "CCC"})
	if err != nil {
		t.Fatalf("Expected missing cash flow to be tolerated, got %v", err)
	}
	if len(data.CashFlow) != 0 {
		t.Errorf("Expected no cash-flow rows, got %d", len(data.CashFlow))
	}

	r := scorer.New(scorer.DefaultConfig()).Score(data).Result
	if r.Status == types.StatusFailed {
		t.Fatalf("Expected a scored company, got failed: %s", r.ErrorMessage)
	}
	if !types.Known(r.ROC) || math.Abs(r.ROC.Float64-0.3) > 1e-9 {
		t.Errorf("Expected ROC 0.3, got %v", r.ROC)
	}
	if !types.Known(r.EarningsYield) || math.Abs(r.EarningsYield.Float64-0.1) > 1e-9 {
		t.Errorf("Expected earnings yield 0.1, got %v", r.EarningsYield)
	}
	if len(r.DividendTrend) != 1 || r.DividendTrend[0] != 0 {
		t.Errorf("Expected dividend trend [0], got %v", r.DividendTrend)
	}
}

func TestAPIErrorObjectWithLeadingWhitespace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\n  {\"Error Message\":\"Limit Reach\"}"))
	}))
	defer srv.Close()
	c := newTestClient(t, srv, "k", nil)

	_, err := c.ListCompanies(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "Limit Reach") {
		t.Fatalf("Expected api error, got %v", err)
	}
}
