package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"robostock/internal/api"
	"robostock/internal/logger"
	"robostock/internal/trace"
	"robostock/internal/types"
)

const DefaultBaseURL = "https://financialmodelingprep.com/api/v3"

// Config configures the Financial Modeling Prep client
type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	MaxRetries        int
	// Cache is optional. When set, raw responses are served from disk.
	Cache *Cache
}

// Client is a DataSource backed by the FMP REST API
type Client struct {
	http  *api.Client
	retry *api.RetryConfig
	cache *Cache
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("fmp: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	retry := api.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}

	return &Client{
		http: api.NewClient(
			api.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
			api.WithQueryParam("apikey", cfg.APIKey),
			api.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
			api.WithTimeout(cfg.Timeout),
			api.WithHeader("Accept", "application/json"),
			api.WithLogging(true),
		),
		retry: retry,
		cache: cfg.Cache,
	}, nil
}

// get fetches path and decodes the JSON body into v. The cache key omits the
// API key.
func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	fetch := func() ([]byte, error) {
		resp, err := c.http.GetWithRetry(ctx, path, params, c.retry)
		if err != nil {
			return nil, err
		}
		if !json.Valid(resp.Body) {
			return nil, errors.New("response is not JSON")
		}
		// Quota and key problems come back as a 200 with an error object.
		var apiErr struct {
			Message string `json:"Error Message"`
		}
		if bytes.HasPrefix(bytes.TrimSpace(resp.Body), []byte{'{'}) && json.Unmarshal(resp.Body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("api error: %s", apiErr.Message)
		}
		return resp.Body, nil
	}

	var (
		body []byte
		err  error
	)
	if c.cache != nil {
		key := path
		if enc := params.Encode(); enc != "" {
			key += "?" + enc
		}
		body, err = c.cache.GetOrFetch(key, fetch)
	} else {
		body, err = fetch()
	}
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", path, types.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: decode: %w", path, err)
	}
	return nil
}

// ListCompanies returns the stock list filtered to one exchange short name.
// An empty exchange returns every listing.
func (c *Client) ListCompanies(ctx context.Context, exchange string) ([]types.Listing, error) {
	ctx, span := trace.StartSpan(ctx, "fmp.ListCompanies")
	defer span.End()
	span.SetAttributes(attribute.String("exchange", exchange))

	var rows []listingDTO
	if err := c.get(ctx, "/stock/list", nil, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]types.Listing, 0, len(rows))
	for _, r := range rows {
		if r.Symbol == "" {
			continue
		}
		if exchange != "" && !strings.EqualFold(r.ExchangeShortName, exchange) {
			continue
		}
		out = append(out, r.toListing())
	}
	span.SetAttributes(attribute.Int("listings", len(out)))
	logger.Info(ctx, "Fetched stock list", "exchange", exchange, "count", len(out))
	return out, nil
}

// FetchCompany fetches the profile, the three statements and the market and
// ratio snapshots concurrently. Only income and balance errors fail the
// company. The profile, cash flow and both snapshots are optional and come
// back nil or empty when unavailable; the scorer records what is missing.
func (c *Client) FetchCompany(ctx context.Context, listing types.Listing) (*types.CompanyData, error) {
	ctx, span := trace.StartSpan(ctx, "fmp.FetchCompany")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", listing.Symbol))

	sym := url.PathEscape(listing.Symbol)
	data := &types.CompanyData{Symbol: listing.Symbol, Listing: listing}

	var (
		profiles []profileDTO
		income   []incomeDTO
		balance  []balanceDTO
		cashflow []cashFlowDTO
		mcap     []marketCapDTO
		ratios   []ratiosDTO
	)

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		if err := c.get(ctx, "/profile/"+sym, nil, &profiles); err != nil {
			logger.Warn(ctx, "Profile unavailable", "symbol", listing.Symbol, "error", err)
			profiles = nil
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		return c.get(ctx, "/income-statement/"+sym, url.Values{"limit": {"400"}}, &income)
	})
	p.Go(func(ctx context.Context) error {
		return c.get(ctx, "/balance-sheet-statement/"+sym, nil, &balance)
	})
	p.Go(func(ctx context.Context) error {
		if err := c.get(ctx, "/cash-flow-statement/"+sym, nil, &cashflow); err != nil {
			logger.Warn(ctx, "Cash flow unavailable", "symbol", listing.Symbol, "error", err)
			cashflow = nil
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		if err := c.get(ctx, "/market-capitalization/"+sym, nil, &mcap); err != nil {
			logger.Warn(ctx, "Market cap unavailable", "symbol", listing.Symbol, "error", err)
			mcap = nil
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		if err := c.get(ctx, "/ratios-ttm/"+sym, nil, &ratios); err != nil {
			logger.Warn(ctx, "Ratios unavailable", "symbol", listing.Symbol, "error", err)
			ratios = nil
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch %s: %w", listing.Symbol, err)
	}

	if len(profiles) > 0 {
		data.Profile = profiles[0].toProfile()
	}
	for _, r := range income {
		data.Income = append(data.Income, r.toRow())
	}
	for _, r := range balance {
		data.Balance = append(data.Balance, r.toRow())
	}
	for _, r := range cashflow {
		data.CashFlow = append(data.CashFlow, r.toRow())
	}
	if len(mcap) > 0 {
		data.Market = &types.MarketSnapshot{
			Symbol:    mcap[0].Symbol,
			Date:      mcap[0].Date,
			MarketCap: num(mcap[0].MarketCap),
		}
	}
	if len(ratios) > 0 {
		data.Ratios = ratios[0].toRatios()
	}

	span.SetAttributes(
		attribute.Int("income_rows", len(data.Income)),
		attribute.Int("balance_rows", len(data.Balance)),
		attribute.Int("cashflow_rows", len(data.CashFlow)),
	)
	return data, nil
}
