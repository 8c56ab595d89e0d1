package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"robostock/internal/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "data_source: STATIC\n"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Valuation.DiscountRate != 0.09 {
		t.Errorf("Expected discount rate 0.09, got %v", cfg.Valuation.DiscountRate)
	}
	if cfg.Valuation.HorizonYears != 10 || cfg.Valuation.RegressionWindow != 10 {
		t.Errorf("Expected 10/10, got %d/%d", cfg.Valuation.HorizonYears, cfg.Valuation.RegressionWindow)
	}
	if cfg.Valuation.Base != "latest" || cfg.Normalize.Join != "inner" {
		t.Errorf("Expected latest/inner, got %s/%s", cfg.Valuation.Base, cfg.Normalize.Join)
	}
	if cfg.Screener.Workers != 8 || cfg.Screener.CompanyTimeout != 60*time.Second {
		t.Errorf("Expected 8 workers and 60s timeout, got %d %v", cfg.Screener.Workers, cfg.Screener.CompanyTimeout)
	}
	if cfg.RunLog.RetentionDays != 30 {
		t.Errorf("Expected 30 retention days, got %d", cfg.RunLog.RetentionDays)
	}
}

func TestLoadConfigFull(t *testing.T) {
	body := `
data_source: FMP
universe:
  exchange: NYSE
  symbols: [AAPL, MSFT]
  limit: 50
valuation:
  metric: epsdiluted
  discount_rate: 0.1
  base: median3
normalize:
  join: outer
screener:
  workers: 4
  company_timeout: 15s
filter:
  min_market_cap_billions: 2
  min_roc: 0.1
  exclude_sectors: [Banking, Insurance]
  dividend_only: true
  keep_unknown: true
  top_n: 25
fmp:
  requests_per_second: 2.5
  cache_dir: .cache/fmp
  cache_ttl: 12h
sinks:
  mongo:
    enabled: true
`
	cfg, err := LoadConfig(writeConfig(t, body))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Universe.Exchange != "NYSE" || len(cfg.Universe.Symbols) != 2 || cfg.Universe.Limit != 50 {
		t.Errorf("Unexpected universe: %+v", cfg.Universe)
	}
	if cfg.Screener.CompanyTimeout != 15*time.Second {
		t.Errorf("Expected 15s, got %v", cfg.Screener.CompanyTimeout)
	}
	if cfg.FMP.CacheTTL != 12*time.Hour || cfg.FMP.RequestsPerSecond != 2.5 {
		t.Errorf("Unexpected fmp section: %+v", cfg.FMP)
	}
	if cfg.Filter.MinMarketCapBillions == nil || *cfg.Filter.MinMarketCapBillions != 2 {
		t.Errorf("Expected min_market_cap_billions 2, got %v", cfg.Filter.MinMarketCapBillions)
	}
	if cfg.Filter.MinPE != nil {
		t.Error("Expected unset min_pe to stay nil")
	}
	if !cfg.Filter.DividendOnly || !cfg.Filter.KeepUnknown || cfg.Filter.TopN != 25 {
		t.Errorf("Unexpected filter: %+v", cfg.Filter)
	}
	if !cfg.Sinks.Mongo.Enabled || cfg.Sinks.Mongo.Collection != "company_results" {
		t.Errorf("Unexpected mongo sink: %+v", cfg.Sinks.Mongo)
	}

	sc := cfg.ScorerConfig()
	if sc.Metric != "epsdiluted" || sc.BaseMode != "median3" || sc.Join != types.JoinOuter {
		t.Errorf("Unexpected scorer config: %+v", sc)
	}
	if sc.DiscountRate != 0.1 || sc.Growth.Floor != 0.01 {
		t.Errorf("Expected rate 0.1 floor 0.01, got %v %v", sc.DiscountRate, sc.Growth.Floor)
	}

	scr := cfg.ScreenerConfig()
	if scr.Workers != 4 || scr.Exchange != "NYSE" || scr.Limit != 50 || scr.Filter.TopN != 25 {
		t.Errorf("Unexpected screener config: %+v", scr)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"data source", "data_source: LIVE\n", "data_source"},
		{"base", "valuation:\n  base: mean\n", "valuation.base"},
		{"join", "normalize:\n  join: left\n", "normalize.join"},
		{"window", "valuation:\n  regression_window: 1\n", "regression_window"},
		{"retention", "runlog:\n  retention_days: -1\n", "retention_days"},
		{"market cap", "filter:\n  min_market_cap: 1\n  min_market_cap_billions: 1\n", "min_market_cap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
