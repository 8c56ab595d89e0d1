package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"robostock/internal/research/growth"
	"robostock/internal/research/normalize"
	"robostock/internal/research/ranking"
	"robostock/internal/research/scorer"
	"robostock/internal/research/screener"
)

type Config struct {
	DataSource string `yaml:"data_source"`
	StaticDir  string `yaml:"static_dir"`
	Universe   struct {
		Exchange string   `yaml:"exchange"`
		Symbols  []string `yaml:"symbols"`
		Limit    int      `yaml:"limit"`
	} `yaml:"universe"`
	Valuation struct {
		Metric           string  `yaml:"metric"`
		DiscountRate     float64 `yaml:"discount_rate"`
		HorizonYears     int     `yaml:"horizon_years"`
		RegressionWindow int     `yaml:"regression_window"`
		MedianFloor      float64 `yaml:"median_floor"`
		Base             string  `yaml:"base"`
	} `yaml:"valuation"`
	Normalize struct {
		Join string `yaml:"join"`
	} `yaml:"normalize"`
	Screener struct {
		Workers        int           `yaml:"workers"`
		CompanyTimeout time.Duration `yaml:"company_timeout"`
	} `yaml:"screener"`
	Filter ranking.Filter `yaml:"filter"`
	FMP    struct {
		BaseURL           string        `yaml:"base_url"`
		APIKeyEnv         string        `yaml:"api_key_env"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
		Timeout           time.Duration `yaml:"timeout"`
		MaxRetries        int           `yaml:"max_retries"`
		CacheDir          string        `yaml:"cache_dir"`
		CacheTTL          time.Duration `yaml:"cache_ttl"`
	} `yaml:"fmp"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
	Sinks struct {
		Mongo struct {
			Enabled    bool   `yaml:"enabled"`
			URIEnv     string `yaml:"uri_env"`
			Database   string `yaml:"database"`
			Collection string `yaml:"collection"`
		} `yaml:"mongo"`
		Postgres struct {
			Enabled bool   `yaml:"enabled"`
			DSNEnv  string `yaml:"dsn_env"`
			Table   string `yaml:"table"`
		} `yaml:"postgres"`
	} `yaml:"sinks"`
	RunLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"runlog"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.DataSource == "" {
		c.DataSource = "STATIC"
	}
	if c.StaticDir == "" {
		c.StaticDir = "data"
	}
	if c.Universe.Exchange == "" {
		c.Universe.Exchange = "NASDAQ"
	}
	if c.Valuation.Metric == "" {
		c.Valuation.Metric = "eps"
	}
	if c.Valuation.DiscountRate == 0 {
		c.Valuation.DiscountRate = 0.09
	}
	if c.Valuation.HorizonYears == 0 {
		c.Valuation.HorizonYears = 10
	}
	if c.Valuation.RegressionWindow == 0 {
		c.Valuation.RegressionWindow = 10
	}
	if c.Valuation.MedianFloor == 0 {
		c.Valuation.MedianFloor = 0.01
	}
	if c.Valuation.Base == "" {
		c.Valuation.Base = growth.BaseLatest
	}
	if c.Normalize.Join == "" {
		c.Normalize.Join = "inner"
	}
	if c.Screener.Workers == 0 {
		c.Screener.Workers = 8
	}
	if c.Screener.CompanyTimeout == 0 {
		c.Screener.CompanyTimeout = 60 * time.Second
	}
	if c.FMP.BaseURL == "" {
		c.FMP.BaseURL = "https://financialmodelingprep.com/api/v3"
	}
	if c.FMP.APIKeyEnv == "" {
		c.FMP.APIKeyEnv = "FMP_API_KEY"
	}
	if c.FMP.RequestsPerSecond == 0 {
		c.FMP.RequestsPerSecond = 5
	}
	if c.FMP.Burst == 0 {
		c.FMP.Burst = 5
	}
	if c.FMP.Timeout == 0 {
		c.FMP.Timeout = 30 * time.Second
	}
	if c.FMP.MaxRetries == 0 {
		c.FMP.MaxRetries = 3
	}
	if c.FMP.CacheTTL == 0 {
		c.FMP.CacheTTL = 24 * time.Hour
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "excels"
	}
	if c.Sinks.Mongo.URIEnv == "" {
		c.Sinks.Mongo.URIEnv = "MONGO_URI"
	}
	if c.Sinks.Mongo.Database == "" {
		c.Sinks.Mongo.Database = "robostock"
	}
	if c.Sinks.Mongo.Collection == "" {
		c.Sinks.Mongo.Collection = "company_results"
	}
	if c.Sinks.Postgres.DSNEnv == "" {
		c.Sinks.Postgres.DSNEnv = "DATABASE_URL"
	}
	if c.Sinks.Postgres.Table == "" {
		c.Sinks.Postgres.Table = "company_results"
	}
	if c.RunLog.Dir == "" {
		c.RunLog.Dir = "logs"
	}
	if c.RunLog.RetentionDays == 0 {
		c.RunLog.RetentionDays = 30
	}
}

func (c *Config) Validate() error {
	if c.DataSource != "STATIC" && c.DataSource != "FMP" {
		return fmt.Errorf("invalid data_source '%s': must be 'STATIC' or 'FMP'", c.DataSource)
	}
	if c.DataSource == "STATIC" && c.StaticDir == "" {
		return errors.New("static_dir cannot be empty for STATIC data source")
	}
	if c.Valuation.DiscountRate <= -1 {
		return fmt.Errorf("valuation.discount_rate must be greater than -1, got %.4f", c.Valuation.DiscountRate)
	}
	if c.Valuation.HorizonYears < 1 {
		return fmt.Errorf("valuation.horizon_years must be positive, got %d", c.Valuation.HorizonYears)
	}
	if c.Valuation.RegressionWindow < 2 {
		return fmt.Errorf("valuation.regression_window must be at least 2, got %d", c.Valuation.RegressionWindow)
	}
	if c.Valuation.Base != growth.BaseLatest && c.Valuation.Base != growth.BaseMedian3 {
		return fmt.Errorf("valuation.base must be 'latest' or 'median3', got '%s'", c.Valuation.Base)
	}
	if _, err := normalize.ParseJoin(c.Normalize.Join); err != nil {
		return fmt.Errorf("normalize.join: %w", err)
	}
	if c.Screener.Workers < 1 {
		return fmt.Errorf("screener.workers must be positive, got %d", c.Screener.Workers)
	}
	if c.Universe.Limit < 0 {
		return fmt.Errorf("universe.limit cannot be negative, got %d", c.Universe.Limit)
	}
	if c.Filter.MinMarketCap != nil && c.Filter.MinMarketCapBillions != nil {
		return errors.New("filter: set only one of min_market_cap and min_market_cap_billions")
	}
	if c.RunLog.RetentionDays < 0 {
		return fmt.Errorf("runlog.retention_days cannot be negative, got %d", c.RunLog.RetentionDays)
	}
	if c.FMP.RequestsPerSecond <= 0 {
		return fmt.Errorf("fmp.requests_per_second must be positive, got %.2f", c.FMP.RequestsPerSecond)
	}
	return nil
}

// ScorerConfig converts the valuation section into the scorer's methodology.
func (c *Config) ScorerConfig() scorer.Config {
	join, _ := normalize.ParseJoin(c.Normalize.Join)
	return scorer.Config{
		Metric:   c.Valuation.Metric,
		BaseMode: c.Valuation.Base,
		Growth: growth.Options{
			Window: c.Valuation.RegressionWindow,
			Floor:  c.Valuation.MedianFloor,
		},
		DiscountRate: c.Valuation.DiscountRate,
		Horizon:      c.Valuation.HorizonYears,
		Join:         join,
	}
}

// ScreenerConfig assembles the per-run screener configuration.
func (c *Config) ScreenerConfig() screener.Config {
	return screener.Config{
		Scoring:        c.ScorerConfig(),
		Filter:         c.Filter,
		Workers:        c.Screener.Workers,
		CompanyTimeout: c.Screener.CompanyTimeout,
		Exchange:       c.Universe.Exchange,
		Symbols:        c.Universe.Symbols,
		Limit:          c.Universe.Limit,
	}
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
