// Package bootstrap wires configuration, data sources and sinks for the
// command-line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"robostock/internal/datasource/fmp"
	"robostock/internal/datasource/static"
	"robostock/internal/interfaces"
	"robostock/internal/logger"
	"robostock/internal/resultstore"
	"robostock/internal/store"
	"robostock/internal/trace"
)

// Init loads .env and starts logging and tracing
func Init() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// LoadConfig reads path, falling back to defaults when the file is absent
func LoadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn(ctx, "Config file not found, using defaults", "path", path)
		return store.Default(), nil
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// Source builds the configured data source
func Source(ctx context.Context, cfg *store.Config) (interfaces.DataSource, error) {
	if cfg.DataSource == "STATIC" {
		logger.Info(ctx, "Using static data source", "dir", cfg.StaticDir)
		return static.New(cfg.StaticDir), nil
	}

	var cache *fmp.Cache
	if cfg.FMP.CacheDir != "" {
		c, err := fmp.NewCache(cfg.FMP.CacheDir, cfg.FMP.CacheTTL)
		if err != nil {
			return nil, err
		}
		if err := c.CleanupExpired(); err != nil {
			logger.Warn(ctx, "Failed to clean response cache", "error", err)
		}
		cache = c
	}

	client, err := fmp.NewClient(fmp.Config{
		BaseURL:           cfg.FMP.BaseURL,
		APIKey:            os.Getenv(cfg.FMP.APIKeyEnv),
		RequestsPerSecond: cfg.FMP.RequestsPerSecond,
		Burst:             cfg.FMP.Burst,
		Timeout:           cfg.FMP.Timeout,
		MaxRetries:        cfg.FMP.MaxRetries,
		Cache:             cache,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set %s)", err, cfg.FMP.APIKeyEnv)
	}
	logger.Info(ctx, "Using FMP data source", "base_url", cfg.FMP.BaseURL, "cached", cache != nil)
	return client, nil
}

// Sinks connects every enabled result sink. A sink that cannot
// connect is skipped with a warning.
func Sinks(ctx context.Context, cfg *store.Config) []interfaces.ResultSink {
	var sinks []interfaces.ResultSink

	if m := cfg.Sinks.Mongo; m.Enabled {
		sink, err := resultstore.NewMongo(ctx, os.Getenv(m.URIEnv), m.Database, m.Collection)
		if err != nil {
			logger.Warn(ctx, "Mongo sink disabled", "error", err)
		} else {
			sinks = append(sinks, sink)
		}
	}

	if p := cfg.Sinks.Postgres; p.Enabled {
		sink, err := resultstore.NewPostgres(ctx, os.Getenv(p.DSNEnv), p.Table)
		if err != nil {
			logger.Warn(ctx, "Postgres sink disabled", "error", err)
		} else {
			sinks = append(sinks, sink)
		}
	}

	return sinks
}
