package screener

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"robostock/internal/interfaces"
	"robostock/internal/research/ranking"
	"robostock/internal/research/scorer"
	"robostock/internal/types"
)

// Config is everything one run needs. It is built once by the caller and
// never read from globals.
type Config struct {
	Scoring        scorer.Config
	Filter         ranking.Filter
	Workers        int
	CompanyTimeout time.Duration
	Exchange       string
	Symbols        []string
	Limit          int
}

func DefaultConfig() Config {
	return Config{
		Scoring:        scorer.DefaultConfig(),
		Workers:        8,
		CompanyTimeout: 60 * time.Second,
	}
}

// Option customises a Screener.
type Option func(*Screener)

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Screener) { s.now = now }
}

// WithRunID replaces the uuid run id generator.
func WithRunID(id func() string) Option {
	return func(s *Screener) { s.runID = id }
}

// Screener maps the company pipeline over a universe and ranks the batch.
type Screener struct {
	cfg    Config
	source interfaces.DataSource
	scorer *scorer.Scorer
	now    func() time.Time
	runID  func() string
}

func New(cfg Config, source interfaces.DataSource, opts ...Option) *Screener {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	s := &Screener{
		cfg:    cfg,
		source: source,
		scorer: scorer.New(cfg.Scoring),
		now:    time.Now,
		runID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Universe lists the configured exchange and applies the symbol allow-list
// and limit.
func (s *Screener) Universe(ctx context.Context) ([]types.Listing, error) {
	listings, err := s.source.ListCompanies(ctx, s.cfg.Exchange)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.cfg.Exchange, err)
	}

	if len(s.cfg.Symbols) > 0 {
		allow := make(map[string]bool, len(s.cfg.Symbols))
		for _, sym := range s.cfg.Symbols {
			allow[strings.ToUpper(sym)] = true
		}
		kept := listings[:0]
		for _, l := range listings {
			if allow[strings.ToUpper(l.Symbol)] {
				kept = append(kept, l)
			}
		}
		listings = kept
	}

	if s.cfg.Limit > 0 && len(listings) > s.cfg.Limit {
		listings = listings[:s.cfg.Limit]
	}
	return listings, nil
}

// Run analyses every listing and ranks the results. One company failing
// never aborts the batch; Run only returns an error when ctx is done, and
// then still returns the partial run.
func (s *Screener) Run(ctx context.Context, listings []types.Listing) (*types.ScreenRun, error) {
	run := &types.ScreenRun{
		RunID:     s.runID(),
		Exchange:  s.cfg.Exchange,
		StartedAt: s.now(),
	}

	results := make([]types.CompanyResult, len(listings))
	p := pool.New().WithMaxGoroutines(s.cfg.Workers)
	for i, l := range listings {
		p.Go(func() {
			results[i] = s.analyze(ctx, l).Result
		})
	}
	p.Wait()

	run.Results = results
	run.Table = ranking.Screen(results, s.cfg.Filter)
	run.FinishedAt = s.now()
	return run, ctx.Err()
}

// AnalyzeCompany runs the pipeline for one symbol and returns the result
// with its per-year table.
func (s *Screener) AnalyzeCompany(ctx context.Context, symbol string) (*types.CompanyDetail, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, errors.New("symbol is required")
	}
	detail := s.analyze(ctx, types.Listing{Symbol: strings.ToUpper(symbol)})
	return detail, ctx.Err()
}

// analyze is the per-company unit. It always returns a detail.
func (s *Screener) analyze(ctx context.Context, listing types.Listing) (detail *types.CompanyDetail) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			detail = &types.CompanyDetail{Result: s.scorer.Failed(listing, "pipeline", err)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return &types.CompanyDetail{Result: s.scorer.Failed(listing, "fetch", err)}
	}

	if s.cfg.CompanyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CompanyTimeout)
		defer cancel()
	}

	data, err := s.source.FetchCompany(ctx, listing)
	if err != nil {
		return &types.CompanyDetail{Result: s.scorer.Failed(listing, "fetch", err)}
	}
	if data.Symbol == "" {
		data.Symbol = listing.Symbol
	}
	return s.scorer.Score(data)
}
