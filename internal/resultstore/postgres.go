package resultstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"robostock/internal/types"
)

// Postgres stores one row per company per run. The full result is kept as
// JSONB next to the columns used for querying.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: DSN is empty")
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	p := &Postgres{pool: pool, table: pgx.Identifier{table}.Sanitize()}
	if _, err := pool.Exec(ctx, p.schemaSQL()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create table: %w", err)
	}
	return p, nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) schemaSQL() string {
	return `CREATE TABLE IF NOT EXISTS ` + p.table + ` (
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	name TEXT,
	exchange TEXT,
	sector TEXT,
	industry TEXT,
	status TEXT NOT NULL,
	irr DOUBLE PRECISION,
	npv_mean DOUBLE PRECISION,
	npv_regression DOUBLE PRECISION,
	roc DOUBLE PRECISION,
	earnings_yield DOUBLE PRECISION,
	market_cap DOUBLE PRECISION,
	total_rank INTEGER,
	error_message TEXT,
	result_json JSONB NOT NULL,
	run_started_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, symbol)
)`
}

func (p *Postgres) insertSQL() string {
	return `INSERT INTO ` + p.table + ` (
	run_id, symbol, name, exchange, sector, industry, status,
	irr, npv_mean, npv_regression, roc, earnings_yield, market_cap,
	total_rank, error_message, result_json, run_started_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (run_id, symbol) DO UPDATE SET
	status = EXCLUDED.status,
	irr = EXCLUDED.irr,
	npv_mean = EXCLUDED.npv_mean,
	npv_regression = EXCLUDED.npv_regression,
	roc = EXCLUDED.roc,
	earnings_yield = EXCLUDED.earnings_yield,
	market_cap = EXCLUDED.market_cap,
	total_rank = EXCLUDED.total_rank,
	error_message = EXCLUDED.error_message,
	result_json = EXCLUDED.result_json`
}

// Save writes the run in one batch.
func (p *Postgres) Save(ctx context.Context, run *types.ScreenRun) error {
	recs := records(run)
	if len(recs) == 0 {
		return nil
	}

	query := p.insertSQL()
	batch := &pgx.Batch{}
	for _, rec := range recs {
		args, err := insertArgs(run, rec)
		if err != nil {
			return err
		}
		batch.Queue(query, args...)
	}

	br := p.pool.SendBatch(ctx, batch)
	for range recs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("postgres: insert: %w", err)
		}
	}
	return br.Close()
}

func (p *Postgres) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}

func insertArgs(run *types.ScreenRun, rec record) ([]any, error) {
	r := rec.result
	blob, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", r.Symbol, err)
	}
	var rank *int
	if rec.rank != nil {
		rank = &rec.rank.TotalRank
	}
	return []any{
		run.RunID, r.Symbol, r.Name, r.Exchange, r.Sector, r.Industry, string(r.Status),
		nullable(r.IRR), nullable(r.NPVMean), nullable(r.NPVRegression),
		nullable(r.ROC), nullable(r.EarningsYield), nullable(r.MarketCap),
		rank, r.ErrorMessage, blob, run.StartedAt,
	}, nil
}
