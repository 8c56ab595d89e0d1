package screenerobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"robostock/internal/interfaces"
	"robostock/internal/logger"
	"robostock/internal/trace"
	"robostock/internal/types"
)

// observableScreener wraps a Screener with logging and tracing
type observableScreener struct {
	inner interfaces.Screener
}

// Wrap wraps a Screener with observability middleware
func Wrap(s interfaces.Screener) interfaces.Screener {
	return &observableScreener{inner: s}
}

func (o *observableScreener) Universe(ctx context.Context) ([]types.Listing, error) {
	ctx, span := trace.StartSpan(ctx, "screener.Universe")
	defer span.End()

	listings, err := o.inner.Universe(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorWithErrSkip(ctx, 1, "Failed to load universe", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("listings", len(listings)))
	logger.InfoSkip(ctx, 1, "Universe loaded", "count", len(listings))
	return listings, nil
}

// Run logs one line per company and a summary for the batch
func (o *observableScreener) Run(ctx context.Context, listings []types.Listing) (*types.ScreenRun, error) {
	ctx, span := trace.StartSpan(ctx, "screener.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("company_count", len(listings)))

	logger.InfoSkip(ctx, 1, "Starting screen", "company_count", len(listings))
	start := time.Now()

	run, err := o.inner.Run(ctx, listings)
	duration := time.Since(start)

	if run != nil {
		span.SetAttributes(attribute.String("run_id", run.RunID))
		for _, r := range run.Results {
			logResult(ctx, r)
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorWithErrSkip(ctx, 1, "Screen interrupted", err, "duration_ms", duration.Milliseconds())
		return run, err
	}

	failed := len(run.Failed())
	span.SetAttributes(
		attribute.Int("failed", failed),
		attribute.Int("ranked", run.Table.Len()),
	)
	fields := []any{
		"run_id", run.RunID,
		"analysed", len(run.Results),
		"failed", failed,
		"ranked", run.Table.Len(),
		"duration_ms", duration.Milliseconds(),
	}
	if run.Table.Len() > 0 {
		top := run.Table.Rows[0]
		fields = append(fields, "top_symbol", top.Symbol, "top_rank", top.TotalRank)
	}
	logger.InfoSkip(ctx, 1, "Screen completed", fields...)
	return run, nil
}

func (o *observableScreener) AnalyzeCompany(ctx context.Context, symbol string) (*types.CompanyDetail, error) {
	ctx, span := trace.StartSpan(ctx, "screener.AnalyzeCompany")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	start := time.Now()
	detail, err := o.inner.AnalyzeCompany(ctx, symbol)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorWithErrSkip(ctx, 1, "Company analysis failed", err, "symbol", symbol)
		return detail, err
	}

	span.SetAttributes(
		attribute.String("status", string(detail.Result.Status)),
		attribute.Int("years", len(detail.Combined.Years)),
	)
	logResult(ctx, detail.Result)
	logger.DebugSkip(ctx, 1, "Company analysis completed",
		"symbol", symbol, "duration_ms", time.Since(start).Milliseconds())
	return detail, nil
}

func logResult(ctx context.Context, r types.CompanyResult) {
	for _, f := range r.Failures {
		logger.Failure(ctx, r.Symbol, f.Stage, string(f.Kind), f.Message, "field", f.Field, "soft", f.Soft)
	}
	logger.Company(ctx, r.Symbol, string(r.Status),
		"irr", r.IRR.Ptr(),
		"roc", r.ROC.Ptr(),
		"earnings_yield", r.EarningsYield.Ptr())
}
