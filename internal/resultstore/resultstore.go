package resultstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/guregu/null/v6"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"robostock/internal/interfaces"
	"robostock/internal/logger"
	"robostock/internal/trace"
	"robostock/internal/types"
)

// SaveAll writes run to every sink. A failing sink does not stop the others.
func SaveAll(ctx context.Context, sinks []interfaces.ResultSink, run *types.ScreenRun) error {
	var errs []error
	for _, s := range sinks {
		if err := save(ctx, s, run); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func save(ctx context.Context, s interfaces.ResultSink, run *types.ScreenRun) error {
	ctx, span := trace.StartSpan(ctx, "resultstore.Save")
	defer span.End()
	span.SetAttributes(
		attribute.String("sink", s.Name()),
		attribute.String("run_id", run.RunID),
		attribute.Int("results", len(run.Results)),
	)

	if err := s.Save(ctx, run); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorWithErr(ctx, "Failed to save results", err, "sink", s.Name(), "run_id", run.RunID)
		return err
	}
	logger.Info(ctx, "Results saved", "sink", s.Name(), "run_id", run.RunID, "count", len(run.Results))
	return nil
}

// CloseAll closes every sink and joins the errors.
func CloseAll(ctx context.Context, sinks []interfaces.ResultSink) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// record pairs one company's result with its rank, when it made the table.
type record struct {
	result types.CompanyResult
	rank   *types.RankedRow
}

// records lists every result of the run, ranked or not, in run order.
func records(run *types.ScreenRun) []record {
	ranked := make(map[string]*types.RankedRow, run.Table.Len())
	for i := range run.Table.Rows {
		ranked[run.Table.Rows[i].Symbol] = &run.Table.Rows[i]
	}
	out := make([]record, 0, len(run.Results))
	for _, r := range run.Results {
		out = append(out, record{result: r, rank: ranked[r.Symbol]})
	}
	return out
}

func nullable(v null.Float) *float64 {
	if !types.Known(v) {
		return nil
	}
	return v.Ptr()
}
