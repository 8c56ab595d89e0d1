package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"go.mongodb.org/mongo-driver/v2/bson"

	"robostock/internal/interfaces"
	"robostock/internal/types"
)

func sampleRun() *types.ScreenRun {
	ok := types.CompanyResult{
		Symbol:        "AAA",
		Name:          "Alpha",
		Status:        types.StatusComplete,
		IRR:           null.FloatFrom(0.12),
		ROC:           null.FloatFrom(0.3),
		RevenueTrend:  []null.Float{null.FloatFrom(100), {}},
		DividendTrend: []float64{0.1},
	}
	bad := types.CompanyResult{
		Symbol:       "BBB",
		Status:       types.StatusFailed,
		ErrorMessage: "fetch: not found",
		Failures:     []types.Failure{{Stage: "fetch", Kind: types.KindBatchItem, Message: "not found"}},
	}
	return &types.ScreenRun{
		RunID:     "run-1",
		StartedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Results:   []types.CompanyResult{ok, bad},
		Table: types.RankedTable{Rows: []types.RankedRow{
			{CompanyResult: ok, ROCRank: 1, EarningsYieldRank: 1, TotalRank: 2},
		}},
	}
}

func lookup(doc bson.D, key string) (any, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func TestToDocument(t *testing.T) {
	run := sampleRun()
	recs := records(run)
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recs))
	}

	doc := toDocument(run, recs[0])
	if id, _ := lookup(doc, "_id"); id != "run-1:AAA" {
		t.Errorf("Unexpected _id %v", id)
	}
	if irr, _ := lookup(doc, "irr"); irr == nil || *irr.(*float64) != 0.12 {
		t.Errorf("Unexpected irr %v", irr)
	}
	if v, _ := lookup(doc, "irr_mean"); v.(*float64) != nil {
		t.Errorf("Expected unknown irr_mean as nil")
	}
	if rank, ok := lookup(doc, "Total_rank"); !ok || rank != 2 {
		t.Errorf("Expected Total_rank 2, got %v", rank)
	}
	rev, _ := lookup(doc, "revenue_trend")
	if arr := rev.(bson.A); len(arr) != 2 || arr[1].(*float64) != nil {
		t.Errorf("Unexpected revenue trend %v", rev)
	}

	failed := toDocument(run, recs[1])
	if _, ok := lookup(failed, "Total_rank"); ok {
		t.Error("Expected no rank on an unranked company")
	}
	if fs, _ := lookup(failed, "failures"); len(fs.(bson.A)) != 1 {
		t.Errorf("Expected one failure, got %v", fs)
	}
}

func TestInsertArgs(t *testing.T) {
	run := sampleRun()
	recs := records(run)

	args, err := insertArgs(run, recs[0])
	if err != nil {
		t.Fatalf("insertArgs: %v", err)
	}
	p := &Postgres{table: `"company_results"`}
	if n := strings.Count(p.insertSQL(), "$"); n != len(args) {
		t.Fatalf("Query has %d placeholders, got %d args", n, len(args))
	}
	if args[0] != "run-1" || args[1] != "AAA" || args[6] != "complete" {
		t.Errorf("Unexpected leading args %v", args[:7])
	}
	if rank := args[13].(*int); rank == nil || *rank != 2 {
		t.Errorf("Unexpected rank arg %v", args[13])
	}

	var back types.CompanyResult
	if err := json.Unmarshal(args[15].([]byte), &back); err != nil || back.Symbol != "AAA" {
		t.Errorf("Expected result JSON for AAA, got %v %v", back.Symbol, err)
	}

	args, _ = insertArgs(run, recs[1])
	if args[13].(*int) != nil || args[7].(*float64) != nil {
		t.Errorf("Expected nil rank and irr for failed company")
	}
}

type fakeSink struct {
	name  string
	err   error
	saved int
}

func (f *fakeSink) Name() string { return f.name }
func (f *fakeSink) Save(ctx context.Context, run *types.ScreenRun) error {
	f.saved++
	return f.err
}
func (f *fakeSink) Close(ctx context.Context) error { return nil }

func TestSaveAllContinuesPastFailure(t *testing.T) {
	down := errors.New("down")
	a := &fakeSink{name: "a", err: down}
	b := &fakeSink{name: "b"}

	err := SaveAll(context.Background(), []interfaces.ResultSink{a, b}, sampleRun())
	if !errors.Is(err, down) || !strings.Contains(err.Error(), "a: down") {
		t.Errorf("Expected joined error naming sink a, got %v", err)
	}
	if a.saved != 1 || b.saved != 1 {
		t.Errorf("Expected both sinks called, got %d %d", a.saved, b.saved)
	}
}
