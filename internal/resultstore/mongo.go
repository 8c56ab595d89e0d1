package resultstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"robostock/internal/types"
)

// Mongo stores one document per company per run.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: connection URI is empty")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &Mongo{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (m *Mongo) Name() string { return "mongo" }

// Save upserts by run id and symbol so a retried save does not duplicate.
func (m *Mongo) Save(ctx context.Context, run *types.ScreenRun) error {
	recs := records(run)
	if len(recs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(recs))
	for _, rec := range recs {
		doc := toDocument(run, rec)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: documentID(run, rec)}}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if _, err := m.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("mongo: bulk write: %w", err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func documentID(run *types.ScreenRun, rec record) string {
	return run.RunID + ":" + rec.result.Symbol
}

func toDocument(run *types.ScreenRun, rec record) bson.D {
	r := rec.result
	failures := bson.A{}
	for _, f := range r.Failures {
		failures = append(failures, bson.D{
			{Key: "stage", Value: f.Stage},
			{Key: "field", Value: f.Field},
			{Key: "kind", Value: string(f.Kind)},
			{Key: "message", Value: f.Message},
			{Key: "soft", Value: f.Soft},
		})
	}
	revenue := bson.A{}
	for _, v := range r.RevenueTrend {
		revenue = append(revenue, nullable(v))
	}

	doc := bson.D{
		{Key: "_id", Value: documentID(run, rec)},
		{Key: "run_id", Value: run.RunID},
		{Key: "run_started_at", Value: run.StartedAt},
		{Key: "symbol", Value: r.Symbol},
		{Key: "name", Value: r.Name},
		{Key: "exchange", Value: r.Exchange},
		{Key: "sector", Value: r.Sector},
		{Key: "industry", Value: r.Industry},
		{Key: "currency", Value: r.Currency},
		{Key: "price", Value: nullable(r.Price)},
		{Key: "irr", Value: nullable(r.IRR)},
		{Key: "irr_mean", Value: nullable(r.IRRMean)},
		{Key: "npv_mean", Value: nullable(r.NPVMean)},
		{Key: "npv_regression", Value: nullable(r.NPVRegression)},
		{Key: "regression_type", Value: string(r.RegressionType)},
		{Key: "eps_roc", Value: nullable(r.GrowthMedian)},
		{Key: "ROC", Value: nullable(r.ROC)},
		{Key: "EarningsYield", Value: nullable(r.EarningsYield)},
		{Key: "ROE", Value: nullable(r.ROE)},
		{Key: "MOP", Value: nullable(r.MOP)},
		{Key: "QA", Value: nullable(r.QA)},
		{Key: "MCap", Value: nullable(r.MarketCap)},
		{Key: "PE", Value: nullable(r.PE)},
		{Key: "dividend_ratio", Value: r.DividendRatio},
		{Key: "dividend_trend", Value: r.DividendTrend},
		{Key: "buyback_trend", Value: r.BuybackTrend},
		{Key: "revenue_trend", Value: revenue},
		{Key: "status", Value: string(r.Status)},
		{Key: "error_message", Value: r.ErrorMessage},
		{Key: "failures", Value: failures},
	}
	if rec.rank != nil {
		doc = append(doc,
			bson.E{Key: "ROC_rank", Value: rec.rank.ROCRank},
			bson.E{Key: "EarningsYield_rank", Value: rec.rank.EarningsYieldRank},
			bson.E{Key: "Total_rank", Value: rec.rank.TotalRank},
		)
	}
	return doc
}
