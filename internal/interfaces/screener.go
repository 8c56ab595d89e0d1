package interfaces

import (
	"context"

	"robostock/internal/types"
)

// Screener runs the valuation and ranking pipeline
type Screener interface {
	// Universe returns the configured listings to analyse
	Universe(ctx context.Context) ([]types.Listing, error)

	// Run analyses every listing and ranks the batch
	Run(ctx context.Context, listings []types.Listing) (*types.ScreenRun, error)

	// AnalyzeCompany returns one company's result with its per-year table
	AnalyzeCompany(ctx context.Context, symbol string) (*types.CompanyDetail, error)
}
