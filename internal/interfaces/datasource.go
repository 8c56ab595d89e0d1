package interfaces

import (
	"context"

	"robostock/internal/types"
)

// DataSource supplies statements and snapshots for the pipeline.
// Implementations: FMP REST API, static JSON files.
type DataSource interface {
	// ListCompanies returns the ticker universe for an exchange
	ListCompanies(ctx context.Context, exchange string) ([]types.Listing, error)

	// FetchCompany fetches everything needed to analyse one company
	FetchCompany(ctx context.Context, listing types.Listing) (*types.CompanyData, error)
}
