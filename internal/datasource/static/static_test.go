package static

import (
	"context"
	"errors"
	"testing"

	"github.com/guregu/null/v6"

	"robostock/internal/types"
)

func TestRoundTrip(t *testing.T) {
	src := New(t.TempDir())
	ctx := context.Background()

	listings := []types.Listing{
		{Symbol: "AAA", ExchangeShortName: "NASDAQ"},
		{Symbol: "BBB", ExchangeShortName: "NYSE"},
	}
	if err := src.SaveListings(listings); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}
	data := &types.CompanyData{
		Symbol: "AAA",
		Income: types.IncomeStatement{{Date: "2023-12-31", EPS: null.FloatFrom(1.5)}},
	}
	if err := src.SaveCompany(data); err != nil {
		t.Fatalf("SaveCompany: %v", err)
	}

	got, err := src.ListCompanies(ctx, "nasdaq")
	if err != nil {
		t.Fatalf("ListCompanies: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "AAA" {
		t.Fatalf("Expected AAA only, got %+v", got)
	}

	company, err := src.FetchCompany(ctx, got[0])
	if err != nil {
		t.Fatalf("FetchCompany: %v", err)
	}
	if company.Income[0].EPS.Float64 != 1.5 {
		t.Errorf("Expected EPS 1.5, got %v", company.Income[0].EPS)
	}
	if company.Listing.ExchangeShortName != "NASDAQ" {
		t.Errorf("Expected listing to be filled from the universe")
	}
}

func TestFetchMissing(t *testing.T) {
	src := New(t.TempDir())
	_, err := src.FetchCompany(context.Background(), types.Listing{Symbol: "NOPE"})
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if _, err := src.ListCompanies(context.Background(), ""); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing listings, got %v", err)
	}
}
