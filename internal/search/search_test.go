package search

import (
	"testing"

	"robostock/internal/types"
)

func table() types.RankedTable {
	row := func(symbol, name, sector, industry string, rank int) types.RankedRow {
		return types.RankedRow{
			CompanyResult: types.CompanyResult{Symbol: symbol, Name: name, Sector: sector, Industry: industry, Exchange: "NASDAQ"},
			TotalRank:     rank,
		}
	}
	return types.RankedTable{Rows: []types.RankedRow{
		row("AAPL", "Apple Inc", "Technology", "Consumer Electronics", 4),
		row("AAL", "American Airlines Group", "Industrials", "Airlines", 7),
		row("MSFT", "Microsoft Corporation", "Technology", "Software", 2),
		row("KO", "Coca-Cola Company", "Consumer Defensive", "Beverages", 9),
	}}
}

func TestSearchSymbolFirst(t *testing.T) {
	idx, err := Build(table())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer idx.Close()

	got, err := idx.Search("AAPL", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) == 0 || got[0].Symbol != "AAPL" {
		t.Fatalf("Expected AAPL first, got %+v", got)
	}

	got, _ = idx.Search("microsoft", 5)
	if len(got) != 1 || got[0].Symbol != "MSFT" {
		t.Errorf("Expected MSFT by name, got %+v", got)
	}

	got, _ = idx.Search("", 5)
	if got != nil {
		t.Errorf("Expected no results for empty query")
	}
}

func TestInSector(t *testing.T) {
	idx, err := Build(table())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer idx.Close()

	got, err := idx.InSector("Technology")
	if err != nil {
		t.Fatalf("InSector: %v", err)
	}
	if len(got) != 2 || got[0].Symbol != "MSFT" || got[1].Symbol != "AAPL" {
		t.Errorf("Expected MSFT then AAPL, got %+v", got)
	}
}
