package static

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"robostock/internal/types"
)

const listingsFile = "listings.json"

// Source serves companies from JSON files in a directory: listings.json holds
// the universe and <SYMBOL>.json holds one types.CompanyData each.
type Source struct {
	dir string
}

func New(dir string) *Source {
	return &Source{dir: dir}
}

func (s *Source) ListCompanies(ctx context.Context, exchange string) ([]types.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []types.Listing
	if err := s.read(listingsFile, &all); err != nil {
		return nil, err
	}

	out := make([]types.Listing, 0, len(all))
	for _, l := range all {
		if exchange != "" && !strings.EqualFold(l.ExchangeShortName, exchange) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *Source) FetchCompany(ctx context.Context, listing types.Listing) (*types.CompanyData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data types.CompanyData
	if err := s.read(fileName(listing.Symbol), &data); err != nil {
		return nil, err
	}
	if data.Symbol == "" {
		data.Symbol = listing.Symbol
	}
	if data.Listing.Symbol == "" {
		data.Listing = listing
	}
	return &data, nil
}

// SaveCompany writes data where FetchCompany will find it.
func (s *Source) SaveCompany(data *types.CompanyData) error {
	return s.write(fileName(data.Symbol), data)
}

// SaveListings replaces listings.json.
func (s *Source) SaveListings(listings []types.Listing) error {
	return s.write(listingsFile, listings)
}

func (s *Source) read(name string, v any) error {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", name, types.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *Source) write(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), b, 0o644)
}

func fileName(symbol string) string {
	// Symbols like BRK/B cannot be file names.
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", "_")) + ".json"
}
