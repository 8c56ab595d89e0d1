package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"robostock/internal/types"
)

const defaultLimit = 20

// Index is an in-memory company lookup over one ranked table.
type Index struct {
	index bleve.Index
	rows  map[string]types.RankedRow
}

type companyDoc struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	Industry  string  `json:"industry"`
	Exchange  string  `json:"exchange"`
	TotalRank float64 `json:"total_rank"`
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	doc.AddFieldMappingsAt("exchange", keyword)

	text := bleve.NewTextFieldMapping()
	text.Store = true
	doc.AddFieldMappingsAt("symbol", text)
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("sector", text)
	doc.AddFieldMappingsAt("industry", text)

	rank := bleve.NewNumericFieldMapping()
	rank.Store = true
	doc.AddFieldMappingsAt("total_rank", rank)

	im.DefaultMapping = doc
	return im
}

// Build indexes every row of t.
func Build(t types.RankedTable) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	batch := idx.NewBatch()
	rows := make(map[string]types.RankedRow, t.Len())
	for _, r := range t.Rows {
		rows[r.Symbol] = r
		doc := companyDoc{
			Symbol:    r.Symbol,
			Name:      r.Name,
			Sector:    r.Sector,
			Industry:  r.Industry,
			Exchange:  r.Exchange,
			TotalRank: float64(r.TotalRank),
		}
		if err := batch.Index(r.Symbol, doc); err != nil {
			idx.Close()
			return nil, fmt.Errorf("index %s: %w", r.Symbol, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("index batch: %w", err)
	}
	return &Index{index: idx, rows: rows}, nil
}

// Search matches query against symbol, name, sector and industry. An exact
// symbol scores highest, then a symbol prefix, then text matches.
func (i *Index) Search(query string, limit int) ([]types.RankedRow, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	lower := strings.ToLower(query)

	exact := bleve.NewTermQuery(lower)
	exact.SetField("symbol")
	exact.SetBoost(10)

	prefix := bleve.NewPrefixQuery(lower)
	prefix.SetField("symbol")
	prefix.SetBoost(5)

	name := bleve.NewMatchQuery(query)
	name.SetField("name")
	name.SetBoost(3)

	namePrefix := bleve.NewPrefixQuery(lower)
	namePrefix.SetField("name")
	namePrefix.SetBoost(2)

	sector := bleve.NewMatchQuery(query)
	sector.SetField("sector")

	industry := bleve.NewMatchQuery(query)
	industry.SetField("industry")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(exact, prefix, name, namePrefix, sector, industry))
	req.Size = limit
	return i.run(req)
}

// InSector returns every company whose sector matches, best total rank first.
func (i *Index) InSector(sector string) ([]types.RankedRow, error) {
	q := bleve.NewMatchPhraseQuery(sector)
	q.SetField("sector")
	req := bleve.NewSearchRequest(q)
	req.Size = len(i.rows)
	req.SortBy([]string{"total_rank", "symbol"})
	return i.run(req)
}

func (i *Index) run(req *bleve.SearchRequest) ([]types.RankedRow, error) {
	if req.Size == 0 {
		return nil, nil
	}
	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]types.RankedRow, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if r, ok := i.rows[hit.ID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (i *Index) Close() error {
	return i.index.Close()
}
