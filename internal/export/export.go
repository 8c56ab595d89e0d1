package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"robostock/internal/types"
)

// tableHeader is the column layout of the ranked table CSV. Unknown values
// are written as empty cells and lists as "[a, b, c]".
var tableHeader = []string{
	"symbol", "name", "price", "exchange", "industry", "sector", "currency",
	"irr", "irr_mean", "npv_mean", "npv_regression", "regression_type",
	"eps_roc", "growth_regression", "eps_roc_flag", "eps_base", "eps_list",
	"ROC", "EarningsYield", "ROE", "MOP", "QA", "EBIT", "MCap", "PE",
	"dividend_ratio", "dividend_trend", "buyback_trend", "revenue_trend", "revenue_change",
	"status", "error_message",
	"ROC_rank", "EarningsYield_rank", "Total_rank",
}

// MonthlyPath names the month-stamped export for an exchange, e.g.
// excels/NASDAQ_October.csv. A file already at this path is this month's run.
func MonthlyPath(dir, exchange string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", strings.ToUpper(exchange), now.Month()))
}

// FailuresPath returns the companion path for the failed-companies list.
func FailuresPath(tablePath string) string {
	return strings.TrimSuffix(tablePath, filepath.Ext(tablePath)) + "_failed.csv"
}

// Exists reports whether a cached export is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func WriteTable(path string, t types.RankedTable) error {
	return writeFile(path, func(w *csv.Writer) error {
		if err := w.Write(tableHeader); err != nil {
			return err
		}
		for _, r := range t.Rows {
			if err := w.Write(tableRecord(r)); err != nil {
				return err
			}
		}
		return nil
	})
}

func tableRecord(r types.RankedRow) []string {
	return []string{
		r.Symbol, r.Name, formatFloat(r.Price), r.Exchange, r.Industry, r.Sector, r.Currency,
		formatFloat(r.IRR), formatFloat(r.IRRMean), formatFloat(r.NPVMean), formatFloat(r.NPVRegression), string(r.RegressionType),
		formatFloat(r.GrowthMedian), formatFloat(r.GrowthRate), r.GrowthFlag, formatFloat(r.Base), formatList(r.History),
		formatFloat(r.ROC), formatFloat(r.EarningsYield), formatFloat(r.ROE), formatFloat(r.MOP),
		formatFloat(r.QA), formatFloat(r.EBIT), formatFloat(r.MarketCap), formatFloat(r.PE),
		strconv.FormatFloat(r.DividendRatio, 'g', -1, 64), formatList(r.DividendTrend), formatList(r.BuybackTrend),
		formatNullList(r.RevenueTrend), formatNullList(r.RevenueChange),
		string(r.Status), r.ErrorMessage,
		strconv.Itoa(r.ROCRank), strconv.Itoa(r.EarningsYieldRank), strconv.Itoa(r.TotalRank),
	}
}

// ReadTable loads a table written by WriteTable. Failures are not stored in
// the CSV; only the joined error message survives.
func ReadTable(path string) (types.RankedTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.RankedTable{}, err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	header, err := rd.Read()
	if err != nil {
		return types.RankedTable{}, fmt.Errorf("%s: read header: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, h := range tableHeader {
		if _, ok := col[h]; !ok {
			return types.RankedTable{}, fmt.Errorf("%s: missing column %q", path, h)
		}
	}

	var t types.RankedTable
	for line := 2; ; line++ {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.RankedTable{}, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		row, err := parseRecord(rec, col)
		if err != nil {
			return types.RankedTable{}, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

type recordParser struct {
	rec []string
	col map[string]int
	err error
}

func (p *recordParser) str(name string) string { return p.rec[p.col[name]] }

func (p *recordParser) float(name string) null.Float {
	v, err := parseFloat(p.str(name))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

func (p *recordParser) int(name string) int {
	s := p.str(name)
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

func (p *recordParser) list(name string) []float64 {
	vals := p.nullList(name)
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		out = append(out, v.Float64)
	}
	return out
}

func (p *recordParser) nullList(name string) []null.Float {
	v, err := parseList(p.str(name))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

func parseRecord(rec []string, col map[string]int) (types.RankedRow, error) {
	p := &recordParser{rec: rec, col: col}
	r := types.RankedRow{
		CompanyResult: types.CompanyResult{
			Symbol:         p.str("symbol"),
			Name:           p.str("name"),
			Price:          p.float("price"),
			Exchange:       p.str("exchange"),
			Industry:       p.str("industry"),
			Sector:         p.str("sector"),
			Currency:       p.str("currency"),
			IRR:            p.float("irr"),
			IRRMean:        p.float("irr_mean"),
			NPVMean:        p.float("npv_mean"),
			NPVRegression:  p.float("npv_regression"),
			RegressionType: types.RegressionModel(p.str("regression_type")),
			GrowthMedian:   p.float("eps_roc"),
			GrowthRate:     p.float("growth_regression"),
			GrowthFlag:     p.str("eps_roc_flag"),
			Base:           p.float("eps_base"),
			History:        p.list("eps_list"),
			ROC:            p.float("ROC"),
			EarningsYield:  p.float("EarningsYield"),
			ROE:            p.float("ROE"),
			MOP:            p.float("MOP"),
			QA:             p.float("QA"),
			EBIT:           p.float("EBIT"),
			MarketCap:      p.float("MCap"),
			PE:             p.float("PE"),
			DividendRatio:  p.float("dividend_ratio").Float64,
			DividendTrend:  p.list("dividend_trend"),
			BuybackTrend:   p.list("buyback_trend"),
			RevenueTrend:   p.nullList("revenue_trend"),
			RevenueChange:  p.nullList("revenue_change"),
			Status:         types.Status(p.str("status")),
			ErrorMessage:   p.str("error_message"),
		},
		ROCRank:           p.int("ROC_rank"),
		EarningsYieldRank: p.int("EarningsYield_rank"),
		TotalRank:         p.int("Total_rank"),
	}
	return r, p.err
}

// WriteFailures writes the companies that could not be analysed.
func WriteFailures(path string, results []types.CompanyResult) error {
	return writeFile(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"symbol", "name", "exchange", "status", "error_message"}); err != nil {
			return err
		}
		for _, r := range results {
			if err := w.Write([]string{r.Symbol, r.Name, r.Exchange, string(r.Status), r.ErrorMessage}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCombined writes one company's per-year table, oldest year first.
func WriteCombined(path string, c types.Combined) error {
	return writeFile(path, func(w *csv.Writer) error {
		header := []string{
			"year", "revenue", "operatingIncome", "netIncome", "eps",
			"totalCurrentAssets", "totalCurrentLiabilities", "propertyPlantEquipmentNet",
			"MOP", "QA", "EBIT", "NetWorkingCapital", "ROC", "ROE", "gross_margin", "revenue_change",
		}
		if err := w.Write(header); err != nil {
			return err
		}
		for _, y := range c.Years {
			rec := []string{
				strconv.Itoa(y.Year),
				formatFloat(y.Income.Revenue), formatFloat(y.Income.OperatingIncome),
				formatFloat(y.Income.NetIncome), formatFloat(y.Income.EPS),
				formatFloat(y.Balance.TotalCurrentAssets), formatFloat(y.Balance.TotalCurrentLiabilities),
				formatFloat(y.Balance.PropertyPlantEquipmentNet),
				formatFloat(y.OperatingMargin), formatFloat(y.QuickAssets), formatFloat(y.EBIT),
				formatFloat(y.NetWorkingCapital), formatFloat(y.ROC), formatFloat(y.ROE),
				formatFloat(y.GrossMargin), formatFloat(y.RevenueChange),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeFile(path string, write func(*csv.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := write(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
