package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/guregu/null/v6"

	"robostock/internal/bootstrap"
	"robostock/internal/export"
	"robostock/internal/logger"
	"robostock/internal/research/screener"
	"robostock/internal/research/screener/screenerobs"
	"robostock/internal/trace"
	"robostock/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	symbol := flag.String("symbol", "", "ticker to analyse")
	jsonOut := flag.Bool("json", false, "write the detail as <SYMBOL>_detail.json")
	csvOut := flag.Bool("csv", false, "write the per-year table to the export dir")
	flag.Parse()

	if *symbol == "" && flag.NArg() > 0 {
		*symbol = flag.Arg(0)
	}
	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: deepdive [-config path] [-json] [-csv] -symbol TICKER")
		os.Exit(2)
	}

	if err := bootstrap.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	defer trace.Shutdown(ctx)

	cfg, err := bootstrap.LoadConfig(ctx, *configPath)
	if err != nil {
		os.Exit(1)
	}
	source, err := bootstrap.Source(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	s := screenerobs.Wrap(screener.New(cfg.ScreenerConfig(), source))
	detail, err := s.AnalyzeCompany(ctx, *symbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Analysis failed: %v\n", err)
		os.Exit(1)
	}

	printDetail(detail)

	sym := strings.ToUpper(*symbol)
	if *csvOut {
		path := filepath.Join(cfg.Export.Dir, sym+"_years.csv")
		if err := export.WriteCombined(path, detail.Combined); err != nil {
			logger.ErrorWithErr(ctx, "Failed to write per-year table", err, "path", path)
		} else {
			fmt.Printf("💾 Per-year table saved to %s\n", path)
		}
	}
	if *jsonOut {
		saveJSON(detail, sym+"_detail.json")
	}
}

func printDetail(d *types.CompanyDetail) {
	r := d.Result

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Printf("║ %-60s ║\n", truncate(r.Symbol+" - "+r.Name, 60))
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Printf("Exchange:        %s\n", r.Exchange)
	fmt.Printf("Sector:          %s / %s\n", r.Sector, r.Industry)
	fmt.Printf("Price:           %s %s\n", num(r.Price), r.Currency)
	fmt.Printf("Status:          %s\n", r.Status)
	fmt.Println()

	printValuation(os.Stdout, &r)

	fmt.Println("  Scoring:")
	fmt.Printf("    • ROC:               %s\n", pct(r.ROC))
	fmt.Printf("    • Earnings yield:    %s\n", pct(r.EarningsYield))
	fmt.Printf("    • ROE:               %s\n", pct(r.ROE))
	fmt.Printf("    • Operating margin:  %s\n", pct(r.MOP))
	fmt.Printf("    • Quick assets:      %s\n", num(r.QA))
	fmt.Printf("    • Market cap:        %s\n", num(r.MarketCap))
	fmt.Printf("    • P/E:               %s\n", num(r.PE))
	fmt.Printf("    • Dividend payout:   %.1f%% trend %v\n", r.DividendRatio*100, r.DividendTrend)
	fmt.Printf("    • Buybacks:          %v\n", r.BuybackTrend)
	fmt.Println()

	if len(r.Failures) > 0 {
		fmt.Println("  ⚠️  Failures:")
		for _, f := range r.Failures {
			marker := "✗"
			if f.Soft {
				marker = "·"
			}
			fmt.Printf("    %s %s [%s]\n", marker, f.String(), f.Kind)
		}
		fmt.Println()
	}

	if len(d.Combined.Years) == 0 {
		return
	}
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Printf("%-6s %14s %10s %10s %10s %10s %10s\n", "Year", "Revenue", "EPS", "MOP", "ROC", "ROE", "Rev Δ")
	for _, y := range d.Combined.Years {
		fmt.Printf("%-6d %14s %10s %10s %10s %10s %10s\n",
			y.Year, num(y.Income.Revenue), num(y.Income.EPS),
			pct(y.OperatingMargin), pct(y.ROC), pct(y.ROE), pct(y.RevenueChange))
	}
	if n := len(d.Combined.IncomeOnlyYears) + len(d.Combined.BalanceOnlyYears); n > 0 {
		fmt.Printf("(%d years present in only one statement were left out)\n", n)
	}
	fmt.Println()
}

// printValuation writes the valuation block, median NPV before regression NPV.
func printValuation(w io.Writer, r *types.CompanyResult) {
	fmt.Fprintln(w, "  Valuation:")
	fmt.Fprintf(w, "    • Base EPS:          %s (history %v)\n", num(r.Base), r.History)
	fmt.Fprintf(w, "    • Median growth:     %s (%s)\n", pct(r.GrowthMedian), r.GrowthFlag)
	fmt.Fprintf(w, "    • Regression growth: %s (%s)\n", pct(r.GrowthRate), r.RegressionType)
	fmt.Fprintf(w, "    • %-18s %s\n", "npv_mean:", num(r.NPVMean))
	fmt.Fprintf(w, "    • %-18s %s\n", r.RegressionNPVLabel()+":", num(r.NPVRegression))
	fmt.Fprintf(w, "    • IRR:               %s (median projection %s)\n", pct(r.IRR), pct(r.IRRMean))
	fmt.Fprintln(w)
}

func pct(v null.Float) string {
	if !types.Known(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v.Float64*100)
}

func num(v null.Float) string {
	if !types.Known(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func saveJSON(v any, filename string) {
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create JSON file: %v\n", err)
		return
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write JSON: %v\n", err)
		return
	}
	fmt.Printf("💾 Detail saved to %s\n", filename)
}
