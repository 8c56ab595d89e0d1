package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guregu/null/v6"

	"robostock/internal/bootstrap"
	"robostock/internal/export"
	"robostock/internal/logger"
	"robostock/internal/research/ranking"
	"robostock/internal/research/screener"
	"robostock/internal/research/screener/screenerobs"
	"robostock/internal/resultstore"
	"robostock/internal/runlog"
	"robostock/internal/search"
	"robostock/internal/store"
	"robostock/internal/trace"
	"robostock/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	useCache := flag.Bool("use-cache", false, "reuse this month's export for the exchange when present")
	exchange := flag.String("exchange", "", "override universe.exchange")
	limit := flag.Int("limit", -1, "override universe.limit")
	top := flag.Int("top", 25, "rows to print")
	find := flag.String("find", "", "search the ranked table by symbol, name, sector or industry")
	sector := flag.String("sector", "", "list only companies in this sector, best total rank first")
	jsonOut := flag.String("json", "", "also write the run as JSON to this file")
	flag.Parse()

	if err := bootstrap.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer trace.Shutdown(context.Background())

	cfg, err := bootstrap.LoadConfig(ctx, *configPath)
	if err != nil {
		os.Exit(1)
	}
	if *exchange != "" {
		cfg.Universe.Exchange = strings.ToUpper(*exchange)
	}
	if *limit >= 0 {
		cfg.Universe.Limit = *limit
	}

	q := query{top: *top, find: *find, sector: *sector}
	if err := run(ctx, cfg, *useCache, q, *jsonOut); err != nil {
		logger.ErrorWithErr(ctx, "Screen failed", err)
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// query selects which rows of the ranked table are printed.
type query struct {
	top    int
	find   string
	sector string
}

func run(ctx context.Context, cfg *store.Config, useCache bool, q query, jsonOut string) error {
	printBanner(cfg)

	path := export.MonthlyPath(cfg.Export.Dir, cfg.Universe.Exchange, time.Now())
	if useCache && export.Exists(path) {
		fmt.Printf("📂 Using cached results from %s\n\n", path)
		cached, err := export.ReadTable(path)
		if err != nil {
			return err
		}
		results := make([]types.CompanyResult, 0, cached.Len())
		for _, r := range cached.Rows {
			results = append(results, r.CompanyResult)
		}
		return present(ranking.Screen(results, cfg.Filter), q)
	}

	source, err := bootstrap.Source(ctx, cfg)
	if err != nil {
		return err
	}
	s := screenerobs.Wrap(screener.New(cfg.ScreenerConfig(), source))

	listings, err := s.Universe(ctx)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		fmt.Println("⚠️  Universe is empty, nothing to analyse")
		return nil
	}
	fmt.Printf("🔍 Analysing %d companies with %d workers...\n\n", len(listings), cfg.Screener.Workers)

	result, err := s.Run(ctx, listings)
	if err != nil {
		logger.Warn(ctx, "Run interrupted, keeping partial results", "error", err)
	}
	if result == nil {
		return err
	}

	writeExports(ctx, path, result)
	journal(ctx, cfg, result)
	saveSinks(ctx, cfg, result)

	if jsonOut != "" {
		saveJSON(result, jsonOut)
	}

	printSummary(result)
	return present(result.Table, q)
}

// writeExports stores the whole batch, not just the filtered table, so a
// cached run can be filtered differently.
func writeExports(ctx context.Context, path string, result *types.ScreenRun) {
	op := logger.StartOperation(ctx, "export.write", "path", path)
	if err := export.WriteTable(path, ranking.Rank(result.Results)); err != nil {
		op.EndWithError(err)
		return
	}
	fmt.Printf("💾 Results saved to %s\n", path)

	failed := result.Failed()
	if len(failed) > 0 {
		fpath := export.FailuresPath(path)
		if err := export.WriteFailures(fpath, failed); err != nil {
			op.EndWithError(err, "failures_path", fpath)
			return
		}
		fmt.Printf("💾 %d failed companies saved to %s\n", len(failed), fpath)
	}
	op.End("rows", len(result.Results), "failed", len(failed))
}

func journal(ctx context.Context, cfg *store.Config, result *types.ScreenRun) {
	j := runlog.New(cfg.RunLog.Dir)
	if err := j.RecordRun(result); err != nil {
		logger.Warn(ctx, "Failed to journal run", "error", err)
	}
	if err := j.CompressOlder(cfg.RunLog.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journals", "error", err)
	}
}

func saveSinks(ctx context.Context, cfg *store.Config, result *types.ScreenRun) {
	sinks := bootstrap.Sinks(ctx, cfg)
	if len(sinks) == 0 {
		return
	}
	op := logger.StartOperation(ctx, "sinks.save", "sinks", len(sinks))
	if err := resultstore.SaveAll(op.Context(), sinks, result); err != nil {
		op.EndWithError(err)
	} else {
		op.End("results", len(result.Results))
	}
	if err := resultstore.CloseAll(context.Background(), sinks); err != nil {
		logger.Warn(ctx, "Failed to close sinks", "error", err)
	}
}

func present(table types.RankedTable, q query) error {
	if q.find == "" && q.sector == "" {
		printTable(table, q.top)
		return nil
	}

	idx, err := search.Build(table)
	if err != nil {
		return err
	}
	defer idx.Close()

	var rows []types.RankedRow
	if q.sector != "" {
		rows, err = idx.InSector(q.sector)
		if err != nil {
			return err
		}
		fmt.Printf("🏭 %d companies in %q\n\n", len(rows), q.sector)
	} else {
		rows, err = idx.Search(q.find, q.top)
		if err != nil {
			return err
		}
		fmt.Printf("🔎 %d matches for %q\n\n", len(rows), q.find)
	}
	printTable(types.RankedTable{Rows: rows}, q.top)
	return nil
}

func printBanner(cfg *store.Config) {
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║          Robostock - Magic Formula Value Screener            ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Exchange:        %s\n", cfg.Universe.Exchange)
	fmt.Printf("Data source:     %s\n", cfg.DataSource)
	fmt.Printf("Metric:          %s (base %s)\n", cfg.Valuation.Metric, cfg.Valuation.Base)
	fmt.Printf("Discount rate:   %.1f%% over %d years\n", cfg.Valuation.DiscountRate*100, cfg.Valuation.HorizonYears)
	fmt.Println()
}

func printSummary(run *types.ScreenRun) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                       RUN SUMMARY")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("Run ID:          %s\n", run.RunID)
	fmt.Printf("Duration:        %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Printf("Analysed:        %d companies\n", len(run.Results))
	fmt.Printf("Failed:          %d companies\n", len(run.Failed()))
	fmt.Printf("Ranked:          %d after filters\n", run.Table.Len())
	fmt.Println()
}

func printTable(table types.RankedTable, top int) {
	if table.Len() == 0 {
		fmt.Println("⚠️  No companies passed the filters")
		return
	}
	fmt.Printf("%-5s %-8s %-28s %8s %8s %8s %10s %s\n", "Rank", "Symbol", "Name", "ROC", "EY", "IRR", "NPV", "Status")
	fmt.Println("─────────────────────────────────────────────────────────────────────────────────────")
	for i, r := range table.Rows {
		if top > 0 && i >= top {
			fmt.Printf("... %d more\n", table.Len()-top)
			break
		}
		fmt.Printf("%-5d %-8s %-28s %8s %8s %8s %10s %s\n",
			r.TotalRank, r.Symbol, truncate(r.Name, 28),
			pct(r.ROC), pct(r.EarningsYield), pct(r.IRR), money(r.NPVMean), r.Status)
	}
	fmt.Println()
}

func pct(v null.Float) string {
	if !types.Known(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v.Float64*100)
}

func money(v null.Float) string {
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
	fmt.Printf("💾 Run saved to %s\n", filename)
}
