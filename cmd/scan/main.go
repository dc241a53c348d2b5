package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bockybocky/charles-bond-sniper/internal/config"
	"github.com/bockybocky/charles-bond-sniper/internal/exporter"
	"github.com/bockybocky/charles-bond-sniper/internal/infrastructure"
	"github.com/bockybocky/charles-bond-sniper/internal/services"
	"github.com/bockybocky/charles-bond-sniper/pkg/contracts"
	"github.com/bockybocky/charles-bond-sniper/pkg/contracts/domain"
)

func main() {
	holdingsPath := flag.String("holdings", "", "path to the holdings export (CSV or XLSX)")
	issueDatesPath := flag.String("issue-dates", "", "optional path to the issue-date reference file")
	danger := flag.Float64("danger", 0, "distressed price ratio threshold (defaults to config)")
	rocket := flag.Float64("rocket", 0, "high-value price ratio threshold (defaults to config)")
	couponSensitive := flag.Bool("coupon-sensitive", false, "require low coupon for distressed candidates (defaults to config)")
	windowStart := flag.String("window-start", "", "maturity window start, YYYY-MM-DD (defaults to config)")
	windowEnd := flag.String("window-end", "", "maturity window end, YYYY-MM-DD (defaults to config)")
	asJSON := flag.Bool("json", false, "emit the full result as JSON instead of a text report")
	csvOut := flag.String("csv", "", "optional path to also write the candidates as CSV")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetVersionString())
		return
	}

	if *holdingsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: scan -holdings <file> [-issue-dates <file>] [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		logger = slog.Default()
	}

	primary, err := os.ReadFile(*holdingsPath)
	if err != nil {
		logger.Error("Failed to read holdings file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	var secondary []byte
	if *issueDatesPath != "" {
		secondary, err = os.ReadFile(*issueDatesPath)
		if err != nil {
			logger.Error("Failed to read issue-dates file", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	over, err := overridesFromFlags(*danger, *rocket, *couponSensitive, *windowStart, *windowEnd)
	if err != nil {
		logger.Error("Invalid flag value", slog.String("error", err.Error()))
		os.Exit(2)
	}

	service := services.NewScanService(cfg, logger)
	opts, optsErr := service.Options(over)
	if optsErr != nil {
		logger.Error("Invalid scan options", slog.String("error", optsErr.Error()))
		os.Exit(2)
	}

	result, err := service.Scan(context.Background(), primary, secondary, opts)
	if err != nil {
		logger.Error("Scan failed",
			slog.String("error", err.Error()),
			slog.Bool("decode_ok", result != nil && result.Diagnostics.DecodeOK),
			slog.Bool("header_found", result != nil && result.Diagnostics.HeaderFound))
		os.Exit(1)
	}

	if *csvOut != "" {
		writer := exporter.NewCSVWriter(logger)
		if err := writer.WriteScanResult(*csvOut, result, exporter.WriteOptions{BOMPrefix: true}); err != nil {
			logger.Error("Failed to write CSV", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logger.Error("Failed to encode result", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	printReport(result)
}

// overridesFromFlags maps only the flags the user actually set onto the
// service overrides, so unset flags fall through to configured defaults.
func overridesFromFlags(danger, rocket float64, couponSensitive bool, windowStart, windowEnd string) (services.ScanOverrides, error) {
	var over services.ScanOverrides
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["danger"] {
		over.DangerThreshold = &danger
	}
	if set["rocket"] {
		over.RocketThreshold = &rocket
	}
	if set["coupon-sensitive"] {
		over.CouponSensitive = &couponSensitive
	}
	if set["window-start"] {
		t, err := time.Parse("2006-01-02", windowStart)
		if err != nil {
			return over, fmt.Errorf("invalid -window-start: %w", err)
		}
		over.WindowStart = &t
	}
	if set["window-end"] {
		t, err := time.Parse("2006-01-02", windowEnd)
		if err != nil {
			return over, fmt.Errorf("invalid -window-end: %w", err)
		}
		over.WindowEnd = &t
	}
	return over, nil
}

func printReport(result *domain.ScanResult) {
	d := result.Diagnostics
	fmt.Printf("Rows: %d raw, %d valid, %d in window\n",
		d.RowCounts.Raw, d.RowCounts.Valid, d.RowCounts.Filtered)
	if d.FusionMatched != nil {
		fmt.Printf("Issue dates matched: %d\n", *d.FusionMatched)
	}

	printSection("DISTRESSED", result.Distressed)
	printSection("HIGH VALUE", result.HighValue)
}

func printSection(title string, records []domain.BondRecord) {
	fmt.Printf("\n%s (%d)\n", title, len(records))
	for _, rec := range records {
		maturity := "-"
		if rec.MaturityDate != nil {
			maturity = rec.MaturityDate.Format("2006-01-02")
		}
		ratio := "-"
		if rec.PriceRatio != nil {
			ratio = fmt.Sprintf("%.2f", *rec.PriceRatio)
		}
		coupon := "-"
		if rec.CouponRate != nil {
			coupon = fmt.Sprintf("%.2f%%", *rec.CouponRate)
		}
		fmt.Printf("  %-40s  price %-8s  coupon %-7s  matures %s\n",
			rec.Name, ratio, coupon, maturity)
		if rec.TickerSearch != "" {
			fmt.Printf("    %s\n", rec.TickerSearch)
		}
	}
}
