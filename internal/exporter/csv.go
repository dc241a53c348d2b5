// Package exporter writes scan results to CSV files for spreadsheet review.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bockybocky/charles-bond-sniper/pkg/contracts/domain"
)

// resultHeaders is the column order of an exported scan result.
var resultHeaders = []string{
	"category", "name", "identifier", "price_ratio", "coupon_rate",
	"market_value", "par_value", "maturity_date", "issue_year", "ticker_search",
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteScanResult writes the distressed and high-value candidates to a CSV
// file, one row per bond with a category column.
func (w *CSVWriter) WriteScanResult(filePath string, result *domain.ScanResult, options WriteOptions) error {
	w.logger.Info("Writing scan result CSV",
		slog.String("file_path", filePath),
		slog.Int("distressed", len(result.Distressed)),
		slog.Int("high_value", len(result.HighValue)))

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// BOM helps Excel recognize UTF-8
	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(resultHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, rec := range result.Distressed {
		if err := writer.Write(resultRow("distressed", rec)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	for _, rec := range result.HighValue {
		if err := writer.Write(resultRow("high_value", rec)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func resultRow(category string, rec domain.BondRecord) []string {
	issueYear := ""
	if rec.IssueYear != nil {
		issueYear = strconv.Itoa(*rec.IssueYear)
	}
	maturity := ""
	if rec.MaturityDate != nil {
		maturity = rec.MaturityDate.Format("2006-01-02")
	}
	return []string{
		category,
		rec.Name,
		rec.Identifier,
		formatFloat(rec.PriceRatio),
		formatFloat(rec.CouponRate),
		formatFloat(rec.MarketValue),
		formatFloat(rec.ParValue),
		maturity,
		issueYear,
		rec.TickerSearch,
	}
}

// formatFloat renders a nullable value, leaving the cell empty when absent.
func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
