package dataprocessing

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bockybocky/charles-bond-sniper/pkg/contracts/domain"
)

// ErrMissingFields signals that one or more mandatory canonical columns
// could not be resolved in the holdings file. The missing field names travel
// in the diagnostics payload.
var ErrMissingFields = errors.New("required columns missing")

// HoldingsHeaderTokens anchor the holdings header row. Both tokens must
// appear on the same line for it to count as the header.
var HoldingsHeaderTokens = []string{"Name", "Market Value"}

// Run executes the full scan pipeline: decode the holdings byte stream, load
// the table from the located header, normalize rows into BondRecords,
// optionally fuse with the issue-date reference file, and classify into the
// three watchlists. It is a pure function of (files, options); every
// invocation recomputes from scratch.
//
// Fatal failures (decode, header, parse, missing columns) stop processing of
// the upload and are returned as typed errors together with the partially
// filled diagnostics. Malformed cells and a unusable reference file are
// absorbed: the former as nil fields filtered out later, the latter as a
// zero-match fusion.
func Run(primary, secondary []byte, opts ClassifierOptions, logger *slog.Logger) (*domain.ScanResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	result := &domain.ScanResult{}

	table, err := loadHoldings(primary, &result.Diagnostics)
	if err != nil {
		return result, err
	}
	result.Diagnostics.RowCounts.Raw = len(table.Rows)

	records, missing := Normalize(table)
	if len(missing) > 0 {
		result.Diagnostics.MissingFields = missing
		return result, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	if len(secondary) > 0 {
		refs := loadReference(secondary, logger)
		fused, matched := Fuse(records, refs)
		records = fused
		result.Diagnostics.FusionMatched = &matched
		logger.Info("fusion complete",
			slog.Int("reference_records", len(refs)),
			slog.Int("matched", matched))
	}

	valid := 0
	for _, rec := range records {
		if rec.Valid() {
			valid++
		}
	}
	result.Diagnostics.RowCounts.Valid = valid

	cls := Classify(records, opts)
	result.Distressed = cls.Distressed
	result.HighValue = cls.HighValue
	result.Filtered = cls.Filtered
	result.Diagnostics.RowCounts.Filtered = len(cls.Filtered)
	result.Diagnostics.RowCounts.Distressed = len(cls.Distressed)
	result.Diagnostics.RowCounts.HighValue = len(cls.HighValue)

	logger.Info("scan complete",
		slog.Int("raw", result.Diagnostics.RowCounts.Raw),
		slog.Int("valid", valid),
		slog.Int("filtered", len(cls.Filtered)),
		slog.Int("distressed", len(cls.Distressed)),
		slog.Int("high_value", len(cls.HighValue)))

	return result, nil
}

// loadHoldings decodes and parses the primary file, recording the decode and
// header outcomes in the diagnostics as it goes.
func loadHoldings(data []byte, diag *domain.Diagnostics) (*RawTable, error) {
	if IsSpreadsheet(data) {
		diag.DecodeOK = true
		table, err := LoadWorkbook(data, HoldingsHeaderTokens)
		if err != nil {
			return nil, err
		}
		diag.HeaderFound = true
		return table, nil
	}

	text, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	diag.DecodeOK = true

	table, err := LoadTable(text, HoldingsHeaderTokens)
	if err != nil {
		return nil, err
	}
	diag.HeaderFound = true
	return table, nil
}

// loadReference parses the secondary file best-effort. Every failure here is
// advisory: the scan proceeds without enrichment and the caller sees a zero
// match count.
func loadReference(data []byte, logger *slog.Logger) []domain.IssueDateRecord {
	if IsSpreadsheet(data) {
		logger.Warn("reference file is a workbook, expected delimited text; skipping fusion")
		return nil
	}

	text, err := DecodeBytes(data)
	if err != nil {
		logger.Warn("reference file decode failed, skipping fusion", slog.String("error", err.Error()))
		return nil
	}

	table, err := LoadReferenceTable(text)
	if err != nil {
		logger.Warn("reference file parse failed, skipping fusion", slog.String("error", err.Error()))
		return nil
	}

	refs := ParseIssueDates(table)
	if refs == nil {
		logger.Warn("could not locate identifier/date columns in reference file, skipping fusion")
	}
	return refs
}
