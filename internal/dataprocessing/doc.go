// Package dataprocessing turns raw fund holdings exports into classified
// bond records. It consolidates decoding, header detection, normalization,
// issue-date fusion, and threshold classification into a single pipeline
// that handles the complete lifecycle from uploaded bytes to scan results.
//
// # Architecture
//
// The package is organized around five stages:
//
// 1. Decoder: Decodes CSV bytes across encodings and opens XLSX workbooks
// 2. Locator: Finds the header row and infers undeclared column roles
// 3. Normalizer: Maps vendor column names onto the canonical bond fields
// 4. Fusion: Joins an optional issue-date reference file by identifier
// 5. Classifier: Applies the maturity window and price ratio thresholds
//
// # Usage
//
// Running the full pipeline:
//
//	result, err := dataprocessing.Run(holdings, issueDates,
//	    dataprocessing.DefaultClassifierOptions(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Individual stages are exported and usable on their own:
//
//	data, err := dataprocessing.DecodeBytes(raw)
//	table, err := dataprocessing.LoadTable(data, dataprocessing.HoldingsHeaderTokens)
//	records, missing := dataprocessing.Normalize(table)
//
// # Data Flow
//
//	Uploaded bytes → Decoder → RawTable → Normalizer → BondRecords → Fusion → Classifier → ScanResult
//
// # Error Handling
//
// Fatal failures carry sentinel errors (ErrDecodeFailed, ErrHeaderNotFound,
// ErrTableParse, ErrMissingFields) so callers can map them onto distinct
// responses. Per-cell failures are never fatal: an uncoercible value becomes
// a nil field and the record moves on through the pipeline.
//
// The secondary reference file degrades softly. If it cannot be decoded or
// its columns cannot be inferred, the scan proceeds without issue years and
// the diagnostics record a zero match count.
//
// # Testing
//
// The package includes table-driven tests for every stage. Use table-driven
// tests when adding new functionality.
package dataprocessing
