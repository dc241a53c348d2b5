package dataprocessing

import (
	"strconv"
	"strings"
	"time"
)

// currencyReplacer strips the decoration vendors put on currency cells.
// Parenthesized negatives are deliberately not handled; they fail the float
// parse and coerce to nil like any other unparseable cell.
var currencyReplacer = strings.NewReplacer("$", "", ",", "", "\"", "")

// CoerceCurrency converts a loosely formatted currency or percentage cell to
// a float. Empty cells, the placeholder dash and anything that still fails to
// parse after stripping yield nil. The function is total: it never returns an
// error and never panics, which is what lets later stages filter rows
// declaratively instead of handling per-cell failures.
func CoerceCurrency(cell string) *float64 {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" || trimmed == "-" {
		return nil
	}

	clean := strings.TrimSpace(currencyReplacer.Replace(trimmed))
	val, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil
	}
	return &val
}

// dateLayouts are tried in order. Vendor exports have shipped all of these.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 02, 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"January 2, 2006",
	time.RFC3339,
}

// CoerceDate parses a loosely formatted date cell against a set of known
// layouts. Any failure yields nil, never an error.
func CoerceDate(cell string) *time.Time {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" || trimmed == "-" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t
		}
	}
	return nil
}
