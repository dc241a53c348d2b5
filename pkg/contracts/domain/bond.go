package domain

import (
	"time"
)

// BondRecord represents a single normalized holding from a convertible-bond
// ETF export. Pointer fields are nil when the source cell was missing or
// could not be coerced; classification only considers records where the
// market value, par value and maturity date are all present.
type BondRecord struct {
	Name         string     `json:"name" validate:"required"`
	MarketValue  *float64   `json:"market_value"`
	ParValue     *float64   `json:"par_value"`
	MaturityDate *time.Time `json:"maturity_date"`
	CouponRate   *float64   `json:"coupon_rate"`
	Identifier   string     `json:"identifier,omitempty"`
	PriceRatio   *float64   `json:"price_ratio"`
	IssueYear    *int       `json:"issue_year,omitempty"`
	TickerSearch string     `json:"ticker_search,omitempty"`
}

// Valid reports whether the record carries all fields required for
// classification.
func (r BondRecord) Valid() bool {
	return r.MarketValue != nil && r.ParValue != nil && r.MaturityDate != nil
}

// IssueDateRecord is one row of the secondary reference file used to enrich
// bond records with their issue year.
type IssueDateRecord struct {
	Identifier string     `json:"identifier"`
	IssueDate  *time.Time `json:"issue_date"`
}

// RowCounts aggregates how many records survived each pipeline stage.
type RowCounts struct {
	Raw        int `json:"raw"`
	Valid      int `json:"valid"`
	Filtered   int `json:"filtered"`
	Distressed int `json:"distressed"`
	HighValue  int `json:"high_value"`
}

// Diagnostics is the status payload returned alongside a scan result so the
// caller can tell a bad encoding from a wrong file from a missing column.
type Diagnostics struct {
	DecodeOK      bool      `json:"decode_ok"`
	HeaderFound   bool      `json:"header_found"`
	MissingFields []string  `json:"missing_fields,omitempty"`
	FusionMatched *int      `json:"fusion_matched,omitempty"`
	RowCounts     RowCounts `json:"row_counts"`
}

// ScanResult bundles the three ordered watchlists produced by one pipeline
// run. All three slices are sorted by ascending maturity date.
type ScanResult struct {
	Distressed  []BondRecord `json:"distressed"`
	HighValue   []BondRecord `json:"high_value"`
	Filtered    []BondRecord `json:"filtered"`
	Diagnostics Diagnostics  `json:"diagnostics"`
}
