package dataprocessing

import (
	"strings"

	"github.com/bockybocky/charles-bond-sniper/pkg/contracts/domain"
)

// Canonical field names reported back when a mandatory column cannot be
// resolved.
const (
	FieldName        = "name"
	FieldMarketValue = "market_value"
	FieldParValue    = "par_value"
	FieldMaturity    = "maturity"
	FieldCoupon      = "coupon"
	FieldIdentifier  = "identifier"
)

// fieldAliases maps each canonical field to the header spellings seen across
// vendor file versions, in preference order. Tolerating export-format drift
// is a data change here, not a code change: new spellings just get appended.
var fieldAliases = map[string][]string{
	FieldName:        {"Name", "Issuer", "Security Name", "Security Description"},
	FieldMarketValue: {"Market Value", "Market Value (USD)", "Mkt Value"},
	FieldParValue:    {"Par Value", "Par", "Face Value", "Notional Value"},
	FieldMaturity:    {"Maturity", "Maturity Date"},
	FieldCoupon:      {"Coupon (%)", "Coupon", "Coupon Rate"},
	FieldIdentifier:  {"CUSIP", "ISIN", "Identifier", "Security Identifier"},
}

// mandatoryFields must all resolve before any record is produced.
var mandatoryFields = []string{FieldName, FieldMarketValue, FieldParValue, FieldMaturity}

// ResolveColumn finds the column for a canonical field by case-insensitive
// exact match against its alias list, first listed alias wins. Returns -1
// when no alias matches.
func ResolveColumn(t *RawTable, canonical string) int {
	for _, alias := range fieldAliases[canonical] {
		if idx := t.ColumnIndex(alias); idx >= 0 {
			return idx
		}
	}
	return -1
}

// searchLinkPrefix builds the best-effort ticker lookup link. Convenience
// field only, not part of the classification contract.
const searchLinkPrefix = "https://www.google.com/search?q="

// Normalize maps the raw table onto canonical BondRecords. When any
// mandatory column cannot be resolved it returns no records together with
// the sorted set of missing canonical field names; that is the caller's
// signal the upload is the wrong file, not a partially bad one. Per-cell
// coercion failures simply leave the corresponding field nil.
func Normalize(t *RawTable) ([]domain.BondRecord, []string) {
	indexes := map[string]int{}
	var missing []string
	for _, field := range mandatoryFields {
		idx := ResolveColumn(t, field)
		if idx < 0 {
			missing = append(missing, field)
			continue
		}
		indexes[field] = idx
	}
	if len(missing) > 0 {
		return nil, missing
	}

	couponIdx := ResolveColumn(t, FieldCoupon)
	identifierIdx := ResolveColumn(t, FieldIdentifier)

	records := make([]domain.BondRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		name := strings.TrimSpace(t.Cell(row, indexes[FieldName]))

		rec := domain.BondRecord{
			Name:         name,
			MarketValue:  CoerceCurrency(t.Cell(row, indexes[FieldMarketValue])),
			ParValue:     CoerceCurrency(t.Cell(row, indexes[FieldParValue])),
			MaturityDate: CoerceDate(t.Cell(row, indexes[FieldMaturity])),
		}

		// A zero par value can never be a denominator; treat it as absent.
		if rec.ParValue != nil && *rec.ParValue == 0 {
			rec.ParValue = nil
		}

		if couponIdx >= 0 {
			rec.CouponRate = CoerceCurrency(t.Cell(row, couponIdx))
		} else {
			zero := 0.0
			rec.CouponRate = &zero
		}

		if identifierIdx >= 0 {
			rec.Identifier = strings.TrimSpace(t.Cell(row, identifierIdx))
		}

		if rec.MarketValue != nil && rec.ParValue != nil && *rec.ParValue != 0 {
			ratio := *rec.MarketValue / *rec.ParValue * 100
			rec.PriceRatio = &ratio
		}

		if name != "" {
			rec.TickerSearch = searchLinkPrefix + strings.ReplaceAll(name, " ", "+") + "+stock+ticker"
		}

		records = append(records, rec)
	}
	return records, nil
}
