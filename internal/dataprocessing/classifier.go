package dataprocessing

import (
	"sort"
	"time"

	"github.com/bockybocky/charles-bond-sniper/pkg/contracts/domain"
)

// couponCeiling is the maximum coupon a bond may pay and still be considered
// distressed in coupon-sensitive mode: a near-zero coupon plus a discounted
// price is the short signal the watchlist looks for.
const couponCeiling = 2.0

// ClassifierOptions configures the threshold rules and the maturity window.
type ClassifierOptions struct {
	DangerThreshold float64
	RocketThreshold float64
	CouponSensitive bool
	WindowStart     time.Time
	WindowEnd       time.Time
}

// DefaultClassifierOptions returns the canonical thresholds and the
// two-year 2026..2027 redemption window.
func DefaultClassifierOptions() ClassifierOptions {
	return ClassifierOptions{
		DangerThreshold: 95.0,
		RocketThreshold: 130.0,
		CouponSensitive: true,
		WindowStart:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:       time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Classification holds the three watchlists produced by one pass, each
// sorted by ascending maturity date.
type Classification struct {
	Distressed []domain.BondRecord
	HighValue  []domain.BondRecord
	Filtered   []domain.BondRecord
}

// Classify runs the single-pass watchlist pipeline: restrict to records
// whose market value, par value and maturity are all present, restrict to
// the maturity window (boundary-inclusive), then apply the threshold rules.
// The input is never mutated and re-running with the same input yields
// identical, identically ordered sets.
func Classify(records []domain.BondRecord, opts ClassifierOptions) Classification {
	var filtered []domain.BondRecord
	for _, rec := range records {
		if !rec.Valid() {
			continue
		}
		if rec.MaturityDate.Before(opts.WindowStart) || rec.MaturityDate.After(opts.WindowEnd) {
			continue
		}
		filtered = append(filtered, rec)
	}
	sortByMaturity(filtered)

	var distressed, highValue []domain.BondRecord
	for _, rec := range filtered {
		if rec.PriceRatio == nil {
			continue
		}
		if *rec.PriceRatio < opts.DangerThreshold && passesCouponRule(rec, opts) {
			distressed = append(distressed, rec)
		}
		if *rec.PriceRatio > opts.RocketThreshold {
			highValue = append(highValue, rec)
		}
	}

	return Classification{
		Distressed: distressed,
		HighValue:  highValue,
		Filtered:   filtered,
	}
}

// passesCouponRule applies the optional coupon condition for the distressed
// set. In coupon-sensitive mode a record with an uncoercible coupon is
// excluded: an unknown coupon cannot demonstrate the near-zero carry the
// filter is after. The high-value set never consults the coupon.
func passesCouponRule(rec domain.BondRecord, opts ClassifierOptions) bool {
	if !opts.CouponSensitive {
		return true
	}
	return rec.CouponRate != nil && *rec.CouponRate < couponCeiling
}

// sortByMaturity orders records by ascending maturity date; ties keep their
// original relative order.
func sortByMaturity(records []domain.BondRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MaturityDate.Before(*records[j].MaturityDate)
	})
}
