package dataprocessing

import (
	"regexp"
	"strings"
)

const (
	// DefaultSearchWindow bounds the header scan. iShares exports prepend a
	// variable-length disclaimer block, but the real header has always shown
	// up well inside the first 50 lines.
	DefaultSearchWindow = 50

	// inferenceThreshold is the minimum fraction of matching cells required
	// before a column is accepted as identifier or date. Below it the column
	// is rejected as ambiguous rather than guessed.
	inferenceThreshold = 0.5
)

// identifierPattern matches the 9-character alphanumeric shape of common
// security identifiers (CUSIP-style codes).
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9]{9}$`)

// IdentifierLike reports whether a trimmed cell has the shape of a security
// identifier.
func IdentifierLike(cell string) bool {
	return identifierPattern.MatchString(strings.TrimSpace(cell))
}

// FindHeaderRow scans the first searchWindow lines for the first line that
// contains every required token as a case-sensitive substring, and returns
// its index, or -1 when no line qualifies. Substring sniffing is the only
// stable anchor here: the metadata block above the header varies in length
// between export versions.
func FindHeaderRow(lines []string, requiredTokens []string, searchWindow int) int {
	if searchWindow <= 0 {
		searchWindow = DefaultSearchWindow
	}
	limit := len(lines)
	if limit > searchWindow {
		limit = searchWindow
	}

	for i := 0; i < limit; i++ {
		found := true
		for _, token := range requiredTokens {
			if !strings.Contains(lines[i], token) {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}

// InferIdentifierColumn scores every column of the table by the fraction of
// its non-empty cells that look like security identifiers, and returns the
// index of the best-scoring column when that fraction clears the threshold.
// Ties keep the first column in scan order.
func InferIdentifierColumn(t *RawTable) (int, bool) {
	return inferColumn(t, -1, func(cell string) bool {
		return IdentifierLike(cell)
	})
}

// InferDateColumn does the same with bulk date parsing, skipping the column
// at exclude (pass -1 to consider all columns).
func InferDateColumn(t *RawTable, exclude int) (int, bool) {
	return inferColumn(t, exclude, func(cell string) bool {
		return CoerceDate(cell) != nil
	})
}

// inferColumn is the shared scored-candidate selector: pure content-shape
// inspection, no trust in declared header text.
func inferColumn(t *RawTable, exclude int, match func(string) bool) (int, bool) {
	bestIdx := -1
	bestFrac := 0.0

	for j := range t.Columns {
		if j == exclude {
			continue
		}
		matched, total := 0, 0
		for _, row := range t.Rows {
			cell := strings.TrimSpace(t.Cell(row, j))
			if cell == "" {
				continue
			}
			total++
			if match(cell) {
				matched++
			}
		}
		if total == 0 {
			continue
		}
		frac := float64(matched) / float64(total)
		if frac > bestFrac {
			bestFrac = frac
			bestIdx = j
		}
	}

	if bestIdx < 0 || bestFrac <= inferenceThreshold {
		return -1, false
	}
	return bestIdx, true
}
