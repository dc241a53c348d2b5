package dataprocessing

import (
	"strings"

	"github.com/bockybocky/charles-bond-sniper/pkg/contracts/domain"
)

// issueDateAliases are the labeled spellings accepted for the secondary
// file's date column before falling back to content inference.
var issueDateAliases = []string{"Issue Date", "Issued Date", "Issuance Date", "Date"}

// ParseIssueDates extracts identifier/issue-date pairs from the secondary
// reference table. Column identity is taken from explicit labels when
// present, otherwise inferred from content shape, since the file's schema is
// not controlled by this system's operator. Returns nil when no identifier
// column can be located; fusion is then skipped.
func ParseIssueDates(t *RawTable) []domain.IssueDateRecord {
	idIdx := ResolveColumn(t, FieldIdentifier)
	if idIdx < 0 {
		var ok bool
		idIdx, ok = InferIdentifierColumn(t)
		if !ok {
			return nil
		}
	}

	dateIdx := -1
	for _, alias := range issueDateAliases {
		if idx := t.ColumnIndex(alias); idx >= 0 {
			dateIdx = idx
			break
		}
	}
	if dateIdx < 0 {
		var ok bool
		dateIdx, ok = InferDateColumn(t, idIdx)
		if !ok {
			return nil
		}
	}

	records := make([]domain.IssueDateRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := strings.TrimSpace(t.Cell(row, idIdx))
		if id == "" {
			continue
		}
		records = append(records, domain.IssueDateRecord{
			Identifier: id,
			IssueDate:  CoerceDate(t.Cell(row, dateIdx)),
		})
	}
	return records
}

// Fuse left-joins bond records with issue-date records on the trimmed,
// case-sensitive identifier and populates IssueYear on matches. Duplicate
// identifiers on the reference side resolve to their first occurrence.
// Unmatched records keep a nil IssueYear; when either side has no
// identifiers the join degrades to zero matches rather than an error.
func Fuse(bonds []domain.BondRecord, refs []domain.IssueDateRecord) ([]domain.BondRecord, int) {
	byID := make(map[string]*domain.IssueDateRecord, len(refs))
	for i := range refs {
		if _, exists := byID[refs[i].Identifier]; !exists {
			byID[refs[i].Identifier] = &refs[i]
		}
	}

	fused := make([]domain.BondRecord, len(bonds))
	copy(fused, bonds)

	matched := 0
	for i := range fused {
		if fused[i].Identifier == "" {
			continue
		}
		ref, ok := byID[fused[i].Identifier]
		if !ok || ref.IssueDate == nil {
			continue
		}
		year := ref.IssueDate.Year()
		fused[i].IssueYear = &year
		matched++
	}
	return fused, matched
}
