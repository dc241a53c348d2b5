package dataprocessing

import "strings"

// RawTable is the ephemeral parsed form of a delimited export: an ordered
// header and the data rows beneath it. Rows may be ragged (shorter than the
// header) because vendor exports pad trailing metadata inconsistently; use
// Cell for guarded access.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the index of the column whose trimmed name equals name
// case-insensitively, or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}

// Cell returns the cell at idx in row, or "" when the row is too short.
func (t *RawTable) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ColumnValues returns every cell of the given column, with "" for rows that
// do not reach it.
func (t *RawTable) ColumnValues(idx int) []string {
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = t.Cell(row, idx)
	}
	return values
}
