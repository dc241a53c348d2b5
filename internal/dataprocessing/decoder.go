package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Fatal per-file failure categories. Each maps to its own error code at the
// transport layer so an operator can tell a bad encoding from a wrong file
// from a missing column.
var (
	ErrDecodeFailed   = errors.New("no candidate encoding could decode the file")
	ErrHeaderNotFound = errors.New("header row not found in search window")
	ErrTableParse     = errors.New("table parse failed")
)

// encodingCandidate pairs an encoding name with its decoder. UTF-8 is handled
// separately since it needs no transformation.
type encodingCandidate struct {
	name    string
	decoder *encoding.Decoder
}

// DecodeBytes turns an uploaded byte stream into text by trying a fixed
// ordered list of encodings: UTF-8, then Windows-1252, then Latin-1. The
// legacy codepages substitute undefined bytes rather than failing, which
// mirrors the tolerant behavior the holdings exports need.
func DecodeBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrDecodeFailed
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	candidates := []encodingCandidate{
		{"cp1252", charmap.Windows1252.NewDecoder()},
		{"latin1", charmap.ISO8859_1.NewDecoder()},
	}
	for _, c := range candidates {
		decoded, err := c.decoder.Bytes(data)
		if err == nil {
			return string(decoded), nil
		}
	}
	return "", ErrDecodeFailed
}

// splitLines normalizes line endings before the header scan.
func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// LoadTable locates the real header row by token sniffing, discards the
// metadata block above it, and parses the remainder as quoted CSV. Rows may
// be ragged; quoting that still cannot be parsed surfaces as ErrTableParse
// with the underlying reason.
func LoadTable(text string, requiredTokens []string) (*RawTable, error) {
	lines := splitLines(text)
	headerIdx := FindHeaderRow(lines, requiredTokens, DefaultSearchWindow)
	if headerIdx < 0 {
		return nil, ErrHeaderNotFound
	}

	return parseCSV(strings.Join(lines[headerIdx:], "\n"))
}

// LoadReferenceTable parses the secondary issue-date file, whose schema is
// not under our control. It attempts a normal headered parse first; when the
// parsed "header" contains an identifier-shaped cell it is evidence the file
// has no header at all, so the table is re-built with the first line as data
// and positional column names.
func LoadReferenceTable(text string) (*RawTable, error) {
	table, err := parseCSV(text)
	if err != nil {
		return nil, err
	}

	headerIsData := false
	for _, col := range table.Columns {
		if IdentifierLike(col) {
			headerIsData = true
			break
		}
	}
	if !headerIsData {
		return table, nil
	}

	rows := make([][]string, 0, len(table.Rows)+1)
	firstRow := make([]string, len(table.Columns))
	copy(firstRow, table.Columns)
	rows = append(rows, firstRow)
	rows = append(rows, table.Rows...)

	cols := make([]string, len(table.Columns))
	for i := range cols {
		cols[i] = fmt.Sprintf("col_%d", i)
	}
	return &RawTable{Columns: cols, Rows: rows}, nil
}

func parseCSV(content string) (*RawTable, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableParse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrTableParse)
	}

	columns := make([]string, len(records[0]))
	for i, col := range records[0] {
		columns[i] = strings.TrimSpace(col)
	}
	return &RawTable{Columns: columns, Rows: records[1:]}, nil
}

// zipMagic is the signature of an XLSX (zip) container.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// IsSpreadsheet reports whether the byte stream is an XLSX workbook rather
// than delimited text. iShares serves holdings in both formats.
func IsSpreadsheet(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// LoadWorkbook extracts the holdings table from an XLSX byte stream. Sheets
// are probed in order for one whose first rows contain all required tokens,
// the same anchor used for the CSV path.
func LoadWorkbook(data []byte, requiredTokens []string) (*RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableParse, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		lines := make([]string, len(rows))
		for i, row := range rows {
			lines[i] = strings.Join(row, ",")
		}
		headerIdx := FindHeaderRow(lines, requiredTokens, DefaultSearchWindow)
		if headerIdx < 0 {
			continue
		}

		columns := make([]string, len(rows[headerIdx]))
		for i, col := range rows[headerIdx] {
			columns[i] = strings.TrimSpace(col)
		}
		return &RawTable{Columns: columns, Rows: rows[headerIdx+1:]}, nil
	}
	return nil, ErrHeaderNotFound
}
