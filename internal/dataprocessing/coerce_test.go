package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceCurrency(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want *float64
	}{
		{
			name: "plain number",
			cell: "92.5",
			want: floatPtr(92.5),
		},
		{
			name: "dollar sign and thousands separators",
			cell: "$1,234.50",
			want: floatPtr(1234.50),
		},
		{
			name: "embedded quote characters",
			cell: `"$1,234.50"`,
			want: floatPtr(1234.50),
		},
		{
			name: "surrounding whitespace",
			cell: "  $100,000  ",
			want: floatPtr(100000),
		},
		{
			name: "integer currency",
			cell: "$92,000",
			want: floatPtr(92000),
		},
		{
			name: "negative amount",
			cell: "-42.25",
			want: floatPtr(-42.25),
		},
		{
			name: "zero",
			cell: "0",
			want: floatPtr(0),
		},
		{
			name: "empty cell",
			cell: "",
			want: nil,
		},
		{
			name: "whitespace only",
			cell: "   ",
			want: nil,
		},
		{
			name: "placeholder dash",
			cell: "-",
			want: nil,
		},
		{
			name: "non numeric text",
			cell: "N/A",
			want: nil,
		},
		{
			name: "parenthesized negative stays unparsed",
			cell: "(1,234.00)",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceCurrency(tt.cell)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestCoerceDate(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want *time.Time
	}{
		{
			name: "iso date",
			cell: "2026-06-01",
			want: datePtr(2026, 6, 1),
		},
		{
			name: "slash separated iso",
			cell: "2026/06/01",
			want: datePtr(2026, 6, 1),
		},
		{
			name: "us style",
			cell: "11/15/2023",
			want: datePtr(2023, 11, 15),
		},
		{
			name: "long month",
			cell: "Jan 2, 2027",
			want: datePtr(2027, 1, 2),
		},
		{
			name: "surrounding whitespace",
			cell: " 2027-12-31 ",
			want: datePtr(2027, 12, 31),
		},
		{
			name: "empty",
			cell: "",
			want: nil,
		},
		{
			name: "placeholder dash",
			cell: "-",
			want: nil,
		},
		{
			name: "garbage",
			cell: "not a date",
			want: nil,
		},
		{
			name: "numeric but not a date",
			cell: "123456",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceDate(tt.cell)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %v, got %v", tt.want, got)
		})
	}
}

func floatPtr(v float64) *float64 { return &v }

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}
