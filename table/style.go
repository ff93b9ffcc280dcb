// Package table measures and draws grid tables into a content stream.
//
// Column widths come from the widest cell of each column and are scaled
// down uniformly when the table would exceed the available width. Cells
// wrap on word boundaries and a row is as tall as its tallest cell.
package table

import "github.com/lvillar/pdfcli/content"

// Style defines the overall appearance of a table. All lengths are points.
type Style struct {
	CellPadding   float64 `validate:"gte=0"`
	MarginTop     float64 `validate:"gte=0"`
	MarginBottom  float64 `validate:"gte=0"`
	BorderWidth   float64 `validate:"gte=0"`
	GridLineWidth float64 `validate:"gte=0"`
	BorderColor   content.RGB
	GridColor     content.RGB

	// HeaderFill shades header rows when non-nil.
	HeaderFill *content.RGB
	// AlternateFill shades every second body row when non-nil.
	AlternateFill *content.RGB
}

// DefaultStyle returns the standard grid: 8pt padding, 16pt margins, a 1.5pt
// black border and 0.75pt light gray inner lines.
func DefaultStyle() Style {
	return Style{
		CellPadding:   8,
		MarginTop:     16,
		MarginBottom:  16,
		BorderWidth:   1.5,
		GridLineWidth: 0.75,
		BorderColor:   content.RGB{0, 0, 0},
		GridColor:     content.RGB{0.75, 0.75, 0.75},
		HeaderFill:    &content.RGB{0.92, 0.92, 0.92},
	}
}
