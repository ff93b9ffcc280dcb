package table

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/lvillar/pdfcli/content"
	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/font"
)

// LineSpacing is the cell line height as a multiple of the font size.
const LineSpacing = 1.4

// Dimensions is the measured geometry of a table.
type Dimensions struct {
	ColumnWidths []float64
	RowHeights   []float64
	TotalWidth   float64
	TotalHeight  float64
	NumCols      int
	NumRows      int
}

// Table is a table builder: rows are collected, measured, then drawn.
type Table struct {
	rows  []*Row
	style Style
}

// New creates an empty table with the given style.
func New(style Style) *Table {
	return &Table{style: style}
}

// Style returns the table style.
func (t *Table) Style() Style { return t.style }

// Rows returns the rows, header rows first.
func (t *Table) Rows() []*Row { return t.rows }

// Len reports the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// AddRow adds a new body row and returns it for chaining.
func (t *Table) AddRow() *Row {
	r := &Row{}
	t.rows = append(t.rows, r)
	return r
}

// AddHeaderRow adds a header row after any existing header rows.
func (t *Table) AddHeaderRow() *Row {
	r := &Row{Header: true}
	idx := 0
	for idx < len(t.rows) && t.rows[idx].Header {
		idx++
	}
	t.rows = append(t.rows, nil)
	copy(t.rows[idx+1:], t.rows[idx:])
	t.rows[idx] = r
	return r
}

// Append adds an already built row as is.
func (t *Table) Append(r *Row) {
	t.rows = append(t.rows, r)
}

// Measure computes the table geometry for the current rows.
func (t *Table) Measure(fontSize, maxWidth float64, mono bool) Dimensions {
	return Measure(t.rows, t.style, fontSize, maxWidth, mono)
}

// Measure computes column widths and row heights. Each column is as wide as
// its longest cell plus padding; when the total exceeds maxWidth every
// column is scaled by the same factor. Row height is the largest wrapped
// line count of its cells times the line height, plus padding.
func Measure(rows []*Row, style Style, fontSize, maxWidth float64, mono bool) Dimensions {
	if len(rows) == 0 {
		return Dimensions{}
	}
	numCols := 0
	for _, r := range rows {
		numCols = max(numCols, len(r.Cells))
	}
	charW := font.CharWidth(fontSize, mono)
	lineH := fontSize * LineSpacing
	pad := style.CellPadding

	widths := make([]float64, numCols)
	for _, r := range rows {
		for i, c := range r.Cells {
			w := float64(utf8.RuneCountInString(c.Text))*charW + pad*2
			widths[i] = max(widths[i], w)
		}
	}
	if total := sum(widths); total > maxWidth && total > 0 {
		scale := maxWidth / total
		for i := range widths {
			widths[i] *= scale
		}
	}

	heights := make([]float64, len(rows))
	for ri, r := range rows {
		lines := 1
		for ci, c := range r.Cells {
			n := len(Wrap(c.Text, maxChars(widths[ci], pad, charW)))
			lines = max(lines, n)
		}
		heights[ri] = float64(lines)*lineH + pad*2
	}

	return Dimensions{
		ColumnWidths: widths,
		RowHeights:   heights,
		TotalWidth:   sum(widths),
		TotalHeight:  sum(heights),
		NumCols:      numCols,
		NumRows:      len(rows),
	}
}

func maxChars(colW, pad, charW float64) int {
	return int(max(math.Floor((colW-pad*2)/charW), 1))
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

// Wrap breaks text into lines of at most maxChars characters on whitespace.
// A single word longer than maxChars is kept whole on its own line. The
// result is never empty.
func Wrap(text string, maxChars int) []string {
	if utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}
	var lines []string
	var cur strings.Builder
	curLen := 0
	for _, w := range strings.Fields(text) {
		wl := utf8.RuneCountInString(w)
		switch {
		case curLen == 0:
			cur.WriteString(w)
			curLen = wl
		case curLen+1+wl <= maxChars:
			cur.WriteByte(' ')
			cur.WriteString(w)
			curLen += 1 + wl
		default:
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(w)
			curLen = wl
		}
	}
	if curLen > 0 {
		lines = append(lines, cur.String())
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

// TextX returns the x position of text of width textW inside a cell.
func TextX(align element.Align, cellX, cellW, textW, pad float64) float64 {
	switch align {
	case element.Center:
		return cellX + (cellW-textW)/2
	case element.Right:
		return cellX + cellW - pad - textW
	}
	return cellX + pad
}

// Draw renders the table with its top-left corner at (x, top). It must be
// called outside a text object; it emits its own BT/ET and restores the
// graphics state.
func (t *Table) Draw(s *content.Stream, dims Dimensions, x, top float64, fonts *font.Registry, fontSize float64) {
	Draw(s, t.rows, dims, t.style, x, top, fonts, fontSize)
}

// Draw renders rows measured as dims. See Table.Draw.
func Draw(s *content.Stream, rows []*Row, dims Dimensions, style Style, x, top float64, fonts *font.Registry, fontSize float64) {
	if dims.NumRows == 0 {
		return
	}
	s.Save()

	y := top
	body := 0
	for i, r := range rows {
		h := dims.RowHeights[i]
		var fill *content.RGB
		switch {
		case r.Header:
			fill = style.HeaderFill
		default:
			if body%2 == 1 {
				fill = style.AlternateFill
			}
			body++
		}
		if fill != nil {
			s.FillRGB(fill[0], fill[1], fill[2])
			s.FillRect(x, y-h, dims.TotalWidth, h)
		}
		y -= h
	}

	if style.GridLineWidth > 0 {
		g := style.GridColor
		s.StrokeRGB(g[0], g[1], g[2])
		s.LineWidth(style.GridLineWidth)
		y = top
		for _, h := range dims.RowHeights[:len(dims.RowHeights)-1] {
			y -= h
			s.Line(x, y, x+dims.TotalWidth, y)
		}
		cx := x
		for _, w := range dims.ColumnWidths[:len(dims.ColumnWidths)-1] {
			cx += w
			s.Line(cx, top, cx, top-dims.TotalHeight)
		}
	}

	if style.BorderWidth > 0 {
		b := style.BorderColor
		s.StrokeRGB(b[0], b[1], b[2])
		s.LineWidth(style.BorderWidth)
		s.StrokeRect(x, top-dims.TotalHeight, dims.TotalWidth, dims.TotalHeight)
	}

	pad := style.CellPadding
	lineH := fontSize * LineSpacing
	charW := font.CharWidth(fontSize, false)
	s.BeginText()
	s.FillRGB(0, 0, 0)
	y = top
	for i, r := range rows {
		face := font.Regular
		if r.Header {
			face = font.Bold
		}
		s.Font(fonts.Resource(face), fontSize)
		cx := x
		for ci, c := range r.Cells {
			w := dims.ColumnWidths[ci]
			baseline := y - pad - fontSize
			for _, line := range Wrap(c.Text, maxChars(w, pad, charW)) {
				tw := font.TextWidth(line, fontSize, false)
				s.TextAt(TextX(c.Align, cx, w, tw, pad), baseline)
				s.Show(line)
				baseline -= lineH
			}
			cx += w
		}
		y -= dims.RowHeights[i]
	}
	s.EndText()
	s.Restore()
}
