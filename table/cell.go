package table

import (
	"fmt"

	"github.com/lvillar/pdfcli/element"
)

// Cell is a single table cell.
type Cell struct {
	Text  string
	Align element.Align
}

// SetAlign sets the horizontal alignment for this cell.
func (c *Cell) SetAlign(a element.Align) *Cell {
	c.Align = a
	return c
}

// Row is one table row.
type Row struct {
	Cells  []*Cell
	Header bool
}

// AddCell adds a left aligned text cell and returns it for chaining.
func (r *Row) AddCell(text string) *Cell {
	c := &Cell{Text: text}
	r.Cells = append(r.Cells, c)
	return c
}

// AddCellf adds a formatted text cell to the row.
func (r *Row) AddCellf(format string, args ...any) *Cell {
	return r.AddCell(fmt.Sprintf(format, args...))
}

// FromElement converts a markdown table row. Missing alignments default to
// left.
func FromElement(tr element.TableRow) *Row {
	r := &Row{Header: tr.Header}
	for i, text := range tr.Cells {
		c := r.AddCell(text)
		if i < len(tr.Alignments) {
			c.Align = tr.Alignments[i]
		}
	}
	return r
}
