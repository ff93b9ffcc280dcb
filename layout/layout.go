// Package layout turns document elements into per-page content streams.
//
// A Builder keeps a cursor moving down the page. Every emitted line checks
// whether it still fits above the bottom margin; when it does not, the page
// is closed with its footer and a fresh one is started at the top margin.
package layout

import (
	"fmt"

	pdfcli "github.com/lvillar/pdfcli"
)

// PageLayout is the page geometry in points.
type PageLayout struct {
	Width        float64
	Height       float64
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64
}

// Portrait is US Letter upright with one inch margins.
func Portrait() PageLayout {
	return PageLayout{Width: 612, Height: 792, MarginLeft: 72, MarginRight: 72, MarginTop: 72, MarginBottom: 72}
}

// Landscape is US Letter on its side with one inch margins.
func Landscape() PageLayout {
	return PageLayout{Width: 792, Height: 612, MarginLeft: 72, MarginRight: 72, MarginTop: 72, MarginBottom: 72}
}

// ForOrientation picks Landscape or Portrait.
func ForOrientation(landscape bool) PageLayout {
	if landscape {
		return Landscape()
	}
	return Portrait()
}

// ContentTop is the y coordinate of the first baseline region.
func (l PageLayout) ContentTop() float64 { return l.Height - l.MarginTop }

// ContentWidth is the usable width between the side margins.
func (l PageLayout) ContentWidth() float64 { return l.Width - l.MarginLeft - l.MarginRight }

// ContentHeight is the usable height between top and bottom margins.
func (l PageLayout) ContentHeight() float64 { return l.ContentTop() - l.MarginBottom }

// Validate rejects layouts without room for content.
func (l PageLayout) Validate() error {
	if l.ContentWidth() <= 0 || l.ContentHeight() <= 0 {
		return fmt.Errorf("layout: %w: margins leave no content area on a %gx%g page",
			pdfcli.ErrInvalidParam, l.Width, l.Height)
	}
	return nil
}

// HeadingSize scales base by heading level: 2.0, 1.6, 1.3, 1.1, 1.0, and
// 0.9 for level 6 and deeper.
func HeadingSize(level int, base float64) float64 {
	switch level {
	case 1:
		return base * 2.0
	case 2:
		return base * 1.6
	case 3:
		return base * 1.3
	case 4:
		return base * 1.1
	case 5:
		return base * 1.0
	}
	return base * 0.9
}

// LineHeight is the vertical advance of one line of text.
func LineHeight(size float64) float64 { return size + 4 }
