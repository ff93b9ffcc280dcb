package layout

import (
	"fmt"
	"math"

	"github.com/lvillar/pdfcli/content"
	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/raster"
	"github.com/lvillar/pdfcli/table"
)

// Footer geometry.
const (
	FooterSize   = 9
	footerOffset = 20
)

var (
	Black = content.RGB{0, 0, 0}
	Gray  = content.RGB{0.4, 0.4, 0.4}
	Blue  = content.RGB{0, 0, 0.8}
)

// LinkArea is a clickable region recorded while laying out a link.
type LinkArea struct {
	Rect [4]float64 // llx lly urx ury
	URL  string
}

// Page is one finished page.
type Page struct {
	Content []byte
	// Images maps XObject resource names to the images drawn on the page.
	Images map[string]*raster.Info
	Links  []LinkArea
	// Structure lists the structure nodes of elements started on the page.
	Structure []element.StructNode
}

// ImageLoader resolves an image path. Layout falls back to a text
// placeholder when it returns an error.
type ImageLoader func(path string) (*raster.Info, error)

// Option configures a Builder.
type Option func(*Builder)

// WithPageNumbers toggles the "Page N" footer.
func WithPageNumbers(on bool) Option {
	return func(b *Builder) { b.pageNumbers = on }
}

// WithFonts sets the font registry. A legacy single font registry maps
// every face to the same resource.
func WithFonts(r *font.Registry) Option {
	return func(b *Builder) { b.fonts = r }
}

// WithImages enables drawing images through load.
func WithImages(load ImageLoader) Option {
	return func(b *Builder) { b.loadImage = load }
}

// WithMaxDPI caps the resolution of drawn images; zero keeps originals.
func WithMaxDPI(dpi float64) Option {
	return func(b *Builder) { b.maxDPI = dpi }
}

// WithTableStyle overrides the table style.
func WithTableStyle(s table.Style) Option {
	return func(b *Builder) { b.tableStyle = s }
}

// Builder accumulates content streams page by page.
type Builder struct {
	layout      PageLayout
	base        float64
	fonts       *font.Registry
	pageNumbers bool
	loadImage   ImageLoader
	maxDPI      float64
	tableStyle  table.Style

	pages      []Page
	cur        content.Stream
	images     map[string]*raster.Info
	links      []LinkArea
	structure  []element.StructNode
	loaded     map[string]*raster.Info
	imageSeq   int
	inText     bool
	y          float64
	size       float64
	face       font.Face
	color      content.RGB
	pageNumber int
	finished   bool
}

// NewBuilder starts the first page. The default font registry is the
// Helvetica family and page numbers are on.
func NewBuilder(layout PageLayout, baseSize float64, opts ...Option) *Builder {
	b := &Builder{
		layout:      layout,
		base:        baseSize,
		fonts:       font.Standard(font.Helvetica),
		pageNumbers: true,
		tableStyle:  table.DefaultStyle(),
		loaded:      make(map[string]*raster.Info),
		pageNumber:  1,
	}
	for _, o := range opts {
		o(b)
	}
	b.beginPage()
	return b
}

// Layout returns the page geometry.
func (b *Builder) Layout() PageLayout { return b.layout }

// Fonts returns the registry the builder draws with.
func (b *Builder) Fonts() *font.Registry { return b.fonts }

// Y is the baseline of the next line.
func (b *Builder) Y() float64 { return b.y }

// PageNumber is the 1-based number of the active page.
func (b *Builder) PageNumber() int { return b.pageNumber }

// SetColor sets the fill color of subsequent text.
func (b *Builder) SetColor(c content.RGB) { b.color = c }

// ResetColor restores black text.
func (b *Builder) ResetColor() { b.color = Black }

func (b *Builder) beginPage() {
	b.cur = content.Stream{}
	b.images = nil
	b.links = nil
	b.structure = nil
	b.y = b.layout.ContentTop()
	b.beginText()
	b.setFont(font.Regular, b.base)
}

func (b *Builder) beginText() {
	if !b.inText {
		b.cur.BeginText()
		b.inText = true
	}
}

func (b *Builder) endText() {
	if b.inText {
		b.cur.EndText()
		b.inText = false
	}
}

func (b *Builder) setFont(f font.Face, size float64) {
	b.face, b.size = f, size
	b.cur.Font(b.fonts.Resource(f), size)
}

// NeedsPageBreak reports whether extra more points would cross the bottom
// margin.
func (b *Builder) NeedsPageBreak(extra float64) bool {
	return b.y-extra < b.layout.MarginBottom
}

// NewPage closes the active page and starts the next one.
func (b *Builder) NewPage() {
	b.closePage()
	b.pageNumber++
	b.beginPage()
}

func (b *Builder) closePage() {
	b.endText()
	if b.pageNumbers {
		b.cur.BeginText()
		b.cur.Font(b.fonts.Resource(font.Regular), FooterSize)
		b.cur.FillRGB(0, 0, 0)
		b.cur.TextAt(b.layout.Width/2-footerOffset, b.layout.MarginBottom/2)
		b.cur.Show(fmt.Sprintf("Page %d", b.pageNumber))
		b.cur.EndText()
	}
	data := append([]byte(nil), b.cur.Bytes()...)
	b.pages = append(b.pages, Page{Content: data, Images: b.images, Links: b.links, Structure: b.structure})
}

// EmitLine writes one left aligned line in the regular face.
func (b *Builder) EmitLine(text string, size float64) {
	b.EmitLineAligned(text, size, element.Left, font.Regular)
}

// EmitLineAligned writes one line at the cursor, breaking the page first if
// the line does not fit. Font and color are emitted for every line.
func (b *Builder) EmitLineAligned(text string, size float64, align element.Align, face font.Face) {
	lh := LineHeight(size)
	if b.NeedsPageBreak(lh) {
		b.NewPage()
	}
	w := font.TextWidth(text, size, face.Mono)
	x := b.layout.MarginLeft
	switch align {
	case element.Center:
		x += (b.layout.ContentWidth() - w) / 2
	case element.Right:
		x += b.layout.ContentWidth() - w
	}
	b.show(text, x, size, face, b.color)
	b.y -= lh
}

// show draws a run at (x, y) without moving the cursor.
func (b *Builder) show(text string, x, size float64, face font.Face, c content.RGB) {
	b.beginText()
	b.setFont(face, size)
	b.cur.FillRGB(c[0], c[1], c[2])
	b.cur.TextAt(x, b.y)
	b.cur.Show(text)
}

// EmitEmptyLine advances by half a base line.
func (b *Builder) EmitEmptyLine() {
	lh := LineHeight(b.base) * 0.5
	if b.NeedsPageBreak(lh) {
		b.NewPage()
	}
	b.y -= lh
}

// EmitRule draws a thin horizontal line across the content width.
func (b *Builder) EmitRule() {
	b.EmitEmptyLine()
	lh := LineHeight(b.base)
	if b.NeedsPageBreak(lh) {
		b.NewPage()
	}
	b.endText()
	ry := b.y + lh/2
	b.cur.Save()
	b.cur.StrokeRGB(0.6, 0.6, 0.6)
	b.cur.LineWidth(0.75)
	b.cur.Line(b.layout.MarginLeft, ry, b.layout.MarginLeft+b.layout.ContentWidth(), ry)
	b.cur.Restore()
	b.y -= lh
	b.EmitEmptyLine()
}

// maxChars is the greedy wrap width for text at size.
func (b *Builder) maxChars(width, size float64, mono bool) int {
	return int(max(math.Floor(width/font.CharWidth(size, mono)), 1))
}

// graphic reserves h points for a non-text block and returns its top edge,
// breaking the page first when it does not fit and the page is not empty.
func (b *Builder) graphic(h float64) float64 {
	if b.NeedsPageBreak(h) && b.y < b.layout.ContentTop() {
		b.NewPage()
	}
	b.endText()
	return b.y
}

// below moves the cursor under a block whose bottom edge is bottom.
func (b *Builder) below(bottom float64) {
	b.y = bottom - b.base
}

// Finish closes the last page and returns every page in order. The builder
// must not be used afterwards.
func (b *Builder) Finish() []Page {
	if !b.finished {
		b.closePage()
		b.finished = true
	}
	return b.pages
}

// Streams returns only the content bytes of pages.
func Streams(pages []Page) [][]byte {
	out := make([][]byte, len(pages))
	for i, p := range pages {
		out[i] = p.Content
	}
	return out
}
