package document

import (
	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/layout"
)

// Builder assembles a document element by element.
//
//	data, err := document.NewBuilder().
//	    AddHeading("Report", 1).
//	    AddParagraph("All systems nominal.").
//	    BuildBytes()
type Builder struct {
	elems []element.Element
	cfg   *pdfcli.Config
	opts  []Option
}

// NewBuilder starts an empty document with the default configuration.
func NewBuilder() *Builder {
	return &Builder{cfg: pdfcli.NewDefaultConfig()}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg *pdfcli.Config) *Builder {
	c := *cfg
	b.cfg = &c
	return b
}

// WithLayout sets the page geometry.
func (b *Builder) WithLayout(l layout.PageLayout) *Builder {
	b.opts = append(b.opts, WithLayout(l))
	return b
}

// WithMargins sets all four margins of the current orientation.
func (b *Builder) WithMargins(m float64) *Builder {
	return b.WithCustomMargins(m, m, m, m)
}

// WithCustomMargins sets each margin of the current orientation.
func (b *Builder) WithCustomMargins(left, right, top, bottom float64) *Builder {
	l := layout.ForOrientation(b.cfg.Landscape)
	l.MarginLeft, l.MarginRight, l.MarginTop, l.MarginBottom = left, right, top, bottom
	return b.WithLayout(l)
}

// WithFont sets the font family.
func (b *Builder) WithFont(family string) *Builder {
	b.cfg.FontFamily = family
	return b
}

// WithFontSize sets the body size.
func (b *Builder) WithFontSize(size float64) *Builder {
	b.cfg.FontSize = size
	return b
}

// WithOptions adds generation options.
func (b *Builder) WithOptions(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

func (b *Builder) add(e element.Element) *Builder {
	b.elems = append(b.elems, e)
	return b
}

func (b *Builder) AddHeading(text string, level int) *Builder {
	return b.add(element.Heading{Level: level, Text: text})
}

func (b *Builder) AddParagraph(text string) *Builder {
	return b.add(element.Paragraph{Text: text})
}

func (b *Builder) AddCodeBlock(code, language string) *Builder {
	return b.add(element.CodeBlock{Language: language, Code: code})
}

func (b *Builder) AddListItem(text string, depth int) *Builder {
	return b.add(element.ListItem{Text: text, Depth: depth})
}

func (b *Builder) AddOrderedItem(number int, text string, depth int) *Builder {
	return b.add(element.ListItem{Text: text, Depth: depth, Ordered: true, Number: number})
}

func (b *Builder) AddTaskItem(text string, checked bool) *Builder {
	return b.add(element.TaskItem{Text: text, Checked: checked})
}

// AddTableRow appends a body row.
func (b *Builder) AddTableRow(cells ...string) *Builder {
	return b.add(element.TableRow{Cells: cells})
}

// AddTableHeader appends a header row.
func (b *Builder) AddTableHeader(cells ...string) *Builder {
	return b.add(element.TableRow{Cells: cells, Header: true})
}

func (b *Builder) AddRule() *Builder      { return b.add(element.HorizontalRule{}) }
func (b *Builder) AddPageBreak() *Builder { return b.add(element.PageBreak{}) }
func (b *Builder) AddSpacing() *Builder   { return b.add(element.EmptyLine{}) }

func (b *Builder) AddQuote(text string, depth int) *Builder {
	return b.add(element.BlockQuote{Text: text, Depth: depth})
}

func (b *Builder) AddLink(text, url string) *Builder {
	return b.add(element.Link{Text: text, URL: url})
}

func (b *Builder) AddImage(alt, path string) *Builder {
	return b.add(element.Image{Alt: alt, Path: path})
}

func (b *Builder) AddDefinition(term, definition string) *Builder {
	return b.add(element.Definition{Term: term, Definition: definition})
}

func (b *Builder) AddFootnote(label, text string) *Builder {
	return b.add(element.Footnote{Label: label, Text: text})
}

func (b *Builder) AddStyledText(text string, bold, italic bool) *Builder {
	return b.add(element.StyledText{Text: text, Bold: bold, Italic: italic})
}

func (b *Builder) AddInlineCode(code string) *Builder {
	return b.add(element.InlineCode{Code: code})
}

func (b *Builder) AddMath(expr string) *Builder {
	return b.add(element.Math{Expr: expr})
}

func (b *Builder) AddInlineMath(expr string) *Builder {
	return b.add(element.Math{Expr: expr, Inline: true})
}

func (b *Builder) AddBarcode(kind element.BarcodeKind, data string) *Builder {
	return b.add(element.Barcode{Kind: kind, Data: data})
}

// AddElements appends already built elements.
func (b *Builder) AddElements(elems ...element.Element) *Builder {
	b.elems = append(b.elems, elems...)
	return b
}

// Elements returns a copy of the collected elements.
func (b *Builder) Elements() []element.Element {
	return append([]element.Element(nil), b.elems...)
}

// Len reports the number of elements.
func (b *Builder) Len() int { return len(b.elems) }

// Reset drops every element and keeps the configuration.
func (b *Builder) Reset() *Builder {
	b.elems = nil
	return b
}

// BuildBytes renders the document.
func (b *Builder) BuildBytes() ([]byte, error) {
	return Generate(b.elems, b.cfg, b.opts...)
}

// Build renders the document into path.
func (b *Builder) Build(path string) error {
	data, err := b.BuildBytes()
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}
