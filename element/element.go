// Package element defines the document elements produced by the front ends
// (markdown, JSON templates, the fluent builder) and consumed by the layout
// engine.
package element

// Element is one block of document content.
type Element interface {
	element()
}

// Align is a horizontal alignment tag.
type Align int

const (
	Left Align = iota
	Center
	Right
)

func (a Align) String() string {
	switch a {
	case Center:
		return "center"
	case Right:
		return "right"
	}
	return "left"
}

// Segment is a styled run of text inside a RichParagraph.
type Segment struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
	Strike bool
	Link   string
	Math   bool
}

// BarcodeKind selects a symbology.
type BarcodeKind string

const (
	QR      BarcodeKind = "qr"
	Code128 BarcodeKind = "code128"
	PDF417  BarcodeKind = "pdf417"
)

type (
	Heading struct {
		Level int
		Text  string
	}
	Paragraph struct {
		Text string
	}
	RichParagraph struct {
		Segments []Segment
	}
	// ListItem is a bullet item, or a numbered one when Ordered is set.
	ListItem struct {
		Text    string
		Depth   int
		Ordered bool
		Number  int
	}
	TaskItem struct {
		Checked bool
		Text    string
		Depth   int
	}
	CodeBlock struct {
		Language string
		Code     string
	}
	// TableRow is one table line. Consecutive rows form a table.
	TableRow struct {
		Cells      []string
		Header     bool
		Alignments []Align
	}
	BlockQuote struct {
		Text  string
		Depth int
	}
	Definition struct {
		Term       string
		Definition string
	}
	Footnote struct {
		Label string
		Text  string
	}
	Link struct {
		Text string
		URL  string
	}
	Image struct {
		Alt  string
		Path string
	}
	Math struct {
		Expr   string
		Inline bool
	}
	InlineCode struct {
		Code string
	}
	StyledText struct {
		Text   string
		Bold   bool
		Italic bool
	}
	Barcode struct {
		Kind BarcodeKind
		Data string
	}
	HorizontalRule struct{}
	PageBreak      struct{}
	EmptyLine      struct{}
)

func (Heading) element()        {}
func (Paragraph) element()      {}
func (RichParagraph) element()  {}
func (ListItem) element()       {}
func (TaskItem) element()       {}
func (CodeBlock) element()      {}
func (TableRow) element()       {}
func (BlockQuote) element()     {}
func (Definition) element()     {}
func (Footnote) element()       {}
func (Link) element()           {}
func (Image) element()          {}
func (Math) element()           {}
func (InlineCode) element()     {}
func (StyledText) element()     {}
func (Barcode) element()        {}
func (HorizontalRule) element() {}
func (PageBreak) element()      {}
func (EmptyLine) element()      {}

// PlainText joins the segment texts.
func (p RichParagraph) PlainText() string {
	n := 0
	for _, s := range p.Segments {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range p.Segments {
		b = append(b, s.Text...)
	}
	return string(b)
}

// AltText returns the image alt text, "Image" when empty.
func (i Image) AltText() string {
	if i.Alt == "" {
		return "Image"
	}
	return i.Alt
}
