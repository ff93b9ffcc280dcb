package doctpl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
	"github.com/lvillar/pdfcli/content"
	"github.com/lvillar/pdfcli/document"
	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/layout"
	"github.com/lvillar/pdfcli/pageops"
)

var validate = validator.New()

// Page sizes in points, portrait.
var pageSizes = map[string][2]float64{
	"a4":     {595.28, 841.89},
	"letter": {612, 792},
	"legal":  {612, 1008},
}

// Parse decodes and validates a JSON template.
func Parse(jsonTemplate []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(jsonTemplate, &doc); err != nil {
		return nil, fmt.Errorf("doctpl: %w: parsing template: %v", pdfcli.ErrInvalidParam, err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("doctpl: %w: %v", pdfcli.ErrInvalidParam, err)
	}
	return &doc, nil
}

// Render parses a JSON template and returns the PDF.
func Render(jsonTemplate []byte) ([]byte, error) {
	doc, err := Parse(jsonTemplate)
	if err != nil {
		return nil, err
	}
	return RenderDocument(doc)
}

// RenderFile renders the template at in to the PDF file out. Image paths
// are resolved relative to the template.
func RenderFile(in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("doctpl: %w: %v", pdfcli.ErrIO, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	pdf, err := RenderDocument(doc, document.WithBaseDir(filepath.Dir(in)))
	if err != nil {
		return err
	}
	return document.WriteFile(out, pdf)
}

// Info returns the document information the template declares.
func (d *Document) Info() assemble.Info {
	return assemble.Info{Title: d.Title, Author: d.Author, Subject: d.Subject, Keywords: d.Keywords, Custom: d.Custom}
}

// Config returns the generation settings the template declares.
func (d *Document) Config() *pdfcli.Config {
	cfg := pdfcli.NewDefaultConfig()
	cfg.PageNumbers = d.PageNumbers
	cfg.Landscape = d.Landscape
	if d.Font != nil {
		if fam, ok := font.ParseFamily(d.Font.Family); ok {
			cfg.FontFamily = fam
		}
		if d.Font.Size > 0 {
			cfg.FontSize = d.Font.Size
		}
	}
	if d.FontSize > 0 {
		cfg.FontSize = d.FontSize
	}
	return cfg
}

// Layout returns the page geometry: the page size, turned when Landscape is
// set, with one inch margins unless Margin overrides them.
func (d *Document) Layout() layout.PageLayout {
	l := layout.ForOrientation(d.Landscape)
	if size, ok := pageSizes[strings.ToLower(d.PageSize)]; ok {
		l.Width, l.Height = size[0], size[1]
		if d.Landscape {
			l.Width, l.Height = l.Height, l.Width
		}
	}
	if m := d.Margin; m != nil {
		l.MarginTop, l.MarginRight, l.MarginBottom, l.MarginLeft = m.Top, m.Right, m.Bottom, m.Left
	}
	return l
}

// ToElements converts the template into document elements. Pages after the
// first begin with a page break.
func (d *Document) ToElements() ([]element.Element, error) {
	var out []element.Element
	add := func(list []Element) error {
		for i, e := range list {
			elems, err := convert(e)
			if err != nil {
				return fmt.Errorf("doctpl: element %d: %w", i+1, err)
			}
			out = append(out, elems...)
		}
		return nil
	}
	if err := add(d.Elements); err != nil {
		return nil, err
	}
	for i, p := range d.Pages {
		if i > 0 || len(out) > 0 {
			out = append(out, element.PageBreak{})
		}
		if err := add(p.Elements); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	return out, nil
}

// RenderDocument renders a parsed template. Extra options are passed to
// document generation.
func RenderDocument(d *Document, opts ...document.Option) ([]byte, error) {
	elems, err := d.ToElements()
	if err != nil {
		return nil, err
	}
	opts = append([]document.Option{document.WithInfo(d.Info()), document.WithLayout(d.Layout())}, opts...)
	data, err := document.Generate(elems, d.Config(), opts...)
	if err != nil {
		return nil, fmt.Errorf("doctpl: %w", err)
	}
	if h := d.Header; h != nil && h.Text != "" {
		style := running(h.Text, h.Align, "L", h.Size, 9, h.Color)
		style.Position = position(style.Position, true)
		if data, err = pageops.AddPageNumbers(data, style); err != nil {
			return nil, fmt.Errorf("doctpl: header: %w", err)
		}
	}
	if f := d.Footer; f != nil && f.Text != "" {
		style := running(f.Text, f.Align, "C", f.Size, 8, f.Color)
		style.Position = position(style.Position, false)
		if style.Color == (content.RGB{}) && f.Color == nil {
			style.Color = content.RGB{0.5, 0.5, 0.5}
		}
		if data, err = pageops.AddPageNumbers(data, style); err != nil {
			return nil, fmt.Errorf("doctpl: footer: %w", err)
		}
	}
	return data, nil
}

// running builds the style of a header or footer line. The horizontal
// alignment is carried in Position as Left, Center or Right of the bottom
// row until position picks the row.
func running(text, align, def string, size, defSize float64, c *Color) pageops.PageNumberStyle {
	format := text
	if strings.Contains(text, "{page}") || strings.Contains(text, "{pages}") {
		format = strings.ReplaceAll(text, "%", "%%")
		format = strings.ReplaceAll(format, "{pages}", "%[2]d")
		format = strings.ReplaceAll(format, "{page}", "%[1]d")
	}
	if size == 0 {
		size = defSize
	}
	if align == "" {
		align = def
	}
	style := pageops.PageNumberStyle{Format: format, FontSize: size, Margin: 20}
	switch strings.ToUpper(align) {
	case "L":
		style.Position = pageops.BottomLeft
	case "R":
		style.Position = pageops.BottomRight
	default:
		style.Position = pageops.BottomCenter
	}
	if c != nil {
		style.Color = content.RGB{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
	}
	return style
}

func position(bottom pageops.Position, top bool) pageops.Position {
	if !top {
		return bottom
	}
	switch bottom {
	case pageops.BottomLeft:
		return pageops.TopLeft
	case pageops.BottomRight:
		return pageops.TopRight
	}
	return pageops.TopCenter
}

func alignment(s string) element.Align {
	switch strings.ToLower(s) {
	case "c", "center":
		return element.Center
	case "r", "right":
		return element.Right
	}
	return element.Left
}

func convert(e Element) ([]element.Element, error) {
	switch strings.ToLower(e.Type) {
	case "heading":
		return []element.Element{element.Heading{Level: max(1, e.Level), Text: e.Text}}, nil
	case "paragraph", "text":
		return []element.Element{element.Paragraph{Text: e.Text}}, nil
	case "list":
		items := e.Items
		if len(items) == 0 && e.Text != "" {
			items = []string{e.Text}
		}
		out := make([]element.Element, len(items))
		start := max(e.Start, 1)
		for i, it := range items {
			out[i] = element.ListItem{Text: it, Depth: e.Depth, Ordered: e.Ordered, Number: start + i}
		}
		return out, nil
	case "task":
		out := make([]element.Element, len(e.Items))
		for i, it := range e.Items {
			out[i] = element.TaskItem{Text: it, Depth: e.Depth, Checked: i < len(e.Checked) && e.Checked[i]}
		}
		return out, nil
	case "code":
		code := e.Code
		if code == "" {
			code = e.Text
		}
		return []element.Element{element.CodeBlock{Language: e.Language, Code: code}}, nil
	case "table":
		return table(e)
	case "quote":
		return []element.Element{element.BlockQuote{Text: e.Text, Depth: max(1, e.Depth)}}, nil
	case "rule", "hr":
		return []element.Element{element.HorizontalRule{}}, nil
	case "pagebreak":
		return []element.Element{element.PageBreak{}}, nil
	case "spacer":
		return []element.Element{element.EmptyLine{}}, nil
	case "image":
		if e.Src == "" {
			return nil, fmt.Errorf("%w: image without src", pdfcli.ErrInvalidParam)
		}
		return []element.Element{element.Image{Alt: e.Alt, Path: e.Src}}, nil
	case "link":
		if e.URL == "" {
			return nil, fmt.Errorf("%w: link without url", pdfcli.ErrInvalidParam)
		}
		text := e.Text
		if text == "" {
			text = e.URL
		}
		return []element.Element{element.Link{Text: text, URL: e.URL}}, nil
	case "math":
		expr := e.Expr
		if expr == "" {
			expr = e.Text
		}
		return []element.Element{element.Math{Expr: expr}}, nil
	case "barcode":
		kind := element.BarcodeKind(strings.ToLower(e.Kind))
		switch kind {
		case element.QR, element.Code128, element.PDF417:
		case "":
			kind = element.QR
		default:
			return nil, fmt.Errorf("%w: barcode kind %q", pdfcli.ErrUnsupported, e.Kind)
		}
		return []element.Element{element.Barcode{Kind: kind, Data: e.Data}}, nil
	case "footnote":
		return []element.Element{element.Footnote{Label: e.Label, Text: e.Text}}, nil
	case "definition":
		return []element.Element{element.Definition{Term: e.Term, Definition: e.Definition}}, nil
	}
	return nil, fmt.Errorf("%w: unknown element type %q", pdfcli.ErrUnsupported, e.Type)
}

func table(e Element) ([]element.Element, error) {
	if len(e.Columns) == 0 && len(e.Rows) == 0 {
		return nil, fmt.Errorf("%w: table without columns or rows", pdfcli.ErrInvalidParam)
	}
	var out []element.Element
	var aligns []element.Align
	if len(e.Columns) > 0 {
		headers := make([]string, len(e.Columns))
		aligns = make([]element.Align, len(e.Columns))
		for i, c := range e.Columns {
			headers[i] = c.Header
			aligns[i] = alignment(c.Align)
		}
		out = append(out, element.TableRow{Cells: headers, Header: true, Alignments: aligns})
	}
	for _, r := range e.Rows {
		out = append(out, element.TableRow{Cells: r, Alignments: aligns})
	}
	return out, nil
}
