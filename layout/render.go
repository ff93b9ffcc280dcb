package layout

import (
	"fmt"
	"strings"

	"github.com/lvillar/pdfcli/barcode"
	"github.com/lvillar/pdfcli/content"
	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/raster"
	"github.com/lvillar/pdfcli/table"
)

const (
	indentStep = 18
	codePad    = 6
	tabWidth   = 4
)

// Render lays out elements in order. Consecutive table rows form one table.
func (b *Builder) Render(elems []element.Element) {
	var rows []*table.Row
	for _, e := range elems {
		if tr, ok := e.(element.TableRow); ok {
			if len(rows) == 0 {
				b.mark(e)
			}
			rows = append(rows, table.FromElement(tr))
			continue
		}
		if len(rows) > 0 {
			b.renderTable(rows)
			rows = nil
		}
		b.mark(e)
		b.renderElement(e)
	}
	if len(rows) > 0 {
		b.renderTable(rows)
	}
}

// mark records the structure node of e on the page it starts on.
func (b *Builder) mark(e element.Element) {
	switch e.(type) {
	case element.EmptyLine, element.PageBreak, element.HorizontalRule:
		return
	case element.TableRow:
		b.structure = append(b.structure, element.StructNode{Type: element.StructTable})
		return
	}
	b.structure = append(b.structure, element.Struct(e))
}

func (b *Builder) renderElement(e element.Element) {
	base := b.base
	switch e := e.(type) {
	case element.Heading:
		fs := HeadingSize(e.Level, base)
		align := element.Left
		if e.Level == 1 {
			align = element.Center
		}
		b.EmitEmptyLine()
		for _, line := range table.Wrap(e.Text, b.maxChars(b.layout.ContentWidth(), fs, false)) {
			b.EmitLineAligned(line, fs, align, font.Bold)
		}
		b.EmitEmptyLine()
	case element.Paragraph:
		b.block("", e.Text, base, 0, font.Regular)
	case element.RichParagraph:
		b.rich(e.Segments, base)
	case element.ListItem:
		marker := "•"
		if e.Ordered {
			marker = fmt.Sprintf("%d.", e.Number)
		}
		b.block(marker, e.Text, base, float64(e.Depth)*indentStep, font.Regular)
	case element.TaskItem:
		marker := "[ ]"
		if e.Checked {
			marker = "[x]"
		}
		b.block(marker, e.Text, base, float64(e.Depth)*indentStep, font.Regular)
	case element.CodeBlock:
		b.code(e)
	case element.BlockQuote:
		b.SetColor(Gray)
		b.block("", e.Text, base, float64(max(e.Depth, 1))*indentStep, font.Italic)
		b.ResetColor()
	case element.Definition:
		b.block("", e.Term, base, 0, font.Bold)
		b.block("", e.Definition, base, indentStep, font.Regular)
	case element.Footnote:
		b.block(fmt.Sprintf("[%s]", e.Label), e.Text, base*0.85, 0, font.Regular)
	case element.Link:
		b.rich([]element.Segment{{Text: e.Text, Link: e.URL}, {Text: " (" + e.URL + ")", Link: e.URL}}, base)
	case element.Image:
		b.image(e)
	case element.Math:
		text := Printable(Transliterate(e.Expr))
		if e.Inline {
			b.block("", text, base, 0, font.Italic)
			break
		}
		b.EmitEmptyLine()
		for _, line := range table.Wrap(text, b.maxChars(b.layout.ContentWidth(), base, false)) {
			b.EmitLineAligned(line, base, element.Center, font.Italic)
		}
		b.EmitEmptyLine()
	case element.InlineCode:
		b.SetColor(Gray)
		b.block("", e.Code, base*0.9, 0, font.Mono)
		b.ResetColor()
	case element.StyledText:
		b.block("", e.Text, base, 0, font.Face{Style: font.Style{Bold: e.Bold, Italic: e.Italic}})
	case element.Barcode:
		b.barcode(e)
	case element.HorizontalRule:
		b.EmitRule()
	case element.PageBreak:
		b.NewPage()
	case element.EmptyLine:
		b.EmitEmptyLine()
	}
}

// block wraps text to the width left after indent and an optional marker.
// The marker sits on the first line; continuation lines align with the
// text.
func (b *Builder) block(marker, text string, size, indent float64, face font.Face) {
	x := b.layout.MarginLeft + indent
	if marker != "" {
		mw := font.TextWidth(marker+" ", size, false)
		x += mw
	}
	avail := b.layout.MarginLeft + b.layout.ContentWidth() - x
	lines := table.Wrap(text, b.maxChars(avail, size, face.Mono))
	lh := LineHeight(size)
	for i, line := range lines {
		if b.NeedsPageBreak(lh) {
			b.NewPage()
		}
		if i == 0 && marker != "" {
			b.show(marker, b.layout.MarginLeft+indent, size, font.Regular, b.color)
		}
		b.show(line, x, size, face, b.color)
		b.y -= lh
	}
}

// piece is a word-level fragment of a rich paragraph.
type piece struct {
	text  string
	face  font.Face
	color content.RGB
	link  string
	space bool
}

func segmentFace(s element.Segment) font.Face {
	if s.Code {
		return font.Mono
	}
	return font.Face{Style: font.Style{Bold: s.Bold, Italic: s.Italic || s.Math}}
}

func (b *Builder) pieces(segs []element.Segment) []piece {
	var out []piece
	for _, s := range segs {
		text := s.Text
		if s.Math {
			text = Printable(Transliterate(text))
		}
		p := piece{face: segmentFace(s), color: b.color, link: s.Link}
		switch {
		case s.Link != "":
			p.color = Blue
		case s.Code:
			p.color = Gray
		}
		leading := strings.HasPrefix(text, " ")
		for i, w := range strings.Fields(text) {
			q := p
			q.text = w
			q.space = i > 0 || leading
			out = append(out, q)
		}
		if strings.HasSuffix(text, " ") && len(out) > 0 {
			// The space belongs before the next word.
			out = append(out, piece{space: true, face: p.face, color: p.color})
		}
	}
	return out
}

// rich lays out styled segments left to right, wrapping on words.
func (b *Builder) rich(segs []element.Segment, size float64) {
	width := b.layout.ContentWidth()
	lh := LineHeight(size)
	var line []piece
	lineW := 0.0
	flush := func() {
		if len(line) == 0 {
			return
		}
		if b.NeedsPageBreak(lh) {
			b.NewPage()
		}
		x := b.layout.MarginLeft
		for i, p := range line {
			if p.space && i > 0 {
				x += font.CharWidth(size, false)
			}
			w := font.TextWidth(p.text, size, p.face.Mono)
			b.show(p.text, x, size, p.face, p.color)
			if p.link != "" {
				b.links = append(b.links, LinkArea{
					Rect: [4]float64{x, b.y - size*0.25, x + w, b.y + size},
					URL:  p.link,
				})
			}
			x += w
		}
		b.y -= lh
		line, lineW = nil, 0
	}

	pending := false
	for _, p := range b.pieces(segs) {
		if p.text == "" {
			pending = true
			continue
		}
		p.space = p.space || pending
		pending = false
		w := font.TextWidth(p.text, size, p.face.Mono)
		gap := 0.0
		if p.space && len(line) > 0 {
			gap = font.CharWidth(size, false)
		}
		if len(line) > 0 && lineW+gap+w > width {
			flush()
			gap = 0
		}
		line = append(line, p)
		lineW += gap + w
	}
	flush()
}

func (b *Builder) code(cb element.CodeBlock) {
	size := b.base * 0.85
	lh := LineHeight(size)
	lines := strings.Split(strings.ReplaceAll(strings.TrimRight(cb.Code, "\n"), "\t", strings.Repeat(" ", tabWidth)), "\n")
	x := b.layout.MarginLeft
	w := b.layout.ContentWidth()

	b.EmitEmptyLine()
	for len(lines) > 0 {
		avail := b.y - b.layout.MarginBottom - 2*codePad
		n := int(avail / lh)
		if n < 1 {
			if b.y >= b.layout.ContentTop() {
				n = 1
			} else {
				b.NewPage()
				continue
			}
		}
		chunk := lines[:min(n, len(lines))]
		lines = lines[len(chunk):]

		boxH := float64(len(chunk))*lh + 2*codePad
		top := b.graphic(boxH)
		b.cur.Save()
		b.cur.FillRGB(0.95, 0.95, 0.95)
		b.cur.StrokeRGB(0.8, 0.8, 0.8)
		b.cur.LineWidth(0.5)
		b.cur.Rect(x, top-boxH, w, boxH)
		b.cur.Raw("B")
		b.cur.Restore()

		b.y = top - codePad - size
		for _, line := range chunk {
			tx := x + codePad
			for _, tok := range Highlight(cb.Language, line) {
				b.show(tok.Text, tx, size, font.Mono, tok.Kind.Color())
				tx += font.TextWidth(tok.Text, size, true)
			}
			b.y -= lh
		}
		b.endText()
		b.below(top - boxH)
		if len(lines) > 0 {
			b.NewPage()
		}
	}
	b.EmitEmptyLine()
}

// renderTable draws rows, splitting them across pages when needed and
// repeating leading header rows on every continuation page.
func (b *Builder) renderTable(rows []*table.Row) {
	style := b.tableStyle
	dims := table.Measure(rows, style, b.base, b.layout.ContentWidth(), false)
	b.y -= style.MarginTop
	if b.NeedsPageBreak(0) {
		b.NewPage()
	}

	var headers []int
	for i := 0; i < len(rows) && rows[i].Header; i++ {
		headers = append(headers, i)
	}
	next := len(headers)
	first := true
	for first || next < len(rows) {
		idx := append([]int(nil), headers...)
		h := 0.0
		for _, i := range idx {
			h += dims.RowHeights[i]
		}
		avail := b.y - b.layout.MarginBottom
		added := 0
		for next < len(rows) && (h+dims.RowHeights[next] <= avail || (added == 0 && b.y >= b.layout.ContentTop())) {
			h += dims.RowHeights[next]
			idx = append(idx, next)
			next++
			added++
		}
		if added == 0 && next < len(rows) {
			b.NewPage()
			first = false
			continue
		}
		first = false

		sub := dims
		sub.RowHeights = make([]float64, len(idx))
		chunk := make([]*table.Row, len(idx))
		for j, i := range idx {
			sub.RowHeights[j] = dims.RowHeights[i]
			chunk[j] = rows[i]
		}
		sub.NumRows, sub.TotalHeight = len(idx), h

		top := b.graphic(0)
		table.Draw(&b.cur, chunk, sub, style, b.layout.MarginLeft, top, b.fonts, b.base)
		b.y = top - h
		if next < len(rows) {
			b.NewPage()
		}
	}
	b.y -= style.MarginBottom
}

func (b *Builder) placeholder(img element.Image) {
	b.block("", fmt.Sprintf("[Image: %s] (%s)", img.AltText(), img.Path), b.base, 0, font.Regular)
}

func (b *Builder) image(img element.Image) {
	if b.loadImage == nil {
		b.placeholder(img)
		return
	}
	info, ok := b.loaded[img.Path]
	if !ok {
		var err error
		info, err = b.loadImage(img.Path)
		if err != nil {
			logger.Debug("image not drawn", "path", img.Path, "err", err)
			b.placeholder(img)
			return
		}
		b.loaded[img.Path] = info
	}

	w, h := raster.ScaleToFit(info.Width, info.Height, b.layout.ContentWidth(), b.layout.ContentHeight())
	if b.maxDPI > 0 {
		small, err := raster.Downsample(info, b.maxDPI, w)
		if err != nil {
			logger.Debug("image not downsampled", "path", img.Path, "err", err)
		} else {
			info = small
			b.loaded[img.Path] = small
		}
	}
	info.WithAlt(img.Alt)

	top := b.graphic(h)
	name := b.imageName(info)
	b.cur.Image(name, b.layout.MarginLeft, top-h, w, h)
	b.below(top - h)
}

// imageName registers info on the active page and returns its resource
// name, reusing the name when the same image is drawn twice on a page.
func (b *Builder) imageName(info *raster.Info) string {
	for name, im := range b.images {
		if im == info {
			return name
		}
	}
	b.imageSeq++
	name := fmt.Sprintf("Im%d", b.imageSeq)
	if b.images == nil {
		b.images = make(map[string]*raster.Info)
	}
	b.images[name] = info
	return name
}

func (b *Builder) barcode(bc element.Barcode) {
	img, err := barcode.Encode(bc.Kind, bc.Data)
	if err != nil {
		logger.Debug("barcode not drawn", "kind", bc.Kind, "err", err)
		b.block("", fmt.Sprintf("[%s: %s]", bc.Kind, bc.Data), b.base, 0, font.Mono)
		return
	}
	w, h := barcode.Size(bc.Kind, img, b.layout.ContentWidth())
	h = min(h, b.layout.ContentHeight())
	b.EmitEmptyLine()
	top := b.graphic(h)
	barcode.Draw(&b.cur, img, b.layout.MarginLeft, top-h, w, h)
	b.below(top - h)
}
