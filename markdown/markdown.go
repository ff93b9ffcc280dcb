// Package markdown converts markdown source to document elements.
//
// Parsing is done by goldmark with the GFM table, task list, strikethrough
// and linkify extensions plus footnotes and definition lists. The AST is
// flattened into the element sequence the layout engine renders.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/lvillar/pdfcli/element"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.DefinitionList,
		extension.Footnote,
	),
)

// Parse converts markdown source to elements.
func Parse(src []byte) []element.Element {
	doc := md.Parser().Parse(text.NewReader(src))
	c := &converter{src: src, footnotes: make(map[int]string)}
	c.collectFootnotes(doc)
	c.blocks(doc, 0)
	return c.out
}

// ParseString is Parse for string input.
func ParseString(src string) []element.Element {
	return Parse([]byte(src))
}

// ToText renders markdown source as plain text.
func ToText(src []byte) string {
	return element.ToText(Parse(src))
}

type converter struct {
	src       []byte
	out       []element.Element
	footnotes map[int]string // index → label
}

func (c *converter) emit(e element.Element) {
	c.out = append(c.out, e)
}

func (c *converter) collectFootnotes(doc ast.Node) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fn, ok := n.(*east.Footnote); ok && entering {
			c.footnotes[fn.Index] = string(fn.Ref)
		}
		return ast.WalkContinue, nil
	})
}

// blocks converts the block children of parent. depth is the list nesting.
func (c *converter) blocks(parent ast.Node, depth int) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		spaced := c.block(n, depth)
		if spaced && n.NextSibling() != nil && parent.Kind() == ast.KindDocument {
			c.emit(element.EmptyLine{})
		}
	}
}

// block converts one block node and reports whether it should be followed
// by vertical space.
func (c *converter) block(n ast.Node, depth int) bool {
	switch n := n.(type) {
	case *ast.Heading:
		c.emit(element.Heading{Level: n.Level, Text: c.inlineText(n)})
		return false
	case *ast.Paragraph:
		return c.paragraph(n)
	case *ast.TextBlock:
		return c.paragraph(n)
	case *ast.List:
		c.list(n, depth)
	case *ast.FencedCodeBlock:
		c.fenced(n)
	case *ast.CodeBlock:
		c.emit(element.CodeBlock{Code: c.lines(n)})
	case *ast.Blockquote:
		c.quote(n, 1)
	case *ast.ThematicBreak:
		c.emit(element.HorizontalRule{})
		return false
	case *ast.HTMLBlock:
		html := c.lines(n)
		if n.HasClosure() {
			html += string(n.ClosureLine.Value(c.src))
		}
		if isPageBreak(html) {
			c.emit(element.PageBreak{})
		}
		return false
	case *east.Table:
		c.table(n)
	case *east.DefinitionList:
		c.definitions(n)
	case *east.FootnoteList:
		for fn := n.FirstChild(); fn != nil; fn = fn.NextSibling() {
			if f, ok := fn.(*east.Footnote); ok {
				c.emit(element.Footnote{Label: string(f.Ref), Text: strings.TrimSpace(c.flatText(f))})
			}
		}
	default:
		c.blocks(n, depth)
	}
	return true
}

func isPageBreak(html string) bool {
	s := strings.ToLower(strings.Join(strings.Fields(html), ""))
	return strings.Contains(s, "<!--pagebreak-->") || strings.Contains(s, "page-break-after:always") ||
		strings.Contains(s, "page-break-before:always")
}

func (c *converter) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(c.src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (c *converter) fenced(n *ast.FencedCodeBlock) {
	lang := strings.ToLower(string(n.Language(c.src)))
	code := c.lines(n)
	switch lang {
	case "math", "latex", "tex":
		c.emit(element.Math{Expr: strings.TrimSpace(code)})
	case string(element.QR), string(element.Code128), string(element.PDF417):
		c.emit(element.Barcode{Kind: element.BarcodeKind(lang), Data: strings.TrimSpace(code)})
	default:
		c.emit(element.CodeBlock{Language: lang, Code: code})
	}
}

func (c *converter) paragraph(n ast.Node) bool {
	raw := strings.TrimSpace(c.lines(n))
	switch {
	case raw == `\pagebreak` || raw == `\newpage`:
		c.emit(element.PageBreak{})
		return false
	case len(raw) > 4 && strings.HasPrefix(raw, "$$") && strings.HasSuffix(raw, "$$"):
		c.emit(element.Math{Expr: strings.TrimSpace(raw[2 : len(raw)-2])})
		return true
	}

	if only := n.FirstChild(); only != nil && only.NextSibling() == nil {
		switch l := only.(type) {
		case *ast.Image:
			c.emit(element.Image{Alt: c.inlineText(l), Path: string(l.Destination)})
			return true
		case *ast.Link:
			c.emit(element.Link{Text: c.inlineText(l), URL: string(l.Destination)})
			return true
		}
	}

	var segs []element.Segment
	for _, s := range c.segments(n, element.Segment{}) {
		segs = append(segs, splitMath(s)...)
	}
	if len(segs) == 1 && segs[0].Math {
		c.emit(element.Math{Expr: segs[0].Text, Inline: true})
		return true
	}
	plain := true
	for _, s := range segs {
		if s != (element.Segment{Text: s.Text}) {
			plain = false
			break
		}
	}
	if plain {
		var sb strings.Builder
		for _, s := range segs {
			sb.WriteString(s.Text)
		}
		c.emit(element.Paragraph{Text: sb.String()})
		return true
	}
	c.emit(element.RichParagraph{Segments: segs})
	return true
}

// segments flattens inline children into styled segments, merging adjacent
// runs with identical style.
func (c *converter) segments(parent ast.Node, style element.Segment) []element.Segment {
	var out []element.Segment
	add := func(s element.Segment) {
		if s.Text == "" {
			return
		}
		if n := len(out); n > 0 {
			last := out[n-1]
			lt, st := last.Text, s.Text
			last.Text, s.Text = "", ""
			if last == s {
				out[n-1].Text = lt + st
				return
			}
			s.Text = st
		}
		out = append(out, s)
	}
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			add(withText(style, string(n.Segment.Value(c.src))))
			if n.SoftLineBreak() || n.HardLineBreak() {
				add(withText(style, " "))
			}
		case *ast.String:
			add(withText(style, string(n.Value)))
		case *ast.Emphasis:
			st := style
			if n.Level >= 2 {
				st.Bold = true
			} else {
				st.Italic = true
			}
			for _, s := range c.segments(n, st) {
				add(s)
			}
		case *east.Strikethrough:
			st := style
			st.Strike = true
			for _, s := range c.segments(n, st) {
				add(s)
			}
		case *ast.CodeSpan:
			st := style
			st.Code = true
			add(withText(st, c.inlineText(n)))
		case *ast.Link:
			st := style
			st.Link = string(n.Destination)
			for _, s := range c.segments(n, st) {
				add(s)
			}
		case *ast.AutoLink:
			st := style
			st.Link = string(n.URL(c.src))
			add(withText(st, string(n.Label(c.src))))
		case *ast.Image:
			add(withText(style, "[Image: "+c.inlineText(n)+"]"))
		case *east.FootnoteLink:
			add(withText(style, "["+c.footnoteLabel(n.Index)+"]"))
		case *east.TaskCheckBox:
		case *ast.RawHTML:
		default:
			for _, s := range c.segments(n, style) {
				add(s)
			}
		}
	}
	return out
}

func withText(style element.Segment, s string) element.Segment {
	style.Text = s
	return style
}

// splitMath separates $...$ spans out of a text segment.
func splitMath(style element.Segment) []element.Segment {
	s := style.Text
	if strings.Count(s, "$") < 2 || style.Code {
		return []element.Segment{style}
	}
	var out []element.Segment
	for {
		i := strings.IndexByte(s, '$')
		if i < 0 {
			break
		}
		j := strings.IndexByte(s[i+1:], '$')
		if j <= 0 {
			break
		}
		if i > 0 {
			out = append(out, withText(style, s[:i]))
		}
		m := style
		m.Math = true
		m.Text = s[i+1 : i+1+j]
		out = append(out, m)
		s = s[i+2+j:]
	}
	if s != "" {
		out = append(out, withText(style, s))
	}
	return out
}

func (c *converter) footnoteLabel(index int) string {
	if l, ok := c.footnotes[index]; ok {
		return l
	}
	return "?"
}

// inlineText returns the plain text of an inline container.
func (c *converter) inlineText(n ast.Node) string {
	var sb strings.Builder
	for _, s := range c.segments(n, element.Segment{}) {
		sb.WriteString(s.Text)
	}
	return strings.TrimSpace(sb.String())
}

// flatText returns the plain text of any subtree, blocks separated by spaces.
func (c *converter) flatText(n ast.Node) string {
	if n.Type() == ast.TypeInline || n.Kind() == ast.KindParagraph || n.Kind() == ast.KindTextBlock ||
		n.Kind() == east.KindDefinitionTerm || n.Kind() == ast.KindHeading {
		return c.inlineText(n)
	}
	var parts []string
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		if t := c.flatText(ch); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (c *converter) list(l *ast.List, depth int) {
	num := l.Start
	if num == 0 {
		num = 1
	}
	for it := l.FirstChild(); it != nil; it = it.NextSibling() {
		item, ok := it.(*ast.ListItem)
		if !ok {
			continue
		}
		first := item.FirstChild()
		text := ""
		checked, task := false, false
		if first != nil {
			if cb, ok := first.FirstChild().(*east.TaskCheckBox); ok {
				task, checked = true, cb.IsChecked
			}
			if first.Kind() == ast.KindParagraph || first.Kind() == ast.KindTextBlock {
				text = c.inlineText(first)
			} else {
				first = nil
			}
		}
		switch {
		case task:
			c.emit(element.TaskItem{Checked: checked, Text: text, Depth: depth})
		case l.IsOrdered():
			c.emit(element.ListItem{Text: text, Depth: depth, Ordered: true, Number: num})
		default:
			c.emit(element.ListItem{Text: text, Depth: depth})
		}
		num++
		for ch := item.FirstChild(); ch != nil; ch = ch.NextSibling() {
			if ch == first {
				continue
			}
			if sub, ok := ch.(*ast.List); ok {
				c.list(sub, depth+1)
			} else {
				c.block(ch, depth)
			}
		}
	}
}

func (c *converter) quote(q *ast.Blockquote, depth int) {
	for ch := q.FirstChild(); ch != nil; ch = ch.NextSibling() {
		if inner, ok := ch.(*ast.Blockquote); ok {
			c.quote(inner, depth+1)
			continue
		}
		if t := c.flatText(ch); t != "" {
			c.emit(element.BlockQuote{Text: t, Depth: depth})
		}
	}
}

func (c *converter) table(t *east.Table) {
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var row element.TableRow
		_, row.Header = r.(*east.TableHeader)
		for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
			tc, ok := cell.(*east.TableCell)
			if !ok {
				continue
			}
			row.Cells = append(row.Cells, c.inlineText(tc))
			row.Alignments = append(row.Alignments, alignment(tc.Alignment))
		}
		c.emit(row)
	}
}

func alignment(a east.Alignment) element.Align {
	switch a {
	case east.AlignCenter:
		return element.Center
	case east.AlignRight:
		return element.Right
	}
	return element.Left
}

func (c *converter) definitions(dl *east.DefinitionList) {
	term := ""
	for ch := dl.FirstChild(); ch != nil; ch = ch.NextSibling() {
		switch ch.(type) {
		case *east.DefinitionTerm:
			term = c.inlineText(ch)
		case *east.DefinitionDescription:
			c.emit(element.Definition{Term: term, Definition: c.flatText(ch)})
		}
	}
}
