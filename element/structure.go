package element

import (
	"fmt"

	"github.com/lvillar/pdfcli/writer"
)

// StructType is a tagged PDF standard structure type.
type StructType string

const (
	StructDocument   StructType = "Document"
	StructP          StructType = "P"
	StructLI         StructType = "LI"
	StructCode       StructType = "Code"
	StructBlockQuote StructType = "BlockQuote"
	StructTable      StructType = "Table"
	StructTR         StructType = "TR"
	StructNote       StructType = "Note"
	StructDiv        StructType = "Div"
	StructLink       StructType = "Link"
	StructFigure     StructType = "Figure"
	StructSpan       StructType = "Span"
	StructFormula    StructType = "Formula"
	StructNonStruct  StructType = "NonStruct"
)

// HeadingStruct returns H1..H6 for a heading level.
func HeadingStruct(level int) StructType {
	level = min(max(level, 1), 6)
	return StructType(fmt.Sprintf("H%d", level))
}

// StructNode is one structure element of the tag tree.
type StructNode struct {
	Type       StructType
	Alt        string
	ActualText string
}

// Struct maps e to its structure node.
func Struct(e Element) StructNode {
	switch e := e.(type) {
	case Heading:
		return StructNode{Type: HeadingStruct(e.Level), ActualText: e.Text}
	case Paragraph:
		return StructNode{Type: StructP, ActualText: e.Text}
	case RichParagraph:
		return StructNode{Type: StructP, ActualText: e.PlainText()}
	case ListItem:
		return StructNode{Type: StructLI, ActualText: e.Text}
	case TaskItem:
		return StructNode{Type: StructLI, ActualText: e.Text}
	case CodeBlock:
		return StructNode{Type: StructCode, ActualText: e.Code}
	case InlineCode:
		return StructNode{Type: StructCode, ActualText: e.Code}
	case BlockQuote:
		return StructNode{Type: StructBlockQuote, ActualText: e.Text}
	case TableRow:
		return StructNode{Type: StructTR}
	case Footnote:
		return StructNode{Type: StructNote, ActualText: e.Text}
	case Definition:
		return StructNode{Type: StructDiv, ActualText: e.Term + ": " + e.Definition}
	case Link:
		return StructNode{Type: StructLink, ActualText: fmt.Sprintf("%s (%s)", e.Text, e.URL)}
	case Image:
		return StructNode{Type: StructFigure, Alt: e.AltText()}
	case Barcode:
		return StructNode{Type: StructFigure, Alt: e.Data}
	case StyledText:
		return StructNode{Type: StructSpan, ActualText: e.Text}
	case Math:
		return StructNode{Type: StructFormula, Alt: e.Expr}
	}
	return StructNode{Type: StructNonStruct}
}

// Dict renders the StructElem dictionary with parent p. A non-zero pg
// names the page the element is drawn on.
func (n StructNode) Dict(p, pg writer.Ref) string {
	d := fmt.Sprintf("<< /Type /StructElem /S /%s /P %s", n.Type, p)
	if pg != 0 {
		d += " /Pg " + pg.String()
	}
	if n.Alt != "" {
		d += " /Alt " + writer.TextString(n.Alt)
	}
	if n.ActualText != "" {
		d += " /ActualText " + writer.TextString(n.ActualText)
	}
	return d + " >>\n"
}
