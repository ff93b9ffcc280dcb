package element

import (
	"fmt"
	"strings"
)

// ToText renders elements back to plain text, one block per line.
func ToText(elems []Element) string {
	var sb strings.Builder
	for _, e := range elems {
		writeText(&sb, e)
	}
	return sb.String()
}

func writeText(sb *strings.Builder, e Element) {
	switch e := e.(type) {
	case Heading:
		sb.WriteString(e.Text + "\n")
	case Paragraph:
		sb.WriteString(e.Text + "\n")
	case RichParagraph:
		for _, s := range e.Segments {
			switch {
			case s.Code:
				sb.WriteString("`" + s.Text + "`")
			case s.Link != "":
				fmt.Fprintf(sb, "[%s](%s)", s.Text, s.Link)
			case s.Math:
				sb.WriteString("$" + s.Text + "$")
			default:
				sb.WriteString(s.Text)
			}
		}
		sb.WriteByte('\n')
	case ListItem:
		sb.WriteString(strings.Repeat("  ", e.Depth))
		if e.Ordered {
			fmt.Fprintf(sb, "%d. ", e.Number)
		} else {
			sb.WriteString("• ")
		}
		sb.WriteString(e.Text + "\n")
	case TaskItem:
		sb.WriteString(strings.Repeat("  ", e.Depth))
		if e.Checked {
			sb.WriteString("[x] ")
		} else {
			sb.WriteString("[ ] ")
		}
		sb.WriteString(e.Text + "\n")
	case CodeBlock:
		sb.WriteString("\n" + e.Code + "\n\n")
	case TableRow:
		sb.WriteString(strings.Join(e.Cells, "  ") + "  \n")
		if e.Header {
			sep := make([]string, len(e.Cells))
			for i, c := range e.Cells {
				sep[i] = strings.Repeat("-", max(len(c), 4))
			}
			sb.WriteString(strings.Join(sep, "  ") + "  \n")
		}
	case Definition:
		sb.WriteString(e.Term + ": " + e.Definition + "\n")
	case Footnote:
		fmt.Fprintf(sb, "[%s] %s\n", e.Label, e.Text)
	case BlockQuote:
		sb.WriteString(strings.Repeat("> ", max(e.Depth, 1)) + e.Text + "\n")
	case InlineCode:
		sb.WriteString(e.Code + "\n")
	case Link:
		fmt.Fprintf(sb, "%s (%s)\n", e.Text, e.URL)
	case Image:
		fmt.Fprintf(sb, "[Image: %s] (%s)\n", e.Alt, e.Path)
	case StyledText:
		sb.WriteString(e.Text + "\n")
	case Math:
		if e.Inline {
			sb.WriteString("$" + e.Expr + "$\n")
		} else {
			sb.WriteString("$$\n" + e.Expr + "\n$$\n")
		}
	case Barcode:
		fmt.Fprintf(sb, "[%s: %s]\n", e.Kind, e.Data)
	case PageBreak:
		sb.WriteString("\n---\n")
	case HorizontalRule:
		sb.WriteString("---\n")
	case EmptyLine:
	}
}
