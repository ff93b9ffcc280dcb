package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToText(t *testing.T) {
	elems := []Element{
		Heading{Level: 1, Text: "Title"},
		ListItem{Text: "one"},
		ListItem{Text: "two", Ordered: true, Number: 2, Depth: 1},
		TaskItem{Checked: true, Text: "done"},
		TaskItem{Text: "todo"},
		TableRow{Cells: []string{"a", "bb"}, Header: true},
		TableRow{Cells: []string{"1", "2"}},
		Footnote{Label: "1", Text: "note"},
		BlockQuote{Text: "deep", Depth: 2},
		Math{Expr: `x^2`},
		Image{Alt: "logo", Path: "l.png"},
		RichParagraph{Segments: []Segment{{Text: "a "}, {Text: "b", Bold: true}, {Text: " "}, {Text: "c", Code: true}}},
		EmptyLine{},
		HorizontalRule{},
	}
	want := "Title\n• one\n  2. two\n[x] done\n[ ] todo\n" +
		"a  bb  \n----  ----  \n1  2  \n" +
		"[1] note\n> > deep\n$$\nx^2\n$$\n[Image: logo] (l.png)\na b `c`\n---\n"
	assert.Equal(t, want, ToText(elems))
}

func TestStruct(t *testing.T) {
	assert.Equal(t, StructType("H1"), Struct(Heading{Level: 1}).Type)
	assert.Equal(t, StructType("H6"), Struct(Heading{Level: 9}).Type)
	assert.Equal(t, StructFigure, Struct(Image{}).Type)
	assert.Equal(t, "Image", Struct(Image{}).Alt)
	assert.Equal(t, StructNonStruct, Struct(PageBreak{}).Type)

	n := Struct(Paragraph{Text: "p(1)"})
	assert.Equal(t, "<< /Type /StructElem /S /P /P 3 0 R /ActualText (p\\(1\\)) >>\n", n.Dict(3, 0))
}

func TestAlignString(t *testing.T) {
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "center", Center.String())
	assert.Equal(t, "right", Right.String())
}
