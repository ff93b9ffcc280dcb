package layout

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/raster"
)

func paragraphs(n int) []element.Element {
	elems := make([]element.Element, n)
	for i := range elems {
		elems[i] = element.Paragraph{Text: fmt.Sprintf("line %d", i)}
	}
	return elems
}

func render(elems []element.Element, opts ...Option) []Page {
	b := NewBuilder(Portrait(), 12, opts...)
	b.Render(elems)
	return b.Finish()
}

func TestPageLayout(t *testing.T) {
	p := Portrait()
	assert.Equal(t, 720.0, p.ContentTop())
	assert.Equal(t, 468.0, p.ContentWidth())
	require.NoError(t, p.Validate())

	l := Landscape()
	assert.Equal(t, 792.0, l.Width)
	assert.Equal(t, 612.0, l.Height)
	assert.Equal(t, l, ForOrientation(true))

	bad := PageLayout{Width: 100, Height: 100, MarginLeft: 60, MarginRight: 60, MarginTop: 10, MarginBottom: 10}
	assert.True(t, errors.Is(bad.Validate(), pdfcli.ErrInvalidParam))
}

func TestHeadingSize(t *testing.T) {
	want := []float64{24, 19.2, 15.6, 13.2, 12, 10.8, 10.8}
	for i, w := range want {
		assert.InDelta(t, w, HeadingSize(i+1, 12), 1e-9, "level %d", i+1)
	}
	assert.Equal(t, 16.0, LineHeight(12))
}

func TestPagination(t *testing.T) {
	// 16pt lines from y=720 while y-16 >= 72: 40 lines per page.
	assert.Len(t, render(paragraphs(40)), 1)
	assert.Len(t, render(paragraphs(41)), 2)
	assert.Len(t, render(paragraphs(100)), 3)
}

func TestPaginationRoundTripsEveryLine(t *testing.T) {
	pages := render(paragraphs(100))
	all := string(bytes.Join(Streams(pages), nil))
	for i := 0; i < 100; i++ {
		assert.Contains(t, all, fmt.Sprintf("(line %d) Tj", i))
	}
}

func TestFooter(t *testing.T) {
	pages := render(paragraphs(41))
	require.Len(t, pages, 2)
	assert.Contains(t, string(pages[0].Content), "BT\n/F1 9 Tf\n0 0 0 rg\n1 0 0 1 286 36 Tm\n(Page 1) Tj\nET\n")
	assert.Contains(t, string(pages[1].Content), "(Page 2) Tj")

	quiet := render(paragraphs(3), WithPageNumbers(false))
	assert.NotContains(t, string(quiet[0].Content), "Page 1")
}

func TestPagesBalanceTextObjects(t *testing.T) {
	elems := append(paragraphs(30),
		element.CodeBlock{Language: "go", Code: "func main() {}"},
		element.TableRow{Cells: []string{"a", "b"}, Header: true},
		element.TableRow{Cells: []string{"1", "2"}},
		element.HorizontalRule{},
		element.Barcode{Kind: element.QR, Data: "x"},
	)
	for _, p := range render(elems) {
		s := string(p.Content)
		assert.Equal(t, strings.Count(s, "BT\n"), strings.Count(s, "ET\n"))
		assert.Equal(t, strings.Count(s, "q\n"), strings.Count(s, "Q\n"))
	}
}

func TestHeadingCentered(t *testing.T) {
	pages := render([]element.Element{element.Heading{Level: 1, Text: "Hello"}})
	s := string(pages[0].Content)
	// 5 chars at 24pt: 60pt wide, centered in 468pt after one half line.
	assert.Contains(t, s, "/F2 24 Tf\n0 0 0 rg\n1 0 0 1 276 712 Tm\n(Hello) Tj\n")

	pages = render([]element.Element{element.Heading{Level: 2, Text: "Sub"}})
	assert.Contains(t, string(pages[0].Content), "1 0 0 1 72 712 Tm\n(Sub) Tj\n")
}

func TestParagraphWraps(t *testing.T) {
	long := strings.Repeat("word ", 40)
	pages := render([]element.Element{element.Paragraph{Text: long}})
	// 468 / 6 = 78 characters per line.
	assert.Equal(t, 3, strings.Count(string(pages[0].Content), "(word word"))
}

func TestListMarkers(t *testing.T) {
	pages := render([]element.Element{
		element.ListItem{Text: "a"},
		element.ListItem{Text: "b", Ordered: true, Number: 2, Depth: 1},
		element.TaskItem{Checked: true, Text: "c"},
	})
	s := string(pages[0].Content)
	assert.Contains(t, s, "(\x95) Tj")
	assert.Contains(t, s, "1 0 0 1 90 ")
	assert.Contains(t, s, "(2.) Tj")
	assert.Contains(t, s, "([x]) Tj")
}

func TestCodeBlock(t *testing.T) {
	pages := render([]element.Element{element.CodeBlock{Language: "go", Code: "func main() {\n\treturn 42 // done\n}"}})
	s := string(pages[0].Content)
	assert.Contains(t, s, "0.95 0.95 0.95 rg\n0.8 0.8 0.8 RG\n")
	assert.Contains(t, s, " re\nB\n")
	assert.Contains(t, s, "/F5 10.2 Tf\n0 0 0.6 rg\n")
	assert.Contains(t, s, "(func) Tj")
	assert.Contains(t, s, "0.6 0.3 0 rg\n")
	assert.Contains(t, s, "(// done) Tj")
}

func TestCodeBlockSplitsAcrossPages(t *testing.T) {
	var lines []string
	for i := 0; i < 120; i++ {
		lines = append(lines, fmt.Sprintf("x = %d", i))
	}
	pages := render([]element.Element{element.CodeBlock{Code: strings.Join(lines, "\n")}})
	require.Greater(t, len(pages), 1)
	for _, p := range pages {
		assert.Equal(t, 1, strings.Count(string(p.Content), " re\nB\n"))
	}
	all := string(bytes.Join(Streams(pages), nil))
	assert.Contains(t, all, "(x = 0) Tj")
	assert.Contains(t, all, "(x = 119) Tj")
}

func TestTable(t *testing.T) {
	pages := render([]element.Element{
		element.TableRow{Cells: []string{"Name", "Qty"}, Header: true},
		element.TableRow{Cells: []string{"Widget", "10"}, Alignments: []element.Align{element.Left, element.Right}},
		element.Paragraph{Text: "after"},
	})
	s := string(pages[0].Content)
	assert.Contains(t, s, "1.5 w\n")
	assert.Contains(t, s, "(Name) Tj")
	assert.Contains(t, s, "(Widget) Tj")
	assert.Contains(t, s, "(after) Tj")
	require.NotEmpty(t, pages[0].Structure)
	assert.Equal(t, element.StructTable, pages[0].Structure[0].Type)
}

func TestTableRepeatsHeader(t *testing.T) {
	elems := []element.Element{element.TableRow{Cells: []string{"H"}, Header: true}}
	for i := 0; i < 80; i++ {
		elems = append(elems, element.TableRow{Cells: []string{fmt.Sprintf("r%d", i)}})
	}
	pages := render(elems)
	require.Greater(t, len(pages), 1)
	for _, p := range pages {
		assert.Contains(t, string(p.Content), "(H) Tj")
	}
	all := string(bytes.Join(Streams(pages), nil))
	assert.Contains(t, all, "(r79) Tj")
}

func TestImagePlaceholder(t *testing.T) {
	pages := render([]element.Element{element.Image{Alt: "logo", Path: "x.png"}})
	assert.Contains(t, string(pages[0].Content), "([Image: logo] \\(x.png\\)) Tj")

	pages = render([]element.Element{element.Image{Path: "missing.png"}}, WithImages(raster.Load))
	assert.Contains(t, string(pages[0].Content), "([Image: Image] \\(missing.png\\)) Tj")
}

func TestImageDrawn(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	pages := render([]element.Element{
		element.Image{Alt: "pic", Path: path},
		element.Image{Alt: "pic", Path: path},
	}, WithImages(raster.Load))
	require.Len(t, pages[0].Images, 1)
	info := pages[0].Images["Im1"]
	require.NotNil(t, info)
	assert.Equal(t, "pic", info.AltText())
	s := string(pages[0].Content)
	assert.Equal(t, 2, strings.Count(s, "/Im1 Do"))
	assert.Contains(t, s, "20 0 0 10 72 ")
}

func TestBarcodeAndLink(t *testing.T) {
	pages := render([]element.Element{
		element.Barcode{Kind: element.QR, Data: "hello"},
		element.Link{Text: "site", URL: "https://example.com"},
	})
	s := string(pages[0].Content)
	assert.Contains(t, s, " re f\n")
	assert.Contains(t, s, "0 0 0.8 rg\n")
	assert.Contains(t, s, "(site) Tj")
	assert.Contains(t, s, "(\\(https://example.com\\)) Tj")
	require.Len(t, pages[0].Links, 2)
	assert.Equal(t, "https://example.com", pages[0].Links[0].URL)
}

func TestRichParagraph(t *testing.T) {
	pages := render([]element.Element{element.RichParagraph{Segments: []element.Segment{
		{Text: "plain "},
		{Text: "bold", Bold: true},
		{Text: " and "},
		{Text: "code", Code: true},
	}}})
	s := string(pages[0].Content)
	assert.Contains(t, s, "/F2 12 Tf\n0 0 0 rg\n1 0 0 1 108 720 Tm\n(bold) Tj")
	assert.Contains(t, s, "/F5 12 Tf\n0.4 0.4 0.4 rg\n")
}

func TestMathRendering(t *testing.T) {
	pages := render([]element.Element{element.Math{Expr: `\alpha \leq \frac{1}{2}`}})
	assert.Contains(t, string(pages[0].Content), "(alpha le \\(1\\)/\\(2\\)) Tj")
}

func TestHighlight(t *testing.T) {
	toks := Highlight("go", `return "hi" + 42 // done`)
	assert.Equal(t, []Token{
		{Keyword, "return"},
		{Plain, " "},
		{String, `"hi"`},
		{Plain, " + "},
		{Number, "42"},
		{Plain, " "},
		{Comment, "// done"},
	}, toks)

	toks = Highlight("py", "def f(): # c")
	assert.Equal(t, Keyword, toks[0].Kind)
	assert.Equal(t, Token{Comment, "# c"}, toks[len(toks)-1])

	toks = Highlight("sql", "select x from t -- all")
	assert.Equal(t, Token{Keyword, "select"}, toks[0])
	assert.Equal(t, Comment, toks[len(toks)-1].Kind)

	assert.Equal(t, []Token{{Plain, "func x"}}, Highlight("cobol", "func x"))
	assert.Equal(t, []Token{{String, `"open`}}, Highlight("go", `"open`))
}

func TestTransliterate(t *testing.T) {
	tests := []struct{ in, want string }{
		{`\frac{a}{b}`, "(a)/(b)"},
		{`\sqrt{x}`, "sqrt(x)"},
		{`\alpha + \beta`, "α + β"},
		{`\sum_{i=1}^{n} i`, "sum[i=1..n] i"},
		{`\lim_{x \to 0} f`, "lim[x → 0] f"},
		{`\int^{1} y`, "int[..1] y"},
		{`\sum x`, "sum x"},
		{`x^{2}`, "x^(2)"},
		{`x_{i}`, "x_(i)"},
		{`x^2`, "x^2"},
		{`\frac{\sqrt{a}}{2}`, "(sqrt(a))/(2)"},
		{`\mathbf{v}`, "v"},
		{`\foo{x}`, `\foo x`},
		{`E = mc^2`, "E = mc^2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Transliterate(tt.in), tt.in)
	}
}

func TestPrintable(t *testing.T) {
	assert.Equal(t, "alpha le beta", Printable("α ≤ β"))
	assert.Equal(t, "a × b", Printable("a × b"))
}
