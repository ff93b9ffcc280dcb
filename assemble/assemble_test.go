package assemble

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/layout"
	"github.com/lvillar/pdfcli/raster"
	"github.com/lvillar/pdfcli/writer"
)

var streams = [][]byte{
	[]byte("BT\n/F1 12 Tf\n1 0 0 1 72 720 Tm\n(one) Tj\nET\n"),
	[]byte("BT\n/F1 12 Tf\n1 0 0 1 72 720 Tm\n(two) Tj\nET\n"),
}

func objectNumbers(out []byte) []string {
	return regexp.MustCompile(`(?m)^(\d+) 0 obj$`).FindAllString(string(out), -1)
}

func TestPlainLayout(t *testing.T) {
	out, err := Plain(streams[:1], layout.Portrait(), "Times-Roman")
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "1 0 obj\n<< /Type /Font\n/Subtype /Type1\n/BaseFont /Times-Roman\n")
	assert.Contains(t, s, "2 0 obj\n<< /Type /Pages\n/Kids [4 0 R]\n/Count 1\n>>\n")
	assert.Contains(t, s, "4 0 obj\n<< /Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 612 792]\n/Contents 3 0 R\n/Resources << /Font << /F1 1 0 R >> >>\n>>\n")
	assert.Contains(t, s, "5 0 obj\n<< /Type /Catalog\n/Pages 2 0 R\n>>\n")
	assert.Contains(t, s, "/Root 5 0 R")
	assert.NotContains(t, s, "/Info")
}

func TestFamilyEmitsFontsOnce(t *testing.T) {
	out, err := Family(streams, layout.Landscape(), font.Times)
	require.NoError(t, err)
	s := string(out)

	assert.Equal(t, 5, strings.Count(s, "/Type /Font\n"))
	assert.Equal(t, 2, strings.Count(s, "/Type /Page\n"))
	assert.Equal(t, 2, strings.Count(s, "/Resources << /Font << /F1 1 0 R /F2 2 0 R /F3 3 0 R /F4 4 0 R /F5 5 0 R >> >>"))
	assert.Contains(t, s, "/MediaBox [0 0 792 612]")
	assert.Contains(t, s, "/BaseFont /Times-BoldItalic")
	assert.Contains(t, s, "/Kids [8 0 R 10 0 R]\n/Count 2")
}

func TestObjectIDsContiguous(t *testing.T) {
	info := Info{Title: "T", Custom: map[string]string{"Dept": "QA"}}
	out, err := WithMetadata(streams, layout.Portrait(), font.Helvetica, info)
	require.NoError(t, err)

	nums := objectNumbers(out)
	for i, n := range nums {
		assert.Equal(t, strconv.Itoa(i+1)+" 0 obj", n)
	}
	assert.Contains(t, string(out), "xref\n0 "+strconv.Itoa(len(nums)+1)+"\n")
	assert.Contains(t, string(out), "/Info 11 0 R")
	assert.Contains(t, string(out), "/Dept (QA)")
}

func TestRotation(t *testing.T) {
	out, err := Rotated(streams, layout.Portrait(), font.Helvetica, 90)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(out), "/Rotate 90\n"))

	_, err = Rotated(streams, layout.Portrait(), font.Helvetica, 45)
	assert.True(t, errors.Is(err, pdfcli.ErrUnsupported))

	for _, a := range []int{0, 90, 180, 270} {
		assert.NoError(t, ValidateRotation(a))
	}
	assert.Error(t, ValidateRotation(360))
}

func TestNoPages(t *testing.T) {
	_, err := Build(nil, Options{})
	assert.True(t, errors.Is(err, pdfcli.ErrRange))
}

func TestInfoDict(t *testing.T) {
	info := Info{Title: "Report (draft)", Author: "Ana"}
	info.SetCustom("Project X", "42")
	info.SetCustom("Producer", "ignored")

	d := info.Dict()
	assert.Equal(t, "<<\n/Title (Report \\(draft\\))\n/Author (Ana)\n/Producer (pdf-cli)\n/Project#20X (42)\n>>\n", d)

	assert.Equal(t, "<<\n/Producer (pdf-cli)\n>>\n", (&Info{}).Dict())
	assert.True(t, (&Info{}).IsEmpty())

	v, ok := info.RemoveCustom("Project X")
	assert.True(t, ok)
	assert.Equal(t, "42", v)
	_, ok = info.CustomField("Project X")
	assert.False(t, ok)
}

func TestInfoMerge(t *testing.T) {
	base := Info{Title: "Old", Author: "A", Custom: map[string]string{"k": "1", "j": "x"}}
	upd := Info{Title: "New", Custom: map[string]string{"k": "2"}}
	got := Merge(base, upd)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "A", got.Author)
	assert.Equal(t, map[string]string{"k": "2", "j": "x"}, got.Custom)
	assert.Equal(t, "1", base.Custom["k"])
}

func TestParseCustom(t *testing.T) {
	m, err := ParseCustom("dept=QA, rev = 3,,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dept": "QA", "rev": "3"}, m)

	_, err = ParseCustom("novalue")
	assert.True(t, errors.Is(err, pdfcli.ErrInvalidParam))
}

func TestInfoFromMap(t *testing.T) {
	info := InfoFromMap(map[string]string{"Title": "T", "Producer": "x", "Team": "ops"})
	assert.Equal(t, "T", info.Title)
	assert.Equal(t, map[string]string{"Team": "ops"}, info.Custom)
}

func TestAnnotationsAttachToTargetPage(t *testing.T) {
	a := writer.New()
	pages := FromStreams(streams, layout.Portrait())
	err := Attach(a, pages, []Annotation{
		{Kind: TextNote, X: 10, Y: 20, Width: 30, Height: 40, Contents: "note", Title: "me"},
		{Kind: LinkArea, Page: 2, X: 1, Y: 2, Width: 3, Height: 4, URL: "https://example.com"},
		{Kind: Highlight, Page: 2, X: 0, Y: 0, Width: 10, Height: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, []writer.Ref{1}, pages[0].Annots)
	assert.Equal(t, []writer.Ref{2, 3}, pages[1].Annots)

	_, err = Assemble(a, pages, Options{})
	require.NoError(t, err)
	out, err := a.Bytes()
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "/Subtype /Text\n/Rect [10 20 40 60]\n/Contents (note)\n/T (me)\n/Open false\n")
	assert.Contains(t, s, "/URI (https://example.com) >>")
	assert.Contains(t, s, "/C [1 1 0]\n/QuadPoints [0 5 10 5 0 0 10 0]\n")
	assert.Contains(t, s, "/Annots [1 0 R]\n")
	assert.Contains(t, s, "/Annots [2 0 R 3 0 R]\n")
}

func TestAnnotationErrors(t *testing.T) {
	pages := FromStreams(streams, layout.Portrait())
	err := Attach(writer.New(), pages, []Annotation{{Kind: TextNote, Page: 3}})
	assert.True(t, errors.Is(err, pdfcli.ErrRange))

	err = Attach(writer.New(), pages, []Annotation{{Kind: LinkArea}})
	assert.True(t, errors.Is(err, pdfcli.ErrInvalidParam))

	err = Attach(writer.New(), pages, []Annotation{{Kind: "stamp"}})
	assert.True(t, errors.Is(err, pdfcli.ErrUnsupported))
}

func TestParseAnnotations(t *testing.T) {
	annots, err := ParseAnnotations([]byte(`[{"kind":"link","page":1,"x":1,"y":2,"width":3,"height":4,"url":"u"}]`))
	require.NoError(t, err)
	require.Len(t, annots, 1)
	assert.Equal(t, LinkArea, annots[0].Kind)

	_, err = ParseAnnotations([]byte(`{`))
	assert.True(t, errors.Is(err, pdfcli.ErrFormat))
}

func TestFromLayoutSharesImages(t *testing.T) {
	img := &raster.Info{Format: raster.PNG, Width: 1, Height: 1, BitsPerComponent: 8, Components: 3, Data: []byte{1, 2, 3}}
	lp := []layout.Page{
		{Content: []byte("q Q"), Images: map[string]*raster.Info{"Im1": img}},
		{Content: []byte("q Q"), Images: map[string]*raster.Info{"Im1": img},
			Links: []layout.LinkArea{{Rect: [4]float64{72, 700, 172, 712}, URL: "https://go.dev"}}},
	}
	a := writer.New()
	pages := FromLayout(a, lp, layout.Portrait())
	assert.Equal(t, pages[0].XObjects["Im1"], pages[1].XObjects["Im1"])
	require.Len(t, pages[1].Annots, 1)

	_, err := Assemble(a, pages, Options{})
	require.NoError(t, err)
	out, err := a.Bytes()
	require.NoError(t, err)
	s := string(out)
	assert.Equal(t, 1, strings.Count(s, "/Subtype /Image"))
	assert.Equal(t, 2, strings.Count(s, "/XObject << /Im1 1 0 R >>"))
	assert.Contains(t, s, "/Rect [72 700 172 712]")
}

func TestFromLayoutImageOrder(t *testing.T) {
	build := func() string {
		images := make(map[string]*raster.Info)
		for i, name := range []string{"Im3", "Im1", "Im2", "Im4"} {
			images[name] = &raster.Info{Format: raster.PNG, Width: 1, Height: 1, BitsPerComponent: 8, Components: 3, Data: []byte{byte(i), 0, 0}}
		}
		a := writer.New()
		pages := FromLayout(a, []layout.Page{{Content: []byte("q Q"), Images: images}}, layout.Portrait())
		_, err := Assemble(a, pages, Options{})
		require.NoError(t, err)
		out, err := a.Bytes()
		require.NoError(t, err)
		return string(out)
	}
	first := build()
	assert.Contains(t, first, "/XObject << /Im1 1 0 R /Im2 2 0 R /Im3 3 0 R /Im4 4 0 R >>")
	for range 5 {
		assert.Equal(t, first, build())
	}
}

func TestTaggedCatalog(t *testing.T) {
	pages := FromStreams(streams, layout.Portrait())
	pages[0].Structure = []element.StructNode{element.Struct(element.Heading{Level: 1, Text: "Title"})}
	pages[1].Structure = []element.StructNode{element.Struct(element.Paragraph{Text: "body"})}

	out, err := Build(pages, Options{Tagged: true, Lang: "en-US", Title: "Doc"})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "/Lang (en-US)\n/MarkInfo << /Marked true >>\n/StructTreeRoot ")
	assert.Contains(t, s, "/ViewerPreferences << /DisplayDocTitle true >>")
	assert.Contains(t, s, "/Type /StructTreeRoot /K ")
	assert.Contains(t, s, "/S /H1 /P ")
	assert.Contains(t, s, "/Pg 8 0 R /ActualText (Title)")
	assert.Contains(t, s, "/Pg 10 0 R /ActualText (body)")
	assert.Contains(t, s, "/S /Document")
}

func TestAcroFormInCatalog(t *testing.T) {
	a := writer.New()
	form := a.Add("<< /Fields [] >>\n")
	_, err := Assemble(a, FromStreams(streams[:1], layout.Portrait()), Options{AcroForm: form})
	require.NoError(t, err)
	out, err := a.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "/AcroForm 1 0 R\n")
}

func TestName(t *testing.T) {
	assert.Equal(t, "/A#2FB#28c#29", Name("A/B(c)"))
	assert.Equal(t, "/Plain", Name("Plain"))
}
