package pageops_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
	"github.com/lvillar/pdfcli/document"
	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/pageops"
	"github.com/lvillar/pdfcli/reader"
	"github.com/lvillar/pdfcli/security"
)

// createTestPDF generates a document with numPages labeled pages.
func createTestPDF(t *testing.T, numPages int, label string) []byte {
	t.Helper()
	var elems []element.Element
	for i := 1; i <= numPages; i++ {
		if i > 1 {
			elems = append(elems, element.PageBreak{})
		}
		elems = append(elems, element.Paragraph{Text: fmt.Sprintf("%s page %d", label, i)})
	}
	cfg := pdfcli.NewDefaultConfig()
	cfg.PageNumbers = false
	data, err := document.Generate(elems, cfg)
	require.NoError(t, err)
	return data
}

func writeTestPDF(t *testing.T, dir, name string, numPages int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, createTestPDF(t, numPages, name), 0o644))
	return path
}

func writeTestPNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := range 4 {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
		img.Set(x, 1, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func load(t *testing.T, data []byte) *reader.Document {
	t.Helper()
	doc, err := reader.Load(data)
	require.NoError(t, err)
	return doc
}

func pageStreams(t *testing.T, data []byte) [][]byte {
	t.Helper()
	doc := load(t, data)
	var out [][]byte
	for n, p := range doc.EachPage() {
		s, err := p.ContentStream()
		require.NoError(t, err, "page %d", n)
		out = append(out, s)
	}
	return out
}

func pageText(t *testing.T, data []byte, n int) string {
	t.Helper()
	p, err := load(t, data).Page(n)
	require.NoError(t, err)
	text, err := p.Text()
	require.NoError(t, err)
	return text
}

func TestMerge(t *testing.T) {
	a := createTestPDF(t, 2, "alpha")
	b := createTestPDF(t, 3, "beta")

	merged, err := pageops.Merge(a, b)
	require.NoError(t, err)
	assert.Equal(t, 5, load(t, merged).NumPages())
	assert.Contains(t, pageText(t, merged, 1), "alpha page 1")
	assert.Contains(t, pageText(t, merged, 3), "beta page 1")
	assert.Contains(t, pageText(t, merged, 5), "beta page 3")
}

func TestMergeAdditivity(t *testing.T) {
	inputs := [][]byte{createTestPDF(t, 1, "a"), createTestPDF(t, 4, "b"), createTestPDF(t, 2, "c")}
	merged, err := pageops.Merge(inputs...)
	require.NoError(t, err)

	var want [][]byte
	for _, in := range inputs {
		want = append(want, pageStreams(t, in)...)
	}
	assert.Empty(t, cmp.Diff(want, pageStreams(t, merged)))
}

func TestMergeNoInputs(t *testing.T) {
	_, err := pageops.Merge()
	assert.ErrorIs(t, err, pdfcli.ErrRange)
	assert.ErrorContains(t, err, "no input files provided")
}

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	file1 := writeTestPDF(t, dir, "doc1.pdf", 2)
	file2 := writeTestPDF(t, dir, "doc2.pdf", 3)
	output := filepath.Join(dir, "merged.pdf")

	require.NoError(t, pageops.MergeFiles(output, file1, file2))
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 5, load(t, data).NumPages())
}

func TestSplit(t *testing.T) {
	data := createTestPDF(t, 5, "doc")

	out, err := pageops.Split(data, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, load(t, out).NumPages())
	assert.Contains(t, pageText(t, out, 1), "doc page 2")

	clamped, err := pageops.Split(data, 4, 99)
	require.NoError(t, err)
	assert.Equal(t, 2, load(t, clamped).NumPages())
}

func TestSplitErrors(t *testing.T) {
	data := createTestPDF(t, 3, "doc")
	tests := map[string]struct{ start, end int }{
		"zero start":       {0, 2},
		"zero end":         {1, 0},
		"start after end":  {3, 2},
		"start past total": {4, 5},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := pageops.Split(data, tc.start, tc.end)
			assert.ErrorIs(t, err, pdfcli.ErrRange)
		})
	}
}

func TestSplitToFiles(t *testing.T) {
	dir := t.TempDir()
	input := writeTestPDF(t, dir, "input.pdf", 3)
	outDir := filepath.Join(dir, "pages")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	paths, err := pageops.SplitToFiles(input, outDir, "")
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(outDir, "page_002.pdf"), paths[1])
	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, 1, load(t, data).NumPages())
	}
}

func TestExtractPages(t *testing.T) {
	data := createTestPDF(t, 3, "doc")
	out, err := pageops.ExtractPages(data, 3, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, load(t, out).NumPages())
	assert.Contains(t, pageText(t, out, 3), "doc page 1")

	_, err = pageops.ExtractPages(data, 4)
	assert.ErrorIs(t, err, pdfcli.ErrRange)
}

func TestRotate(t *testing.T) {
	data := createTestPDF(t, 3, "doc")

	out, err := pageops.Rotate(data, 90, 2)
	require.NoError(t, err)
	doc := load(t, out)
	var got []int
	for _, p := range doc.EachPage() {
		got = append(got, p.Rotate)
	}
	assert.Equal(t, []int{0, 90, 0}, got)

	again, err := pageops.Rotate(out, 270)
	require.NoError(t, err)
	got = got[:0]
	for _, p := range load(t, again).EachPage() {
		got = append(got, p.Rotate)
	}
	assert.Equal(t, []int{270, 0, 270}, got)
}

func TestRotateErrors(t *testing.T) {
	data := createTestPDF(t, 1, "doc")
	_, err := pageops.Rotate(data, 45)
	assert.ErrorIs(t, err, pdfcli.ErrUnsupported)
	_, err = pageops.Rotate(data, 90, 2)
	assert.ErrorIs(t, err, pdfcli.ErrRange)
}

func TestReorderKeepsStreams(t *testing.T) {
	data := createTestPDF(t, 3, "doc")
	orig := pageStreams(t, data)

	out, err := pageops.Reorder(data, []int{3, 1, 2})
	require.NoError(t, err)
	got := pageStreams(t, out)
	require.Len(t, got, 3)
	assert.Equal(t, orig[2], got[0])
	assert.Equal(t, orig[0], got[1])
	assert.Equal(t, orig[1], got[2])
}

func TestReorderErrors(t *testing.T) {
	data := createTestPDF(t, 2, "doc")
	_, err := pageops.Reorder(data, nil)
	assert.ErrorIs(t, err, pdfcli.ErrRange)
	_, err = pageops.Reorder(data, []int{1, 3})
	assert.ErrorIs(t, err, pdfcli.ErrRange)
}

func TestWatermark(t *testing.T) {
	data := createTestPDF(t, 2, "doc")
	out, err := pageops.Watermark(data, "CONFIDENTIAL", 48, 0.3)
	require.NoError(t, err)
	assert.Contains(t, string(out), "CONFIDENTIAL")

	streams := pageStreams(t, out)
	require.Len(t, streams, 2)
	for _, s := range streams {
		assert.Contains(t, string(s), "0.3 0.3 0.3 rg")
		assert.Contains(t, string(s), "/FOv 48 Tf")
		assert.Contains(t, string(s), "0.7071 0.7071 -0.7071 0.7071")
	}
	assert.Contains(t, pageText(t, out, 1), "doc page 1")
}

func TestWatermarkInvalid(t *testing.T) {
	data := createTestPDF(t, 1, "doc")
	_, err := pageops.Watermark(data, "", 48, 0.3)
	assert.ErrorIs(t, err, pdfcli.ErrInvalidParam)
	_, err = pageops.Watermark(data, "X", 48, 1.5)
	assert.ErrorIs(t, err, pdfcli.ErrInvalidParam)
}

func TestParsePosition(t *testing.T) {
	for _, name := range []string{"center", "top-left", "top_right", "Bottom-Left", "bottom-right", "topleft", "diagonal"} {
		_, err := pageops.ParsePosition(name)
		assert.NoError(t, err, name)
	}
	p, err := pageops.ParsePosition("bottom_center")
	require.NoError(t, err)
	assert.Equal(t, pageops.BottomCenter, p)
	assert.Equal(t, "bottom-center", p.String())

	_, err = pageops.ParsePosition("middle")
	assert.ErrorIs(t, err, pdfcli.ErrUnsupported)
}

func TestWatermarkAdvancedText(t *testing.T) {
	data := createTestPDF(t, 3, "doc")
	out, err := pageops.WatermarkAdvanced(data, pageops.WatermarkSpec{
		Text:     "DRAFT",
		Position: pageops.TopLeft,
		Opacity:  0.5,
		Pages:    []int{2},
	})
	require.NoError(t, err)

	streams := pageStreams(t, out)
	require.Len(t, streams, 3)
	assert.NotContains(t, string(streams[0]), "DRAFT")
	assert.Contains(t, string(streams[1]), "(DRAFT) Tj")
	assert.Contains(t, string(streams[1]), "72 720 Td")
	assert.Contains(t, string(streams[1]), "/GSOv gs")
	assert.Contains(t, string(out), "/ca 0.5")
}

func TestWatermarkAdvancedImage(t *testing.T) {
	dir := t.TempDir()
	img := writeTestPNG(t, dir)
	data := createTestPDF(t, 1, "doc")

	out, err := pageops.WatermarkAdvanced(data, pageops.WatermarkSpec{Image: img, Position: pageops.Center, Opacity: 1})
	require.NoError(t, err)
	streams := pageStreams(t, out)
	assert.Contains(t, string(streams[0]), "/ImOv Do")
	assert.Contains(t, string(out), "/Subtype /Image")
}

func TestWatermarkAdvancedInvalid(t *testing.T) {
	data := createTestPDF(t, 1, "doc")
	_, err := pageops.WatermarkAdvanced(data, pageops.WatermarkSpec{})
	assert.ErrorIs(t, err, pdfcli.ErrInvalidParam)
	_, err = pageops.WatermarkAdvanced(data, pageops.WatermarkSpec{Text: "X", Pages: []int{5}})
	assert.ErrorIs(t, err, pdfcli.ErrRange)
}

func TestOverlayImage(t *testing.T) {
	dir := t.TempDir()
	img := writeTestPNG(t, dir)
	data := createTestPDF(t, 2, "doc")

	out, err := pageops.OverlayImage(data, img, 100, 100, 200, 100, 1)
	require.NoError(t, err)
	for _, s := range pageStreams(t, out) {
		assert.Contains(t, string(s), "200 0 0 100 100 100 cm")
		assert.NotContains(t, string(s), "/GSOv gs")
	}

	faded, err := pageops.OverlayImage(data, img, 0, 0, 50, 50, 0.4)
	require.NoError(t, err)
	assert.Contains(t, string(pageStreams(t, faded)[0]), "/GSOv gs")

	_, err = pageops.OverlayImage(data, img, 0, 0, 0, 50, 1)
	assert.ErrorIs(t, err, pdfcli.ErrInvalidParam)
}

func TestAddPageNumbers(t *testing.T) {
	data := createTestPDF(t, 3, "doc")
	out, err := pageops.AddPageNumbers(data, pageops.PageNumberStyle{})
	require.NoError(t, err)
	assert.Contains(t, pageText(t, out, 2), "Page 2 of 3")

	custom, err := pageops.AddPageNumbers(data, pageops.PageNumberStyle{Format: "- %d -", Position: pageops.TopRight})
	require.NoError(t, err)
	assert.Contains(t, pageText(t, custom, 3), "- 3 -")
}

func TestMetadata(t *testing.T) {
	data, err := document.Generate([]element.Element{element.Paragraph{Text: "x"}}, nil,
		document.WithInfo(assemble.Info{Title: "Old", Author: "Ann"}))
	require.NoError(t, err)

	out, err := pageops.SetMetadata(data, assemble.Info{Title: "New", Custom: map[string]string{"Dept": "QA"}})
	require.NoError(t, err)
	info, err := pageops.Metadata(out)
	require.NoError(t, err)
	assert.Equal(t, "New", info.Title)
	assert.Equal(t, "Ann", info.Author)
	assert.Equal(t, map[string]string{"Dept": "QA"}, info.Custom)
}

func TestAnnotate(t *testing.T) {
	data := createTestPDF(t, 2, "doc")
	out, err := pageops.Annotate(data, []assemble.Annotation{
		{Kind: assemble.TextNote, Page: 1, X: 10, Y: 10, Width: 20, Height: 20, Contents: "note"},
		{Kind: assemble.LinkArea, Page: 2, X: 10, Y: 10, Width: 100, Height: 12, URL: "https://example.com"},
	})
	require.NoError(t, err)

	doc := load(t, out)
	p1, err := doc.Page(1)
	require.NoError(t, err)
	annots, err := p1.Annotations()
	require.NoError(t, err)
	require.Len(t, annots, 1)
	assert.Equal(t, "note", annots[0].Contents)

	p2, err := doc.Page(2)
	require.NoError(t, err)
	annots, err = p2.Annotations()
	require.NoError(t, err)
	require.Len(t, annots, 1)
	assert.Equal(t, "https://example.com", annots[0].URI)

	// annotations survive a later reassembly
	rotated, err := pageops.Rotate(out, 90)
	require.NoError(t, err)
	p1, err = load(t, rotated).Page(1)
	require.NoError(t, err)
	annots, err = p1.Annotations()
	require.NoError(t, err)
	assert.Len(t, annots, 1)

	_, err = pageops.Annotate(data, []assemble.Annotation{{Kind: assemble.TextNote, Page: 3}})
	assert.ErrorIs(t, err, pdfcli.ErrRange)
}

func TestAddImage(t *testing.T) {
	dir := t.TempDir()
	img := writeTestPNG(t, dir)
	out := filepath.Join(dir, "image.pdf")

	require.NoError(t, pageops.AddImageFile(out, img, 100, 100, 200, 200))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := load(t, data)
	require.Equal(t, 1, doc.NumPages())
	s := pageStreams(t, data)[0]
	assert.Contains(t, string(s), "200 0 0 200 100 100 cm")
	assert.Contains(t, string(s), "/Im1 Do")

	_, err = pageops.Images()
	assert.ErrorIs(t, err, pdfcli.ErrInvalidParam)
	_, err = pageops.AddImage(filepath.Join(dir, "missing.png"), 0, 0, 10, 10)
	assert.ErrorIs(t, err, pdfcli.ErrIO)
}

func TestProtectRoundTrip(t *testing.T) {
	data := createTestPDF(t, 2, "secret")
	for _, alg := range []security.Algorithm{security.RC4_128, security.AES128, security.AES256} {
		t.Run(alg.String(), func(t *testing.T) {
			sec := security.New().WithUserPassword("user").WithOwnerPassword("owner")
			sec.Algorithm = alg
			out, err := pageops.Protect(data, sec)
			require.NoError(t, err)
			assert.NotContains(t, string(out), "secret page 1")

			_, err = reader.LoadWithPassword(out, "wrong")
			assert.ErrorIs(t, err, pdfcli.ErrEncrypted)

			doc, err := reader.LoadWithPassword(out, "user")
			require.NoError(t, err)
			assert.True(t, doc.IsEncrypted())
			text, err := doc.ExtractText()
			require.NoError(t, err)
			assert.Contains(t, text, "secret page 2")

			plain, err := pageops.Unprotect(out, "owner")
			require.NoError(t, err)
			assert.False(t, load(t, plain).IsEncrypted())
			assert.Contains(t, pageText(t, plain, 1), "secret page 1")
		})
	}
}

func TestProtectWithoutPassword(t *testing.T) {
	data := createTestPDF(t, 1, "doc")
	out, err := pageops.Protect(data, security.New())
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestMarkdownWithMetadata(t *testing.T) {
	out, err := pageops.MarkdownWithMetadata([]byte("# Title\n\nBody"), assemble.Info{Title: "Report", Author: "Bo"}, nil)
	require.NoError(t, err)
	info, err := pageops.Metadata(out)
	require.NoError(t, err)
	assert.Equal(t, "Report", info.Title)
	assert.Equal(t, "Bo", info.Author)
}

func TestFileOperationsReportIO(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.pdf")
	err := pageops.RotateFile(missing, filepath.Join(dir, "out.pdf"), 90)
	assert.ErrorIs(t, err, pdfcli.ErrIO)
}
