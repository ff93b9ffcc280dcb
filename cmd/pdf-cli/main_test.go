package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/pdfcli/reader"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errb bytes.Buffer
	code = run(args, nil, &out, &errb)
	return code, out.String(), errb.String()
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	code, out, errOut := runCLI(t, args...)
	require.Equal(t, 0, code, "pdf-cli %s: %s", strings.Join(args, " "), errOut)
	return out
}

func pageTexts(t *testing.T, path string) []string {
	t.Helper()
	doc, err := reader.Open(path)
	require.NoError(t, err)
	var out []string
	for _, p := range doc.EachPage() {
		text, err := p.Text()
		require.NoError(t, err)
		out = append(out, text)
	}
	return out
}

func writeMarkdown(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "in.md")
	src := "# One\n\nfirst\n\n<!--pagebreak-->\n\n# Two\n\nsecond\n\n<!--pagebreak-->\n\n# Three\n\nthird\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestUsage(t *testing.T) {
	code, out, _ := runCLI(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "watermark-advanced")

	code, _, errOut := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: pdf-cli")

	code, _, errOut = runCLI(t, "bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "bogus"`)

	code, out, _ = runCLI(t, "-version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "pdf-cli dev")
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing output", []string{"merge", "a.pdf", "b.pdf"}, "--output is required"},
		{"too few args", []string{"extract"}, "expected at least 1 arguments"},
		{"extra args", []string{"extract", "a.pdf", "b.pdf"}, `unexpected argument "b.pdf"`},
		{"unknown flag", []string{"split", "a.pdf", "--bogus"}, "flag provided but not defined"},
		{"bad page list", []string{"reorder", "a.pdf", "-o", filepath.Join(dir, "x.pdf"), "--pages", "1,x"}, `invalid page number "x"`},
		{"no watermark content", []string{"watermark-advanced", "a.pdf", "-o", "x.pdf"}, "either --text or --image"},
		{"no password", []string{"protect", "a.pdf", "-o", "x.pdf"}, "at least one of --user-password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestFailureExitStatus(t *testing.T) {
	code, _, errOut := runCLI(t, "extract", filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "pdf-cli extract: ")
	assert.Contains(t, errOut, "i/o failure")

	code, _, errOut = runCLI(t, "md-to-pdf", "a.md", "b.pdf", "--font", "Comic Sans")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid parameter")
}

func TestCreateAndExtract(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "made.pdf")
	mustRun(t, "create", out, "hello\n\nworld", "--font", "times", "--landscape")

	text := mustRun(t, "extract", out)
	assert.Contains(t, text, "Extracted text:")
	assert.Contains(t, text, "hello")
	assert.Contains(t, text, "world")

	md := filepath.Join(dir, "made.md")
	mustRun(t, "pdf-to-md", out, md)
	got, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(got), "hello")

	info := mustRun(t, "info", out, "--json")
	var summary infoSummary
	require.NoError(t, json.Unmarshal([]byte(info), &summary))
	assert.Equal(t, 1, summary.Pages)
	require.Len(t, summary.PageSizes, 1)
	assert.Greater(t, summary.PageSizes[0].Width, summary.PageSizes[0].Height)
}

func TestPageCommands(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.pdf")
	mustRun(t, "md-to-pdf", writeMarkdown(t, dir), doc)
	require.Len(t, pageTexts(t, doc), 3)

	merged := filepath.Join(dir, "merged.pdf")
	mustRun(t, "merge", doc, doc, "-o", merged)
	assert.Len(t, pageTexts(t, merged), 6)

	split := filepath.Join(dir, "split.pdf")
	mustRun(t, "split", doc, "--output", split, "--start", "2", "--end", "3")
	texts := pageTexts(t, split)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "second")

	reordered := filepath.Join(dir, "reordered.pdf")
	mustRun(t, "reorder", doc, "-o", reordered, "--pages", "3, 1")
	texts = pageTexts(t, reordered)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "third")
	assert.Contains(t, texts[1], "first")

	rotated := filepath.Join(dir, "rotated.pdf")
	mustRun(t, "rotate", doc, "-o", rotated, "--angle", "90", "--pages", "2")
	rdoc, err := reader.Open(rotated)
	require.NoError(t, err)
	p1, err := rdoc.Page(1)
	require.NoError(t, err)
	p2, err := rdoc.Page(2)
	require.NoError(t, err)
	assert.Equal(t, 0, p1.Rotate)
	assert.Equal(t, 90, p2.Rotate)

	pagesDir := filepath.Join(dir, "pages")
	out := mustRun(t, "split", doc, "--dir", pagesDir)
	assert.Contains(t, out, "into 3 files")
}

func TestStampingCommands(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.pdf")
	mustRun(t, "md-to-pdf", writeMarkdown(t, dir), doc)

	marked := filepath.Join(dir, "marked.pdf")
	mustRun(t, "watermark", doc, "-o", marked, "--text", "DRAFT")
	assert.Contains(t, pageTexts(t, marked)[1], "DRAFT")

	adv := filepath.Join(dir, "adv.pdf")
	mustRun(t, "watermark-advanced", doc, "-o", adv, "--text", "SECRET", "--position", "topleft", "--pages", "1")
	texts := pageTexts(t, adv)
	assert.Contains(t, texts[0], "SECRET")
	assert.NotContains(t, texts[1], "SECRET")

	numbered := filepath.Join(dir, "numbered.pdf")
	mustRun(t, "page-numbers", doc, "-o", numbered, "--format", "%d/%d", "--position", "top-right")
	assert.Contains(t, pageTexts(t, numbered)[2], "3/3")

	code, _, errOut := runCLI(t, "watermark-advanced", doc, "-o", adv, "--text", "X", "--position", "middle")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "middle")
}

func TestMetadataCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "meta.pdf")
	mustRun(t, "md-to-pdf-meta", writeMarkdown(t, dir), out,
		"--title", "Report", "--author", "Ops", "--custom", "Project=Apollo, bad, Team=Core")

	doc, err := reader.Open(out)
	require.NoError(t, err)
	meta := doc.Metadata()
	assert.Equal(t, "Report", meta["Title"])
	assert.Equal(t, "Ops", meta["Author"])
	assert.Equal(t, "pdf-cli", meta["Creator"])
	assert.Equal(t, "Apollo", meta["Project"])
	assert.Equal(t, "Core", meta["Team"])
	assert.NotContains(t, meta, "bad")

	updated := filepath.Join(dir, "updated.pdf")
	mustRun(t, "set-metadata", out, "-o", updated, "--title", "Final", "--custom", "Stage=Done")
	doc, err = reader.Open(updated)
	require.NoError(t, err)
	meta = doc.Metadata()
	assert.Equal(t, "Final", meta["Title"])
	assert.Equal(t, "Done", meta["Stage"])
}

func TestAnnotateCommand(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.pdf")
	mustRun(t, "create", doc, "see note")
	annots := filepath.Join(dir, "annots.json")
	require.NoError(t, os.WriteFile(annots, []byte(`[
		{"kind":"text","page":1,"x":72,"y":700,"width":20,"height":20,"contents":"check this"},
		{"kind":"link","page":1,"x":72,"y":600,"width":100,"height":12,"url":"https://example.com"}
	]`), 0o644))
	out := filepath.Join(dir, "annotated.pdf")
	mustRun(t, "annotate", doc, "-o", out, "--annotations", annots)

	rdoc, err := reader.Open(out)
	require.NoError(t, err)
	p, err := rdoc.Page(1)
	require.NoError(t, err)
	list, err := p.Annotations()
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestProtectUnprotect(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.pdf")
	mustRun(t, "create", doc, "classified")

	locked := filepath.Join(dir, "locked.pdf")
	out := mustRun(t, "protect", doc, "-o", locked, "--user-password", "pw", "--algorithm", "aes-128", "--allow-print")
	assert.Contains(t, out, "aes-128")

	_, err := reader.Open(locked)
	require.Error(t, err)

	code, _, _ := runCLI(t, "unprotect", locked, "-o", filepath.Join(dir, "fail.pdf"), "--password", "wrong")
	assert.Equal(t, 1, code)

	plain := filepath.Join(dir, "plain.pdf")
	mustRun(t, "unprotect", locked, "-o", plain, "--password", "pw")
	assert.Contains(t, pageTexts(t, plain)[0], "classified")

	code, _, errOut := runCLI(t, "protect", doc, "-o", locked, "--owner-password", "o", "--algorithm", "des")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "des")
}

func TestFormCommands(t *testing.T) {
	dir := t.TempDir()
	fields := filepath.Join(dir, "fields.json")
	require.NoError(t, os.WriteFile(fields, []byte(`[
		{"name":"name","type":"text","x":100,"y":700,"width":200,"height":20},
		{"name":"agree","type":"checkbox","x":100,"y":650,"width":15,"height":15}
	]`), 0o644))

	formPDF := filepath.Join(dir, "form.pdf")
	out := mustRun(t, "create-form", formPDF, "Application", "--fields", fields)
	assert.Contains(t, out, "2 form fields")

	filled := filepath.Join(dir, "filled.pdf")
	mustRun(t, "fill-form", formPDF, "-o", filled, "--set", "name=Ada", "--set", "agree=Yes")
	info := mustRun(t, "info", filled)
	assert.Contains(t, info, `Field:      name (Tx) = "Ada"`)

	flat := filepath.Join(dir, "flat.pdf")
	mustRun(t, "flatten", filled, "-o", flat)
	assert.Contains(t, pageTexts(t, flat)[0], "Ada")

	code, _, _ := runCLI(t, "fill-form", formPDF, "-o", filled)
	assert.Equal(t, 2, code)
}

func TestValidateCommands(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pdf")
	mustRun(t, "create", good, "fine")
	bad := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("%PDF-1.4\ngarbage"), 0o644))

	out := mustRun(t, "validate", good, "--deep")
	assert.Contains(t, out, "good.pdf: valid")

	code, out, _ := runCLI(t, "validate", bad, "--json")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, `"valid": false`)

	code, out, errOut := runCLI(t, "batch-validate", good, bad, "--workers", "2")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "good.pdf: valid")
	assert.Contains(t, out, "bad.pdf: INVALID")
	assert.Contains(t, errOut, "1 of 2 files failed validation")
}

func TestTemplateCommand(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "invoice.json")
	require.NoError(t, os.WriteFile(tpl, []byte(`{
		"title": "Invoice",
		"elements": [
			{"type": "heading", "text": "Invoice #7", "level": 1},
			{"type": "paragraph", "text": "Due on receipt"}
		]
	}`), 0o644))
	out := filepath.Join(dir, "invoice.pdf")
	mustRun(t, "template", tpl, out)
	assert.Contains(t, pageTexts(t, out)[0], "Due on receipt")
}

func TestParsePairs(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "d": "e=f"}, parsePairs("a=1, b = 2,=x,c,,d=e=f"))
}

func TestParseList(t *testing.T) {
	got, err := parseList(" 3,1, 2,")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, got)

	got, err = parseList("")
	require.NoError(t, err)
	assert.Empty(t, got)
}
