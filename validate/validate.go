// Package validate reports on the structural integrity of PDF files.
//
// A Report is a diagnostic, not an error: problems that make a file
// unusable are listed under Errors, oddities under Warnings.
package validate

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/reader"
)

// Report is the outcome of a validation.
type Report struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	PageCount   int      `json:"page_count"`
	ObjectCount int      `json:"object_count"`
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

var (
	pageRe   = regexp.MustCompile(`/Type\s*/Page(?:[^s]|$)`)
	objRe    = regexp.MustCompile(`\d+\s+\d+\s+obj\b`)
	endobjRe = regexp.MustCompile(`endobj`)
	rootRe   = regexp.MustCompile(`/Root\s+\d+\s+\d+\s+R`)
	streamRe = regexp.MustCompile(`\sstream\r?\n`)
)

// File validates the file at path.
func File(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("validate: %w: %v", pdfcli.ErrIO, err)
	}
	return Bytes(data), nil
}

// Bytes runs the textual structure checks on data.
func Bytes(data []byte) Report {
	r := Report{Errors: []string{}, Warnings: []string{}}

	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		r.errorf("Missing PDF header (%%PDF-x.x)")
	} else {
		version := headerVersion(data)
		if !bytes.HasPrefix(version, []byte("1.")) && !bytes.HasPrefix(version, []byte("2.")) {
			r.warnf("Unusual PDF version: %s", version)
		}
	}

	if !bytes.HasSuffix(bytes.TrimRight(data, " \t\r\n\x00"), []byte("%%EOF")) {
		r.errorf("Missing %%%%EOF marker at end of file")
	}

	hasXRef := bytes.Contains(data, []byte("\nxref\n")) || bytes.Contains(data, []byte("\nxref\r\n"))
	if !hasXRef {
		r.warnf("No traditional xref table found (may use xref stream)")
	}
	if !bytes.Contains(data, []byte("startxref")) {
		r.errorf("Missing startxref pointer")
	}
	hasTrailer := bytes.Contains(data, []byte("trailer"))
	if !hasTrailer && hasXRef {
		r.errorf("Missing trailer dictionary")
	}

	if !regexp.MustCompile(`/Type\s*/Catalog`).Match(data) {
		r.errorf("Missing document catalog (/Type /Catalog)")
	}
	if !regexp.MustCompile(`/Type\s*/Pages`).Match(data) {
		r.errorf("Missing pages tree (/Type /Pages)")
	}

	r.PageCount = len(pageRe.FindAllIndex(data, -1))
	if r.PageCount == 0 {
		r.errorf("No page objects found (/Type /Page)")
	}
	r.ObjectCount = len(objRe.FindAllIndex(data, -1))
	if r.ObjectCount == 0 {
		r.errorf("No PDF objects found")
	}
	if n := len(endobjRe.FindAllIndex(data, -1)); n != r.ObjectCount {
		r.warnf("Object/endobj mismatch: %d obj vs %d endobj", r.ObjectCount, n)
	}
	streams := len(streamRe.FindAllIndex(data, -1))
	if n := bytes.Count(data, []byte("endstream")); n != streams {
		r.warnf("Stream/endstream mismatch: %d stream vs %d endstream", streams, n)
	}

	if hasTrailer && !rootRe.Match(data) {
		r.errorf("Trailer missing /Root reference")
	}

	r.Valid = len(r.Errors) == 0
	return r
}

func headerVersion(data []byte) []byte {
	v := data[5:min(len(data), 10)]
	if i := bytes.IndexAny(v, "\r\n"); i >= 0 {
		v = v[:i]
	}
	return v
}

// Deep adds checks that need a parsed document: the page tree must load and
// its pages decode, a second importer must agree on the page count, and
// every signature must cover the whole file.
func Deep(data []byte) Report {
	r := Bytes(data)

	doc, err := reader.Load(data)
	if err != nil {
		r.errorf("Document does not parse: %v", err)
		r.Valid = false
		return r
	}
	if doc.Recovered() {
		r.warnf("Cross-reference data is damaged; objects were recovered by scanning")
	}
	if doc.NumPages() != r.PageCount {
		r.warnf("Page tree has %d pages but %d page objects were found", doc.NumPages(), r.PageCount)
	}
	for n, page := range doc.EachPage() {
		if _, err := page.ContentStream(); err != nil {
			r.errorf("Page %d content: %v", n, err)
		}
	}

	if !doc.IsEncrypted() && !doc.Recovered() {
		if probe, err := reader.Probe(data); err != nil {
			logger.Debug("probe failed", "err", err)
			r.warnf("Independent importer could not read the file: %v", err)
		} else if probe.Pages != doc.NumPages() {
			r.warnf("Independent importer sees %d pages, page tree has %d", probe.Pages, doc.NumPages())
		}
	}

	for _, sig := range Signatures(doc) {
		if !sig.CoversFile {
			r.warnf("Signature in object %d does not cover the whole file (ByteRange %v, file size %d)",
				sig.Object, sig.ByteRange, len(data))
		}
	}

	r.Valid = len(r.Errors) == 0
	return r
}
