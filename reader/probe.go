package reader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/phpdave11/gofpdi"

	pdfcli "github.com/lvillar/pdfcli"
)

// ProbeInfo is what an independent importer sees in a file.
type ProbeInfo struct {
	Pages      int
	MediaBoxes []Rectangle
}

// Probe reads data with the gofpdi importer. It serves as a second opinion
// on page count and sizes; the importer's panics are returned as errors.
// Files without a usable startxref trailer are rejected before the importer
// sees them.
func Probe(data []byte) (info ProbeInfo, err error) {
	if err := probeable(data); err != nil {
		return info, err
	}
	rs := io.ReadSeeker(bytes.NewReader(data))
	return probe(func(imp *gofpdi.Importer) { imp.SetSourceStream(&rs) })
}

// ProbeFile is Probe on a file.
func ProbeFile(path string) (ProbeInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProbeInfo{}, fmt.Errorf("reader: %w: %v", pdfcli.ErrIO, err)
	}
	return Probe(data)
}

// probeTail is how far from the end the importer looks for startxref.
const probeTail = 1500

// probeable reports whether the importer can locate the cross-reference
// table. The importer scans the last probeTail bytes for startxref and loops
// forever when the keyword or its offset is missing.
func probeable(data []byte) error {
	tail := data[max(0, len(data)-probeTail):]
	i := bytes.LastIndex(tail, []byte("startxref"))
	if i < 0 {
		return fmt.Errorf("reader: %w: probe: startxref not found", pdfcli.ErrFormat)
	}
	fields := bytes.Fields(tail[i+len("startxref"):])
	if len(fields) == 0 {
		return fmt.Errorf("reader: %w: probe: startxref has no offset", pdfcli.ErrFormat)
	}
	off, err := strconv.Atoi(string(fields[0]))
	if err != nil || off < 0 || off >= len(data) {
		return fmt.Errorf("reader: %w: probe: bad startxref offset %q", pdfcli.ErrFormat, fields[0])
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data[off:], " \t\r\n"), []byte("xref")) {
		return fmt.Errorf("reader: %w: probe: no xref table at offset %d", pdfcli.ErrFormat, off)
	}
	return nil
}

func probe(source func(*gofpdi.Importer)) (info ProbeInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reader: %w: probe: %v", pdfcli.ErrFormat, r)
		}
	}()
	imp := gofpdi.NewImporter()
	source(imp)
	sizes := imp.GetPageSizes()
	info.Pages = len(sizes)
	for n := 1; n <= info.Pages; n++ {
		box := sizes[n]["/MediaBox"]
		info.MediaBoxes = append(info.MediaBoxes, Rectangle{URX: box["w"], URY: box["h"]})
	}
	return info, nil
}
