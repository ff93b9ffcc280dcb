package reader

import (
	"math"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/lvillar/pdfcli/content"
)

// lineGap is the vertical movement, in user space units, that starts a new
// line in extracted text.
const lineGap = 2

// Text extracts the text shown on the page. Runs are joined in stream order;
// a vertical jump larger than lineGap starts a new line.
func (p *Page) Text() (string, error) {
	data, err := p.ContentStream()
	if err != nil {
		return "", err
	}
	return extractText(data, p.fontDecoder), nil
}

// ExtractText is an alias of Text.
func (p *Page) ExtractText() (string, error) { return p.Text() }

// ExtractText returns the text of every page, separated by newlines.
func (d *Document) ExtractText() (string, error) {
	var parts []string
	for _, p := range d.pages {
		t, err := p.Text()
		if err != nil {
			return "", err
		}
		parts = append(parts, t)
	}
	if len(parts) == 0 {
		// no page tree content; fall back to the loose text streams
		streams, err := d.PageStreams()
		if err != nil {
			return "", err
		}
		for _, s := range streams {
			parts = append(parts, extractText(s, nil))
		}
	}
	return strings.Join(parts, "\n"), nil
}

// extractText runs the content interpreter over data. decoder picks the
// decoding for a font resource; nil means raw bytes.
func extractText(data []byte, decoder func(font string) func([]byte) string) string {
	var sb strings.Builder
	started := false
	var lastY float64
	in := content.NewInterpreter(content.Funcs{OnText: func(run content.TextRun) {
		if started {
			if math.Abs(run.Y-lastY) > lineGap {
				sb.WriteByte('\n')
			} else if !endsWithSpace(&sb) {
				sb.WriteByte(' ')
			}
		}
		started = true
		lastY = run.Y
		dec := decodeBytes
		if decoder != nil {
			if f := decoder(run.Font); f != nil {
				dec = f
			}
		}
		sb.WriteString(dec(run.Text))
	}})
	in.Run(data)
	return strings.TrimSpace(sb.String())
}

func endsWithSpace(sb *strings.Builder) bool {
	s := sb.String()
	return s == "" || s[len(s)-1] == ' ' || s[len(s)-1] == '\n'
}

// fontDecoder returns the decoder for the font resource name, from its
// /Encoding or /BaseEncoding. /Differences are not applied.
func (p *Page) fontDecoder(name string) func([]byte) string {
	fonts, err := p.doc.resolveIfRef(p.Resources["Font"])
	if err != nil {
		return nil
	}
	fd, _ := fonts.(Dict)
	fo, err := p.doc.resolveIfRef(fd[Name(name)])
	if err != nil {
		return nil
	}
	font, _ := fo.(Dict)
	enc, err := p.doc.resolveIfRef(font["Encoding"])
	if err != nil {
		return nil
	}
	var encName Name
	switch e := enc.(type) {
	case Name:
		encName = e
	case Dict:
		encName = e.GetName("BaseEncoding")
	}
	switch encName {
	case "WinAnsiEncoding":
		return charmapDecoder(charmap.Windows1252)
	case "MacRomanEncoding":
		return charmapDecoder(charmap.Macintosh)
	}
	return nil
}

func charmapDecoder(cm *charmap.Charmap) func([]byte) string {
	return func(b []byte) string {
		if isUTF16BE(b) {
			return decodeUTF16BE(b[2:])
		}
		out, err := cm.NewDecoder().Bytes(b)
		if err != nil {
			return decodeBytes(b)
		}
		return string(out)
	}
}

// decodeBytes handles a UTF-16BE marked string and otherwise reads the bytes
// as UTF-8, replacing invalid sequences.
func decodeBytes(b []byte) string {
	if isUTF16BE(b) {
		return decodeUTF16BE(b[2:])
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

// decodeTextString decodes a text string outside a content stream: UTF-16BE
// with a byte order mark, UTF-8 with one, or else PDFDocEncoding, which
// agrees with Windows-1252 on the characters that matter here.
func decodeTextString(b []byte) string {
	switch {
	case isUTF16BE(b):
		return decodeUTF16BE(b[2:])
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		return strings.ToValidUTF8(string(b[3:]), "�")
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return decodeBytes(b)
	}
	return string(out)
}

func isUTF16BE(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF
}

func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = append(data[:len(data):len(data)], 0)
	}
	u := make([]uint16, len(data)/2)
	for i := range u {
		u[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return string(utf16.Decode(u))
}
