// Package content writes and interprets PDF content streams.
//
// Stream accumulates drawing operators for one page. Lexer and Interpreter
// go the other way: they tokenize an existing stream and replay it against a
// Handler, tracking the graphics and text state the operators imply.
package content

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/lvillar/pdfcli/writer"
)

// Stream is an operator buffer. The zero value is ready to use.
type Stream struct {
	buf bytes.Buffer
}

// Bytes returns the accumulated operators.
func (s *Stream) Bytes() []byte { return s.buf.Bytes() }

// Len reports the buffer size in bytes.
func (s *Stream) Len() int { return s.buf.Len() }

// Reset discards the buffer.
func (s *Stream) Reset() { s.buf.Reset() }

// Raw appends op verbatim followed by a newline.
func (s *Stream) Raw(op string) {
	s.buf.WriteString(op)
	s.buf.WriteByte('\n')
}

func (s *Stream) op(name string, nums ...float64) {
	for _, n := range nums {
		s.buf.WriteString(writer.Num(n))
		s.buf.WriteByte(' ')
	}
	s.buf.WriteString(name)
	s.buf.WriteByte('\n')
}

// BeginText emits BT.
func (s *Stream) BeginText() { s.Raw("BT") }

// EndText emits ET.
func (s *Stream) EndText() { s.Raw("ET") }

// Font selects a font resource: "/F1 12 Tf".
func (s *Stream) Font(resource string, size float64) {
	s.buf.WriteString(resource)
	s.buf.WriteByte(' ')
	s.op("Tf", size)
}

// TextMatrix sets the text matrix.
func (s *Stream) TextMatrix(a, b, c, d, e, f float64) { s.op("Tm", a, b, c, d, e, f) }

// TextAt positions the next text run absolutely with an identity matrix.
func (s *Stream) TextAt(x, y float64) { s.TextMatrix(1, 0, 0, 1, x, y) }

// TextMove moves the text line origin: "x y Td".
func (s *Stream) TextMove(x, y float64) { s.op("Td", x, y) }

// Show emits a Tj whose operand is text encoded to WinAnsi and escaped.
func (s *Stream) Show(text string) {
	s.buf.WriteByte('(')
	s.buf.WriteString(writer.Escape(EncodeWinAnsi(text)))
	s.buf.WriteString(") Tj\n")
}

// FillRGB sets the non-stroking color, components in [0,1].
func (s *Stream) FillRGB(r, g, b float64) { s.op("rg", r, g, b) }

// StrokeRGB sets the stroking color.
func (s *Stream) StrokeRGB(r, g, b float64) { s.op("RG", r, g, b) }

// Rect appends a rectangle subpath.
func (s *Stream) Rect(x, y, w, h float64) { s.op("re", x, y, w, h) }

// FillRect emits "x y w h re f".
func (s *Stream) FillRect(x, y, w, h float64) {
	s.buf.WriteString(writer.Num(x) + " " + writer.Num(y) + " " + writer.Num(w) + " " + writer.Num(h) + " re f\n")
}

// StrokeRect emits "x y w h re S".
func (s *Stream) StrokeRect(x, y, w, h float64) {
	s.buf.WriteString(writer.Num(x) + " " + writer.Num(y) + " " + writer.Num(w) + " " + writer.Num(h) + " re S\n")
}

// Fill paints the current path with the fill color.
func (s *Stream) Fill() { s.Raw("f") }

// Stroke strokes the current path.
func (s *Stream) Stroke() { s.Raw("S") }

// MoveTo begins a subpath.
func (s *Stream) MoveTo(x, y float64) { s.op("m", x, y) }

// LineTo appends a straight segment.
func (s *Stream) LineTo(x, y float64) { s.op("l", x, y) }

// Line strokes a single segment: "x1 y1 m x2 y2 l S".
func (s *Stream) Line(x1, y1, x2, y2 float64) {
	s.buf.WriteString(writer.Num(x1) + " " + writer.Num(y1) + " m " +
		writer.Num(x2) + " " + writer.Num(y2) + " l S\n")
}

// LineWidth sets the stroke width.
func (s *Stream) LineWidth(w float64) { s.op("w", w) }

// Concat multiplies the CTM: "a b c d e f cm".
func (s *Stream) Concat(a, b, c, d, e, f float64) { s.op("cm", a, b, c, d, e, f) }

// Do paints the named XObject.
func (s *Stream) Do(name string) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	s.Raw(name + " Do")
}

// Image paints an XObject scaled to w×h at (x,y) inside q/Q.
func (s *Stream) Image(name string, x, y, w, h float64) {
	s.Save()
	s.Concat(w, 0, 0, h, x, y)
	s.Do(name)
	s.Restore()
}

// Save pushes the graphics state.
func (s *Stream) Save() { s.Raw("q") }

// Restore pops the graphics state.
func (s *Stream) Restore() { s.Raw("Q") }

// EncodeWinAnsi maps text to WinAnsiEncoding bytes. Runes without a
// WinAnsi code become '?'.
func EncodeWinAnsi(text string) string {
	ascii := true
	for i := 0; i < len(text); i++ {
		if text[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return text
	}
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
		} else {
			out = append(out, '?')
		}
	}
	return string(out)
}
