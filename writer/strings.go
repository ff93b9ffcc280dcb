package writer

import (
	"fmt"
	"strings"
	"unicode/utf16"

	pdfcli "github.com/lvillar/pdfcli"
)

// Escape escapes s for use inside a literal string "( ... )".
func Escape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case '(':
			sb.WriteString(`\(`)
		case ')':
			sb.WriteString(`\)`)
		case '\r':
			sb.WriteString(`\r`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Literal returns s escaped and wrapped in parentheses.
func Literal(s string) string {
	return "(" + Escape(s) + ")"
}

// Unescape decodes the body of a literal string (without the outer
// parentheses). Octal escapes take one to three digits; a backslash before
// an end of line is a line continuation; unknown escapes drop the backslash.
func Unescape(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out = append(out, c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
		default:
			if e >= '0' && e <= '7' {
				v := 0
				j := 0
				for ; j < 3 && i+j < len(s) && s[i+j] >= '0' && s[i+j] <= '7'; j++ {
					v = v*8 + int(s[i+j]-'0')
				}
				i += j - 1
				out = append(out, byte(v))
			} else {
				out = append(out, e)
			}
		}
	}
	return out
}

const hexDigits = "0123456789ABCDEF"

// EncodeHex renders data as upper-case hex digits without delimiters.
func EncodeHex(data []byte) string {
	out := make([]byte, len(data)*2)
	for i, b := range data {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0x0f]
	}
	return string(out)
}

// DecodeHex parses hex digits, ignoring surrounding whitespace. A trailing
// unpaired digit is dropped.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	out := make([]byte, 0, len(s)/2)
	for i := 0; i+1 < len(s); i += 2 {
		hi, ok1 := unhex(s[i])
		lo, ok2 := unhex(s[i+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("writer: %w: invalid hex string: %s", pdfcli.ErrFormat, s[i:i+2])
		}
		out = append(out, hi<<4|lo)
	}
	return out, nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// encryptStrings rewrites every literal and hex string in a dictionary body
// as a hex string of fn applied to its decoded bytes.
func encryptStrings(body string, fn func([]byte) []byte) string {
	if !strings.ContainsAny(body, "(<") {
		return body
	}
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '(':
			end := literalEnd(body, i)
			if end < 0 {
				sb.WriteString(body[i:])
				return sb.String()
			}
			raw := Unescape([]byte(body[i+1 : end]))
			sb.WriteString("<" + EncodeHex(fn(raw)) + ">")
			i = end
		case c == '<' && i+1 < len(body) && body[i+1] == '<':
			sb.WriteString("<<")
			i++
		case c == '<':
			end := strings.IndexByte(body[i:], '>')
			if end < 0 {
				sb.WriteString(body[i:])
				return sb.String()
			}
			digits := strings.Join(strings.Fields(body[i+1:i+end]), "")
			if len(digits)%2 == 1 {
				digits += "0"
			}
			raw, err := DecodeHex(digits)
			if err != nil {
				sb.WriteString(body[i : i+end+1])
			} else {
				sb.WriteString("<" + EncodeHex(fn(raw)) + ">")
			}
			i += end
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// literalEnd returns the index of the parenthesis closing the literal string
// opened at body[start], honoring nesting and escapes, or -1.
func literalEnd(body string, start int) int {
	depth := 0
	for i := start; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// TextString renders s as a PDF text string: a literal when s is ASCII,
// otherwise UTF-16BE with a byte order mark in hex form.
func TextString(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			units := utf16.Encode([]rune(s))
			b := make([]byte, 2, 2+2*len(units))
			b[0], b[1] = 0xFE, 0xFF
			for _, u := range units {
				b = append(b, byte(u>>8), byte(u))
			}
			return "<" + EncodeHex(b) + ">"
		}
	}
	return Literal(s)
}
