package reader

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/writer"
)

// parser is a recursive descent parser over raw PDF bytes.
type parser struct {
	data []byte
	pos  int

	// length resolves an indirect /Length; nil means indirect lengths fall
	// back to scanning for endstream.
	length func(Reference) (int, bool)
}

func newParser(data []byte) *parser {
	return &parser{data: data}
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', 0:
			p.pos++
		case '%':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		default:
			return
		}
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' ||
		b == '[' || b == ']' || b == '{' || b == '}' ||
		b == '/' || b == '%'
}

func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

// readToken reads the next keyword or number.
func (p *parser) readToken() string {
	p.skipWhitespace()
	start := p.pos
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

func (p *parser) hasPrefix(s string) bool {
	return bytes.HasPrefix(p.data[p.pos:], []byte(s))
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("reader: %w: %s at offset %d", pdfcli.ErrFormat, fmt.Sprintf(format, args...), p.pos)
}

// ParseObject parses the next object at the current position.
func (p *parser) ParseObject() (Object, error) {
	p.skipWhitespace()
	if p.pos >= len(p.data) {
		return nil, io.ErrUnexpectedEOF
	}

	switch b := p.data[p.pos]; {
	case b == '<':
		if p.pos+1 < len(p.data) && p.data[p.pos+1] == '<' {
			return p.parseDict()
		}
		return p.parseHexString()
	case b == '(':
		return p.parseLiteralString()
	case b == '/':
		return p.parseName()
	case b == '[':
		return p.parseArray()
	case b == 't' || b == 'f':
		return p.parseBoolean()
	case b == 'n':
		return p.parseNull()
	case b >= '0' && b <= '9', b == '+', b == '-', b == '.':
		return p.parseNumberOrRef()
	default:
		return nil, p.errorf("unexpected character %q", b)
	}
}

func (p *parser) parseName() (Name, error) {
	if p.data[p.pos] != '/' {
		return "", p.errorf("expected name")
	}
	p.pos++

	var buf bytes.Buffer
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		if b == '#' && p.pos+2 < len(p.data) {
			hi, lo := unhex(p.data[p.pos+1]), unhex(p.data[p.pos+2])
			if hi >= 0 && lo >= 0 {
				buf.WriteByte(byte(hi<<4 | lo))
				p.pos += 3
				continue
			}
		}
		buf.WriteByte(b)
		p.pos++
	}
	return Name(buf.String()), nil
}

func (p *parser) parseBoolean() (Boolean, error) {
	switch tok := p.readToken(); tok {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, p.errorf("expected boolean, got %q", tok)
	}
}

func (p *parser) parseNull() (Null, error) {
	if tok := p.readToken(); tok != "null" {
		return Null{}, p.errorf("expected null, got %q", tok)
	}
	return Null{}, nil
}

// parseNumberOrRef parses a number or an indirect reference "N G R".
func (p *parser) parseNumberOrRef() (Object, error) {
	start := p.pos
	tok := p.readToken()

	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		after := p.pos
		p.skipWhitespace()
		if p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
			if gen, err := strconv.ParseInt(p.readToken(), 10, 64); err == nil {
				p.skipWhitespace()
				if p.pos < len(p.data) && p.data[p.pos] == 'R' &&
					(p.pos+1 == len(p.data) || !isRegular(p.data[p.pos+1])) {
					p.pos++
					return Reference{Number: int(n), Generation: int(gen)}, nil
				}
			}
		}
		p.pos = after
		return Integer(n), nil
	}

	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number %q", tok)
	}
	return Real(f), nil
}

// parseLiteralString isolates the literal body, honoring nesting and
// escapes, and then decodes it.
func (p *parser) parseLiteralString() (String, error) {
	p.pos++
	start := p.pos
	depth := 1
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case '\\':
			p.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				raw := p.data[start:p.pos]
				p.pos++
				return String{Value: UnescapeLiteral(raw)}, nil
			}
		}
		p.pos++
	}
	return String{}, p.errorf("unterminated literal string")
}

// UnescapeLiteral decodes the body of a literal string: \n \r \t \b \f
// \\ \( \), octal escapes of one to three digits and line continuations.
func UnescapeLiteral(raw []byte) []byte {
	return writer.Unescape(raw)
}

func (p *parser) parseHexString() (String, error) {
	p.pos++
	var buf bytes.Buffer
	hi := -1
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		p.pos++
		if b == '>' {
			if hi >= 0 {
				buf.WriteByte(byte(hi << 4))
			}
			return String{Value: buf.Bytes(), IsHex: true}, nil
		}
		if isWhitespace(b) {
			continue
		}
		v := unhex(b)
		if v < 0 {
			return String{}, p.errorf("invalid hex digit %q", b)
		}
		if hi < 0 {
			hi = v
		} else {
			buf.WriteByte(byte(hi<<4 | v))
			hi = -1
		}
	}
	return String{}, p.errorf("unterminated hex string")
}

func (p *parser) parseArray() (Array, error) {
	p.pos++
	arr := Array{}
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return nil, p.errorf("unterminated array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *parser) parseDict() (Dict, error) {
	p.pos += 2
	d := make(Dict)
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return nil, p.errorf("unterminated dictionary")
		}
		if p.hasPrefix(">>") {
			p.pos += 2
			return d, nil
		}
		if p.data[p.pos] != '/' {
			return nil, p.errorf("dictionary key is not a name")
		}
		key, err := p.parseName()
		if err != nil {
			return nil, err
		}
		val, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("reader: value of /%s: %w", key, err)
		}
		d[key] = val
	}
}

// ParseIndirectObject parses "N G obj ... endobj", including a stream body.
func (p *parser) ParseIndirectObject() (*IndirectObject, error) {
	num, err := strconv.Atoi(p.readToken())
	if err != nil {
		return nil, p.errorf("expected object number")
	}
	gen, err := strconv.Atoi(p.readToken())
	if err != nil {
		return nil, p.errorf("expected generation number")
	}
	if tok := p.readToken(); tok != "obj" {
		return nil, p.errorf("expected obj, got %q", tok)
	}

	val, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("reader: object %d %d: %w", num, gen, err)
	}

	p.skipWhitespace()
	if p.hasPrefix("stream") {
		dict, ok := val.(Dict)
		if !ok {
			return nil, p.errorf("stream object %d has no dictionary", num)
		}
		data, err := p.streamData(dict)
		if err != nil {
			return nil, fmt.Errorf("reader: object %d %d: %w", num, gen, err)
		}
		val = Stream{Dict: dict, Data: data}
	}

	p.skipWhitespace()
	if p.hasPrefix("endobj") {
		p.pos += len("endobj")
	}
	return &IndirectObject{Reference: Reference{Number: num, Generation: gen}, Value: val}, nil
}

// streamData reads the payload after the "stream" keyword. /Length is
// trusted when it lands on endstream; otherwise the payload runs to the next
// endstream keyword.
func (p *parser) streamData(dict Dict) ([]byte, error) {
	p.pos += len("stream")
	if p.pos < len(p.data) && p.data[p.pos] == '\r' {
		p.pos++
	}
	if p.pos < len(p.data) && p.data[p.pos] == '\n' {
		p.pos++
	}
	start := p.pos

	length := -1
	switch v := dict["Length"].(type) {
	case Integer:
		length = int(v)
	case Reference:
		if p.length != nil {
			if n, ok := p.length(v); ok {
				length = n
			}
		}
	}
	if length >= 0 && start+length <= len(p.data) {
		q := &parser{data: p.data, pos: start + length}
		q.skipWhitespace()
		if q.hasPrefix("endstream") {
			p.pos = q.pos + len("endstream")
			return p.data[start : start+length], nil
		}
	}

	end := bytes.Index(p.data[start:], []byte("endstream"))
	if end < 0 {
		return nil, p.errorf("stream without endstream")
	}
	data := bytes.TrimRight(p.data[start:start+end], "\r\n")
	p.pos = start + end + len("endstream")
	return data, nil
}

func unhex(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	default:
		return -1
	}
}
