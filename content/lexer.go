package content

import (
	"bytes"
	"strconv"

	"github.com/lvillar/pdfcli/writer"
)

// Kind classifies a token.
type Kind int

const (
	KindOperator Kind = iota
	KindNumber
	KindString
	KindName
	KindBool
	KindNull
	KindArray
	KindDict
)

// Token is one operand or operator of a content stream. Strings hold the
// decoded bytes of literal and hex strings; Array holds array elements and,
// for dictionaries, alternating keys and values.
type Token struct {
	Kind  Kind
	Num   float64
	Str   []byte
	Name  string // name without the slash, or operator keyword
	Bool  bool
	Array []Token
}

// Lexer splits a content stream into tokens.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer returns a lexer over data.
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
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

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.data) {
		switch l.data[l.pos] {
		case ' ', '\t', '\n', '\r', '\f', 0:
			l.pos++
		case '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

// Next returns the next token. ok is false at end of input.
func (l *Lexer) Next() (tok Token, ok bool) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.data) {
			return Token{}, false
		}
		b := l.data[l.pos]
		switch {
		case b == '(':
			return Token{Kind: KindString, Str: l.literal()}, true
		case b == '<':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
				l.pos += 2
				return Token{Kind: KindDict, Array: l.collect(">>")}, true
			}
			return Token{Kind: KindString, Str: l.hex()}, true
		case b == '[':
			l.pos++
			return Token{Kind: KindArray, Array: l.collect("]")}, true
		case b == '/':
			l.pos++
			return Token{Kind: KindName, Name: l.word()}, true
		case b == ']' || b == '>' || b == ')' || b == '{' || b == '}':
			// stray closer or PostScript braces
			l.pos++
			continue
		}

		w := l.word()
		if w == "" {
			l.pos++
			continue
		}
		if n, err := strconv.ParseFloat(w, 64); err == nil && isNumberStart(w[0]) {
			return Token{Kind: KindNumber, Num: n}, true
		}
		switch w {
		case "true", "false":
			return Token{Kind: KindBool, Bool: w == "true"}, true
		case "null":
			return Token{Kind: KindNull}, true
		case "ID":
			l.skipInlineImage()
		}
		return Token{Kind: KindOperator, Name: w}, true
	}
}

func isNumberStart(b byte) bool {
	return (b >= '0' && b <= '9') || b == '-' || b == '+' || b == '.'
}

func (l *Lexer) word() string {
	start := l.pos
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// collect reads tokens until the closing delimiter.
func (l *Lexer) collect(closer string) []Token {
	var out []Token
	for {
		l.skipWhitespace()
		if l.pos >= len(l.data) {
			return out
		}
		if bytes.HasPrefix(l.data[l.pos:], []byte(closer)) {
			l.pos += len(closer)
			return out
		}
		tok, ok := l.Next()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
}

// literal reads a parenthesized string with balanced nesting.
func (l *Lexer) literal() []byte {
	l.pos++ // (
	start := l.pos
	depth := 1
	for l.pos < len(l.data) {
		switch l.data[l.pos] {
		case '\\':
			l.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				raw := l.data[start:l.pos]
				l.pos++
				return writer.Unescape(raw)
			}
		}
		l.pos++
	}
	if start > len(l.data) {
		start = len(l.data)
	}
	return writer.Unescape(l.data[start:])
}

func (l *Lexer) hex() []byte {
	l.pos++ // <
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if !isWhitespace(l.data[l.pos]) {
			digits = append(digits, l.data[l.pos])
		}
		l.pos++
	}
	l.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out, err := writer.DecodeHex(string(digits))
	if err != nil {
		return nil
	}
	return out
}

// skipInlineImage advances past binary inline image data up to "EI".
func (l *Lexer) skipInlineImage() {
	if l.pos < len(l.data) {
		l.pos++ // single whitespace after ID
	}
	for l.pos+1 < len(l.data) {
		if l.data[l.pos] == 'E' && l.data[l.pos+1] == 'I' &&
			l.pos > 0 && isWhitespace(l.data[l.pos-1]) &&
			(l.pos+2 >= len(l.data) || !isRegular(l.data[l.pos+2])) {
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}
