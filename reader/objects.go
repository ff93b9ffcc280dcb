// Package reader parses existing PDF files.
//
// Parsing works on raw bytes with explicit offsets. A document is located
// through its cross-reference data (tables, streams, /Prev chains and object
// streams); when that fails the whole file is scanned for "N G obj" blocks
// instead, so damaged or hand written files still load.
package reader

import (
	"fmt"
	"strconv"
)

// Object is the interface satisfied by all PDF object types.
// The unexported method prevents external types from implementing it.
type Object interface {
	pdfObject()
	String() string
}

// Null represents the PDF null object.
type Null struct{}

func (Null) pdfObject()     {}
func (Null) String() string { return "null" }

// Boolean represents a PDF boolean value.
type Boolean bool

func (Boolean) pdfObject() {}
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Integer represents a PDF integer value.
type Integer int64

func (Integer) pdfObject()       {}
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real value.
type Real float64

func (Real) pdfObject()       {}
func (r Real) String() string { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// Name represents a PDF name object such as /Type.
type Name string

func (Name) pdfObject()       {}
func (n Name) String() string { return "/" + string(n) }

// String represents a PDF string. Value holds the decoded bytes, escapes
// already resolved.
type String struct {
	Value []byte
	IsHex bool
}

func (String) pdfObject() {}
func (s String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%x>", s.Value)
	}
	return fmt.Sprintf("(%s)", s.Value)
}

// Text decodes the string as a PDF text string.
func (s String) Text() string { return decodeTextString(s.Value) }

// Array represents a PDF array.
type Array []Object

func (Array) pdfObject()       {}
func (a Array) String() string { return fmt.Sprintf("[array len=%d]", len(a)) }

// Dict represents a PDF dictionary.
type Dict map[Name]Object

func (Dict) pdfObject()       {}
func (d Dict) String() string { return fmt.Sprintf("<<dict len=%d>>", len(d)) }

// GetName returns the value of a name entry, or "" if absent.
func (d Dict) GetName(key Name) Name {
	if n, ok := d[key].(Name); ok {
		return n
	}
	return ""
}

// GetInt returns the value of a numeric entry truncated to an integer.
func (d Dict) GetInt(key Name) (int64, bool) {
	switch n := d[key].(type) {
	case Integer:
		return int64(n), true
	case Real:
		return int64(n), true
	}
	return 0, false
}

// GetNumber returns the value of a numeric entry.
func (d Dict) GetNumber(key Name) (float64, bool) {
	return number(d[key])
}

// GetDict returns a direct sub-dictionary, or nil.
func (d Dict) GetDict(key Name) Dict {
	if sub, ok := d[key].(Dict); ok {
		return sub
	}
	return nil
}

// GetArray returns a direct array entry, or nil.
func (d Dict) GetArray(key Name) Array {
	if arr, ok := d[key].(Array); ok {
		return arr
	}
	return nil
}

// GetString returns a string entry decoded as a text string.
func (d Dict) GetString(key Name) string {
	if s, ok := d[key].(String); ok {
		return s.Text()
	}
	return ""
}

// Stream is a dictionary followed by its raw (still encoded) payload.
type Stream struct {
	Dict Dict
	Data []byte
}

func (Stream) pdfObject()       {}
func (s Stream) String() string { return fmt.Sprintf("<<stream len=%d>>", len(s.Data)) }

// Decode applies the stream's filter chain.
func (s Stream) Decode() ([]byte, error) { return decodeStream(s) }

// Reference represents an indirect reference such as "10 0 R".
type Reference struct {
	Number     int
	Generation int
}

func (Reference) pdfObject() {}
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IndirectObject is a numbered object definition "N G obj ... endobj".
type IndirectObject struct {
	Reference
	Value Object
}

func (IndirectObject) pdfObject() {}
func (o IndirectObject) String() string {
	return fmt.Sprintf("%d %d obj %s", o.Number, o.Generation, o.Value)
}

func number(o Object) (float64, bool) {
	switch n := o.(type) {
	case Integer:
		return float64(n), true
	case Real:
		return float64(n), true
	}
	return 0, false
}

// GetRect returns a direct rectangle entry such as /Rect or /MediaBox.
func (d Dict) GetRect(key Name) (Rectangle, bool) {
	r, err := parseRectangle(d[key])
	return r, err == nil
}
