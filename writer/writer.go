// Package writer serializes PDF objects.
//
// An Arena hands out object numbers in call order, starting at 1. Callers
// reference objects through the returned Ref handles; an object that must be
// referenced before its body is known (the page tree root is the usual case)
// is allocated with Reserve and filled later with Set.
package writer

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	pdfcli "github.com/lvillar/pdfcli"
)

// Header is the fixed file header: version line plus a binary marker comment
// so transfer tools treat the file as binary.
const Header = "%PDF-1.4\n%\xE2\xE3\xCF\xD3\n"

// Ref is an object handle. Generation numbers are always 0.
type Ref int

// String renders the indirect reference "N 0 R".
func (r Ref) String() string {
	return strconv.Itoa(int(r)) + " 0 R"
}

// Cipher encrypts strings and stream payloads of a single object.
type Cipher interface {
	Encrypt(ref Ref, data []byte) []byte
}

type object struct {
	body   string
	data   []byte
	stream bool
	filled bool
}

// Arena owns the objects of one output document.
type Arena struct {
	version string
	objects []object
	root    Ref
	info    Ref

	encrypt Ref
	fileID  []byte
	cipher  Cipher

	deflate int
}

// New returns an empty arena writing PDF 1.4 without compression.
func New() *Arena {
	return &Arena{version: "1.4", deflate: -1}
}

// SetVersion overrides the version written in the header, e.g. "1.6" when
// AES encryption is used.
func (a *Arena) SetVersion(v string) { a.version = v }

// SetCompression sets the zlib level applied to streams that carry no
// /Filter yet. A negative level disables compression.
func (a *Arena) SetCompression(level int) {
	if level > zlib.BestCompression {
		level = zlib.BestCompression
	}
	a.deflate = level
}

// Add stores a plain object and returns its handle.
func (a *Arena) Add(body string) Ref {
	a.objects = append(a.objects, object{body: body, filled: true})
	return Ref(len(a.objects))
}

// AddStream stores a stream object. dict holds the dictionary entries other
// than /Length (and /Filter when compression applies); it may be empty.
func (a *Arena) AddStream(dict string, data []byte) Ref {
	a.objects = append(a.objects, object{body: dict, data: data, stream: true, filled: true})
	return Ref(len(a.objects))
}

// Reserve allocates an object number whose body is supplied later.
func (a *Arena) Reserve() Ref {
	a.objects = append(a.objects, object{})
	return Ref(len(a.objects))
}

// Set fills a reserved plain object. It panics if ref was not allocated by a.
func (a *Arena) Set(ref Ref, body string) {
	o := a.at(ref)
	*o = object{body: body, filled: true}
}

// SetStream fills a reserved stream object.
func (a *Arena) SetStream(ref Ref, dict string, data []byte) {
	o := a.at(ref)
	*o = object{body: dict, data: data, stream: true, filled: true}
}

func (a *Arena) at(ref Ref) *object {
	if ref < 1 || int(ref) > len(a.objects) {
		panic(fmt.Sprintf("writer: object %d not allocated", ref))
	}
	return &a.objects[ref-1]
}

// SetRoot names the document catalog.
func (a *Arena) SetRoot(ref Ref) { a.root = ref }

// Root returns the catalog reference, 0 when unset.
func (a *Arena) Root() Ref { return a.root }

// SetInfo names the document information dictionary.
func (a *Arena) SetInfo(ref Ref) { a.info = ref }

// SetEncrypt names the encryption dictionary and installs the cipher applied
// to every other object during serialization. fileID is the first element of
// the trailer /ID array.
func (a *Arena) SetEncrypt(ref Ref, fileID []byte, c Cipher) {
	a.encrypt = ref
	a.fileID = fileID
	a.cipher = c
}

// Len reports the number of allocated objects.
func (a *Arena) Len() int { return len(a.objects) }

// Bytes serializes the document.
func (a *Arena) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo serializes the document to w: header, objects, xref table, trailer.
func (a *Arena) WriteTo(w io.Writer) (int64, error) {
	if a.root == 0 {
		return 0, fmt.Errorf("writer: %w: no document root set", pdfcli.ErrFormat)
	}
	for i, o := range a.objects {
		if !o.filled {
			return 0, fmt.Errorf("writer: %w: reserved object %d never filled", pdfcli.ErrFormat, i+1)
		}
	}

	var buf bytes.Buffer
	if a.version == "1.4" {
		buf.WriteString(Header)
	} else {
		buf.WriteString("%PDF-" + a.version + "\n%\xE2\xE3\xCF\xD3\n")
	}

	offsets := make([]int, len(a.objects))
	for i := range a.objects {
		ref := Ref(i + 1)
		offsets[i] = buf.Len()
		if err := a.writeObject(&buf, ref, &a.objects[i]); err != nil {
			return 0, err
		}
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(a.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	buf.WriteString("trailer\n<<\n")
	fmt.Fprintf(&buf, "/Size %d\n", len(a.objects)+1)
	fmt.Fprintf(&buf, "/Root %s\n", a.root)
	if a.info != 0 {
		fmt.Fprintf(&buf, "/Info %s\n", a.info)
	}
	if a.encrypt != 0 {
		id := EncodeHex(a.fileID)
		fmt.Fprintf(&buf, "/Encrypt %s\n/ID [<%s> <%s>]\n", a.encrypt, id, id)
	}
	fmt.Fprintf(&buf, ">>\nstartxref\n%d\n%%%%EOF\n", xref)

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), fmt.Errorf("writer: %w: %v", pdfcli.ErrIO, err)
	}
	return int64(n), nil
}

func (a *Arena) writeObject(buf *bytes.Buffer, ref Ref, o *object) error {
	fmt.Fprintf(buf, "%d 0 obj\n", ref)
	crypt := a.cipher != nil && ref != a.encrypt

	body := o.body
	if crypt {
		body = encryptStrings(body, func(b []byte) []byte { return a.cipher.Encrypt(ref, b) })
	}
	if !o.stream {
		buf.WriteString(body)
		buf.WriteString("endobj\n")
		return nil
	}

	data := o.data
	entries := strings.TrimSpace(body)
	if a.deflate >= 0 && !strings.Contains(entries, "/Filter") {
		z, err := deflate(data, a.deflate)
		if err != nil {
			return fmt.Errorf("writer: compressing object %d: %w", ref, err)
		}
		data = z
		entries = strings.TrimSpace(entries + " /Filter /FlateDecode")
	}
	if crypt {
		data = a.cipher.Encrypt(ref, data)
	}
	if entries == "" {
		fmt.Fprintf(buf, "<< /Length %d >>\n", len(data))
	} else {
		fmt.Fprintf(buf, "<< %s /Length %d >>\n", entries, len(data))
	}
	buf.WriteString("stream\n")
	buf.Write(data)
	buf.WriteString("\nendstream\n")
	buf.WriteString("endobj\n")
	return nil
}

func deflate(data []byte, level int) ([]byte, error) {
	var b bytes.Buffer
	zw, err := zlib.NewWriterLevel(&b, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Num formats a coordinate compactly: at most four decimals, no trailing
// zeros, "-0" folded to "0".
func Num(f float64) string {
	r := math.Round(f*10000) / 10000
	if r == 0 {
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Refs renders a space separated list of references.
func Refs(refs []Ref) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}
