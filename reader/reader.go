package reader

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/internal/logger"
)

// Document is a parsed PDF document.
type Document struct {
	Version string // from the %PDF- header, e.g. "1.7"

	data    []byte
	xref    xrefTable
	trailer Dict

	objects   map[int]Object // resolved cache
	scanned   map[int]Object // scan fallback, nil until needed
	objstms   map[int]bool   // object streams already expanded
	packed    map[int]bool   // objects that came out of an object stream
	resolving map[int]bool

	pageRefs []int
	pages    []*Page

	encrypt   *encryptInfo
	recovered bool
}

// Open reads and parses a PDF file.
func Open(filename string) (*Document, error) {
	return OpenWithPassword(filename, "")
}

// OpenWithPassword reads and parses a PDF file, decrypting it with password
// when it is encrypted.
func OpenWithPassword(filename, password string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reader: %w: opening %s: %v", pdfcli.ErrIO, filename, err)
	}
	return LoadWithPassword(data, password)
}

// ReadFrom parses a PDF read entirely from r.
func ReadFrom(r io.Reader) (*Document, error) {
	return ReadFromWithPassword(r, "")
}

// ReadFromWithPassword parses an encrypted PDF read entirely from r.
func ReadFromWithPassword(r io.Reader, password string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reader: %w: reading input: %v", pdfcli.ErrIO, err)
	}
	return LoadWithPassword(data, password)
}

// Load parses a PDF held in memory.
func Load(data []byte) (*Document, error) {
	return LoadWithPassword(data, "")
}

// LoadWithPassword parses a PDF held in memory. A broken or missing cross
// reference section is recovered by scanning the file for objects.
func LoadWithPassword(data []byte, password string) (*Document, error) {
	if !bytes.Contains(data[:min(len(data), 1024)], []byte("%PDF-")) {
		return nil, fmt.Errorf("reader: %w: missing %%PDF- header", pdfcli.ErrFormat)
	}
	d := &Document{
		Version:   parseVersion(data),
		data:      data,
		objects:   make(map[int]Object),
		objstms:   make(map[int]bool),
		packed:    make(map[int]bool),
		resolving: make(map[int]bool),
	}

	if err := d.loadXRef(); err != nil {
		logger.Debug("cross reference unusable, scanning objects", "err", err)
		d.recover()
	}
	if d.trailer == nil || d.trailer["Root"] == nil {
		d.recover()
	}
	if d.trailer["Root"] == nil {
		return nil, fmt.Errorf("reader: %w: no document catalog", pdfcli.ErrFormat)
	}

	if d.IsEncrypted() {
		if err := d.decrypt(password); err != nil {
			return nil, err
		}
	}

	if err := d.buildPageList(); err != nil {
		if d.recovered {
			return nil, err
		}
		logger.Debug("page tree unreadable, scanning objects", "err", err)
		d.recover()
		if err := d.buildPageList(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Document) loadXRef() error {
	start, err := findStartXRef(d.data)
	if err != nil {
		return err
	}
	xref, trailer, err := loadXRef(d.data, start, map[int64]bool{})
	if err != nil {
		return err
	}
	d.xref, d.trailer = xref, trailer
	return nil
}

// recover switches the document to the objects found by Scan. Trailer keys
// already known are kept.
func (d *Document) recover() {
	if d.recovered {
		return
	}
	d.recovered = true
	d.scanned = Scan(d.data)
	d.objects = make(map[int]Object)
	d.objstms = make(map[int]bool)
	d.packed = make(map[int]bool)
	t := scanTrailer(d.data, d.scanned)
	for k, v := range d.trailer {
		if _, ok := t[k]; !ok {
			t[k] = v
		}
	}
	d.trailer = t
	d.xref = nil
}

// parseVersion extracts the version after %PDF-.
func parseVersion(data []byte) string {
	head := data[:min(len(data), 1024)]
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return ""
	}
	end := idx + 5
	for end < len(head) && !isWhitespace(head[end]) && head[end] != '%' {
		end++
	}
	return string(head[idx+5 : end])
}

// resolve returns the value of object ref.Number.
func (d *Document) resolve(ref Reference) (Object, error) {
	num := ref.Number
	if o, ok := d.objects[num]; ok {
		return o, nil
	}
	if d.resolving[num] {
		return nil, fmt.Errorf("reader: %w: object %d refers to itself", pdfcli.ErrFormat, num)
	}
	d.resolving[num] = true
	defer delete(d.resolving, num)

	o, gen, err := d.load(num)
	if err != nil {
		return nil, err
	}
	if !d.inObjStm(num) {
		if o, err = d.decryptObject(num, gen, o); err != nil {
			return nil, err
		}
	}
	d.objects[num] = o
	return o, nil
}

// load finds object num without decrypting it.
func (d *Document) load(num int) (Object, int, error) {
	if d.recovered {
		if o, ok := d.scanned[num]; ok {
			return o, 0, nil
		}
	}
	entry, ok := d.xref[num]
	if d.recovered && !ok {
		if o, ok := d.fromScannedObjStms(num); ok {
			return o, 0, nil
		}
		return Null{}, 0, nil
	}
	if !ok || entry.Kind == entryFree {
		if !d.recovered && d.xref != nil {
			// the table may just be wrong about this object
			if o, ok := d.scanFor(num); ok {
				return o, 0, nil
			}
		}
		return Null{}, 0, nil
	}

	if entry.Kind == entryCompressed {
		if err := d.loadObjectStream(entry.Stream); err != nil {
			return nil, 0, err
		}
		if o, ok := d.objects[num]; ok {
			return o, 0, nil
		}
		return Null{}, 0, nil
	}

	if entry.Offset < 0 || entry.Offset >= int64(len(d.data)) {
		if o, ok := d.scanFor(num); ok {
			return o, 0, nil
		}
		return nil, 0, fmt.Errorf("reader: %w: object %d offset %d out of bounds", pdfcli.ErrFormat, num, entry.Offset)
	}
	p := newParser(d.data[entry.Offset:])
	p.length = d.streamLength
	obj, err := p.ParseIndirectObject()
	if err != nil || obj.Number != num {
		if o, ok := d.scanFor(num); ok {
			return o, 0, nil
		}
		if err == nil {
			err = fmt.Errorf("%w: found object %d", pdfcli.ErrFormat, obj.Number)
		}
		return nil, 0, fmt.Errorf("reader: object %d: %w", num, err)
	}
	return obj.Value, obj.Generation, nil
}

func (d *Document) scanFor(num int) (Object, bool) {
	if d.scanned == nil {
		d.scanned = Scan(d.data)
	}
	o, ok := d.scanned[num]
	return o, ok
}

// fromScannedObjStms expands the object streams found by the scan until
// one of them yields num.
func (d *Document) fromScannedObjStms(num int) (Object, bool) {
	for _, n := range sortedKeys(d.scanned) {
		s, ok := d.scanned[n].(Stream)
		if !ok || s.Dict.GetName("Type") != "ObjStm" || d.objstms[n] {
			continue
		}
		if err := d.loadObjectStream(n); err != nil {
			logger.Debug("skipping object stream", "num", n, "err", err)
			continue
		}
		if o, ok := d.objects[num]; ok {
			return o, true
		}
	}
	return nil, false
}

func (d *Document) inObjStm(num int) bool { return d.packed[num] }

// streamLength resolves an indirect /Length while parsing a stream.
func (d *Document) streamLength(ref Reference) (int, bool) {
	o, err := d.resolve(ref)
	if err != nil {
		return 0, false
	}
	n, ok := o.(Integer)
	return int(n), ok
}

func (d *Document) resolveIfRef(obj Object) (Object, error) {
	if ref, ok := obj.(Reference); ok {
		return d.resolve(ref)
	}
	return obj, nil
}

// Resolve follows o when it is a reference. Anything else is returned as is.
func (d *Document) Resolve(o Object) (Object, error) {
	return d.resolveIfRef(o)
}

// Objects resolves every object the document defines and returns them keyed
// by object number.
func (d *Document) Objects() map[int]Object {
	nums := make(map[int]bool)
	for n, e := range d.xref {
		if e.Kind != entryFree {
			nums[n] = true
		}
	}
	for n := range d.scanned {
		nums[n] = true
	}
	out := make(map[int]Object, len(nums))
	for n := range nums {
		o, err := d.resolve(Reference{Number: n})
		if err != nil {
			logger.Debug("skipping unreadable object", "num", n, "err", err)
			continue
		}
		if _, null := o.(Null); !null {
			out[n] = o
		}
	}
	return out
}

// Catalog returns the /Root dictionary.
func (d *Document) Catalog() (Dict, error) {
	o, err := d.resolveIfRef(d.trailer["Root"])
	if err != nil {
		return nil, fmt.Errorf("reader: resolving /Root: %w", err)
	}
	cat, ok := o.(Dict)
	if !ok {
		return nil, fmt.Errorf("reader: %w: /Root is not a dictionary", pdfcli.ErrFormat)
	}
	return cat, nil
}

// Trailer returns the merged trailer dictionary.
func (d *Document) Trailer() Dict { return d.trailer }

// Recovered reports whether the objects came from a scan instead of the
// cross reference section.
func (d *Document) Recovered() bool { return d.recovered }

// Size returns the length of the raw file.
func (d *Document) Size() int { return len(d.data) }

// Raw returns the raw file bytes.
func (d *Document) Raw() []byte { return d.data }

// NumPages returns the number of pages.
func (d *Document) NumPages() int { return len(d.pages) }

// Pages returns the object numbers of the page dictionaries in page order.
func (d *Document) Pages() []int { return slices.Clone(d.pageRefs) }

// Page returns page n, counting from 1.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("reader: %w: page %d not in [1, %d]", pdfcli.ErrRange, n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// EachPage iterates over the pages with their 1-based numbers.
func (d *Document) EachPage() iter.Seq2[int, *Page] {
	return func(yield func(int, *Page) bool) {
		for i, p := range d.pages {
			if !yield(i+1, p) {
				return
			}
		}
	}
}

// Metadata returns the string entries of the /Info dictionary.
func (d *Document) Metadata() map[string]string {
	meta := make(map[string]string)
	o, err := d.resolveIfRef(d.trailer["Info"])
	if err != nil {
		return meta
	}
	info, _ := o.(Dict)
	for k, v := range info {
		if s, ok := v.(String); ok {
			meta[string(k)] = strings.TrimRight(s.Text(), "\x00")
		}
	}
	return meta
}

func sortedKeys(m map[int]Object) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
