package reader

import (
	"bytes"
	"fmt"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/internal/logger"
)

// Rectangle is a PDF rectangle [llx lly urx ury].
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the width of the rectangle.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the height of the rectangle.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Page is a leaf of the page tree with its inherited attributes resolved.
type Page struct {
	Number    int // 1-based position
	ObjNum    int // object number of the page dictionary, 0 if direct
	MediaBox  Rectangle
	CropBox   *Rectangle
	Resources Dict
	Contents  []Stream
	Rotate    int
	dict      Dict
	doc       *Document
}

// Dict returns the page dictionary.
func (p *Page) Dict() Dict { return p.dict }

// ContentStream returns the decoded content of the page. Several content
// streams are joined with a newline.
func (p *Page) ContentStream() ([]byte, error) {
	var out []byte
	for i, s := range p.Contents {
		decoded, err := decodeStream(s)
		if err != nil {
			return nil, fmt.Errorf("reader: page %d content: %w", p.Number, err)
		}
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// Annotation is an entry of a page's /Annots array.
type Annotation struct {
	Subtype  string
	Rect     Rectangle
	Contents string
	URI      string
}

// Annotations lists the page's annotations.
func (p *Page) Annotations() ([]Annotation, error) {
	o, err := p.doc.resolveIfRef(p.dict["Annots"])
	if err != nil {
		return nil, fmt.Errorf("reader: page %d annotations: %w", p.Number, err)
	}
	arr, _ := o.(Array)
	var out []Annotation
	for _, item := range arr {
		o, err := p.doc.resolveIfRef(item)
		if err != nil {
			continue
		}
		dict, ok := o.(Dict)
		if !ok {
			continue
		}
		a := Annotation{Subtype: string(dict.GetName("Subtype")), Contents: dict.GetString("Contents")}
		if r, err := parseRectangle(dict["Rect"]); err == nil {
			a.Rect = r
		}
		if action, err := p.doc.resolveIfRef(dict["A"]); err == nil {
			if ad, ok := action.(Dict); ok {
				a.URI = ad.GetString("URI")
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// PageStreams returns the decoded content of every page in page order. When
// the page tree yields no content, streams holding text operators are
// returned in object number order instead.
func (d *Document) PageStreams() ([][]byte, error) {
	var out [][]byte
	empty := true
	for _, p := range d.pages {
		data, err := p.ContentStream()
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			empty = false
		}
		out = append(out, data)
	}
	if !empty {
		return out, nil
	}

	logger.Debug("page tree has no content, collecting text streams")
	objects := d.Objects()
	out = out[:0]
	for _, num := range sortedKeys(objects) {
		s, ok := objects[num].(Stream)
		if !ok {
			continue
		}
		data, err := decodeStream(s)
		if err != nil {
			continue
		}
		if bytes.Contains(data, []byte("Tj")) || bytes.Contains(data, []byte("TJ")) || bytes.Contains(data, []byte("BT")) {
			out = append(out, data)
		}
	}
	return out, nil
}

func parseRectangle(obj Object) (Rectangle, error) {
	arr, ok := obj.(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, fmt.Errorf("reader: %w: rectangle must be a 4-element array", pdfcli.ErrFormat)
	}
	var vals [4]float64
	for i, v := range arr {
		n, ok := number(v)
		if !ok {
			return Rectangle{}, fmt.Errorf("reader: %w: rectangle element %d is not numeric", pdfcli.ErrFormat, i)
		}
		vals[i] = n
	}
	return Rectangle{LLX: vals[0], LLY: vals[1], URX: vals[2], URY: vals[3]}, nil
}

// buildPageList flattens the page tree.
func (d *Document) buildPageList() error {
	cat, err := d.Catalog()
	if err != nil {
		return err
	}
	root := cat["Pages"]
	if root == nil {
		return fmt.Errorf("reader: %w: catalog has no /Pages", pdfcli.ErrFormat)
	}
	d.pages, d.pageRefs = nil, nil
	return d.walkPages(root, nil, map[int]bool{})
}

var inheritable = []Name{"MediaBox", "CropBox", "Resources", "Rotate"}

func (d *Document) walkPages(node Object, inherited Dict, seen map[int]bool) error {
	num := 0
	if ref, ok := node.(Reference); ok {
		num = ref.Number
		if seen[num] {
			return fmt.Errorf("reader: %w: page tree loops at object %d", pdfcli.ErrFormat, num)
		}
		seen[num] = true
	}
	o, err := d.resolveIfRef(node)
	if err != nil {
		return fmt.Errorf("reader: page tree node: %w", err)
	}
	dict, ok := o.(Dict)
	if !ok {
		return nil
	}

	merged := make(Dict, len(inherited)+len(inheritable))
	for k, v := range inherited {
		merged[k] = v
	}
	for _, key := range inheritable {
		if v, ok := dict[key]; ok {
			merged[key] = v
		}
	}

	kids, err := d.resolveIfRef(dict["Kids"])
	if err != nil {
		return fmt.Errorf("reader: resolving /Kids: %w", err)
	}
	if arr, ok := kids.(Array); ok && dict.GetName("Type") != "Page" {
		for _, kid := range arr {
			if err := d.walkPages(kid, merged, seen); err != nil {
				return err
			}
		}
		return nil
	}
	if t := dict.GetName("Type"); t != "Page" && t != "" {
		return nil
	}

	page, err := d.newPage(dict, merged)
	if err != nil {
		return err
	}
	page.ObjNum = num
	d.pages = append(d.pages, page)
	d.pageRefs = append(d.pageRefs, num)
	return nil
}

func (d *Document) newPage(dict, attrs Dict) (*Page, error) {
	page := &Page{Number: len(d.pages) + 1, dict: dict, doc: d}
	if o, err := d.resolveIfRef(attrs["MediaBox"]); err == nil {
		if r, err := parseRectangle(o); err == nil {
			page.MediaBox = r
		}
	}
	if page.MediaBox == (Rectangle{}) {
		page.MediaBox = Rectangle{URX: 612, URY: 792}
	}
	if o, err := d.resolveIfRef(attrs["CropBox"]); err == nil {
		if r, err := parseRectangle(o); err == nil {
			page.CropBox = &r
		}
	}
	if o, err := d.resolveIfRef(attrs["Resources"]); err == nil {
		page.Resources, _ = o.(Dict)
	}
	if o, err := d.resolveIfRef(attrs["Rotate"]); err == nil {
		if n, ok := o.(Integer); ok {
			page.Rotate = int(n)
		}
	}

	contents, err := d.resolveIfRef(dict["Contents"])
	if err != nil {
		return nil, fmt.Errorf("reader: page %d contents: %w", page.Number, err)
	}
	switch c := contents.(type) {
	case Stream:
		page.Contents = []Stream{c}
	case Array:
		for _, item := range c {
			o, err := d.resolveIfRef(item)
			if err != nil {
				logger.Debug("skipping content stream", "page", page.Number, "err", err)
				continue
			}
			if s, ok := o.(Stream); ok {
				page.Contents = append(page.Contents, s)
			}
		}
	}
	return page, nil
}
