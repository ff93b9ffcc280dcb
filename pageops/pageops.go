// Package pageops provides operations on existing PDF documents: merging,
// splitting, rotating, reordering, watermarking, overlays, metadata,
// annotations and protection.
//
// Every operation parses its input with the reader package, takes the page
// content streams (with their resources, when the page tree is intact) and
// assembles a new document. Inputs are never modified in place.
package pageops

import (
	"fmt"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/layout"
	"github.com/lvillar/pdfcli/reader"
	"github.com/lvillar/pdfcli/security"
	"github.com/lvillar/pdfcli/writer"
)

var validate = validator.New()

// Resource names used by overlays drawn on top of existing pages.
const (
	overlayFont  = "FOv"
	overlayGS    = "GSOv"
	overlayImage = "ImOv"
)

// sourcePage is one input page ready to be reassembled.
type sourcePage struct {
	content       []byte
	width, height float64
	rotate        int
	resources     reader.Dict
	annots        reader.Array
	doc           *reader.Document
}

// Source is a parsed input document.
type Source struct {
	doc   *reader.Document
	pages []sourcePage
}

// Open parses a document for use with MergeSources.
func Open(data []byte) (*Source, error) {
	return OpenWithPassword(data, "")
}

// OpenWithPassword parses an encrypted document.
func OpenWithPassword(data []byte, password string) (*Source, error) {
	doc, err := reader.LoadWithPassword(data, password)
	if err != nil {
		return nil, fmt.Errorf("pageops: %w", err)
	}
	src := &Source{doc: doc}
	if doc.NumPages() == 0 {
		// fall back to every stream that shows text
		streams, err := doc.PageStreams()
		if err != nil {
			return nil, fmt.Errorf("pageops: %w", err)
		}
		l := layout.Portrait()
		for _, s := range streams {
			src.pages = append(src.pages, sourcePage{content: s, width: l.Width, height: l.Height, doc: doc})
		}
		return src, nil
	}
	for n, p := range doc.EachPage() {
		data, err := p.ContentStream()
		if err != nil {
			return nil, fmt.Errorf("pageops: page %d: %w", n, err)
		}
		box := p.MediaBox
		if box.LLX != 0 || box.LLY != 0 {
			data = append([]byte(fmt.Sprintf("1 0 0 1 %s %s cm\n", writer.Num(-box.LLX), writer.Num(-box.LLY))), data...)
		}
		annots, _ := doc.Resolve(p.Dict()["Annots"])
		arr, _ := annots.(reader.Array)
		src.pages = append(src.pages, sourcePage{
			content:   data,
			width:     box.Width(),
			height:    box.Height(),
			rotate:    normalizeRotation(p.Rotate),
			resources: p.Resources,
			annots:    arr,
			doc:       doc,
		})
	}
	return src, nil
}

// OpenFile parses the document at path.
func OpenFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pageops: %w: %v", pdfcli.ErrIO, err)
	}
	return Open(data)
}

// NumPages reports the number of pages the source contributes.
func (s *Source) NumPages() int { return len(s.pages) }

func normalizeRotation(r int) int {
	r = ((r % 360) + 360) % 360
	if r%90 != 0 {
		return 0
	}
	return r
}

// info returns the Info dictionary of the source, nil when it has none.
func (s *Source) info() *assemble.Info {
	meta := s.doc.Metadata()
	if len(meta) == 0 {
		return nil
	}
	info := assemble.InfoFromMap(meta)
	if info.IsEmpty() {
		return nil
	}
	return &info
}

// output collects reassembled pages in a fresh arena.
type output struct {
	a       *writer.Arena
	copiers map[*reader.Document]*copier
	pages   []assemble.Page
	fonts   font.Resources
	info    *assemble.Info
	annots  []assemble.Annotation
	crypt   *security.Handler

	overlayFonts map[string]writer.Ref
	alphas       map[float64]writer.Ref
}

func newOutput() *output {
	return &output{a: writer.New(), copiers: make(map[*reader.Document]*copier)}
}

func (o *output) copier(doc *reader.Document) *copier {
	c, ok := o.copiers[doc]
	if !ok {
		c = newCopier(doc, o.a)
		o.copiers[doc] = c
	}
	return c
}

// baseFonts are the fonts given to pages that come without resources.
func (o *output) baseFonts() font.Resources {
	if o.fonts == nil {
		o.fonts = font.Standard(font.Helvetica).Emit(o.a)
	}
	return o.fonts
}

// overlayFont returns the font object an overlay draws baseFont with.
func (o *output) overlayFont(baseFont string) writer.Ref {
	if o.overlayFonts == nil {
		o.overlayFonts = make(map[string]writer.Ref)
	}
	ref, ok := o.overlayFonts[baseFont]
	if !ok {
		ref = o.a.Add(font.Dict(baseFont))
		o.overlayFonts[baseFont] = ref
	}
	return ref
}

// alpha returns a graphics state setting fill and stroke opacity.
func (o *output) alpha(opacity float64) writer.Ref {
	if o.alphas == nil {
		o.alphas = make(map[float64]writer.Ref)
	}
	ref, ok := o.alphas[opacity]
	if !ok {
		ref = o.a.Add(fmt.Sprintf("<< /Type /ExtGState\n/ca %s\n/CA %s\n>>\n", writer.Num(opacity), writer.Num(opacity)))
		o.alphas[opacity] = ref
	}
	return ref
}

// overlay is extra content drawn over a page together with the resources
// it needs.
type overlay struct {
	content []byte
	adds    map[reader.Name]map[string]writer.Ref
}

func (ov *overlay) add(cat reader.Name, name string, ref writer.Ref) {
	if ov.adds == nil {
		ov.adds = make(map[reader.Name]map[string]writer.Ref)
	}
	if ov.adds[cat] == nil {
		ov.adds[cat] = make(map[string]writer.Ref)
	}
	ov.adds[cat][name] = ref
}

// add appends p, drawing ov over its content when ov is not nil.
func (o *output) add(p sourcePage, ov *overlay) error {
	content := p.content
	var adds map[reader.Name]map[string]writer.Ref
	if ov != nil {
		content = make([]byte, 0, len(p.content)+len(ov.content)+8)
		content = append(content, "q\n"...)
		content = append(content, p.content...)
		content = append(content, "\nQ\n"...)
		content = append(content, ov.content...)
		adds = ov.adds
	}

	page := assemble.Page{Content: content, Width: p.width, Height: p.height, Rotate: p.rotate}
	c := o.copier(p.doc)
	if p.resources != nil {
		res, err := c.resources(p.resources, adds)
		if err != nil {
			return fmt.Errorf("pageops: resources: %w", err)
		}
		page.Resources = res
	} else {
		fonts := maps.Clone(o.baseFonts())
		maps.Copy(fonts, adds["Font"])
		res := "<< " + fonts.Dict()
		for _, cat := range slices.Sorted(maps.Keys(adds)) {
			if cat != "Font" {
				res += " " + assemble.Name(string(cat)) + " << " + extraEntries(adds[cat]) + ">>"
			}
		}
		page.Resources = res + " >>"
	}

	for _, an := range p.annots {
		ref, err := o.copyAnnotation(c, an)
		if err != nil {
			return err
		}
		if ref != 0 {
			page.Annots = append(page.Annots, ref)
		}
	}
	o.pages = append(o.pages, page)
	return nil
}

// copyAnnotation copies a markup or link annotation without its page
// back reference. Widgets belong to a form and are dropped.
func (o *output) copyAnnotation(c *copier, an reader.Object) (writer.Ref, error) {
	obj, err := c.src.Resolve(an)
	if err != nil {
		return 0, nil
	}
	d, ok := obj.(reader.Dict)
	if !ok || d.GetName("Subtype") == "Widget" || d.GetName("Subtype") == "Popup" {
		return 0, nil
	}
	entries, err := c.entries(d, "P", "Parent", "Popup")
	if err != nil {
		return 0, fmt.Errorf("pageops: annotation: %w", err)
	}
	return o.a.Add("<< " + entries + ">>\n"), nil
}

// finish assembles the pages and serializes the document.
func (o *output) finish() ([]byte, error) {
	if len(o.pages) == 0 {
		return nil, fmt.Errorf("pageops: %w: no page content", pdfcli.ErrRange)
	}
	if err := assemble.Attach(o.a, o.pages, o.annots); err != nil {
		return nil, fmt.Errorf("pageops: %w", err)
	}
	if _, err := assemble.Assemble(o.a, o.pages, assemble.Options{Info: o.info}); err != nil {
		return nil, fmt.Errorf("pageops: %w", err)
	}
	if o.crypt != nil {
		o.crypt.Install(o.a)
	}
	return o.a.Bytes()
}

// rebuild reassembles pages of src, keeping its Info dictionary. When ov is
// set it is called with the 0-based index of every page and may return
// content to draw over it.
func rebuild(src *Source, pages []sourcePage, ov func(o *output, i int, p sourcePage) (*overlay, error)) ([]byte, error) {
	return rebuildInto(newOutput(), src, pages, ov)
}

// rebuildInto is rebuild on an output the caller has configured.
func rebuildInto(out *output, src *Source, pages []sourcePage, ov func(o *output, i int, p sourcePage) (*overlay, error)) ([]byte, error) {
	if out.info == nil {
		out.info = src.info()
	}
	for i, p := range pages {
		var o *overlay
		if ov != nil {
			var err error
			if o, err = ov(out, i, p); err != nil {
				return nil, err
			}
		}
		if err := out.add(p, o); err != nil {
			return nil, err
		}
	}
	return out.finish()
}

// WriteFile writes data to path.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("pageops: %w: %v", pdfcli.ErrIO, err)
	}
	return nil
}

// transform reads in, applies fn and writes the result to out.
func transform(in, out string, fn func([]byte) ([]byte, error)) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("pageops: %w: %v", pdfcli.ErrIO, err)
	}
	res, err := fn(data)
	if err != nil {
		return err
	}
	logger.Debug("wrote document", "in", in, "out", out, "bytes", len(res))
	return WriteFile(out, res)
}

func checkStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("pageops: %w: %v", pdfcli.ErrInvalidParam, err)
	}
	return nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
