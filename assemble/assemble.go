// Package assemble wraps page content streams into a complete document:
// page dictionaries, the page tree, font and image resources, the optional
// Info dictionary and the catalog.
//
// All objects are allocated from a writer.Arena. The page tree root is
// reserved before the pages so every page dictionary can name its parent by
// handle; no object number is ever computed.
package assemble

import (
	"fmt"
	"sort"
	"strings"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/layout"
	"github.com/lvillar/pdfcli/raster"
	"github.com/lvillar/pdfcli/writer"
)

// Page is one page to assemble.
type Page struct {
	Content []byte
	// Width and Height give the MediaBox; zero selects US Letter portrait.
	Width, Height float64
	// Rotate overrides Options.Rotate when non-zero.
	Rotate int
	Annots []writer.Ref
	// XObjects maps resource names (without slash) to image objects.
	XObjects map[string]writer.Ref
	// ExtraResources is appended verbatim inside the /Resources dictionary.
	ExtraResources string
	// Resources, when set, is written as the complete resource dictionary
	// instead of the generated one.
	Resources string
	Structure []element.StructNode
}

// Options control document level objects.
type Options struct {
	// Fonts is the registry the content streams were drawn with; nil means
	// the standard Helvetica family.
	Fonts    *font.Registry
	Info     *Info
	Rotate   int
	AcroForm writer.Ref
	// Tagged adds a structure tree built from Page.Structure.
	Tagged bool
	Lang   string
	Title  string
}

// ValidateRotation accepts the four quarter turns.
func ValidateRotation(angle int) error {
	switch angle {
	case 0, 90, 180, 270:
		return nil
	}
	return fmt.Errorf("assemble: %w: invalid rotation %d, must be 0, 90, 180 or 270", pdfcli.ErrUnsupported, angle)
}

// Assemble writes pages into a and sets the document root. It returns the
// catalog reference.
func Assemble(a *writer.Arena, pages []Page, opts Options) (writer.Ref, error) {
	if len(pages) == 0 {
		return 0, fmt.Errorf("assemble: %w: no page content", pdfcli.ErrRange)
	}
	if err := ValidateRotation(opts.Rotate); err != nil {
		return 0, err
	}
	for i := range pages {
		if err := ValidateRotation(pages[i].Rotate); err != nil {
			return 0, fmt.Errorf("page %d: %w", i+1, err)
		}
	}

	fonts := opts.Fonts
	if fonts == nil {
		fonts = font.Standard(font.Helvetica)
	}
	var res font.Resources
	for _, p := range pages {
		if p.Resources == "" {
			res = fonts.Emit(a)
			break
		}
	}

	tree := a.Reserve()
	kids := make([]writer.Ref, len(pages))
	for i, p := range pages {
		contents := a.AddStream("", p.Content)
		rotate := p.Rotate
		if rotate == 0 {
			rotate = opts.Rotate
		}
		kids[i] = a.Add(pageDict(p, tree, contents, res, rotate))
	}
	a.Set(tree, fmt.Sprintf("<< /Type /Pages\n/Kids [%s]\n/Count %d\n>>\n", writer.Refs(kids), len(kids)))

	if opts.Info != nil {
		a.SetInfo(a.Add(opts.Info.Dict()))
	}

	var structRoot writer.Ref
	if opts.Tagged {
		structRoot = structTree(a, pages, kids)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<< /Type /Catalog\n/Pages %s\n", tree)
	if opts.AcroForm != 0 {
		fmt.Fprintf(&sb, "/AcroForm %s\n", opts.AcroForm)
	}
	if opts.Lang != "" {
		fmt.Fprintf(&sb, "/Lang %s\n", writer.TextString(opts.Lang))
	}
	if structRoot != 0 {
		fmt.Fprintf(&sb, "/MarkInfo << /Marked true >>\n/StructTreeRoot %s\n", structRoot)
	}
	if opts.Title != "" {
		sb.WriteString("/ViewerPreferences << /DisplayDocTitle true >>\n")
	}
	sb.WriteString(">>\n")

	catalog := a.Add(sb.String())
	a.SetRoot(catalog)
	return catalog, nil
}

func pageDict(p Page, parent, contents writer.Ref, fonts font.Resources, rotate int) string {
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		l := layout.Portrait()
		w, h = l.Width, l.Height
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<< /Type /Page\n/Parent %s\n/MediaBox [0 0 %s %s]\n", parent, writer.Num(w), writer.Num(h))
	if rotate != 0 {
		fmt.Fprintf(&sb, "/Rotate %d\n", rotate)
	}
	fmt.Fprintf(&sb, "/Contents %s\n", contents)
	if len(p.Annots) > 0 {
		fmt.Fprintf(&sb, "/Annots [%s]\n", writer.Refs(p.Annots))
	}
	if p.Resources != "" {
		sb.WriteString("/Resources " + p.Resources + "\n>>\n")
		return sb.String()
	}
	sb.WriteString("/Resources << " + fonts.Dict())
	if len(p.XObjects) > 0 {
		names := make([]string, 0, len(p.XObjects))
		for n := range p.XObjects {
			names = append(names, n)
		}
		sort.Strings(names)
		sb.WriteString(" /XObject <<")
		for _, n := range names {
			fmt.Fprintf(&sb, " /%s %s", n, p.XObjects[n])
		}
		sb.WriteString(" >>")
	}
	if p.ExtraResources != "" {
		sb.WriteString(" " + p.ExtraResources)
	}
	sb.WriteString(" >>\n>>\n")
	return sb.String()
}

// Build assembles pages into a fresh arena and serializes it.
func Build(pages []Page, opts Options) ([]byte, error) {
	a := writer.New()
	if _, err := Assemble(a, pages, opts); err != nil {
		return nil, err
	}
	return a.Bytes()
}

// FromStreams sizes raw content streams to l.
func FromStreams(streams [][]byte, l layout.PageLayout) []Page {
	pages := make([]Page, len(streams))
	for i, s := range streams {
		pages[i] = Page{Content: s, Width: l.Width, Height: l.Height}
	}
	return pages
}

// FromLayout converts builder pages, writing each distinct image once and a
// link annotation for every recorded link area.
func FromLayout(a *writer.Arena, pages []layout.Page, l layout.PageLayout) []Page {
	images := make(map[*raster.Info]writer.Ref)
	out := make([]Page, len(pages))
	for i, lp := range pages {
		p := Page{Content: lp.Content, Width: l.Width, Height: l.Height, Structure: lp.Structure}
		if len(lp.Images) > 0 {
			p.XObjects = make(map[string]writer.Ref, len(lp.Images))
			names := make([]string, 0, len(lp.Images))
			for name := range lp.Images {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				img := lp.Images[name]
				ref, ok := images[img]
				if !ok {
					ref = a.AddStream(img.XObjectDict(), img.Data)
					images[img] = ref
				}
				p.XObjects[name] = ref
			}
		}
		for _, link := range lp.Links {
			p.Annots = append(p.Annots, a.Add(Link(link).Dict()))
		}
		out[i] = p
	}
	return out
}

// Plain assembles streams with a single font object: every page uses /F1
// bound to baseFont.
func Plain(streams [][]byte, l layout.PageLayout, baseFont string) ([]byte, error) {
	return Build(FromStreams(streams, l), Options{Fonts: font.Legacy(baseFont)})
}

// Family assembles streams with the five-face font family.
func Family(streams [][]byte, l layout.PageLayout, family string) ([]byte, error) {
	return Build(FromStreams(streams, l), Options{Fonts: font.Standard(family)})
}

// WithMetadata assembles streams with the five-face family and an Info
// dictionary.
func WithMetadata(streams [][]byte, l layout.PageLayout, family string, info Info) ([]byte, error) {
	return Build(FromStreams(streams, l), Options{Fonts: font.Standard(family), Info: &info})
}

// Rotated assembles streams with /Rotate angle on every page.
func Rotated(streams [][]byte, l layout.PageLayout, family string, angle int) ([]byte, error) {
	return Build(FromStreams(streams, l), Options{Fonts: font.Standard(family), Rotate: angle})
}
