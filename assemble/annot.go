package assemble

import (
	"encoding/json"
	"fmt"
	"strings"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/content"
	"github.com/lvillar/pdfcli/layout"
	"github.com/lvillar/pdfcli/writer"
)

// AnnotKind selects the annotation subtype.
type AnnotKind string

const (
	TextNote  AnnotKind = "text"
	LinkArea  AnnotKind = "link"
	Highlight AnnotKind = "highlight"
)

// Annotation is a page annotation. Page is 1-based; zero targets the first
// page.
type Annotation struct {
	Kind     AnnotKind   `json:"kind"`
	Page     int         `json:"page,omitempty"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Contents string      `json:"contents,omitempty"`
	Title    string      `json:"title,omitempty"`
	URL      string      `json:"url,omitempty"`
	Color    content.RGB `json:"color,omitempty"`
}

// Link turns a layout link area into a link annotation.
func Link(area layout.LinkArea) Annotation {
	r := area.Rect
	return Annotation{Kind: LinkArea, X: r[0], Y: r[1], Width: r[2] - r[0], Height: r[3] - r[1], URL: area.URL}
}

func (an Annotation) rect() string {
	return fmt.Sprintf("[%s %s %s %s]", writer.Num(an.X), writer.Num(an.Y),
		writer.Num(an.X+an.Width), writer.Num(an.Y+an.Height))
}

// Dict renders the annotation dictionary.
func (an Annotation) Dict() string {
	var sb strings.Builder
	sb.WriteString("<< /Type /Annot\n")
	switch an.Kind {
	case LinkArea:
		fmt.Fprintf(&sb, "/Subtype /Link\n/Rect %s\n/Border [0 0 0]\n", an.rect())
		fmt.Fprintf(&sb, "/A << /Type /Action\n/S /URI\n/URI %s >>\n", writer.Literal(an.URL))
	case Highlight:
		x0, y0, x1, y1 := an.X, an.Y, an.X+an.Width, an.Y+an.Height
		c := an.Color
		if c == (content.RGB{}) {
			c = content.RGB{1, 1, 0}
		}
		fmt.Fprintf(&sb, "/Subtype /Highlight\n/Rect %s\n", an.rect())
		fmt.Fprintf(&sb, "/C [%s %s %s]\n", writer.Num(c[0]), writer.Num(c[1]), writer.Num(c[2]))
		fmt.Fprintf(&sb, "/QuadPoints [%s %s %s %s %s %s %s %s]\n",
			writer.Num(x0), writer.Num(y1), writer.Num(x1), writer.Num(y1),
			writer.Num(x0), writer.Num(y0), writer.Num(x1), writer.Num(y0))
	default:
		fmt.Fprintf(&sb, "/Subtype /Text\n/Rect %s\n", an.rect())
		fmt.Fprintf(&sb, "/Contents %s\n/T %s\n/Open false\n", writer.TextString(an.Contents), writer.TextString(an.Title))
	}
	sb.WriteString(">>\n")
	return sb.String()
}

// Validate checks the subtype and the fields it needs.
func (an Annotation) Validate() error {
	switch an.Kind {
	case TextNote, Highlight, "":
	case LinkArea:
		if an.URL == "" {
			return fmt.Errorf("assemble: %w: link annotation without url", pdfcli.ErrInvalidParam)
		}
	default:
		return fmt.Errorf("assemble: %w: annotation kind %q", pdfcli.ErrUnsupported, an.Kind)
	}
	if an.Width < 0 || an.Height < 0 {
		return fmt.Errorf("assemble: %w: negative annotation size", pdfcli.ErrInvalidParam)
	}
	return nil
}

// Attach writes annots into a and adds their references to the /Annots of
// their target pages. A target beyond the last page is an ErrRange.
func Attach(a *writer.Arena, pages []Page, annots []Annotation) error {
	for _, an := range annots {
		if err := an.Validate(); err != nil {
			return err
		}
		idx := max(an.Page, 1) - 1
		if idx >= len(pages) {
			return fmt.Errorf("assemble: %w: annotation targets page %d of %d", pdfcli.ErrRange, an.Page, len(pages))
		}
		pages[idx].Annots = append(pages[idx].Annots, a.Add(an.Dict()))
	}
	return nil
}

// ParseAnnotations decodes a JSON array of annotations.
func ParseAnnotations(data []byte) ([]Annotation, error) {
	var annots []Annotation
	if err := json.Unmarshal(data, &annots); err != nil {
		return nil, fmt.Errorf("assemble: %w: annotations: %v", pdfcli.ErrFormat, err)
	}
	for _, an := range annots {
		if err := an.Validate(); err != nil {
			return nil, err
		}
	}
	return annots, nil
}
