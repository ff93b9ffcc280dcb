// Package font manages the standard Type1 font resources of a document.
//
// A Registry maps a Face (family plus bold/italic/monospace capability) to a
// page resource name such as /F1 and writes one font object per face used.
package font

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lvillar/pdfcli/writer"
)

// Style selects the weight and slant of a face.
type Style struct {
	Bold   bool
	Italic bool
}

// Face identifies one font resource.
type Face struct {
	Style
	Mono bool
}

// Common faces.
var (
	Regular    = Face{}
	Bold       = Face{Style: Style{Bold: true}}
	Italic     = Face{Style: Style{Italic: true}}
	BoldItalic = Face{Style: Style{Bold: true, Italic: true}}
	Mono       = Face{Mono: true}
)

// Family names accepted by BaseName.
const (
	Helvetica = "Helvetica"
	Times     = "Times"
	Courier   = "Courier"
)

var baseNames = map[string][4]string{
	Helvetica: {"Helvetica", "Helvetica-Bold", "Helvetica-Oblique", "Helvetica-BoldOblique"},
	Times:     {"Times-Roman", "Times-Bold", "Times-Italic", "Times-BoldItalic"},
	Courier:   {"Courier", "Courier-Bold", "Courier-Oblique", "Courier-BoldOblique"},
}

// BaseName returns the standard 14 font name of face in family. Monospace
// faces always come from Courier; unknown families fall back to Helvetica.
func BaseName(family string, f Face) string {
	if f.Mono {
		family = Courier
	}
	names, ok := baseNames[family]
	if !ok {
		names = baseNames[Helvetica]
	}
	i := 0
	if f.Bold {
		i |= 1
	}
	if f.Italic {
		i |= 2
	}
	return names[i]
}

// ParseFamily maps user input (case insensitive, accepting base names like
// "Times-Roman") to a family constant.
func ParseFamily(name string) (string, bool) {
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(n, "helvetica") || n == "arial" || n == "sans":
		return Helvetica, true
	case strings.HasPrefix(n, "times") || n == "serif":
		return Times, true
	case strings.HasPrefix(n, "courier") || n == "mono" || n == "monospace":
		return Courier, true
	}
	return "", false
}

// Registry assigns resource names to faces in first-use order.
type Registry struct {
	family string
	legacy string
	names  map[Face]string
	order  []Face
}

// NewRegistry returns an empty registry for family.
func NewRegistry(family string) *Registry {
	if fam, ok := ParseFamily(family); ok {
		family = fam
	} else {
		family = Helvetica
	}
	return &Registry{family: family, names: make(map[Face]string)}
}

// Standard returns a registry preloaded with the five-face family in the
// order regular, bold, italic, bold-italic, monospace (/F1 to /F5).
func Standard(family string) *Registry {
	r := NewRegistry(family)
	for _, f := range []Face{Regular, Bold, Italic, BoldItalic, Mono} {
		r.Resource(f)
	}
	return r
}

// Legacy returns a single-font registry: every face resolves to /F1 and the
// one font object uses baseFont verbatim.
func Legacy(baseFont string) *Registry {
	r := NewRegistry(Helvetica)
	r.legacy = baseFont
	r.Resource(Regular)
	return r
}

// Family reports the registry's family.
func (r *Registry) Family() string { return r.family }

// Resource returns the resource name for f, registering it on first use.
func (r *Registry) Resource(f Face) string {
	if r.legacy != "" {
		f = Regular
	}
	if name, ok := r.names[f]; ok {
		return name
	}
	name := "/F" + strconv.Itoa(len(r.order)+1)
	r.names[f] = name
	r.order = append(r.order, f)
	return name
}

// Faces lists the registered faces in resource order.
func (r *Registry) Faces() []Face {
	return append([]Face(nil), r.order...)
}

// Resources maps resource names (without slash) to font object references.
type Resources map[string]writer.Ref

// Emit writes one font object per registered face.
func (r *Registry) Emit(a *writer.Arena) Resources {
	res := make(Resources, len(r.order))
	for _, f := range r.order {
		base := r.legacy
		if base == "" {
			base = BaseName(r.family, f)
		}
		ref := a.Add(Dict(base))
		res[strings.TrimPrefix(r.names[f], "/")] = ref
	}
	return res
}

// Dict renders the font dictionary of a standard Type1 font.
func Dict(baseFont string) string {
	return fmt.Sprintf("<< /Type /Font\n/Subtype /Type1\n/BaseFont /%s\n/Encoding /WinAnsiEncoding\n>>\n", baseFont)
}

// Dict renders "/Font << /F1 n 0 R ... >>" with keys in resource order.
func (res Resources) Dict() string {
	keys := make([]string, 0, len(res))
	for k := range res {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimPrefix(keys[i], "F"))
		nj, _ := strconv.Atoi(strings.TrimPrefix(keys[j], "F"))
		if ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
	var sb strings.Builder
	sb.WriteString("/Font <<")
	for _, k := range keys {
		fmt.Fprintf(&sb, " /%s %s", k, res[k])
	}
	sb.WriteString(" >>")
	return sb.String()
}

// CharWidth approximates the advance of one character at size points.
func CharWidth(size float64, mono bool) float64 {
	if mono {
		return size * 0.6
	}
	return size * 0.5
}

// TextWidth approximates the width of text at size points.
func TextWidth(text string, size float64, mono bool) float64 {
	return float64(len([]rune(text))) * CharWidth(size, mono)
}
