// Package doctpl provides a JSON document template DSL for generating PDFs.
//
// A template is a declarative description that is easy for both humans and
// LLMs to write. It maps onto the element model, so a template renders with
// the same layout engine as markdown.
//
// Example JSON:
//
//	{
//	  "title": "My Document",
//	  "pageSize": "A4",
//	  "pages": [{
//	    "elements": [
//	      {"type": "heading", "text": "Hello World", "level": 1},
//	      {"type": "paragraph", "text": "Some body text here."}
//	    ]
//	  }]
//	}
//
// Elements may also be listed at the top level; they come before the pages.
package doctpl

// Document is the top-level template that describes an entire PDF.
type Document struct {
	Title    string            `json:"title,omitempty"`
	Author   string            `json:"author,omitempty"`
	Subject  string            `json:"subject,omitempty"`
	Keywords string            `json:"keywords,omitempty"`
	Custom   map[string]string `json:"custom,omitempty"`
	// PageSize is A4, Letter or Legal (default Letter).
	PageSize  string  `json:"pageSize,omitempty" validate:"omitempty,oneof=A4 Letter Legal a4 letter legal"`
	Landscape bool    `json:"landscape,omitempty"`
	Margin    *Margin `json:"margin,omitempty"`
	Font      *Font   `json:"font,omitempty"`
	// FontSize is a shorthand for Font.Size.
	FontSize    float64   `json:"fontSize,omitempty" validate:"gte=0,lte=72"`
	PageNumbers bool      `json:"pageNumbers,omitempty"`
	Elements    []Element `json:"elements,omitempty" validate:"dive"`
	Pages       []Page    `json:"pages,omitempty" validate:"dive"`
	Header      *Header   `json:"header,omitempty"` // repeated on every page
	Footer      *Footer   `json:"footer,omitempty"` // repeated on every page
}

// Margin defines page margins in points.
type Margin struct {
	Top    float64 `json:"top" validate:"gte=0"`
	Right  float64 `json:"right" validate:"gte=0"`
	Bottom float64 `json:"bottom" validate:"gte=0"`
	Left   float64 `json:"left" validate:"gte=0"`
}

// Font specifies a font face.
type Font struct {
	Family string  `json:"family,omitempty" validate:"omitempty,oneof=Helvetica Times Courier helvetica times courier"`
	Size   float64 `json:"size,omitempty" validate:"gte=0,lte=72"`
}

// Color is an RGB color with components from 0 to 255.
type Color struct {
	R int `json:"r" validate:"gte=0,lte=255"`
	G int `json:"g" validate:"gte=0,lte=255"`
	B int `json:"b" validate:"gte=0,lte=255"`
}

// Page groups elements that start on a fresh page.
type Page struct {
	Elements []Element `json:"elements" validate:"dive"`
}

// Element is a single block of the document. The Type field determines
// which other fields are relevant.
type Element struct {
	// Type is heading, paragraph (or text), list, task, code, table, quote,
	// rule (or hr), pagebreak, spacer, image, link, math, barcode, footnote
	// or definition.
	Type string `json:"type" validate:"required"`

	Text  string `json:"text,omitempty"`
	Level int    `json:"level,omitempty" validate:"gte=0,lte=6"` // heading level 1-6
	Depth int    `json:"depth,omitempty" validate:"gte=0"`       // list and quote nesting

	// List and task
	Items   []string `json:"items,omitempty"`
	Ordered bool     `json:"ordered,omitempty"`
	Start   int      `json:"start,omitempty"`
	Checked []bool   `json:"checked,omitempty"`

	// Code
	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`

	// Table
	Columns []TableColumn `json:"columns,omitempty"`
	Rows    [][]string    `json:"rows,omitempty"`

	// Image and link
	Src string `json:"src,omitempty"`
	Alt string `json:"alt,omitempty"`
	URL string `json:"url,omitempty"`

	// Math
	Expr string `json:"expr,omitempty"`

	// Barcode: qr, code128 or pdf417
	Kind string `json:"kind,omitempty"`
	Data string `json:"data,omitempty"`

	// Footnote and definition
	Label      string `json:"label,omitempty"`
	Term       string `json:"term,omitempty"`
	Definition string `json:"definition,omitempty"`
}

// TableColumn defines a column in a table element.
type TableColumn struct {
	Header string `json:"header"`
	Align  string `json:"align,omitempty" validate:"omitempty,oneof=L C R l c r left center right"`
}

// Header defines text repeated at the top of every page. Text may use the
// {page} and {pages} placeholders.
type Header struct {
	Text  string  `json:"text,omitempty"`
	Align string  `json:"align,omitempty" validate:"omitempty,oneof=L C R l c r"`
	Size  float64 `json:"size,omitempty" validate:"gte=0,lte=72"`
	Color *Color  `json:"color,omitempty"`
}

// Footer defines text repeated at the bottom of every page. Text supports
// the {page} and {pages} placeholders.
type Footer struct {
	Text  string  `json:"text,omitempty"`
	Align string  `json:"align,omitempty" validate:"omitempty,oneof=L C R l c r"`
	Size  float64 `json:"size,omitempty" validate:"gte=0,lte=72"`
	Color *Color  `json:"color,omitempty"`
}
