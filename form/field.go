// Package form creates, fills and flattens interactive PDF forms
// (AcroForm).
//
// It supports text fields, checkboxes, radio buttons, dropdowns and push
// buttons. Each field is a merged field/widget dictionary listed both in the
// /Annots of its page and in the /Fields of the AcroForm.
package form

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
	"github.com/lvillar/pdfcli/document"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/markdown"
	"github.com/lvillar/pdfcli/reader"
	"github.com/lvillar/pdfcli/writer"
)

var validate = validator.New()

// FieldType specifies the type of form field.
type FieldType string

const (
	TypeText     FieldType = "text"     // single or multi-line text input
	TypeCheckbox FieldType = "checkbox" // checkbox (on/off)
	TypeRadio    FieldType = "radio"    // radio button group
	TypeDropdown FieldType = "dropdown" // dropdown/combo box
	TypeButton   FieldType = "button"   // push button
)

// FieldSpec defines a form field to be added to a page. Coordinates are
// points from the bottom left corner.
type FieldSpec struct {
	Name string    `json:"name" validate:"required"`
	Type FieldType `json:"type" validate:"oneof=text checkbox radio dropdown button"`
	// Page is 1-based; zero places the field on the first page.
	Page   int     `json:"page,omitempty" validate:"gte=0"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
	// Default is the initial value. For checkboxes "Yes", "true" and "on"
	// mean checked; for buttons it is the caption.
	Default   string   `json:"default_value,omitempty"`
	Options   []string `json:"options,omitempty" validate:"required_if=Type dropdown,required_if=Type radio"`
	Required  bool     `json:"required,omitempty"`
	ReadOnly  bool     `json:"read_only,omitempty"`
	MultiLine bool     `json:"multi_line,omitempty"`
	MaxLen    int      `json:"max_len,omitempty" validate:"gte=0"`
	// FontSize defaults to 12 for text and choice fields.
	FontSize float64 `json:"font_size,omitempty" validate:"gte=0,lte=200"`
}

// Validate checks the struct tags.
func (f FieldSpec) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("form: %w: field %q: %v", pdfcli.ErrInvalidParam, f.Name, err)
	}
	return nil
}

// ParseFields decodes a JSON array of field specs and validates them.
// Duplicate names are rejected.
func ParseFields(data []byte) ([]FieldSpec, error) {
	var specs []FieldSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("form: %w: fields: %v", pdfcli.ErrInvalidParam, err)
	}
	if err := check(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func check(specs []FieldSpec) error {
	seen := make(map[string]bool, len(specs))
	for _, f := range specs {
		if err := f.Validate(); err != nil {
			return err
		}
		if seen[f.Name] {
			return fmt.Errorf("form: %w: duplicate field name %q", pdfcli.ErrInvalidParam, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

func checked(v string) bool {
	return v == "Yes" || v == "true" || v == "on"
}

// Dict renders the merged field and widget dictionary.
func (f FieldSpec) Dict() string {
	var sb strings.Builder
	sb.WriteString("<< /Type /Annot\n/Subtype /Widget\n")
	fmt.Fprintf(&sb, "/Rect [%s %s %s %s]\n", writer.Num(f.X), writer.Num(f.Y), writer.Num(f.X+f.Width), writer.Num(f.Y+f.Height))
	fmt.Fprintf(&sb, "/T %s\n/F 4\n", writer.TextString(f.Name))

	var ff int
	if f.ReadOnly {
		ff |= reader.FlagReadOnly
	}
	if f.Required {
		ff |= reader.FlagRequired
	}
	size := f.FontSize
	if size == 0 {
		size = 12
	}
	da := fmt.Sprintf("/DA (/Helv %s Tf 0 g)\n", writer.Num(size))

	switch f.Type {
	case TypeText:
		sb.WriteString("/FT /Tx\n" + da)
		if f.Default != "" {
			fmt.Fprintf(&sb, "/V %s\n", writer.TextString(f.Default))
		}
		if f.MaxLen > 0 {
			fmt.Fprintf(&sb, "/MaxLen %d\n", f.MaxLen)
		}
		if f.MultiLine {
			ff |= reader.FlagMultiline
		}
	case TypeCheckbox:
		sb.WriteString("/FT /Btn\n/MK << /CA (4) >>\n")
		if checked(f.Default) {
			sb.WriteString("/V /Yes\n/AS /Yes\n")
		} else {
			sb.WriteString("/V /Off\n/AS /Off\n")
		}
	case TypeRadio:
		ff |= reader.FlagRadio
		sb.WriteString("/FT /Btn\n/MK << /CA (l) >>\n")
		writeOptions(&sb, f.Options)
		if f.Default != "" {
			fmt.Fprintf(&sb, "/V %s\n", assemble.Name(f.Default))
		} else {
			sb.WriteString("/V /Off\n")
		}
	case TypeDropdown:
		ff |= reader.FlagCombo
		sb.WriteString("/FT /Ch\n" + da)
		writeOptions(&sb, f.Options)
		if f.Default != "" {
			fmt.Fprintf(&sb, "/V %s\n", writer.TextString(f.Default))
		}
	case TypeButton:
		ff |= reader.FlagPushbutton
		sb.WriteString("/FT /Btn\n")
		if f.Default != "" {
			fmt.Fprintf(&sb, "/MK << /CA %s >>\n", writer.TextString(f.Default))
		}
	}
	if ff != 0 {
		fmt.Fprintf(&sb, "/Ff %d\n", ff)
	}
	sb.WriteString(">>\n")
	return sb.String()
}

func writeOptions(sb *strings.Builder, opts []string) {
	if len(opts) == 0 {
		return
	}
	items := make([]string, len(opts))
	for i, o := range opts {
		items[i] = writer.TextString(o)
	}
	fmt.Fprintf(sb, "/Opt [%s]\n", strings.Join(items, " "))
}

// Build writes the widgets of specs into a, adds each to the /Annots of its
// page and returns the AcroForm dictionary for assemble.Options.AcroForm.
// A field on a page beyond pages is an ErrRange.
func Build(a *writer.Arena, specs []FieldSpec, pages []assemble.Page) (writer.Ref, error) {
	if len(specs) == 0 {
		return 0, nil
	}
	if err := check(specs); err != nil {
		return 0, err
	}
	fields := make([]writer.Ref, 0, len(specs))
	for _, f := range specs {
		idx := max(f.Page, 1) - 1
		if idx >= len(pages) {
			return 0, fmt.Errorf("form: %w: field %q targets page %d of %d", pdfcli.ErrRange, f.Name, f.Page, len(pages))
		}
		ref := a.Add(f.Dict())
		pages[idx].Annots = append(pages[idx].Annots, ref)
		fields = append(fields, ref)
	}
	helv := a.Add(font.Dict("Helvetica"))
	logger.Debug("built form", "fields", len(fields))
	return a.Add(fmt.Sprintf("<< /Fields [%s]\n/DR << /Font << /Helv %s >> >>\n/DA (/Helv 0 Tf 0 g)\n/NeedAppearances true\n>>\n",
		writer.Refs(fields), helv)), nil
}

// CreateForm renders markdown text and places the fields on its pages.
// A nil cfg uses the defaults.
func CreateForm(text []byte, specs []FieldSpec, cfg *pdfcli.Config) ([]byte, error) {
	if err := check(specs); err != nil {
		return nil, err
	}
	p, err := document.Prepare(markdown.Parse(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	ref, err := Build(p.Arena, specs, p.Pages)
	if err != nil {
		return nil, err
	}
	p.Options.AcroForm = ref
	return p.Assemble()
}

// CreateFormFile writes the document built by CreateForm to path.
func CreateFormFile(path string, text []byte, specs []FieldSpec, cfg *pdfcli.Config) error {
	data, err := CreateForm(text, specs, cfg)
	if err != nil {
		return err
	}
	return document.WriteFile(path, data)
}

// Builder collects fields with a fluent API.
type Builder struct {
	fields []*FieldSpec
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) add(f FieldSpec) *FieldSpec {
	if f.Type == TypeText || f.Type == TypeDropdown {
		f.FontSize = 12
	}
	b.fields = append(b.fields, &f)
	return &f
}

// AddTextField adds a text input field.
func (b *Builder) AddTextField(name string, page int, x, y, w, h float64) *FieldSpec {
	return b.add(FieldSpec{Name: name, Type: TypeText, Page: page, X: x, Y: y, Width: w, Height: h})
}

// AddCheckbox adds a square checkbox.
func (b *Builder) AddCheckbox(name string, page int, x, y, size float64) *FieldSpec {
	return b.add(FieldSpec{Name: name, Type: TypeCheckbox, Page: page, X: x, Y: y, Width: size, Height: size})
}

// AddRadio adds a radio button group choosing one of options.
func (b *Builder) AddRadio(name string, page int, x, y, size float64, options []string) *FieldSpec {
	return b.add(FieldSpec{Name: name, Type: TypeRadio, Page: page, X: x, Y: y, Width: size, Height: size, Options: options})
}

// AddDropdown adds a combo box.
func (b *Builder) AddDropdown(name string, page int, x, y, w, h float64, options []string) *FieldSpec {
	return b.add(FieldSpec{Name: name, Type: TypeDropdown, Page: page, X: x, Y: y, Width: w, Height: h, Options: options})
}

// AddButton adds a push button with a caption.
func (b *Builder) AddButton(name string, page int, x, y, w, h float64, label string) *FieldSpec {
	return b.add(FieldSpec{Name: name, Type: TypeButton, Page: page, X: x, Y: y, Width: w, Height: h, Default: label})
}

// Fields returns a copy of the collected specs.
func (b *Builder) Fields() []FieldSpec {
	out := make([]FieldSpec, len(b.fields))
	for i, f := range b.fields {
		out[i] = *f
	}
	return out
}

// SetValue sets the default value. Returns the field for chaining.
func (f *FieldSpec) SetValue(v string) *FieldSpec {
	f.Default = v
	return f
}

// SetRequired marks the field as required.
func (f *FieldSpec) SetRequired(required bool) *FieldSpec {
	f.Required = required
	return f
}

// SetReadOnly marks the field as read-only.
func (f *FieldSpec) SetReadOnly(readOnly bool) *FieldSpec {
	f.ReadOnly = readOnly
	return f
}

// SetMaxLen sets the maximum input length for text fields.
func (f *FieldSpec) SetMaxLen(n int) *FieldSpec {
	f.MaxLen = n
	return f
}

// SetMultiLine enables multi-line input for text fields.
func (f *FieldSpec) SetMultiLine(multiLine bool) *FieldSpec {
	f.MultiLine = multiLine
	return f
}
