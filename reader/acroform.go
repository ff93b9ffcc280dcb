package reader

import (
	"fmt"
	"strconv"

	pdfcli "github.com/lvillar/pdfcli"
)

// Field flag bits (/Ff).
const (
	FlagReadOnly   = 1 << 0
	FlagRequired   = 1 << 1
	FlagMultiline  = 1 << 12
	FlagPassword   = 1 << 13
	FlagRadio      = 1 << 15
	FlagPushbutton = 1 << 16
	FlagCombo      = 1 << 17
)

// FormField is a node of the AcroForm field tree.
type FormField struct {
	Name     string // partial name, /T
	FullName string // dotted path from the root field
	Type     string // Tx, Btn, Ch or Sig, inherited when missing
	Value    string
	Default  string
	Flags    int
	Rect     Rectangle
	Options  []string
	Kids     []*FormField
	ObjNum   int // 0 when the field is a direct object
	dict     Dict
}

// IsReadOnly reports the ReadOnly flag.
func (f *FormField) IsReadOnly() bool { return f.Flags&FlagReadOnly != 0 }

// IsRequired reports the Required flag.
func (f *FormField) IsRequired() bool { return f.Flags&FlagRequired != 0 }

// Dict returns the field dictionary.
func (f *FormField) Dict() Dict { return f.dict }

// Leaves returns the terminal fields below f, f itself when it has no
// named kids.
func (f *FormField) Leaves() []*FormField {
	var named []*FormField
	for _, k := range f.Kids {
		if k.Name != "" {
			named = append(named, k)
		}
	}
	if len(named) == 0 {
		return []*FormField{f}
	}
	var out []*FormField
	for _, k := range named {
		out = append(out, k.Leaves()...)
	}
	return out
}

// AcroForm returns the interactive form dictionary, or nil.
func (d *Document) AcroForm() (Dict, error) {
	cat, err := d.Catalog()
	if err != nil {
		return nil, err
	}
	o, err := d.resolveIfRef(cat["AcroForm"])
	if err != nil {
		return nil, fmt.Errorf("reader: resolving /AcroForm: %w", err)
	}
	af, _ := o.(Dict)
	return af, nil
}

// FormFields returns the root fields of the AcroForm. A document without a
// form yields an empty slice.
func (d *Document) FormFields() ([]*FormField, error) {
	fields := []*FormField{}
	af, err := d.AcroForm()
	if err != nil || af == nil {
		return fields, err
	}
	o, err := d.resolveIfRef(af["Fields"])
	if err != nil {
		return nil, fmt.Errorf("reader: resolving /Fields: %w", err)
	}
	arr, _ := o.(Array)
	for _, item := range arr {
		f, err := d.parseFormField(item, nil, map[int]bool{})
		if err != nil {
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// FormField returns the field with the fully qualified name, or nil.
func (d *Document) FormField(name string) (*FormField, error) {
	fields, err := d.FormFields()
	if err != nil {
		return nil, err
	}
	return findField(fields, name), nil
}

func findField(fields []*FormField, name string) *FormField {
	for _, f := range fields {
		if f.FullName == name {
			return f
		}
		if found := findField(f.Kids, name); found != nil {
			return found
		}
	}
	return nil
}

func (d *Document) parseFormField(obj Object, parent *FormField, seen map[int]bool) (*FormField, error) {
	field := &FormField{}
	if ref, ok := obj.(Reference); ok {
		if seen[ref.Number] {
			return nil, fmt.Errorf("reader: %w: field tree loops at object %d", pdfcli.ErrFormat, ref.Number)
		}
		seen[ref.Number] = true
		field.ObjNum = ref.Number
	}
	o, err := d.resolveIfRef(obj)
	if err != nil {
		return nil, err
	}
	dict, ok := o.(Dict)
	if !ok {
		return nil, fmt.Errorf("reader: %w: form field is not a dictionary", pdfcli.ErrFormat)
	}
	field.dict = dict

	field.Name = dict.GetString("T")
	switch {
	case parent != nil && parent.FullName != "" && field.Name != "":
		field.FullName = parent.FullName + "." + field.Name
	case field.Name != "":
		field.FullName = field.Name
	case parent != nil:
		field.FullName = parent.FullName
	}

	field.Type = string(dict.GetName("FT"))
	if field.Type == "" && parent != nil {
		field.Type = parent.Type
	}
	if v, err := d.resolveIfRef(dict["V"]); err == nil {
		field.Value = objectToString(v)
	}
	if v, err := d.resolveIfRef(dict["DV"]); err == nil {
		field.Default = objectToString(v)
	}
	if ff, ok := dict.GetInt("Ff"); ok {
		field.Flags = int(ff)
	} else if parent != nil {
		field.Flags = parent.Flags
	}
	if r, err := d.resolveIfRef(dict["Rect"]); err == nil {
		if rect, err := parseRectangle(r); err == nil {
			field.Rect = rect
		}
	}
	if opt, err := d.resolveIfRef(dict["Opt"]); err == nil {
		if arr, ok := opt.(Array); ok {
			for _, item := range arr {
				// [export display] pairs show the display string
				if pair, ok := item.(Array); ok && len(pair) == 2 {
					item = pair[1]
				}
				field.Options = append(field.Options, objectToString(item))
			}
		}
	}

	kids, err := d.resolveIfRef(dict["Kids"])
	if err == nil {
		if arr, ok := kids.(Array); ok {
			for _, k := range arr {
				kid, err := d.parseFormField(k, field, seen)
				if err != nil {
					continue
				}
				field.Kids = append(field.Kids, kid)
			}
		}
	}
	return field, nil
}

func objectToString(obj Object) string {
	switch v := obj.(type) {
	case String:
		return v.Text()
	case Name:
		return string(v)
	case Integer:
		return strconv.FormatInt(int64(v), 10)
	case Real:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case Boolean:
		return strconv.FormatBool(bool(v))
	}
	return ""
}
