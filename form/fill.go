package form

import (
	"fmt"
	"os"

	"golang.org/x/text/encoding/unicode"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/pageops"
	"github.com/lvillar/pdfcli/reader"
)

// Fields lists the terminal fields of a document's form.
func Fields(data []byte) ([]*reader.FormField, error) {
	doc, err := reader.Load(data)
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	return leaves(doc)
}

func leaves(doc *reader.Document) ([]*reader.FormField, error) {
	roots, err := doc.FormFields()
	if err != nil {
		return nil, fmt.Errorf("form: reading form fields: %w", err)
	}
	var out []*reader.FormField
	for _, f := range roots {
		out = append(out, f.Leaves()...)
	}
	return out, nil
}

// Fill sets field values, matched case-sensitively by fully qualified name,
// and writes the document back. Checkboxes take "Yes", "true" or "on" as
// checked; radio groups take the option name.
func Fill(data []byte, values map[string]string) ([]byte, error) {
	if len(values) == 0 {
		return data, nil
	}
	doc, err := reader.Load(data)
	if err != nil {
		return nil, fmt.Errorf("form: parsing PDF: %w", err)
	}
	fields, err := leaves(doc)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("form: %w: no form fields found in PDF", pdfcli.ErrInvalidParam)
	}

	byObj := make(map[int]*reader.FormField, len(fields))
	byName := make(map[string]*reader.FormField, len(fields))
	for _, f := range fields {
		byName[f.FullName] = f
	}
	for name := range values {
		f, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("form: %w: field %q not found in PDF", pdfcli.ErrInvalidParam, name)
		}
		if f.ObjNum == 0 {
			return nil, fmt.Errorf("form: %w: field %q is a direct object", pdfcli.ErrUnsupported, name)
		}
		byObj[f.ObjNum] = f
	}

	rootNum, formNum := formObjects(doc)
	out, err := pageops.Rewrite(doc, func(num int, obj reader.Object) (reader.Object, error) {
		d, ok := obj.(reader.Dict)
		if !ok {
			return obj, nil
		}
		switch {
		case byObj[num] != nil:
			f := byObj[num]
			return setValue(d, f, values[f.FullName]), nil
		case num == formNum:
			return needAppearances(d), nil
		case formNum == 0 && num == rootNum:
			if af, ok := d["AcroForm"].(reader.Dict); ok {
				d = clone(d)
				d["AcroForm"] = needAppearances(af)
			}
			return d, nil
		}
		return obj, nil
	})
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	logger.Debug("filled form", "fields", len(values))
	return out, nil
}

// FillFile fills the fields of in and writes out.
func FillFile(in, out string, values map[string]string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("form: %w: %v", pdfcli.ErrIO, err)
	}
	res, err := Fill(data, values)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, res, 0o644); err != nil {
		return fmt.Errorf("form: %w: %v", pdfcli.ErrIO, err)
	}
	return nil
}

func clone(d reader.Dict) reader.Dict {
	out := make(reader.Dict, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	return out
}

// formObjects returns the object numbers of the catalog and of the
// AcroForm dictionary, the latter 0 when the form is a direct object.
func formObjects(doc *reader.Document) (root, acroForm int) {
	if r, ok := doc.Trailer()["Root"].(reader.Reference); ok {
		root = r.Number
	}
	if cat, err := doc.Catalog(); err == nil {
		if r, ok := cat["AcroForm"].(reader.Reference); ok {
			acroForm = r.Number
		}
	}
	return root, acroForm
}

func needAppearances(d reader.Dict) reader.Dict {
	d = clone(d)
	d["NeedAppearances"] = reader.Boolean(true)
	return d
}

// textValue encodes s as a PDF text string: PDFDocEncoding bytes for ASCII,
// UTF-16BE with a byte order mark otherwise.
func textValue(s string) reader.String {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			enc, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String(s)
			if err == nil {
				return reader.String{Value: []byte(enc)}
			}
			break
		}
	}
	return reader.String{Value: []byte(s)}
}

func setValue(d reader.Dict, f *reader.FormField, value string) reader.Dict {
	d = clone(d)
	switch {
	case f.Type == "Btn" && f.Flags&reader.FlagRadio != 0:
		if value == "" {
			value = "Off"
		}
		d["V"] = reader.Name(value)
		d["AS"] = reader.Name(value)
	case f.Type == "Btn":
		state := reader.Name("Off")
		if checked(value) {
			state = "Yes"
		}
		d["V"] = state
		d["AS"] = state
	default:
		d["V"] = textValue(value)
	}
	return d
}
