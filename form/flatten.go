package form

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/pageops"
	"github.com/lvillar/pdfcli/reader"
)

var daSize = regexp.MustCompile(`(\d+(?:\.\d+)?)\s+Tf`)

// Flatten draws every field value as static page content and removes the
// interactive form. A document without form fields is returned unchanged.
func Flatten(data []byte) ([]byte, error) {
	doc, err := reader.Load(data)
	if err != nil {
		return nil, fmt.Errorf("form: parsing PDF: %w", err)
	}
	fields, err := doc.FormFields()
	if err != nil {
		return nil, fmt.Errorf("form: reading form fields: %w", err)
	}
	if len(fields) == 0 {
		return data, nil
	}

	var stamps []pageops.Stamp
	for n, p := range doc.EachPage() {
		annots, _ := doc.Resolve(p.Dict()["Annots"])
		arr, _ := annots.(reader.Array)
		for _, item := range arr {
			o, err := doc.Resolve(item)
			if err != nil {
				continue
			}
			w, ok := o.(reader.Dict)
			if !ok || w.GetName("Subtype") != "Widget" {
				continue
			}
			if st, ok := widgetStamp(doc, w); ok {
				st.Page = n
				stamps = append(stamps, st)
			}
		}
	}
	logger.Debug("flattening form", "fields", len(fields), "stamps", len(stamps))
	out, err := pageops.StampText(data, stamps)
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	return out, nil
}

// FlattenFile flattens the form of in and writes out.
func FlattenFile(in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("form: %w: %v", pdfcli.ErrIO, err)
	}
	res, err := Flatten(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, res, 0o644); err != nil {
		return fmt.Errorf("form: %w: %v", pdfcli.ErrIO, err)
	}
	return nil
}

// inherited looks key up on the widget and then along its /Parent chain.
func inherited(doc *reader.Document, d reader.Dict, key reader.Name) reader.Object {
	for range 32 {
		if v, ok := d[key]; ok {
			o, err := doc.Resolve(v)
			if err != nil {
				return nil
			}
			return o
		}
		parent, err := doc.Resolve(d["Parent"])
		if err != nil {
			return nil
		}
		if d, _ = parent.(reader.Dict); d == nil {
			return nil
		}
	}
	return nil
}

func text(o reader.Object) string {
	switch v := o.(type) {
	case reader.String:
		return v.Text()
	case reader.Name:
		return string(v)
	}
	return ""
}

// widgetStamp returns the text that shows a widget's value.
func widgetStamp(doc *reader.Document, w reader.Dict) (pageops.Stamp, bool) {
	rect, ok := w.GetRect("Rect")
	if !ok || rect.Height() <= 0 {
		return pageops.Stamp{}, false
	}
	size := 0.0
	if m := daSize.FindStringSubmatch(text(inherited(doc, w, "DA"))); m != nil {
		size, _ = strconv.ParseFloat(m[1], 64)
	}
	if size == 0 {
		size = min(12, rect.Height()*0.7)
	}

	var value string
	ft := text(inherited(doc, w, "FT"))
	flags := 0
	if ff, ok := inherited(doc, w, "Ff").(reader.Integer); ok {
		flags = int(ff)
	}
	switch {
	case ft == "Btn" && flags&reader.FlagPushbutton != 0:
		return pageops.Stamp{}, false
	case ft == "Btn":
		state := text(w["AS"])
		if state == "" {
			state = text(inherited(doc, w, "V"))
		}
		if state == "" || state == "Off" {
			return pageops.Stamp{}, false
		}
		value = "X"
		size = min(size, rect.Height())
		return pageops.Stamp{
			X:    rect.LLX + (rect.Width()-font.TextWidth(value, size, false))/2,
			Y:    rect.LLY + (rect.Height()-size)/2 + size*0.2,
			Size: size,
			Text: value,
		}, true
	default:
		value = text(inherited(doc, w, "V"))
	}
	if value == "" {
		return pageops.Stamp{}, false
	}
	return pageops.Stamp{
		X:    rect.LLX + 2,
		Y:    rect.LLY + (rect.Height()-size)/2 + size*0.2,
		Size: size,
		Text: value,
	}, true
}
