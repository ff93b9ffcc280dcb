package form_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/form"
	"github.com/lvillar/pdfcli/reader"
)

func TestTextFieldCreation(t *testing.T) {
	b := form.NewBuilder()
	b.AddTextField("name", 1, 100, 700, 200, 20)
	b.AddTextField("email", 1, 100, 670, 200, 20).SetRequired(true)

	data, err := form.CreateForm([]byte("Name:\n\nEmail:"), b.Fields(), nil)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("/AcroForm")))
	assert.True(t, bytes.Contains(data, []byte("/FT /Tx")))

	doc, err := reader.Load(data)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.NumPages())

	email, err := doc.FormField("email")
	require.NoError(t, err)
	require.NotNil(t, email)
	assert.True(t, email.IsRequired())
	assert.Equal(t, "Tx", email.Type)
	assert.InDelta(t, 300, email.Rect.URX, 1e-9)
}

func TestCheckboxCreation(t *testing.T) {
	b := form.NewBuilder()
	b.AddCheckbox("accept", 1, 60, 600, 12).SetValue("Yes")

	data, err := form.CreateForm([]byte("Accept terms:"), b.Fields(), nil)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("/FT /Btn")))

	fields, err := form.Fields(data)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Yes", fields[0].Value)
}

func TestDropdownCreation(t *testing.T) {
	b := form.NewBuilder()
	b.AddDropdown("country", 1, 40, 500, 120, 18, []string{"USA", "Canada", "Mexico", "Brazil"}).SetValue("USA")

	data, err := form.CreateForm([]byte("Country:"), b.Fields(), nil)
	require.NoError(t, err)

	fields, err := form.Fields(data)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	f := fields[0]
	assert.Equal(t, "Ch", f.Type)
	assert.Equal(t, "USA", f.Value)
	assert.Equal(t, []string{"USA", "Canada", "Mexico", "Brazil"}, f.Options)
	assert.NotZero(t, f.Flags&reader.FlagCombo)
}

func TestMultipleFieldTypes(t *testing.T) {
	b := form.NewBuilder()
	b.AddTextField("fullname", 1, 150, 700, 200, 18).SetRequired(true)
	b.AddDropdown("country", 1, 150, 670, 200, 18, []string{"USA", "Canada"})
	b.AddRadio("size", 1, 150, 640, 12, []string{"S", "M", "L"})
	b.AddCheckbox("terms", 2, 150, 610, 12)
	b.AddTextField("comments", 2, 150, 500, 200, 80).SetMultiLine(true).SetMaxLen(500)
	b.AddButton("submit", 2, 150, 450, 60, 20, "Send")

	data, err := form.CreateForm([]byte("Page one\n\n<!--pagebreak-->\n\nPage two"), b.Fields(), nil)
	require.NoError(t, err, "two page source")

	doc, err := reader.Load(data)
	require.NoError(t, err)
	fields, err := doc.FormFields()
	require.NoError(t, err)
	assert.Len(t, fields, 6)

	comments, err := doc.FormField("comments")
	require.NoError(t, err)
	require.NotNil(t, comments)
	assert.NotZero(t, comments.Flags&reader.FlagMultiline)

	size, err := doc.FormField("size")
	require.NoError(t, err)
	require.NotNil(t, size)
	assert.NotZero(t, size.Flags&reader.FlagRadio)
}

func TestAcroFormFieldsArray(t *testing.T) {
	b := form.NewBuilder()
	b.AddTextField("first", 1, 100, 700, 200, 20)
	b.AddTextField("second", 1, 100, 670, 200, 20)

	data, err := form.CreateForm([]byte("Two fields"), b.Fields(), nil)
	require.NoError(t, err)

	doc, err := reader.Load(data)
	require.NoError(t, err)
	af, err := doc.AcroForm()
	require.NoError(t, err)
	require.NotNil(t, af)
	refs, ok := af["Fields"].(reader.Array)
	require.True(t, ok, "/Fields is %T", af["Fields"])
	require.Len(t, refs, 2)
	for _, r := range refs {
		assert.IsType(t, reader.Reference{}, r)
	}
	assert.NotNil(t, af["DR"])

	fields, err := form.Fields(data)
	require.NoError(t, err)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.FullName)
	}
	assert.ElementsMatch(t, []string{"first", "second"}, names)
}

func TestFieldOnMissingPage(t *testing.T) {
	specs := []form.FieldSpec{{Name: "x", Type: form.TypeText, Page: 9, Width: 10, Height: 10}}
	_, err := form.CreateForm([]byte("one page"), specs, nil)
	assert.ErrorIs(t, err, pdfcli.ErrRange)
}

func TestParseFields(t *testing.T) {
	specs, err := form.ParseFields([]byte(`[
		{"name": "first", "type": "text", "x": 100, "y": 700, "width": 200, "height": 20, "default_value": "John", "required": true},
		{"name": "color", "type": "dropdown", "x": 100, "y": 650, "width": 100, "height": 20, "options": ["red", "blue"]}
	]`))
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "John", specs[0].Default)
	assert.True(t, specs[0].Required)
	assert.Equal(t, form.TypeDropdown, specs[1].Type)

	dict := specs[0].Dict()
	assert.Contains(t, dict, "/Subtype /Widget")
	assert.Contains(t, dict, "/FT /Tx")
	assert.Contains(t, dict, "/V (John)")
	assert.Contains(t, dict, "/Ff 2")
	assert.Contains(t, specs[1].Dict(), "/Ff 131072")
}

func TestParseFieldsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad json":        `{`,
		"unknown type":    `[{"name": "a", "type": "slider", "width": 1, "height": 1}]`,
		"missing name":    `[{"type": "text", "width": 1, "height": 1}]`,
		"zero width":      `[{"name": "a", "type": "text", "height": 1}]`,
		"dropdown no opt": `[{"name": "a", "type": "dropdown", "width": 1, "height": 1}]`,
		"duplicate":       `[{"name": "a", "type": "text", "width": 1, "height": 1}, {"name": "a", "type": "text", "width": 1, "height": 1}]`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := form.ParseFields([]byte(in))
			assert.ErrorIs(t, err, pdfcli.ErrInvalidParam)
		})
	}
}
