package form_test

import (
	"fmt"

	"github.com/lvillar/pdfcli/form"
)

// ExampleBuilder demonstrates creating an interactive PDF form with text
// fields, a checkbox and a dropdown menu.
func ExampleBuilder() {
	b := form.NewBuilder()
	b.AddTextField("fullname", 1, 160, 690, 200, 18).SetRequired(true)
	b.AddTextField("email", 1, 160, 660, 200, 18)
	b.AddDropdown("country", 1, 160, 630, 200, 18, []string{"Spain", "France", "Germany"}).SetValue("Spain")
	b.AddCheckbox("newsletter", 1, 160, 600, 12)

	src := []byte("# Registration Form\n\nFull Name:\n\nEmail:\n\nCountry:\n\nNewsletter:")
	data, err := form.CreateForm(src, b.Fields(), nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	fields, err := form.Fields(data)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, f := range fields {
		fmt.Println(f.FullName, f.Type)
	}
	// Output:
	// fullname Tx
	// email Tx
	// country Ch
	// newsletter Btn
}
