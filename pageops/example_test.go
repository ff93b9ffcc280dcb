package pageops_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lvillar/pdfcli/document"
	"github.com/lvillar/pdfcli/pageops"
	"github.com/lvillar/pdfcli/reader"
)

// createExamplePDF writes a small labeled document for use in examples.
func createExamplePDF(filename, label string) error {
	data, err := document.CreateFromText(label+"\nThis document demonstrates the pageops functions.", nil)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// ExampleMergeFiles demonstrates merging multiple PDF files into one.
func ExampleMergeFiles() {
	dir, err := os.MkdirTemp("", "pageops")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	file1 := filepath.Join(dir, "a.pdf")
	file2 := filepath.Join(dir, "b.pdf")
	for file, label := range map[string]string{file1: "Document A", file2: "Document B"} {
		if err := createExamplePDF(file, label); err != nil {
			fmt.Println(err)
			return
		}
	}

	out := filepath.Join(dir, "merged.pdf")
	if err := pageops.MergeFiles(out, file1, file2); err != nil {
		fmt.Println(err)
		return
	}
	data, _ := os.ReadFile(out)
	doc, err := reader.Load(data)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("pages:", doc.NumPages())
	// Output:
	// pages: 2
}

// ExampleWatermark stamps a diagonal label over every page.
func ExampleWatermark() {
	data, err := document.CreateFromText("Quarterly figures", nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	marked, err := pageops.Watermark(data, "CONFIDENTIAL", 48, 0.3)
	if err != nil {
		fmt.Println(err)
		return
	}
	doc, _ := reader.Load(marked)
	text, _ := doc.ExtractText()
	fmt.Println(len(text) > 0, doc.NumPages())
	// Output:
	// true 1
}
