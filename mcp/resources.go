package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/validate"
)

// RegisterDefaultResources adds all built-in PDF resources to the server.
// Each is read as its template prefix followed by a file path, for example
// pdf://text//home/me/report.pdf.
func RegisterDefaultResources(s *Server) {
	s.AddResource(Resource{
		URITemplate: "pdf://text/{path}",
		Name:        "PDF Text Content",
		Description: "All text content of a PDF file, page by page.",
		MIMEType:    "text/plain",
		Handler:     handleTextResource,
	})
	s.AddResource(Resource{
		URITemplate: "pdf://metadata/{path}",
		Name:        "PDF Metadata",
		Description: "Document information of a PDF file (title, author, subject, etc.).",
		MIMEType:    "application/json",
		Handler:     handleMetadataResource,
	})
	s.AddResource(Resource{
		URITemplate: "pdf://pages/{path}",
		Name:        "PDF Page Info",
		Description: "Page count, sizes and rotation of a PDF file.",
		MIMEType:    "application/json",
		Handler:     handlePagesResource,
	})
	s.AddResource(Resource{
		URITemplate: "pdf://validate/{path}",
		Name:        "PDF Validation Report",
		Description: "Structural validation report of a PDF file.",
		MIMEType:    "application/json",
		Handler:     handleValidateResource,
	})
	s.AddResource(Resource{
		URITemplate: "pdf://form-fields/{path}",
		Name:        "PDF Form Fields",
		Description: "Terminal form fields of a PDF file with their values.",
		MIMEType:    "application/json",
		Handler:     handleFormFieldsResource,
	})
}

func jsonContent(uri string, v any) []ResourceContent {
	b, _ := json.MarshalIndent(v, "", "  ")
	return []ResourceContent{{URI: uri, MIMEType: "application/json", Text: string(b)}}
}

func handleTextResource(_ context.Context, uri, path string) ([]ResourceContent, error) {
	doc, _, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{URI: uri, MIMEType: "text/plain", Text: pagesText(doc, nil)}}, nil
}

func handleMetadataResource(_ context.Context, uri, path string) ([]ResourceContent, error) {
	doc, _, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	return jsonContent(uri, map[string]any{
		"version":   doc.Version,
		"numPages":  doc.NumPages(),
		"encrypted": doc.IsEncrypted(),
		"metadata":  doc.Metadata(),
	}), nil
}

func handlePagesResource(_ context.Context, uri, path string) ([]ResourceContent, error) {
	doc, _, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	return jsonContent(uri, map[string]any{
		"numPages": doc.NumPages(),
		"pages":    pageInfos(doc),
	}), nil
}

func handleValidateResource(_ context.Context, uri, path string) ([]ResourceContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mcp: %w: %v", pdfcli.ErrIO, err)
	}
	return jsonContent(uri, validate.Deep(data)), nil
}

func handleFormFieldsResource(_ context.Context, uri, path string) ([]ResourceContent, error) {
	doc, _, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	fields := formInfos(doc)
	if fields == nil {
		fields = []fieldInfo{}
	}
	return jsonContent(uri, map[string]any{
		"fieldCount": len(fields),
		"fields":     fields,
	}), nil
}
