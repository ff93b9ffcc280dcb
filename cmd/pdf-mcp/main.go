// Command pdf-mcp is an MCP (Model Context Protocol) server that exposes
// PDF generation and manipulation to AI assistants over stdio.
//
// # Installation
//
//	go install github.com/lvillar/pdfcli/cmd/pdf-mcp@latest
//
// # Configuration
//
// Register the binary with the MCP client:
//
//	{
//	  "mcpServers": {
//	    "pdf": {
//	      "command": "pdf-mcp"
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - markdown_to_pdf: Convert Markdown to PDF
//   - create_pdf: Create PDFs from JSON templates
//   - extract_text: Extract text from PDFs
//   - merge_pdfs, split_pdf: Combine and cut documents
//   - rotate_pdf, reorder_pages: Rearrange pages
//   - add_watermark, add_page_numbers: Stamp pages
//   - validate_pdf, pdf_info: Inspect documents
//   - fill_form, flatten_form: Work with AcroForms
//   - protect_pdf: Encrypt with passwords and permissions
//
// # Available Resources
//
//   - pdf://text/{path}: Extract text content
//   - pdf://metadata/{path}: Get document metadata
//   - pdf://pages/{path}: Get page information
//   - pdf://validate/{path}: Validate the file structure
//   - pdf://form-fields/{path}: List form fields
//
// Logs go to stderr; stdout carries the protocol. Set PDF_MCP_DEBUG=1 for
// debug output.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/mcp"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	debug := os.Getenv("PDF_MCP_DEBUG") != ""
	logger.SetLogger(logger.Writer(os.Stderr, debug))
	logger.SetVerbose(debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(Version)
	mcp.RegisterDefaultTools(server)
	mcp.RegisterDefaultResources(server)

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "pdf-mcp: %v\n", err)
		os.Exit(1)
	}
}
