// Package pdfcli authors, parses and rewrites PDF documents.
//
// The subpackages hold the engine: writer serializes objects, layout turns
// document elements into page content streams, assemble builds the page tree,
// reader parses existing files and pageops composes all of them into the
// merge/split/rotate/watermark family of operations.
package pdfcli

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every package of the module. Packages wrap them
// with %w so callers can classify failures with errors.Is.
var (
	ErrIO           = errors.New("pdfcli: i/o failure")
	ErrFormat       = errors.New("pdfcli: malformed input")
	ErrUnsupported  = errors.New("pdfcli: unsupported feature")
	ErrRange        = errors.New("pdfcli: value out of range")
	ErrInvalidParam = errors.New("pdfcli: invalid parameter")
	ErrEncrypted    = errors.New("pdfcli: document is encrypted")
)

// PDFError represents an error that occurred during a specific operation.
// It wraps an underlying error and includes the operation name for context.
type PDFError struct {
	Op  string // operation name, e.g. "merge", "split"
	Err error  // underlying error
}

func (e *PDFError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdfcli.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pdfcli.%s: unknown error", e.Op)
}

func (e *PDFError) Unwrap() error {
	return e.Err
}

// Wrap returns err annotated with op. A nil err yields nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PDFError{Op: op, Err: err}
}
