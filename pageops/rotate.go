package pageops

import (
	"fmt"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
)

// Rotate turns pages by angle degrees clockwise on top of their current
// rotation. The angle must be 0, 90, 180 or 270. With no page numbers
// every page is rotated.
func Rotate(data []byte, angle int, pages ...int) ([]byte, error) {
	if err := assemble.ValidateRotation(angle); err != nil {
		return nil, fmt.Errorf("pageops: %w", err)
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	if len(src.pages) == 0 {
		return nil, fmt.Errorf("pageops: %w: no pages found", pdfcli.ErrRange)
	}

	selected := make(map[int]bool, len(pages))
	for _, n := range pages {
		if n < 1 || n > len(src.pages) {
			return nil, fmt.Errorf("pageops: %w: invalid page number %d (document has %d pages)", pdfcli.ErrRange, n, len(src.pages))
		}
		selected[n] = true
	}

	out := make([]sourcePage, len(src.pages))
	for i, p := range src.pages {
		if len(pages) == 0 || selected[i+1] {
			p.rotate = (p.rotate + angle) % 360
		}
		out[i] = p
	}
	return rebuild(src, out, nil)
}

// RotateFile rotates the pages of in and writes the result to out.
func RotateFile(in, out string, angle int, pages ...int) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return Rotate(data, angle, pages...)
	})
}

// Reorder arranges pages in the given order of 1-based page numbers. Pages
// may be repeated or left out; each content stream is carried over
// unchanged.
func Reorder(data []byte, order []int) ([]byte, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("pageops: %w: page order list is empty", pdfcli.ErrRange)
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	selected, err := pick(src, order)
	if err != nil {
		return nil, err
	}
	return rebuild(src, selected, nil)
}

// ReorderFile reorders the pages of in and writes the result to out.
func ReorderFile(in, out string, order []int) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return Reorder(data, order)
	})
}
