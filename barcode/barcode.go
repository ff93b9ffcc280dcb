// Package barcode draws QR, Code 128 and PDF417 symbols as vector modules.
package barcode

import (
	"fmt"
	"image"
	"image/color"

	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	"github.com/ruudk/golang-pdf417"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/content"
	"github.com/lvillar/pdfcli/element"
)

const (
	// QRSide is the default drawn edge of a QR symbol in points.
	QRSide = 144
	// LinearHeight is the bar height of a Code 128 symbol in points.
	LinearHeight = 50
	// ModuleWidth is the preferred width of one module in points.
	ModuleWidth = 1.5

	pdf417Columns       = 4
	pdf417SecurityLevel = 2
	// pdf417RowAspect is the height of a PDF417 row in module widths.
	pdf417RowAspect = 3
)

// Encode builds the symbol for data. Each image pixel is one module.
func Encode(kind element.BarcodeKind, data string) (image.Image, error) {
	if data == "" {
		return nil, fmt.Errorf("barcode: %w: empty %s data", pdfcli.ErrInvalidParam, kind)
	}
	switch kind {
	case element.QR:
		bc, err := qr.Encode(data, qr.M, qr.Auto)
		if err != nil {
			return nil, fmt.Errorf("barcode: %w: %v", pdfcli.ErrInvalidParam, err)
		}
		return bc, nil
	case element.Code128:
		bc, err := code128.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("barcode: %w: %v", pdfcli.ErrInvalidParam, err)
		}
		return bc, nil
	case element.PDF417:
		return pdf417.Encode(data, pdf417Columns, pdf417SecurityLevel), nil
	}
	return nil, fmt.Errorf("barcode: %w: symbology %q", pdfcli.ErrUnsupported, kind)
}

// Size returns the drawn size of img for kind, no wider than maxW.
func Size(kind element.BarcodeKind, img image.Image, maxW float64) (w, h float64) {
	b := img.Bounds()
	cols, rows := float64(b.Dx()), float64(b.Dy())
	switch kind {
	case element.QR:
		side := min(QRSide, maxW)
		return side, side
	case element.Code128:
		return min(cols*ModuleWidth, maxW), LinearHeight
	}
	w = min(cols*ModuleWidth, maxW)
	return w, rows * pdf417RowAspect * w / cols
}

// Draw paints img into the rectangle with lower-left corner (x, y). Each
// horizontal run of dark modules becomes one filled rectangle.
func Draw(s *content.Stream, img image.Image, x, y, w, h float64) {
	b := img.Bounds()
	if b.Empty() {
		return
	}
	mw := w / float64(b.Dx())
	mh := h / float64(b.Dy())

	s.Save()
	s.FillRGB(0, 0, 0)
	for row := b.Min.Y; row < b.Max.Y; row++ {
		ry := y + h - float64(row-b.Min.Y+1)*mh
		start := -1
		for col := b.Min.X; col <= b.Max.X; col++ {
			on := col < b.Max.X && dark(img.At(col, row))
			switch {
			case on && start < 0:
				start = col
			case !on && start >= 0:
				s.FillRect(x+float64(start-b.Min.X)*mw, ry, float64(col-start)*mw, mh)
				start = -1
			}
		}
	}
	s.Restore()
}

func dark(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 128
}
