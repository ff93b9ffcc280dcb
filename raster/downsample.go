package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	pdfcli "github.com/lvillar/pdfcli"
)

// JPEGQuality is used when a downsampled JPEG is re-encoded.
const JPEGQuality = 85

// Image decodes the source file to pixels.
func (i *Info) Image() (image.Image, error) {
	var (
		img image.Image
		err error
	)
	r := bytes.NewReader(i.src)
	switch i.Format {
	case JPEG:
		img, err = jpeg.Decode(r)
	case PNG:
		img, err = png.Decode(r)
	case BMP:
		img, err = bmp.Decode(r)
	default:
		return nil, fmt.Errorf("raster: %w: no source image", pdfcli.ErrUnsupported)
	}
	if err != nil {
		return nil, fmt.Errorf("raster: %w: %v", pdfcli.ErrFormat, err)
	}
	return img, nil
}

// Downsample resamples info so that, drawn drawnW points wide, it does not
// exceed maxDPI. Images already within the limit and a non-positive maxDPI
// return info unchanged. JPEG sources stay JPEG; others become raw RGB.
func Downsample(info *Info, maxDPI, drawnW float64) (*Info, error) {
	if maxDPI <= 0 || drawnW <= 0 {
		return info, nil
	}
	target := int(drawnW / 72 * maxDPI)
	if target < 1 || info.Width <= target {
		return info, nil
	}
	src, err := info.Image()
	if err != nil {
		return nil, err
	}
	h := max(info.Height*target/info.Width, 1)
	dst := image.NewRGBA(image.Rect(0, 0, target, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	if info.Format == JPEG {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("raster: %w: %v", pdfcli.ErrFormat, err)
		}
		out, err := Decode(buf.Bytes())
		if err != nil {
			return nil, err
		}
		return out.WithAlt(info.Alt), nil
	}
	out := fromImage(dst, 3)
	out.Format = info.Format
	out.Alt = info.Alt
	return out, nil
}
