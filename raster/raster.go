// Package raster loads JPEG, PNG and BMP files into image XObject data.
//
// JPEG data is embedded as is (DCTDecode). Opaque non-interlaced PNGs keep
// their compressed IDAT stream and declare the PNG predictor; PNGs with
// alpha or interlacing and all BMPs are decoded to raw samples.
package raster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/bmp"

	pdfcli "github.com/lvillar/pdfcli"
)

// Format is a supported raster file format.
type Format int

const (
	JPEG Format = iota + 1
	PNG
	BMP
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	case BMP:
		return "bmp"
	}
	return "unknown"
}

// DetectFormat identifies data by its magic bytes.
func DetectFormat(data []byte) (Format, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("raster: %w: image data too short", pdfcli.ErrFormat)
	}
	switch {
	case data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return JPEG, nil
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return PNG, nil
	case data[0] == 'B' && data[1] == 'M':
		return BMP, nil
	}
	return 0, fmt.Errorf("raster: %w: unrecognized image format", pdfcli.ErrUnsupported)
}

// Info is a decoded image ready to be written as an XObject.
type Info struct {
	Format           Format
	Width            int
	Height           int
	BitsPerComponent int
	Components       int
	// Data is the stream payload, already encoded with Filter.
	Data []byte
	// Filter is the PDF filter name without slash; empty for raw samples.
	Filter      string
	DecodeParms string
	Alt         string

	src []byte
}

// Load reads and decodes the image at path.
func Load(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raster: %w: %v", pdfcli.ErrIO, err)
	}
	return Decode(data)
}

// Decode parses an image held in memory.
func Decode(data []byte) (*Info, error) {
	f, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}
	var info *Info
	switch f {
	case JPEG:
		info, err = decodeJPEG(data)
	case PNG:
		info, err = decodePNG(data)
	default:
		info, err = decodeBMP(data)
	}
	if err != nil {
		return nil, err
	}
	info.Format = f
	info.src = data
	return info, nil
}

// WithAlt sets the alternative text and returns i.
func (i *Info) WithAlt(alt string) *Info {
	i.Alt = alt
	return i
}

// AltText returns the alternative text, "Image" when unset.
func (i *Info) AltText() string {
	if i.Alt == "" {
		return "Image"
	}
	return i.Alt
}

// ColorSpace returns the device color space for the component count.
func (i *Info) ColorSpace() string {
	switch i.Components {
	case 1:
		return "DeviceGray"
	case 4:
		return "DeviceCMYK"
	}
	return "DeviceRGB"
}

// XObjectDict returns the image dictionary entries, without /Length.
func (i *Info) XObjectDict() string {
	d := fmt.Sprintf("/Type /XObject\n/Subtype /Image\n/Width %d\n/Height %d\n/ColorSpace /%s\n/BitsPerComponent %d\n",
		i.Width, i.Height, i.ColorSpace(), i.BitsPerComponent)
	if i.Filter != "" {
		d += "/Filter /" + i.Filter + "\n"
	}
	if i.DecodeParms != "" {
		d += "/DecodeParms " + i.DecodeParms + "\n"
	}
	return d
}

// ScaleToFit returns the drawn size of a w×h image inside maxW×maxH,
// preserving the aspect ratio and never enlarging.
func ScaleToFit(w, h int, maxW, maxH float64) (float64, float64) {
	fw, fh := float64(w), float64(h)
	s := min(maxW/fw, maxH/fh, 1)
	return fw * s, fh * s
}

func decodeJPEG(data []byte) (*Info, error) {
	i := 2
	for i+1 < len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		i += 2
		if isSOF(marker) {
			if i+8 > len(data) {
				return nil, fmt.Errorf("raster: %w: JPEG SOF marker truncated", pdfcli.ErrFormat)
			}
			return &Info{
				Height:           int(binary.BigEndian.Uint16(data[i+3:])),
				Width:            int(binary.BigEndian.Uint16(data[i+5:])),
				Components:       int(data[i+7]),
				BitsPerComponent: 8,
				Data:             data,
				Filter:           "DCTDecode",
			}, nil
		}
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) || marker == 0xFF {
			continue
		}
		if i+1 >= len(data) {
			break
		}
		i += int(binary.BigEndian.Uint16(data[i:]))
	}
	return nil, fmt.Errorf("raster: %w: no JPEG SOF marker", pdfcli.ErrFormat)
}

// isSOF matches SOF0..SOF15 except DHT (C4), JPG (C8) and DAC (CC).
func isSOF(m byte) bool {
	return m >= 0xC0 && m <= 0xCF && m != 0xC4 && m != 0xC8 && m != 0xCC
}

func decodePNG(data []byte) (*Info, error) {
	if len(data) < 29 || string(data[12:16]) != "IHDR" {
		return nil, fmt.Errorf("raster: %w: PNG data too short", pdfcli.ErrFormat)
	}
	w := int(binary.BigEndian.Uint32(data[16:]))
	h := int(binary.BigEndian.Uint32(data[20:]))
	depth := int(data[24])
	colorType := data[25]
	interlaced := data[28] != 0

	var comps int
	alpha := false
	switch colorType {
	case 0:
		comps = 1
	case 2:
		comps = 3
	case 3:
		return nil, fmt.Errorf("raster: %w: paletted PNG", pdfcli.ErrUnsupported)
	case 4:
		comps, alpha = 1, true
	case 6:
		comps, alpha = 3, true
	default:
		return nil, fmt.Errorf("raster: %w: invalid PNG color type %d", pdfcli.ErrFormat, colorType)
	}

	if alpha || interlaced {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("raster: %w: %v", pdfcli.ErrFormat, err)
		}
		return fromImage(img, comps), nil
	}

	idat, err := idatChunks(data)
	if err != nil {
		return nil, err
	}
	return &Info{
		Width:            w,
		Height:           h,
		BitsPerComponent: depth,
		Components:       comps,
		Data:             idat,
		Filter:           "FlateDecode",
		DecodeParms: fmt.Sprintf("<< /Predictor 15 /Colors %d /BitsPerComponent %d /Columns %d >>",
			comps, depth, w),
	}, nil
}

func idatChunks(data []byte) ([]byte, error) {
	var out []byte
	pos := 8
	for pos+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[pos:]))
		typ := string(data[pos+4 : pos+8])
		start := pos + 8
		if n < 0 || start+n > len(data) {
			return nil, fmt.Errorf("raster: %w: PNG chunk %s extends beyond file", pdfcli.ErrFormat, typ)
		}
		if typ == "IDAT" {
			out = append(out, data[start:start+n]...)
		}
		if typ == "IEND" {
			break
		}
		pos = start + n + 4
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("raster: %w: no IDAT chunks in PNG", pdfcli.ErrFormat)
	}
	return out, nil
}

func decodeBMP(data []byte) (*Info, error) {
	if len(data) < 54 {
		return nil, fmt.Errorf("raster: %w: BMP header too short", pdfcli.ErrFormat)
	}
	bpp := binary.LittleEndian.Uint16(data[28:])
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("raster: %w: BMP bit depth %d (only 24/32 supported)", pdfcli.ErrUnsupported, bpp)
	}
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("raster: %w: %v", pdfcli.ErrFormat, err)
	}
	return fromImage(img, 3), nil
}

// fromImage flattens img to raw 8-bit samples, dropping any alpha channel.
func fromImage(img image.Image, comps int) *Info {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*comps)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if comps == 1 {
				out = append(out, c.R)
			} else {
				out = append(out, c.R, c.G, c.B)
			}
		}
	}
	return &Info{
		Width:            b.Dx(),
		Height:           b.Dy(),
		BitsPerComponent: 8,
		Components:       comps,
		Data:             out,
	}
}
