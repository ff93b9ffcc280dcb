package barcode

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/content"
	"github.com/lvillar/pdfcli/element"
)

func TestEncodeQR(t *testing.T) {
	img, err := Encode(element.QR, "https://example.com")
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, b.Dx(), b.Dy())
	assert.GreaterOrEqual(t, b.Dx(), 21)

	w, h := Size(element.QR, img, 500)
	assert.Equal(t, float64(QRSide), w)
	assert.Equal(t, w, h)
}

func TestEncodeCode128(t *testing.T) {
	img, err := Encode(element.Code128, "ABC-123")
	require.NoError(t, err)
	w, h := Size(element.Code128, img, 100)
	assert.LessOrEqual(t, w, 100.0)
	assert.Equal(t, float64(LinearHeight), h)
}

func TestEncodePDF417(t *testing.T) {
	img, err := Encode(element.PDF417, "pdf-cli")
	require.NoError(t, err)
	assert.False(t, img.Bounds().Empty())
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(element.QR, "")
	assert.True(t, errors.Is(err, pdfcli.ErrInvalidParam))

	_, err = Encode("aztec", "x")
	assert.True(t, errors.Is(err, pdfcli.ErrUnsupported))
}

func TestDrawRuns(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(0, 0, color.Black)
	img.Set(1, 0, color.Black)
	img.Set(3, 1, color.Black)

	var s content.Stream
	Draw(&s, img, 10, 20, 8, 4)
	out := string(s.Bytes())
	assert.Equal(t, 2, strings.Count(out, " re f\n"))
	// Top row sits above the bottom row.
	assert.Contains(t, out, "10 22 4 2 re f\n")
	assert.Contains(t, out, "16 20 2 2 re f\n")
	assert.True(t, strings.HasPrefix(out, "q\n0 0 0 rg\n"))
}
