package pageops

import (
	"fmt"
	"math"
	"strings"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/content"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/raster"
	"github.com/lvillar/pdfcli/writer"
)

// Position specifies where to place an element on a page.
type Position int

const (
	Center Position = iota
	TopLeft
	TopCenter
	TopRight
	BottomLeft
	BottomCenter
	BottomRight
	Diagonal
)

var positionNames = [...]string{"center", "top-left", "top-center", "top-right", "bottom-left", "bottom-center", "bottom-right", "diagonal"}

func (p Position) String() string {
	if p < 0 || int(p) >= len(positionNames) {
		return fmt.Sprintf("Position(%d)", int(p))
	}
	return positionNames[p]
}

// ParsePosition maps a name such as "top-left", "bottom_right" or
// "topleft" to a Position.
func ParsePosition(s string) (Position, error) {
	name := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for i, n := range positionNames {
		if strings.ReplaceAll(n, "-", "") == name {
			return Position(i), nil
		}
	}
	return 0, fmt.Errorf("pageops: %w: position %q", pdfcli.ErrUnsupported, s)
}

// Distances from the page edge of watermarks anchored to it.
const (
	textMargin  = 72
	imageMargin = 36
)

type textWatermark struct {
	Text     string  `validate:"required"`
	FontSize float64 `validate:"gt=0,lte=1000"`
	Opacity  float64 `validate:"gte=0,lte=1"`
}

// Watermark draws text rotated by 45 degrees across the center of every
// page. The fill gray level is opacity, so 0 is black and 1 is white.
func Watermark(data []byte, text string, size, opacity float64) ([]byte, error) {
	if err := checkStruct(textWatermark{Text: text, FontSize: size, Opacity: opacity}); err != nil {
		return nil, err
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	if len(src.pages) == 0 {
		return nil, fmt.Errorf("pageops: %w: no pages found", pdfcli.ErrRange)
	}
	return rebuild(src, src.pages, func(o *output, _ int, p sourcePage) (*overlay, error) {
		var s content.Stream
		s.Save()
		s.FillRGB(opacity, opacity, opacity)
		s.BeginText()
		s.Font("/"+overlayFont, size)
		s.TextMatrix(0.7071, 0.7071, -0.7071, 0.7071, p.width/2-100, p.height/2-50)
		s.Show(text)
		s.EndText()
		s.Restore()
		ov := &overlay{content: s.Bytes()}
		ov.add("Font", overlayFont, o.overlayFont("Helvetica"))
		return ov, nil
	})
}

// WatermarkFile watermarks in and writes the result to out.
func WatermarkFile(in, out, text string, size, opacity float64) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return Watermark(data, text, size, opacity)
	})
}

// WatermarkSpec describes a text or image watermark. Exactly one of Text
// and Image is set.
type WatermarkSpec struct {
	Text string `json:"text,omitempty" validate:"required_without=Image,excluded_with=Image"`
	// Image is the path of a JPEG, PNG or BMP file.
	Image string `json:"image,omitempty" validate:"required_without=Text"`
	// FontSize defaults to 48.
	FontSize float64 `json:"font_size,omitempty" validate:"gte=0,lte=1000"`
	// Opacity defaults to 0.3.
	Opacity  float64     `json:"opacity,omitempty" validate:"gte=0,lte=1"`
	Color    content.RGB `json:"color,omitempty"`
	Position Position    `json:"position" validate:"gte=0,lte=7"`
	// Pages lists the 1-based pages to mark; empty marks all.
	Pages []int `json:"pages,omitempty"`
}

func (w *WatermarkSpec) defaults() {
	if w.FontSize == 0 {
		w.FontSize = 48
	}
	if w.Opacity == 0 {
		w.Opacity = 0.3
	}
	if w.Color == (content.RGB{}) {
		w.Color = content.RGB{0.5, 0.5, 0.5}
	}
}

// WatermarkAdvanced places a text or image watermark at spec.Position on
// the selected pages, blended with spec.Opacity.
func WatermarkAdvanced(data []byte, spec WatermarkSpec) ([]byte, error) {
	spec.defaults()
	if err := checkStruct(spec); err != nil {
		return nil, err
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	selected, err := selectPages(len(src.pages), spec.Pages)
	if err != nil {
		return nil, err
	}

	var img *raster.Info
	if spec.Image != "" {
		if img, err = raster.Load(spec.Image); err != nil {
			return nil, fmt.Errorf("pageops: watermark image: %w", err)
		}
	}
	var imgRef writer.Ref
	return rebuild(src, src.pages, func(o *output, i int, p sourcePage) (*overlay, error) {
		if !selected[i] {
			return nil, nil
		}
		ov := &overlay{}
		var s content.Stream
		s.Save()
		if spec.Opacity < 1 {
			ov.add("ExtGState", overlayGS, o.alpha(spec.Opacity))
			s.Raw("/" + overlayGS + " gs")
		}
		if img != nil {
			if imgRef == 0 {
				imgRef = o.a.AddStream(img.XObjectDict(), img.Data)
			}
			ov.add("XObject", overlayImage, imgRef)
			w, h := raster.ScaleToFit(img.Width, img.Height, p.width/2, p.height/2)
			x, y := imagePosition(spec.Position, p.width, p.height, w, h)
			s.Image(overlayImage, x, y, w, h)
		} else {
			ov.add("Font", overlayFont, o.overlayFont("Helvetica"))
			s.FillRGB(spec.Color[0], spec.Color[1], spec.Color[2])
			s.BeginText()
			s.Font("/"+overlayFont, spec.FontSize)
			tw := font.TextWidth(spec.Text, spec.FontSize, false)
			if spec.Position == Diagonal {
				c, sn := math.Cos(radians(45)), math.Sin(radians(45))
				s.TextMatrix(c, sn, -sn, c, p.width/2-100, p.height/2-50)
			} else {
				x, y := textPosition(spec.Position, p.width, p.height, tw)
				s.TextMove(x, y)
			}
			s.Show(spec.Text)
			s.EndText()
		}
		s.Restore()
		ov.content = s.Bytes()
		return ov, nil
	})
}

// WatermarkAdvancedFile applies WatermarkAdvanced to in and writes out.
func WatermarkAdvancedFile(in, out string, spec WatermarkSpec) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return WatermarkAdvanced(data, spec)
	})
}

// textPosition returns the baseline origin of a line tw points wide. Text
// anchored to the right edge ends at the margin.
func textPosition(pos Position, w, h, tw float64) (x, y float64) {
	switch pos {
	case TopLeft:
		return textMargin, h - textMargin
	case TopCenter:
		return (w - tw) / 2, h - textMargin
	case TopRight:
		return w - textMargin - tw, h - textMargin
	case BottomLeft:
		return textMargin, textMargin
	case BottomCenter:
		return (w - tw) / 2, textMargin
	case BottomRight:
		return w - textMargin - tw, textMargin
	}
	return (w - tw) / 2, h / 2
}

// imagePosition returns the lower left corner of an iw×ih image.
func imagePosition(pos Position, w, h, iw, ih float64) (x, y float64) {
	switch pos {
	case TopLeft:
		return imageMargin, h - ih - imageMargin
	case TopCenter:
		return (w - iw) / 2, h - ih - imageMargin
	case TopRight:
		return w - iw - imageMargin, h - ih - imageMargin
	case BottomLeft:
		return imageMargin, imageMargin
	case BottomCenter:
		return (w - iw) / 2, imageMargin
	case BottomRight:
		return w - iw - imageMargin, imageMargin
	}
	return (w - iw) / 2, (h - ih) / 2
}

// selectPages turns a list of 1-based page numbers into a set of 0-based
// indexes. An empty list selects every page.
func selectPages(total int, pages []int) (map[int]bool, error) {
	if total == 0 {
		return nil, fmt.Errorf("pageops: %w: no pages found", pdfcli.ErrRange)
	}
	set := make(map[int]bool, total)
	if len(pages) == 0 {
		for i := range total {
			set[i] = true
		}
		return set, nil
	}
	for _, n := range pages {
		if n < 1 || n > total {
			return nil, fmt.Errorf("pageops: %w: invalid page number %d (document has %d pages)", pdfcli.ErrRange, n, total)
		}
		set[n-1] = true
	}
	return set, nil
}

type imageOverlay struct {
	Path    string  `validate:"required"`
	Width   float64 `validate:"gt=0"`
	Height  float64 `validate:"gt=0"`
	Opacity float64 `validate:"gte=0,lte=1"`
}

// OverlayImage draws the image at imagePath on every page with its lower
// left corner at (x, y) and size w×h, in points from the bottom left of the
// page.
func OverlayImage(data []byte, imagePath string, x, y, w, h, opacity float64) ([]byte, error) {
	if err := checkStruct(imageOverlay{Path: imagePath, Width: w, Height: h, Opacity: opacity}); err != nil {
		return nil, err
	}
	img, err := raster.Load(imagePath)
	if err != nil {
		return nil, fmt.Errorf("pageops: overlay image: %w", err)
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	if len(src.pages) == 0 {
		return nil, fmt.Errorf("pageops: %w: no pages found", pdfcli.ErrRange)
	}
	var imgRef writer.Ref
	return rebuild(src, src.pages, func(o *output, _ int, _ sourcePage) (*overlay, error) {
		if imgRef == 0 {
			imgRef = o.a.AddStream(img.XObjectDict(), img.Data)
		}
		ov := &overlay{}
		ov.add("XObject", overlayImage, imgRef)
		var s content.Stream
		if opacity < 1 {
			ov.add("ExtGState", overlayGS, o.alpha(opacity))
			s.Save()
			s.Raw("/" + overlayGS + " gs")
			s.Image(overlayImage, x, y, w, h)
			s.Restore()
		} else {
			s.Image(overlayImage, x, y, w, h)
		}
		ov.content = s.Bytes()
		return ov, nil
	})
}

// OverlayImageFile applies OverlayImage to in and writes out.
func OverlayImageFile(in, out, imagePath string, x, y, w, h, opacity float64) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return OverlayImage(data, imagePath, x, y, w, h, opacity)
	})
}

// PageNumberStyle defines the appearance and position of page numbers.
type PageNumberStyle struct {
	// Format receives the page number and the total (default "Page %d of %d").
	// Explicit argument indexes such as %[2]d are honored.
	Format string `json:"format,omitempty"`
	// Position defaults to BottomCenter when the whole style is zero.
	Position Position `json:"position" validate:"gte=0,lte=7"`
	// FontSize defaults to 10.
	FontSize float64 `json:"font_size,omitempty" validate:"gte=0,lte=200"`
	// Color defaults to black.
	Color content.RGB `json:"color,omitempty"`
	// Margin is the distance from the page edge (default 30).
	Margin float64 `json:"margin,omitempty" validate:"gte=0"`
}

// DefaultPageNumberStyle centers "Page n of m" at the bottom of the page.
func DefaultPageNumberStyle() PageNumberStyle {
	return PageNumberStyle{Format: "Page %d of %d", Position: BottomCenter, FontSize: 10, Margin: 30}
}

// AddPageNumbers stamps every page with its number.
func AddPageNumbers(data []byte, style PageNumberStyle) ([]byte, error) {
	if style == (PageNumberStyle{}) {
		style = DefaultPageNumberStyle()
	}
	if style.Format == "" {
		style.Format = "Page %d of %d"
	}
	if style.FontSize == 0 {
		style.FontSize = 10
	}
	if style.Margin == 0 {
		style.Margin = 30
	}
	if err := checkStruct(style); err != nil {
		return nil, err
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	total := len(src.pages)
	if total == 0 {
		return nil, fmt.Errorf("pageops: %w: no pages found", pdfcli.ErrRange)
	}
	verbs := strings.Count(style.Format, "%d")
	indexed := strings.Contains(style.Format, "%[")
	return rebuild(src, src.pages, func(o *output, i int, p sourcePage) (*overlay, error) {
		var text string
		switch {
		case indexed:
			text = fmt.Sprintf(style.Format, i+1, total)
		case verbs == 0:
			text = style.Format
		case verbs == 1:
			text = fmt.Sprintf(style.Format, i+1)
		default:
			text = fmt.Sprintf(style.Format, i+1, total)
		}
		tw := font.TextWidth(text, style.FontSize, false)
		x, y := numberPosition(style.Position, p.width, p.height, tw, style.FontSize, style.Margin)

		var s content.Stream
		s.Save()
		s.FillRGB(style.Color[0], style.Color[1], style.Color[2])
		s.BeginText()
		s.Font("/"+overlayFont, style.FontSize)
		s.TextAt(x, y)
		s.Show(text)
		s.EndText()
		s.Restore()
		ov := &overlay{content: s.Bytes()}
		ov.add("Font", overlayFont, o.overlayFont("Helvetica"))
		return ov, nil
	})
}

// AddPageNumbersFile numbers the pages of in and writes out.
func AddPageNumbersFile(in, out string, style PageNumberStyle) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return AddPageNumbers(data, style)
	})
}

// numberPosition returns the baseline origin for text of width tw and
// height th placed margin points from the page edge.
func numberPosition(pos Position, w, h, tw, th, margin float64) (x, y float64) {
	top := h - margin - th
	switch pos {
	case TopLeft:
		return margin, top
	case TopCenter:
		return (w - tw) / 2, top
	case TopRight:
		return w - tw - margin, top
	case BottomLeft:
		return margin, margin
	case BottomRight:
		return w - tw - margin, margin
	case Center, Diagonal:
		return (w - tw) / 2, h / 2
	}
	return (w - tw) / 2, margin
}

// Stamp is a line of text drawn on one page, with its baseline origin at
// (X, Y) in points from the bottom left.
type Stamp struct {
	Page int     `json:"page" validate:"gte=1"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size" validate:"gt=0"`
	Text string  `json:"text"`
}

// StampText draws stamps over their pages. Form widgets are not carried
// into the result, so stamping field values flattens a form.
func StampText(data []byte, stamps []Stamp) ([]byte, error) {
	byPage := make(map[int][]Stamp)
	for _, st := range stamps {
		if err := checkStruct(st); err != nil {
			return nil, err
		}
		byPage[st.Page-1] = append(byPage[st.Page-1], st)
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	for idx := range byPage {
		if idx >= len(src.pages) {
			return nil, fmt.Errorf("pageops: %w: stamp on page %d of %d", pdfcli.ErrRange, idx+1, len(src.pages))
		}
	}
	return rebuild(src, src.pages, func(o *output, i int, _ sourcePage) (*overlay, error) {
		list := byPage[i]
		if len(list) == 0 {
			return nil, nil
		}
		var s content.Stream
		s.Save()
		s.FillRGB(0, 0, 0)
		s.BeginText()
		for _, st := range list {
			s.Font("/"+overlayFont, st.Size)
			s.TextAt(st.X, st.Y)
			s.Show(st.Text)
		}
		s.EndText()
		s.Restore()
		ov := &overlay{content: s.Bytes()}
		ov.add("Font", overlayFont, o.overlayFont("Helvetica"))
		return ov, nil
	})
}
