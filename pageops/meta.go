package pageops

import (
	"fmt"
	"strconv"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
	"github.com/lvillar/pdfcli/content"
	"github.com/lvillar/pdfcli/document"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/layout"
	"github.com/lvillar/pdfcli/raster"
	"github.com/lvillar/pdfcli/security"
	"github.com/lvillar/pdfcli/writer"
)

// Metadata returns the Info dictionary of a document.
func Metadata(data []byte) (assemble.Info, error) {
	src, err := Open(data)
	if err != nil {
		return assemble.Info{}, err
	}
	if info := src.info(); info != nil {
		return *info, nil
	}
	return assemble.Info{}, nil
}

// SetMetadata rewrites the Info dictionary: every field set in info
// replaces the existing value, the others are kept.
func SetMetadata(data []byte, info assemble.Info) ([]byte, error) {
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	var base assemble.Info
	if cur := src.info(); cur != nil {
		base = *cur
	}
	merged := assemble.Merge(base, info)
	out := newOutput()
	out.info = &merged
	return rebuildInto(out, src, src.pages, nil)
}

// SetMetadataFile applies SetMetadata to in and writes out.
func SetMetadataFile(in, out string, info assemble.Info) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return SetMetadata(data, info)
	})
}

// Annotate adds text, link and highlight annotations. Each annotation
// names its 1-based page; a page beyond the document is an ErrRange.
func Annotate(data []byte, annots []assemble.Annotation) ([]byte, error) {
	if len(annots) == 0 {
		return nil, fmt.Errorf("pageops: %w: no annotations specified", pdfcli.ErrInvalidParam)
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	out := newOutput()
	out.annots = annots
	return rebuildInto(out, src, src.pages, nil)
}

// AnnotateFile applies Annotate to in and writes out.
func AnnotateFile(in, out string, annots []assemble.Annotation) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return Annotate(data, annots)
	})
}

// ImagePlacement puts one image file on a page, in points from the bottom
// left corner.
type ImagePlacement struct {
	Path   string  `json:"path" validate:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// Images creates a one page US Letter document showing every placement.
func Images(placements ...ImagePlacement) ([]byte, error) {
	if len(placements) == 0 {
		return nil, fmt.Errorf("pageops: %w: no images provided", pdfcli.ErrInvalidParam)
	}
	a := writer.New()
	var s content.Stream
	xobjects := make(map[string]writer.Ref, len(placements))
	for i, pl := range placements {
		if err := checkStruct(pl); err != nil {
			return nil, err
		}
		img, err := raster.Load(pl.Path)
		if err != nil {
			return nil, fmt.Errorf("pageops: image %d: %w", i+1, err)
		}
		name := "Im" + strconv.Itoa(i+1)
		xobjects[name] = a.AddStream(img.XObjectDict(), img.Data)
		s.Image(name, pl.X, pl.Y, pl.Width, pl.Height)
	}
	l := layout.Portrait()
	page := assemble.Page{Content: s.Bytes(), Width: l.Width, Height: l.Height, XObjects: xobjects}
	if _, err := assemble.Assemble(a, []assemble.Page{page}, assemble.Options{}); err != nil {
		return nil, fmt.Errorf("pageops: %w", err)
	}
	logger.Debug("created image document", "images", len(placements))
	return a.Bytes()
}

// AddImage creates a document with one image drawn at (x, y) with size w×h.
func AddImage(imagePath string, x, y, w, h float64) ([]byte, error) {
	return Images(ImagePlacement{Path: imagePath, X: x, Y: y, Width: w, Height: h})
}

// AddImageFile writes the document built by AddImage to out.
func AddImageFile(out, imagePath string, x, y, w, h float64) error {
	data, err := AddImage(imagePath, x, y, w, h)
	if err != nil {
		return err
	}
	return WriteFile(out, data)
}

// Protect reassembles data encrypted with sec. When sec sets no password
// the input is returned unchanged.
func Protect(data []byte, sec security.Security) ([]byte, error) {
	if !sec.IsProtected() {
		logger.Warn("no password given, document left unprotected")
		return data, nil
	}
	h, err := security.NewHandler(sec, security.FileID())
	if err != nil {
		return nil, fmt.Errorf("pageops: %w", err)
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	out := newOutput()
	out.crypt = h
	logger.Debug("protecting document", "algorithm", sec.Algorithm.String())
	return rebuildInto(out, src, src.pages, nil)
}

// ProtectFile applies Protect to in and writes out.
func ProtectFile(in, out string, sec security.Security) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return Protect(data, sec)
	})
}

// Unprotect opens an encrypted document with password and writes it back
// without encryption.
func Unprotect(data []byte, password string) ([]byte, error) {
	src, err := OpenWithPassword(data, password)
	if err != nil {
		return nil, err
	}
	return rebuild(src, src.pages, nil)
}

// UnprotectFile applies Unprotect to in and writes out.
func UnprotectFile(in, out, password string) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return Unprotect(data, password)
	})
}

// MarkdownWithMetadata renders markdown with the given Info dictionary. A
// nil cfg uses the defaults.
func MarkdownWithMetadata(src []byte, info assemble.Info, cfg *pdfcli.Config) ([]byte, error) {
	return document.FromMarkdown(src, cfg, document.WithInfo(info))
}

// MarkdownWithMetadataFile converts the markdown file in to out.
func MarkdownWithMetadataFile(in, out string, info assemble.Info, cfg *pdfcli.Config) error {
	return document.MarkdownFile(in, out, cfg, document.WithInfo(info))
}
