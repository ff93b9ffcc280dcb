// Package document generates complete PDF files from document elements or
// markdown sources.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/layout"
	"github.com/lvillar/pdfcli/markdown"
	"github.com/lvillar/pdfcli/raster"
	"github.com/lvillar/pdfcli/writer"
)

type settings struct {
	info        *assemble.Info
	profile     *Profile
	pageLayout  *layout.PageLayout
	baseDir     string
	loader      layout.ImageLoader
	annotations []assemble.Annotation
}

// Option adjusts a single generation call.
type Option func(*settings)

// WithInfo embeds an Info dictionary.
func WithInfo(info assemble.Info) Option {
	return func(s *settings) { s.info = &info }
}

// WithProfile applies an optimization profile over the configuration.
func WithProfile(p Profile) Option {
	return func(s *settings) { s.profile = &p }
}

// WithLayout overrides the page geometry chosen by Config.Landscape.
func WithLayout(l layout.PageLayout) Option {
	return func(s *settings) { s.pageLayout = &l }
}

// WithBaseDir resolves relative image paths against dir.
func WithBaseDir(dir string) Option {
	return func(s *settings) { s.baseDir = dir }
}

// WithImageLoader replaces the file based image loader.
func WithImageLoader(load layout.ImageLoader) Option {
	return func(s *settings) { s.loader = load }
}

// WithAnnotations adds page annotations.
func WithAnnotations(annots ...assemble.Annotation) Option {
	return func(s *settings) { s.annotations = append(s.annotations, annots...) }
}

// Prepared is a laid out document whose objects are allocated in Arena but
// which is not assembled yet. Callers may add objects (form widgets,
// annotations) before calling Assemble.
type Prepared struct {
	Arena   *writer.Arena
	Pages   []assemble.Page
	Options assemble.Options
	Layout  layout.PageLayout
}

// Assemble builds the page tree and serializes the document.
func (p *Prepared) Assemble() ([]byte, error) {
	if _, err := assemble.Assemble(p.Arena, p.Pages, p.Options); err != nil {
		return nil, err
	}
	return p.Arena.Bytes()
}

// Prepare lays out elems. A nil cfg uses the defaults.
func Prepare(elems []element.Element, cfg *pdfcli.Config, opts ...Option) (*Prepared, error) {
	if cfg == nil {
		cfg = pdfcli.NewDefaultConfig()
	}
	var s settings
	for _, o := range opts {
		o(&s)
	}
	c := *cfg
	if s.profile != nil {
		s.profile.Apply(&c)
		if !s.profile.PreserveMetadata {
			s.info = nil
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}

	l := layout.ForOrientation(c.Landscape)
	if s.pageLayout != nil {
		l = *s.pageLayout
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	fonts := font.Standard(c.FontFamily)
	bopts := []layout.Option{layout.WithFonts(fonts), layout.WithPageNumbers(c.PageNumbers)}
	load := s.loader
	if load == nil {
		load = fileLoader(s.baseDir)
	}
	bopts = append(bopts, layout.WithImages(load))
	if s.profile != nil && s.profile.ImageDPI > 0 {
		bopts = append(bopts, layout.WithMaxDPI(s.profile.ImageDPI))
	}

	b := layout.NewBuilder(l, c.FontSize, bopts...)
	b.Render(elems)
	built := b.Finish()
	logger.Debug("laid out document", "elements", len(elems), "pages", len(built))

	a := writer.New()
	a.SetCompression(c.DeflateLevel())
	pages := assemble.FromLayout(a, built, l)
	if err := assemble.Attach(a, pages, s.annotations); err != nil {
		return nil, err
	}

	ao := assemble.Options{Fonts: fonts, Info: s.info, Tagged: c.Tagged}
	if c.Tagged {
		ao.Lang = c.Language
	}
	if s.info != nil {
		ao.Title = s.info.Title
	}
	return &Prepared{Arena: a, Pages: pages, Options: ao, Layout: l}, nil
}

// Generate renders elems into PDF bytes.
func Generate(elems []element.Element, cfg *pdfcli.Config, opts ...Option) ([]byte, error) {
	p, err := Prepare(elems, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return p.Assemble()
}

// FromMarkdown renders a markdown source.
func FromMarkdown(src []byte, cfg *pdfcli.Config, opts ...Option) ([]byte, error) {
	return Generate(markdown.Parse(src), cfg, opts...)
}

// MarkdownFile converts the markdown file in to the PDF file out. Images are
// resolved relative to the markdown file.
func MarkdownFile(in, out string, cfg *pdfcli.Config, opts ...Option) error {
	src, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("document: %w: %v", pdfcli.ErrIO, err)
	}
	opts = append([]Option{WithBaseDir(filepath.Dir(in))}, opts...)
	data, err := FromMarkdown(src, cfg, opts...)
	if err != nil {
		return err
	}
	return WriteFile(out, data)
}

// TextElements turns plain text into one paragraph per line, with blank
// lines kept as empty lines.
func TextElements(text string) []element.Element {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	elems := make([]element.Element, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			elems = append(elems, element.EmptyLine{})
			continue
		}
		elems = append(elems, element.Paragraph{Text: l})
	}
	return elems
}

// CreateFromText renders plain text with the default configuration.
func CreateFromText(text string, cfg *pdfcli.Config) ([]byte, error) {
	return Generate(TextElements(text), cfg)
}

// WriteFile writes data to path.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("document: %w: %v", pdfcli.ErrIO, err)
	}
	return nil
}

func fileLoader(dir string) layout.ImageLoader {
	return func(path string) (*raster.Info, error) {
		if dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return raster.Load(path)
	}
}
