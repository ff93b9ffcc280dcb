package document

import (
	"fmt"
	"strings"

	pdfcli "github.com/lvillar/pdfcli"
)

// Profile trades file size against fidelity.
type Profile struct {
	Name        string
	Compression string
	// ImageDPI caps image resolution; zero keeps the originals.
	ImageDPI         float64
	Tagged           bool
	PreserveMetadata bool
}

var (
	Web     = Profile{Name: "web", Compression: pdfcli.CompressionHigh, ImageDPI: 150}
	Print   = Profile{Name: "print", Compression: pdfcli.CompressionLow, ImageDPI: 300, PreserveMetadata: true}
	Archive = Profile{Name: "archive", Compression: pdfcli.CompressionMedium, ImageDPI: 250, Tagged: true, PreserveMetadata: true}
	Ebook   = Profile{Name: "ebook", Compression: pdfcli.CompressionMedium, ImageDPI: 180, Tagged: true, PreserveMetadata: true}
)

// Custom returns a user defined profile.
func Custom(compression string, dpi float64, tagged, preserveMetadata bool) Profile {
	return Profile{Name: "custom", Compression: compression, ImageDPI: dpi, Tagged: tagged, PreserveMetadata: preserveMetadata}
}

// ParseProfile looks up a named profile.
func ParseProfile(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "web":
		return Web, nil
	case "print":
		return Print, nil
	case "archive", "":
		return Archive, nil
	case "ebook":
		return Ebook, nil
	}
	return Profile{}, fmt.Errorf("document: %w: profile %q", pdfcli.ErrUnsupported, name)
}

// Apply copies the profile's compression and tagging into cfg.
func (p Profile) Apply(cfg *pdfcli.Config) {
	if p.Compression != "" {
		cfg.Compression = p.Compression
	}
	cfg.Tagged = cfg.Tagged || p.Tagged
}
