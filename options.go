package pdfcli

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lvillar/pdfcli/internal/logger"
)

// Compression names accepted by Config.Compression.
const (
	CompressionNone    = "none"
	CompressionLow     = "low"
	CompressionMedium  = "medium"
	CompressionHigh    = "high"
	CompressionMaximum = "maximum"
)

// Config holds the settings shared by document generation and the batch
// operations.
type Config struct {
	FontFamily  string  `validate:"oneof=Helvetica Times Courier"`
	FontSize    float64 `validate:"gt=0,lte=72"`
	Landscape   bool
	PageNumbers bool
	Compression string `validate:"oneof=none low medium high maximum"`
	Workers     int    `validate:"min=1,max=64"`
	Tagged      bool
	Language    string
	Logger      logger.LogFunc
}

// NewDefaultConfig returns the configuration used by the command line tool
// when no flags are given: Helvetica 12pt portrait with page numbers.
func NewDefaultConfig() *Config {
	return &Config{
		FontFamily:  "Helvetica",
		FontSize:    12,
		PageNumbers: true,
		Compression: CompressionNone,
		Workers:     4,
		Language:    "en",
	}
}

// Validate checks the struct tags and installs the configured logger.
func (cfg *Config) Validate() error {
	logger.Debug("validating config")
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}
	return nil
}

// DeflateLevel maps the compression name to a zlib level; -1 means the
// streams are left uncompressed.
func (cfg *Config) DeflateLevel() int {
	switch cfg.Compression {
	case CompressionLow:
		return 1
	case CompressionMedium:
		return 6
	case CompressionHigh:
		return 8
	case CompressionMaximum:
		return 9
	}
	return -1
}

// Option is a functional option applied over NewDefaultConfig.
type Option func(*Config)

// WithFont sets the base font family.
func WithFont(family string) Option {
	return func(c *Config) { c.FontFamily = family }
}

// WithFontSize sets the body font size in points.
func WithFontSize(size float64) Option {
	return func(c *Config) { c.FontSize = size }
}

// WithLandscape switches to the 792x612 page layout.
func WithLandscape(landscape bool) Option {
	return func(c *Config) { c.Landscape = landscape }
}

// WithPageNumbers toggles the "Page N" footer.
func WithPageNumbers(on bool) Option {
	return func(c *Config) { c.PageNumbers = on }
}

// WithCompression sets the stream compression level by name.
func WithCompression(level string) Option {
	return func(c *Config) { c.Compression = level }
}

// WithWorkers bounds the batch worker pool.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithTagged enables the tagged PDF structure tree.
func WithTagged(lang string) Option {
	return func(c *Config) {
		c.Tagged = true
		if lang != "" {
			c.Language = lang
		}
	}
}

// WithLogger routes library log output to f.
func WithLogger(f logger.LogFunc) Option {
	return func(c *Config) { c.Logger = f }
}

// NewConfig applies opts over the defaults.
//
// Example:
//
//	cfg := pdfcli.NewConfig(
//	    pdfcli.WithFontSize(11),
//	    pdfcli.WithLandscape(true),
//	)
func NewConfig(opts ...Option) *Config {
	cfg := NewDefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
