// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Backend identifies the page rasterization backend.
type Backend string

const (
	BackendFitz    Backend = "fitz"
	BackendPoppler Backend = "poppler"
)

// Compression selects the PNG encoder's compression level.
type Compression string

const (
	CompressionDefault Compression = "default"
	CompressionSpeed   Compression = "speed"
	CompressionBest    Compression = "best"
)

// Defaults for ExtractConfig. The scale and prefix length are policy
// choices kept configurable.
const (
	DefaultScale        = 2.0
	DefaultPrefixMaxLen = 30
	DefaultManifestName = "manifest.json"
	DefaultMaxPixels    = 64 * 1024 * 1024
)

// ExtractConfig holds settings for one extraction run. It is passed by
// value and not modified after validation.
type ExtractConfig struct {
	// SourceDir is scanned (non-recursively) for .pdf files.
	SourceDir string `json:"source_dir" yaml:"source_dir" mapstructure:"source_dir"`

	// OutputDir receives the PNG files and the manifest.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Scale multiplies page dimensions in points to obtain pixel dimensions.
	Scale float64 `json:"scale" yaml:"scale" mapstructure:"scale"`

	// PrefixMaxLen truncates the sanitized filename prefix (in runes).
	PrefixMaxLen int `json:"prefix_max_len" yaml:"prefix_max_len" mapstructure:"prefix_max_len"`

	// ManifestName is the manifest filename inside OutputDir.
	ManifestName string `json:"manifest_name" yaml:"manifest_name" mapstructure:"manifest_name"`

	// Backend selects the rasterizer: fitz or poppler.
	Backend Backend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// MaxPixels bounds the surface allocated for a single page.
	MaxPixels int64 `json:"max_pixels" yaml:"max_pixels" mapstructure:"max_pixels"`

	// Compression selects the PNG compression level.
	Compression Compression `json:"compression" yaml:"compression" mapstructure:"compression"`
}

// DefaultExtractConfig returns an ExtractConfig with every default applied.
// Directories are left to the caller.
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		Scale:        DefaultScale,
		PrefixMaxLen: DefaultPrefixMaxLen,
		ManifestName: DefaultManifestName,
		Backend:      BackendFitz,
		MaxPixels:    DefaultMaxPixels,
		Compression:  CompressionDefault,
	}
}

// Validate reports the first invalid setting.
func (c ExtractConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.SourceDir) == "":
		return fmt.Errorf("source directory is required")
	case strings.TrimSpace(c.OutputDir) == "":
		return fmt.Errorf("output directory is required")
	case c.Scale <= 0:
		return fmt.Errorf("scale must be positive, got %g", c.Scale)
	case c.PrefixMaxLen <= 0:
		return fmt.Errorf("prefix length must be positive, got %d", c.PrefixMaxLen)
	case c.ManifestName == "" || strings.ContainsAny(c.ManifestName, `/\`):
		return fmt.Errorf("invalid manifest name %q", c.ManifestName)
	case c.MaxPixels <= 0:
		return fmt.Errorf("max pixels must be positive, got %d", c.MaxPixels)
	}

	switch c.Backend {
	case BackendFitz, BackendPoppler:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendFitz, BackendPoppler)
	}

	switch c.Compression {
	case CompressionDefault, CompressionSpeed, CompressionBest:
	default:
		return fmt.Errorf("unknown compression %q", c.Compression)
	}
	return nil
}

// CatalogConfig holds settings for the run catalog.
type CatalogConfig struct {
	// Path is the SQLite database file. Empty disables the catalog.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// PublishConfig holds settings for uploading a run to S3-compatible storage.
type PublishConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Bucket    string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty" mapstructure:"key_prefix"`
	Insecure  bool   `json:"insecure,omitempty" yaml:"insecure,omitempty" mapstructure:"insecure"`

	// AccessKey and SecretKey are never printed by config show.
	AccessKey string `json:"-" yaml:"-" mapstructure:"access_key"`
	SecretKey string `json:"-" yaml:"-" mapstructure:"secret_key"`
}

// Validate reports missing connection settings.
func (c PublishConfig) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("publish endpoint is required")
	case c.Bucket == "":
		return fmt.Errorf("publish bucket is required")
	case c.AccessKey == "" || c.SecretKey == "":
		return fmt.Errorf("publish credentials are required (s3-access-key, s3-secret-key)")
	}
	return nil
}

// Config groups all settings read from the config file.
type Config struct {
	Extract ExtractConfig `json:"extract" yaml:"extract" mapstructure:"extract"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Publish PublishConfig `json:"publish" yaml:"publish" mapstructure:"publish"`
}
