// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExtractedImage records one PNG written for one page.
type ExtractedImage struct {
	// Filename is relative to the output directory
	// (e.g. "roadmap-q3-page-001.png").
	Filename string `json:"filename" yaml:"filename"`

	// Document is the source PDF's base name.
	Document string `json:"document" yaml:"document"`

	// Page is the 1-based page index.
	Page int `json:"page" yaml:"page"`

	// Width and Height are the raster dimensions in pixels.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// Bytes is the encoded PNG size.
	Bytes int64 `json:"bytes" yaml:"bytes"`

	// Checksum is the xxh3 hash of the encoded PNG, hex encoded.
	Checksum string `json:"checksum" yaml:"checksum"`
}
