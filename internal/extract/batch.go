// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/pdiddy/pageshot/internal/manifest"
	"github.com/pdiddy/pageshot/pkg/types"
)

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Extracted    int // documents processed without a document-level error
	Skipped      int // documents not attempted because the rasterizer is unavailable
	Failed       int // documents that returned an *Error
	PageFailures int
	Images       []types.ExtractedImage
	ManifestPath string
	Unavailable  *Error // set when no document could be attempted
}

// Total returns the number of documents found.
func (r BatchResult) Total() int {
	return r.Extracted + r.Skipped + r.Failed
}

// HasFailures reports whether any document or page failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0 || r.PageFailures > 0
}

// Filenames returns every image filename in processing order. This is
// the manifest content.
func (r BatchResult) Filenames() []string {
	names := make([]string, len(r.Images))
	for i, img := range r.Images {
		names[i] = img.Filename
	}
	return names
}

// Bytes returns the total encoded size of all images.
func (r BatchResult) Bytes() int64 {
	var n int64
	for _, img := range r.Images {
		n += img.Bytes
	}
	return n
}

// RunBatch extracts every PDF in the source directory, printing progress
// per document and page, and writes the manifest once at the end. Per-page
// and per-document failures are reported and skipped. It returns an error
// only when the output directory, source directory, or manifest cannot be
// used, or when ctx is cancelled.
//
// If the rasterizer is unavailable, no document is processed and an empty
// manifest is written.
func (e *Extractor) RunBatch(ctx context.Context) (BatchResult, error) {
	var result BatchResult

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("creating output directory %s: %w", e.cfg.OutputDir, err)
	}

	paths, err := DiscoverPDFs(e.cfg.SourceDir)
	if err != nil {
		return result, err
	}
	fmt.Fprintf(e.w, "Found %d PDF files\n\n", len(paths))

	if err := e.raster.Available(); err != nil {
		fmt.Fprintf(e.w, "%s rasterizer not available: %v\n\n", e.raster.Name(), err)
		e.log.Warn("rasterizer unavailable", zap.String("backend", e.raster.Name()), zap.Error(err))
		result.Unavailable = &Error{Kind: KindUnavailable, Path: e.cfg.SourceDir, Err: err}
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name := filepath.Base(path)
		fmt.Fprintf(e.w, "Processing: %s\n", name)

		if result.Unavailable != nil {
			fmt.Fprintln(e.w, "  Skipped - no PDF rasterizer available")
			fmt.Fprintln(e.w)
			result.Skipped++
			continue
		}

		res, err := e.ExtractDocument(ctx, path, Prefix(name, e.cfg.PrefixMaxLen))
		result.Images = append(result.Images, res.Images...)
		result.PageFailures += len(res.Failures)
		if cerr := ctx.Err(); cerr != nil {
			return result, cerr
		}
		if err != nil {
			fmt.Fprintf(e.w, "  Error: %v\n", err)
			result.Failed++
		} else {
			result.Extracted++
		}
		fmt.Fprintln(e.w)
	}

	fmt.Fprintf(e.w, "\nTotal extracted: %d images (%s)\n", len(result.Images), humanize.Bytes(uint64(result.Bytes())))

	result.ManifestPath = filepath.Join(e.cfg.OutputDir, e.cfg.ManifestName)
	if err := manifest.Write(result.ManifestPath, result.Filenames()); err != nil {
		return result, err
	}
	fmt.Fprintf(e.w, "Manifest: %s\n", result.ManifestPath)
	return result, nil
}
