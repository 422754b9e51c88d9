// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract rasterizes every page of a PDF into a PNG file and runs
// that extraction over a directory of documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/pdiddy/pageshot/internal/fsutil"
	"github.com/pdiddy/pageshot/internal/raster"
	"github.com/pdiddy/pageshot/pkg/types"
)

// maxDimension caps either side of a page surface.
const maxDimension = 1 << 15

// DocumentResult is the outcome of extracting one document. Images are in
// ascending page order.
type DocumentResult struct {
	Path     string
	Prefix   string
	Pages    int
	Images   []types.ExtractedImage
	Failures []PageFailure
}

// Filenames returns the image filenames in page order.
func (r DocumentResult) Filenames() []string {
	names := make([]string, len(r.Images))
	for i, img := range r.Images {
		names[i] = img.Filename
	}
	return names
}

// Extractor renders documents with a Rasterizer and writes one PNG per
// page into the configured output directory. It processes one page at a
// time and keeps no state between calls.
type Extractor struct {
	raster raster.Rasterizer
	cfg    types.ExtractConfig
	w      io.Writer
	log    *zap.Logger
}

// New returns an Extractor. Progress text goes to w; diagnostics go to
// log. Either may be nil.
func New(r raster.Rasterizer, cfg types.ExtractConfig, w io.Writer, log *zap.Logger) *Extractor {
	if w == nil {
		w = io.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{raster: r, cfg: cfg, w: w, log: log}
}

// Config returns the settings the Extractor was built with.
func (e *Extractor) Config() types.ExtractConfig { return e.cfg }

// ExtractDocument writes {prefix}-page-NNN.png for every page of the PDF at
// path. The output directory must already exist. Page failures are
// reported and skipped. A document that cannot be opened, or that fails
// in an unexpected way, returns an *Error; images written before the
// failure are still listed in the result.
func (e *Extractor) ExtractDocument(ctx context.Context, path, prefix string) (res DocumentResult, err error) {
	res = DocumentResult{Path: path, Prefix: prefix}
	docName := filepath.Base(path)
	log := e.log.With(zap.String("document", docName))

	defer func() {
		if r := recover(); r != nil {
			log.Error("renderer panic", zap.Any("panic", r))
			err = &Error{Kind: KindUnexpected, Path: path, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	doc, err := e.raster.Open(ctx, path)
	if err != nil {
		fmt.Fprintf(e.w, "  Could not open PDF: %s\n", path)
		log.Warn("open failed", zap.Error(err))
		return res, &Error{Kind: KindOpen, Path: path, Err: err}
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			log.Warn("close failed", zap.Error(cerr))
		}
	}()

	res.Pages = doc.NumPages()
	fmt.Fprintf(e.w, "  Pages: %d\n", res.Pages)

	for n := 1; n <= res.Pages; n++ {
		if err := ctx.Err(); err != nil {
			return res, &Error{Kind: KindUnexpected, Path: path, Err: err}
		}
		img, failure := e.extractPage(ctx, doc, n, prefix, docName, log)
		if failure != nil {
			res.Failures = append(res.Failures, *failure)
			continue
		}
		res.Images = append(res.Images, img)
	}
	return res, nil
}

// extractPage runs the per-page pipeline on a fresh surface: box, size,
// allocate, fill, draw, encode, write.
func (e *Extractor) extractPage(ctx context.Context, doc raster.Document, n int, prefix, docName string, log *zap.Logger) (types.ExtractedImage, *PageFailure) {
	start := time.Now()
	filename := PageFilename(prefix, n)
	fail := func(stage Stage, err error) *PageFailure {
		log.Warn("page failed", zap.Int("page", n), zap.String("stage", string(stage)), zap.Error(err))
		return &PageFailure{Page: n, Filename: filename, Stage: stage, Err: err}
	}

	page, err := doc.Page(n)
	if err != nil {
		fmt.Fprintf(e.w, "  Skipped page %d: %v\n", n, err)
		return types.ExtractedImage{}, fail(StagePage, err)
	}

	width, height := page.Box().PixelSize(e.cfg.Scale)
	surface, err := newSurface(width, height, e.cfg.MaxPixels)
	if err != nil {
		fmt.Fprintf(e.w, "  Could not create surface for page %d: %v\n", n, err)
		return types.ExtractedImage{}, fail(StageAllocate, err)
	}

	if err := page.Draw(ctx, surface, e.cfg.Scale); err != nil {
		fmt.Fprintf(e.w, "  Could not draw page %d: %v\n", n, err)
		return types.ExtractedImage{}, fail(StageDraw, err)
	}

	data, err := encodePNG(surface, e.cfg.Compression)
	if err != nil {
		fmt.Fprintf(e.w, "  Failed to save: %s\n", filename)
		return types.ExtractedImage{}, fail(StageEncode, err)
	}

	if err := fsutil.WriteFile(filepath.Join(e.cfg.OutputDir, filename), data, 0o644); err != nil {
		fmt.Fprintf(e.w, "  Failed to save: %s\n", filename)
		return types.ExtractedImage{}, fail(StageWrite, err)
	}

	fmt.Fprintf(e.w, "  Extracted: %s\n", filename)
	log.Debug("page extracted",
		zap.Int("page", n),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return types.ExtractedImage{
		Filename: filename,
		Document: docName,
		Page:     n,
		Width:    width,
		Height:   height,
		Bytes:    int64(len(data)),
		Checksum: fmt.Sprintf("%016x", xxh3.Hash(data)),
	}, nil
}

// newSurface allocates an RGBA surface filled with opaque white. Pages can
// leave regions unpainted; without the fill those would encode as
// transparent black.
func newSurface(width, height int, maxPixels int64) (*image.RGBA, error) {
	switch {
	case width <= 0 || height <= 0:
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	case width > maxDimension || height > maxDimension:
		return nil, fmt.Errorf("surface %dx%d exceeds %d pixels per side", width, height, maxDimension)
	case int64(width)*int64(height) > maxPixels:
		return nil, fmt.Errorf("surface %dx%d exceeds %d pixels", width, height, maxPixels)
	}
	surface := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(surface, surface.Bounds(), image.White, image.Point{}, xdraw.Src)
	return surface, nil
}

func encodePNG(img image.Image, c types.Compression) ([]byte, error) {
	enc := png.Encoder{CompressionLevel: compressionLevel(c)}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func compressionLevel(c types.Compression) png.CompressionLevel {
	switch c {
	case types.CompressionSpeed:
		return png.BestSpeed
	case types.CompressionBest:
		return png.BestCompression
	default:
		return png.DefaultCompression
	}
}
