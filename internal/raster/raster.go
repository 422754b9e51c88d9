// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package raster draws PDF pages into RGBA surfaces. Backends wrap a native
// renderer (MuPDF through go-fitz, or poppler's pdftocairo) behind one
// interface, so the extractor never depends on a specific library.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/pdiddy/pageshot/internal/pdfdoc"
	"github.com/pdiddy/pageshot/pkg/types"
)

// ErrUnavailable is wrapped by Available when a backend cannot run on this
// host.
var ErrUnavailable = errors.New("rasterizer unavailable")

// Rasterizer opens documents for rendering.
type Rasterizer interface {
	// Name returns the backend name ("fitz" or "poppler").
	Name() string

	// Available reports whether the backend can render on this host.
	// A non-nil error wraps ErrUnavailable.
	Available() error

	// Open parses the document at path. The caller must Close it.
	Open(ctx context.Context, path string) (Document, error)
}

// Document is an open, renderable PDF.
type Document interface {
	// NumPages returns the page count.
	NumPages() int

	// Page returns page n (1-based).
	Page(n int) (Page, error)

	// Close releases the document and every page borrowed from it.
	Close() error
}

// Page is a page borrowed from a Document.
type Page interface {
	// Number returns the 1-based page index.
	Number() int

	// Box returns the page's displayed media box in points.
	Box() pdfdoc.Box

	// Draw renders the page's crop box over dst with page space scaled by
	// scale, at the crop box's offset inside the media box. dst's bounds
	// are expected to be Box().PixelSize(scale); the area outside the
	// crop box is left untouched.
	Draw(ctx context.Context, dst *image.RGBA, scale float64) error
}

// New returns the rasterizer for backend. Availability is not checked
// here; call Available before opening documents.
func New(backend types.Backend) (Rasterizer, error) {
	switch backend {
	case types.BackendFitz:
		return newFitz(), nil
	case types.BackendPoppler:
		return newPoppler(defaultExec), nil
	default:
		return nil, fmt.Errorf("unknown rasterizer backend %q", backend)
	}
}

// resampleTolerance is the largest per-side size difference, in pixels,
// that composite absorbs by resampling. Renderers round the crop box to
// whole pixels their own way.
const resampleTolerance = 2

// composite draws src over dst inside target, the pixel rectangle of the
// page's crop box. A render within resampleTolerance of target is
// resampled to fill it exactly; anything else is drawn unscaled at
// target's top-left corner so page content keeps its scale.
func composite(dst *image.RGBA, target image.Rectangle, src image.Image) {
	sb := src.Bounds()
	dw, dh := sb.Dx()-target.Dx(), sb.Dy()-target.Dy()

	switch {
	case dw == 0 && dh == 0:
		xdraw.Draw(dst, target, src, sb.Min, xdraw.Over)
	case abs(dw) <= resampleTolerance && abs(dh) <= resampleTolerance:
		xdraw.CatmullRom.Scale(dst, target, src, sb, xdraw.Over, nil)
	default:
		r := image.Rectangle{Min: target.Min, Max: target.Min.Add(sb.Size())}
		xdraw.Draw(dst, r.Intersect(dst.Bounds()), src, sb.Min, xdraw.Over)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
