// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoc reads PDF document structure: page count and page boxes.
// Rendering is left to the raster package.
package pdfdoc

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// Keep pdfcpu from creating a config directory under $HOME.
	api.DisableConfigDir()
}

// Box is a page rectangle size in points (1/72 inch).
//
// Page boxes are reported as displayed: for pages with /Rotate 90 or 270
// Width and Height are swapped relative to the raw media box, because both
// renderers apply the rotation and the surface must match what they draw.
type Box struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// PixelSize returns the raster dimensions for the box at scale, rounded to
// the nearest pixel.
func (b Box) PixelSize(scale float64) (width, height int) {
	return int(math.Round(b.Width * scale)), int(math.Round(b.Height * scale))
}

// Rect is a rectangle inside a displayed page, in points, measured from
// the page's top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// PixelRect returns r in pixel coordinates at scale.
func (r Rect) PixelRect(scale float64) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X*scale)),
		int(math.Round(r.Y*scale)),
		int(math.Round((r.X+r.Width)*scale)),
		int(math.Round((r.Y+r.Height)*scale)),
	)
}

// Page is one page of an open Document. It is borrowed from the Document
// and is invalid after Close.
type Page struct {
	// Number is the 1-based page index.
	Number int

	// Box is the page's media box as displayed.
	Box Box

	// Crop is the visible region (crop box clipped to the media box)
	// inside Box. Renderers draw only this region.
	Crop Rect

	// Rotate is the effective /Rotate value: 0, 90, 180 or 270.
	Rotate int
}

// Document is an open PDF. Close must be called when done.
type Document struct {
	path  string
	f     *os.File
	ctx   *model.Context
	pages []Page
}

// Open reads and validates the PDF at path. Validation is relaxed; only
// files pdfcpu cannot parse are rejected.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading PDF %s: %w", path, err)
	}

	bounds, err := ctx.PageBoundaries(nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading page boxes of %s: %w", path, err)
	}

	d := &Document{path: path, f: f, ctx: ctx, pages: make([]Page, len(bounds))}
	for i, pb := range bounds {
		media := pb.MediaBox()
		if media == nil {
			f.Close()
			return nil, fmt.Errorf("page %d of %s has no media box", i+1, path)
		}
		d.pages[i] = layout(i+1, *media, pb.CropBox(), pb.Rot)
	}
	return d, nil
}

// layout places the crop box inside the displayed media box. PDF rotation
// is clockwise; offsets are taken from the margins that end up on the
// top and left after rotating.
func layout(n int, media types.Rectangle, crop *types.Rectangle, rot int) Page {
	media = normalize(media)
	c := media
	if crop != nil {
		c = clip(*crop, media)
	}

	left := c.LL.X - media.LL.X
	bottom := c.LL.Y - media.LL.Y
	right := media.UR.X - c.UR.X
	top := media.UR.Y - c.UR.Y
	w, h := media.Width(), media.Height()
	cw, ch := c.Width(), c.Height()

	rot = ((rot % 360) + 360) % 360
	p := Page{Number: n, Rotate: rot}
	switch rot {
	case 90:
		p.Box = Box{Width: h, Height: w}
		p.Crop = Rect{X: bottom, Y: left, Width: ch, Height: cw}
	case 180:
		p.Box = Box{Width: w, Height: h}
		p.Crop = Rect{X: right, Y: bottom, Width: cw, Height: ch}
	case 270:
		p.Box = Box{Width: h, Height: w}
		p.Crop = Rect{X: top, Y: right, Width: ch, Height: cw}
	default:
		p.Rotate = 0
		p.Box = Box{Width: w, Height: h}
		p.Crop = Rect{X: left, Y: top, Width: cw, Height: ch}
	}
	return p
}

// clip intersects crop with media. An empty intersection yields media.
func clip(crop, media types.Rectangle) types.Rectangle {
	crop = normalize(crop)
	llx := math.Max(crop.LL.X, media.LL.X)
	lly := math.Max(crop.LL.Y, media.LL.Y)
	urx := math.Min(crop.UR.X, media.UR.X)
	ury := math.Min(crop.UR.Y, media.UR.Y)
	if urx <= llx || ury <= lly {
		return media
	}
	return *types.NewRectangle(llx, lly, urx, ury)
}

// normalize orders the corners of r so that LL is the lower left.
func normalize(r types.Rectangle) types.Rectangle {
	return *types.NewRectangle(
		math.Min(r.LL.X, r.UR.X), math.Min(r.LL.Y, r.UR.Y),
		math.Max(r.LL.X, r.UR.X), math.Max(r.LL.Y, r.UR.Y),
	)
}

// Path returns the file the document was opened from.
func (d *Document) Path() string { return d.path }

// NumPages returns the page count declared by the page tree.
func (d *Document) NumPages() int {
	return d.ctx.PageCount
}

// Page returns page n (1-based). It fails when the page tree has no
// dictionary for n or no box was collected for it.
func (d *Document) Page(n int) (Page, error) {
	if n < 1 || n > d.ctx.PageCount {
		return Page{}, fmt.Errorf("page %d out of range [1, %d]", n, d.ctx.PageCount)
	}
	dict, _, _, err := d.ctx.PageDict(n, false)
	if err != nil {
		return Page{}, fmt.Errorf("page %d: %w", n, err)
	}
	if dict == nil {
		return Page{}, fmt.Errorf("page %d: no page dictionary", n)
	}
	if n > len(d.pages) {
		return Page{}, fmt.Errorf("page %d: no media box", n)
	}
	return d.pages[n-1], nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}
