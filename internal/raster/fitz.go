// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raster

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/pdiddy/pageshot/internal/pdfdoc"
	"github.com/pdiddy/pageshot/pkg/types"
)

// pointsPerInch maps a scale factor to the DPI MuPDF expects.
const pointsPerInch = 72.0

// fitzRasterizer renders with MuPDF through go-fitz. MuPDF draws the crop
// box with rotation applied; page boxes come from pdfdoc so dimensions do
// not depend on MuPDF's integer bounds.
type fitzRasterizer struct{}

func newFitz() *fitzRasterizer { return &fitzRasterizer{} }

func (f *fitzRasterizer) Name() string { return string(types.BackendFitz) }

// Available always succeeds: MuPDF is linked into the binary.
func (f *fitzRasterizer) Available() error { return nil }

func (f *fitzRasterizer) Open(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	structure, err := pdfdoc.Open(path)
	if err != nil {
		return nil, err
	}
	fd, err := fitz.New(path)
	if err != nil {
		structure.Close()
		return nil, fmt.Errorf("opening %s with MuPDF: %w", path, err)
	}
	return &fitzDocument{structure: structure, fd: fd}, nil
}

type fitzDocument struct {
	structure *pdfdoc.Document
	fd        *fitz.Document
}

func (d *fitzDocument) NumPages() int { return d.structure.NumPages() }

func (d *fitzDocument) Page(n int) (Page, error) {
	pg, err := d.structure.Page(n)
	if err != nil {
		return nil, err
	}
	if n > d.fd.NumPage() {
		return nil, fmt.Errorf("page %d: MuPDF sees only %d pages", n, d.fd.NumPage())
	}
	return &fitzPage{doc: d, page: pg}, nil
}

func (d *fitzDocument) Close() error {
	fdErr := d.fd.Close()
	sErr := d.structure.Close()
	if fdErr != nil {
		return fdErr
	}
	return sErr
}

type fitzPage struct {
	doc  *fitzDocument
	page pdfdoc.Page
}

func (p *fitzPage) Number() int     { return p.page.Number }
func (p *fitzPage) Box() pdfdoc.Box { return p.page.Box }

func (p *fitzPage) Draw(ctx context.Context, dst *image.RGBA, scale float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := p.doc.fd.ImageDPI(p.page.Number-1, pointsPerInch*scale)
	if err != nil {
		return fmt.Errorf("rendering page %d: %w", p.page.Number, err)
	}
	composite(dst, p.page.Crop.PixelRect(scale), img)
	return nil
}
