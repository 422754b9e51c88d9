// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"

	"github.com/pdiddy/pageshot/internal/pdfdoc"
	"github.com/pdiddy/pageshot/pkg/types"
)

const binPdftocairo = "pdftocairo"

// poppler renders pages by running pdftocairo once per page and decoding
// the PNG it writes to stdout. pdftocairo defaults to the media box for
// image output, so -cropbox is always passed. Document structure comes
// from pdfdoc.
type poppler struct {
	bin  string
	exec executor
}

func newPoppler(exec executor) *poppler {
	return &poppler{bin: binPdftocairo, exec: exec}
}

func (p *poppler) Name() string { return string(types.BackendPoppler) }

func (p *poppler) Available() error {
	if _, err := p.exec.LookPath(p.bin); err != nil {
		return fmt.Errorf("%w: %s not found on PATH: %v", ErrUnavailable, p.bin, err)
	}
	if err := p.exec.RunSilent(context.Background(), p.bin, "-v"); err != nil {
		return fmt.Errorf("%w: %s -v: %v", ErrUnavailable, p.bin, err)
	}
	return nil
}

func (p *poppler) Open(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := pdfdoc.Open(path)
	if err != nil {
		return nil, err
	}
	return &popplerDocument{r: p, doc: doc}, nil
}

type popplerDocument struct {
	r   *poppler
	doc *pdfdoc.Document
}

func (d *popplerDocument) NumPages() int { return d.doc.NumPages() }

func (d *popplerDocument) Page(n int) (Page, error) {
	pg, err := d.doc.Page(n)
	if err != nil {
		return nil, err
	}
	return &popplerPage{doc: d, page: pg}, nil
}

func (d *popplerDocument) Close() error { return d.doc.Close() }

type popplerPage struct {
	doc  *popplerDocument
	page pdfdoc.Page
}

func (p *popplerPage) Number() int     { return p.page.Number }
func (p *popplerPage) Box() pdfdoc.Box { return p.page.Box }

func (p *popplerPage) Draw(ctx context.Context, dst *image.RGBA, scale float64) error {
	target := p.page.Crop.PixelRect(scale)
	n := strconv.Itoa(p.page.Number)
	args := []string{
		"-png", "-singlefile", "-cropbox",
		"-f", n, "-l", n,
		"-scale-to-x", strconv.Itoa(target.Dx()),
		"-scale-to-y", strconv.Itoa(target.Dy()),
		p.doc.doc.Path(), "-",
	}

	var out bytes.Buffer
	if err := p.doc.r.exec.RunPiped(ctx, p.doc.r.bin, args, &out); err != nil {
		return fmt.Errorf("running %s for page %d: %w", p.doc.r.bin, p.page.Number, err)
	}
	img, err := png.Decode(&out)
	if err != nil {
		return fmt.Errorf("decoding %s output for page %d: %w", p.doc.r.bin, p.page.Number, err)
	}
	composite(dst, target, img)
	return nil
}
