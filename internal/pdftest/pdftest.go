// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftest builds small, valid PDF files for tests. Object offsets in
// the xref table are computed, so strict parsers accept the output.
package pdftest

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is a rectangle in PDF user space: lower-left corner and size.
type Rect struct {
	X, Y, Width, Height float64
}

// Page describes one page of a generated document.
type Page struct {
	Width, Height float64

	// Crop, when set, is written as the page's /CropBox.
	Crop *Rect

	// Rotate is written as /Rotate when non-zero.
	Rotate int

	// Fill is the rectangle painted blue. Nil fills the lower-left quarter
	// of the media box.
	Fill *Rect
}

// Build returns a PDF with one page per entry. Each page carries a media
// box of the given size, the optional crop box and rotation, and a content
// stream that paints one rectangle blue.
func Build(pages ...Page) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	// Objects: 1 catalog, 2 pages, then (page, contents) pairs.
	nObjs := 2 + 2*len(pages)
	offsets := make([]int, nObjs+1)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), len(pages))

	for i, p := range pages {
		pageObj := 3 + 2*i
		contentObj := pageObj + 1

		var extra strings.Builder
		if c := p.Crop; c != nil {
			fmt.Fprintf(&extra, " /CropBox [%s %s %s %s]", num(c.X), num(c.Y), num(c.X+c.Width), num(c.Y+c.Height))
		}
		if p.Rotate != 0 {
			fmt.Fprintf(&extra, " /Rotate %d", p.Rotate)
		}

		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s]%s /Resources << >> /Contents %d 0 R >>\nendobj\n",
			pageObj, num(p.Width), num(p.Height), extra.String(), contentObj)

		fill := Rect{Width: p.Width / 2, Height: p.Height / 2}
		if p.Fill != nil {
			fill = *p.Fill
		}
		stream := fmt.Sprintf("0 0 1 rg %s %s %s %s re f", num(fill.X), num(fill.Y), num(fill.Width), num(fill.Height))
		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			contentObj, len(stream), stream)
	}

	xrefOffset := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", nObjs+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= nObjs; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", nObjs+1, xrefOffset)

	return []byte(b.String())
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
