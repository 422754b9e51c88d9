// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pageshot/internal/pdftest"
	"github.com/pdiddy/pageshot/pkg/types"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runPipedFunc  func(name string, args []string, stdout io.Writer) error
	pipedCalls    [][]string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunPiped(_ context.Context, name string, args []string, stdout io.Writer) error {
	m.pipedCalls = append(m.pipedCalls, append([]string{name}, args...))
	if m.runPipedFunc != nil {
		return m.runPipedFunc(name, args, stdout)
	}
	return nil
}

// pngOf encodes a w×h image filled with c.
func pngOf(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, c)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeDoc(t *testing.T, pages ...pdftest.Page) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, pdftest.Build(pages...), 0o644))
	return path
}

func whiteSurface(w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	return dst
}

func TestNew(t *testing.T) {
	r, err := New(types.BackendFitz)
	require.NoError(t, err)
	assert.Equal(t, "fitz", r.Name())
	assert.NoError(t, r.Available())

	r, err = New(types.BackendPoppler)
	require.NoError(t, err)
	assert.Equal(t, "poppler", r.Name())

	_, err = New("ghostscript")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghostscript")
}

func TestPopplerAvailable(t *testing.T) {
	tests := []struct {
		name    string
		exec    *mockExecutor
		wantErr bool
	}{
		{
			name: "binary present and runs",
			exec: &mockExecutor{
				availableBins: map[string]bool{"pdftocairo": true},
				runnableCmds:  map[string]bool{"pdftocairo -v": true},
			},
		},
		{
			name:    "binary missing",
			exec:    &mockExecutor{},
			wantErr: true,
		},
		{
			name: "binary present but broken",
			exec: &mockExecutor{
				availableBins: map[string]bool{"pdftocairo": true},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newPoppler(tt.exec).Available()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnavailable)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPopplerDraw(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	exec := &mockExecutor{
		runPipedFunc: func(name string, args []string, stdout io.Writer) error {
			_, err := stdout.Write(pngOf(t, 200, 100, blue))
			return err
		},
	}
	path := writeDoc(t, pdftest.Page{Width: 50, Height: 50}, pdftest.Page{Width: 100, Height: 50})

	doc, err := newPoppler(exec).Open(context.Background(), path)
	require.NoError(t, err)
	defer doc.Close()
	require.Equal(t, 2, doc.NumPages())

	page, err := doc.Page(2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number())
	assert.InDelta(t, 100.0, page.Box().Width, 1e-9)

	dst := whiteSurface(200, 100)
	require.NoError(t, page.Draw(context.Background(), dst, 2.0))

	require.Len(t, exec.pipedCalls, 1)
	assert.Equal(t, []string{
		"pdftocairo", "-png", "-singlefile", "-cropbox",
		"-f", "2", "-l", "2",
		"-scale-to-x", "200", "-scale-to-y", "100",
		path, "-",
	}, exec.pipedCalls[0])
	assert.Equal(t, blue, dst.RGBAAt(0, 0))
	assert.Equal(t, blue, dst.RGBAAt(199, 99))
}

func TestPopplerDraw_Errors(t *testing.T) {
	tests := []struct {
		name    string
		piped   func(name string, args []string, stdout io.Writer) error
		wantMsg string
	}{
		{
			name: "command fails",
			piped: func(string, []string, io.Writer) error {
				return errors.New("exit status 1: Syntax Error")
			},
			wantMsg: "running pdftocairo",
		},
		{
			name: "garbage output",
			piped: func(_ string, _ []string, stdout io.Writer) error {
				_, err := stdout.Write([]byte("not a png"))
				return err
			},
			wantMsg: "decoding",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{runPipedFunc: tt.piped}
			doc, err := newPoppler(exec).Open(context.Background(), writeDoc(t, pdftest.Page{Width: 10, Height: 10}))
			require.NoError(t, err)
			defer doc.Close()

			page, err := doc.Page(1)
			require.NoError(t, err)
			err = page.Draw(context.Background(), whiteSurface(20, 20), 2.0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestPopplerOpen_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, err := newPoppler(&mockExecutor{}).Open(context.Background(), path)
	assert.Error(t, err)
}

func TestPopplerDraw_CropBox(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	exec := &mockExecutor{
		runPipedFunc: func(_ string, _ []string, stdout io.Writer) error {
			_, err := stdout.Write(pngOf(t, 100, 200, blue))
			return err
		},
	}
	path := writeDoc(t, pdftest.Page{Width: 200, Height: 200, Crop: &pdftest.Rect{X: 50, Width: 100, Height: 200}})

	doc, err := newPoppler(exec).Open(context.Background(), path)
	require.NoError(t, err)
	defer doc.Close()
	page, err := doc.Page(1)
	require.NoError(t, err)

	dst := whiteSurface(200, 200)
	require.NoError(t, page.Draw(context.Background(), dst, 1.0))

	require.Len(t, exec.pipedCalls, 1)
	assert.Contains(t, strings.Join(exec.pipedCalls[0], " "), "-scale-to-x 100 -scale-to-y 200")
	white := color.RGBA{255, 255, 255, 255}
	assert.Equal(t, white, dst.RGBAAt(25, 100), "left of the crop box stays white")
	assert.Equal(t, blue, dst.RGBAAt(75, 100))
	assert.Equal(t, blue, dst.RGBAAt(149, 100))
	assert.Equal(t, white, dst.RGBAAt(160, 100), "right of the crop box stays white")
}

func fill(img *image.RGBA, c color.Color) {
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func TestComposite(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	white := color.RGBA{255, 255, 255, 255}

	t.Run("transparent source keeps background", func(t *testing.T) {
		dst := whiteSurface(4, 4)
		composite(dst, dst.Bounds(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
		assert.Equal(t, white, dst.RGBAAt(2, 2))
	})

	t.Run("exact size is drawn at the target offset", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 4, 4))
		fill(src, red)

		dst := whiteSurface(8, 8)
		composite(dst, image.Rect(2, 2, 6, 6), src)
		assert.Equal(t, red, dst.RGBAAt(2, 2))
		assert.Equal(t, red, dst.RGBAAt(5, 5))
		assert.Equal(t, white, dst.RGBAAt(1, 1))
		assert.Equal(t, white, dst.RGBAAt(6, 6))
	})

	t.Run("source off by a pixel is resampled to fill", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 9, 9))
		fill(src, red)

		dst := whiteSurface(10, 10)
		composite(dst, dst.Bounds(), src)
		for _, pt := range []image.Point{{0, 0}, {5, 5}, {9, 9}} {
			c := dst.RGBAAt(pt.X, pt.Y)
			assert.Greater(t, int(c.R), 250, "at %v", pt)
			assert.Less(t, int(c.G), 5, "at %v", pt)
		}
	})

	t.Run("large mismatch is not stretched", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 5, 5))
		fill(src, red)

		dst := whiteSurface(10, 10)
		composite(dst, dst.Bounds(), src)
		assert.Equal(t, red, dst.RGBAAt(2, 2))
		assert.Equal(t, white, dst.RGBAAt(7, 7))
		assert.Equal(t, white, dst.RGBAAt(7, 2))
	})
}

func TestFitzDraw(t *testing.T) {
	path := writeDoc(t, pdftest.Page{Width: 100, Height: 100})

	doc, err := newFitz().Open(context.Background(), path)
	require.NoError(t, err)
	defer doc.Close()

	page, err := doc.Page(1)
	require.NoError(t, err)

	w, h := page.Box().PixelSize(1.0)
	dst := whiteSurface(w, h)
	require.NoError(t, page.Draw(context.Background(), dst, 1.0))

	// The content stream fills the lower-left quarter in blue; image rows
	// run top to bottom.
	lowerLeft := dst.RGBAAt(10, 90)
	assert.Greater(t, int(lowerLeft.B), 200)
	assert.Less(t, int(lowerLeft.R), 50)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, dst.RGBAAt(90, 10))
}

// fitzRender opens path with the fitz backend and draws page 1 at scale
// onto a white surface sized from the page box.
func fitzRender(t *testing.T, path string, scale float64) *image.RGBA {
	t.Helper()
	doc, err := newFitz().Open(context.Background(), path)
	require.NoError(t, err)
	defer doc.Close()

	page, err := doc.Page(1)
	require.NoError(t, err)
	w, h := page.Box().PixelSize(scale)
	dst := whiteSurface(w, h)
	require.NoError(t, page.Draw(context.Background(), dst, scale))
	return dst
}

func isBlue(c color.RGBA) bool {
	return c.B > 200 && c.R < 50 && c.G < 50
}

func TestFitzDraw_CropBoxKeepsScale(t *testing.T) {
	// 200x200 pt media box, crop box on its left half, 50x50 pt square at
	// the origin.
	path := writeDoc(t, pdftest.Page{
		Width: 200, Height: 200,
		Crop: &pdftest.Rect{Width: 100, Height: 200},
		Fill: &pdftest.Rect{Width: 50, Height: 50},
	})

	dst := fitzRender(t, path, 1.0)
	require.Equal(t, image.Rect(0, 0, 200, 200), dst.Bounds())

	assert.True(t, isBlue(dst.RGBAAt(25, 175)), "square drawn at its position: %v", dst.RGBAAt(25, 175))
	assert.False(t, isBlue(dst.RGBAAt(75, 175)), "square drawn 50 px wide: %v", dst.RGBAAt(75, 175))
	assert.False(t, isBlue(dst.RGBAAt(25, 125)), "square drawn 50 px tall: %v", dst.RGBAAt(25, 125))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, dst.RGBAAt(150, 175), "outside the crop box stays white")
}

func TestFitzDraw_CropBoxOffset(t *testing.T) {
	// Crop box [50 50 150 150]; the square sits at the crop box's lower
	// left corner, pixels (50..100, 100..150) once flipped.
	path := writeDoc(t, pdftest.Page{
		Width: 200, Height: 200,
		Crop: &pdftest.Rect{X: 50, Y: 50, Width: 100, Height: 100},
		Fill: &pdftest.Rect{X: 50, Y: 50, Width: 50, Height: 50},
	})

	dst := fitzRender(t, path, 1.0)
	assert.True(t, isBlue(dst.RGBAAt(75, 125)), "%v", dst.RGBAAt(75, 125))
	assert.False(t, isBlue(dst.RGBAAt(125, 125)))
	assert.False(t, isBlue(dst.RGBAAt(75, 75)))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, dst.RGBAAt(25, 25))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, dst.RGBAAt(175, 175))
}

func TestFitzDraw_Rotated(t *testing.T) {
	// A 100x200 pt portrait page rotated 90 degrees clockwise displays as
	// 200x100; its lower-left quarter lands in the top-left corner.
	path := writeDoc(t, pdftest.Page{Width: 100, Height: 200, Rotate: 90})

	dst := fitzRender(t, path, 1.0)
	require.Equal(t, image.Rect(0, 0, 200, 100), dst.Bounds())
	assert.True(t, isBlue(dst.RGBAAt(50, 25)), "%v", dst.RGBAAt(50, 25))
	assert.False(t, isBlue(dst.RGBAAt(150, 75)))
}

func TestDraw_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newFitz().Open(ctx, writeDoc(t, pdftest.Page{Width: 10, Height: 10}))
	assert.ErrorIs(t, err, context.Canceled)
}
