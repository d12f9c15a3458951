// Package testutil provides deterministic synthetic form pages for detector
// and pipeline tests: white canvases with underlines, bordered boxes,
// checkboxes, radio circles, and glyph text drawn at known coordinates.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FormPage is a synthetic page under construction.
type FormPage struct {
	img *image.RGBA
}

// NewFormPage creates a white page of the given pixel dimensions.
func NewFormPage(width, height int) *FormPage {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	return &FormPage{img: img}
}

// Image returns the underlying RGBA image.
func (p *FormPage) Image() *image.RGBA { return p.img }

// Pixels returns the page's dense RGBA byte buffer.
func (p *FormPage) Pixels() []byte { return p.img.Pix }

// Width returns the page width in pixels.
func (p *FormPage) Width() int { return p.img.Bounds().Dx() }

// Height returns the page height in pixels.
func (p *FormPage) Height() int { return p.img.Bounds().Dy() }

// DrawUnderline draws a horizontal fill-in line of the given thickness.
func (p *FormPage) DrawUnderline(x, y, width, thickness int) {
	p.fillRect(x, y, width, thickness, color.Black)
}

// DrawBox draws a rectangle outline with the given stroke width.
func (p *FormPage) DrawBox(x, y, width, height, stroke int) {
	p.fillRect(x, y, width, stroke, color.Black)
	p.fillRect(x, y+height-stroke, width, stroke, color.Black)
	p.fillRect(x, y, stroke, height, color.Black)
	p.fillRect(x+width-stroke, y, stroke, height, color.Black)
}

// DrawCheckbox draws a square outline.
func (p *FormPage) DrawCheckbox(x, y, size int) {
	p.DrawBox(x, y, size, size, 1)
}

// DrawRadio draws a circle outline centered at (cx, cy) with a 2px stroke,
// matching the stroke weight of pages rendered at 3x scale.
func (p *FormPage) DrawRadio(cx, cy, radius int) {
	for _, r := range []int{radius, radius - 1} {
		if r < 1 {
			continue
		}
		// Dense angular sweep so the outline has no gaps at small radii.
		steps := 16 * r
		if steps < 64 {
			steps = 64
		}
		for i := 0; i < steps; i++ {
			angle := 2 * math.Pi * float64(i) / float64(steps)
			x := cx + int(math.Round(float64(r)*math.Cos(angle)))
			y := cy + int(math.Round(float64(r)*math.Sin(angle)))
			p.setBlack(x, y)
		}
	}
}

// DrawLabel renders text at the baseline point using the basic 7x13 face.
func (p *FormPage) DrawLabel(x, y int, text string) {
	drawer := &font.Drawer{
		Dst:  p.img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}

// LabelBounds returns the pixel bounding box DrawLabel covers for the given
// baseline point and text, for building known-text-box inputs.
func (p *FormPage) LabelBounds(x, y int, text string) (bx, by, bw, bh int) {
	w := font.MeasureString(basicfont.Face7x13, text).Ceil()
	m := basicfont.Face7x13.Metrics()
	return x, y - m.Ascent.Ceil(), w, m.Ascent.Ceil() + m.Descent.Ceil()
}

func (p *FormPage) fillRect(x, y, w, h int, c color.Color) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			p.setPixel(xx, yy, c)
		}
	}
}

func (p *FormPage) setBlack(x, y int) { p.setPixel(x, y, color.Black) }

func (p *FormPage) setPixel(x, y int, c color.Color) {
	if image.Pt(x, y).In(p.img.Bounds()) {
		p.img.Set(x, y, c)
	}
}

// SavePNG writes the page to a PNG file, for debugging failing detections.
func (p *FormPage) SavePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(p.img, path))
	return path
}
