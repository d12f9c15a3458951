package detector

// Luminance thresholds shared by the per-type passes. A pixel is "dark" when
// its luminance falls below darkThreshold; the space-above check uses the
// stricter brightThreshold so faint strokes do not count as empty space.
const (
	darkThreshold   = 128.0
	brightThreshold = darkThreshold + 20.0
)

// Raster is a read-only view over a dense RGBA byte buffer. Out-of-range
// reads return white (255) so the scanning passes never have to bounds-check.
type Raster struct {
	pix    []byte
	width  int
	height int
}

// NewRaster wraps a pixel buffer. The buffer must hold at least
// width*height*4 bytes; shorter buffers are treated as if the missing tail
// were white.
func NewRaster(pix []byte, width, height int) *Raster {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Raster{pix: pix, width: width, height: height}
}

// Width returns the buffer width in pixels.
func (r *Raster) Width() int { return r.width }

// Height returns the buffer height in pixels.
func (r *Raster) Height() int { return r.height }

// BrightnessAt returns the luminance (0.299R + 0.587G + 0.114B) of the pixel
// at (x, y), or 255 for coordinates outside the buffer.
func (r *Raster) BrightnessAt(x, y int) float64 {
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return 255
	}
	i := (y*r.width + x) * 4
	if i+2 >= len(r.pix) {
		return 255
	}
	return 0.299*float64(r.pix[i]) + 0.587*float64(r.pix[i+1]) + 0.114*float64(r.pix[i+2])
}

// DarkAt reports whether the pixel at (x, y) is darker than darkThreshold.
func (r *Raster) DarkAt(x, y int) bool {
	return r.BrightnessAt(x, y) < darkThreshold
}

// darkRatioRect samples the interior of a rectangle on a step grid and
// returns the fraction of dark pixels. Returns 0 when nothing was sampled.
func (r *Raster) darkRatioRect(x, y, w, h, step int) float64 {
	if step < 1 {
		step = 1
	}
	dark, total := 0, 0
	for yy := y; yy < y+h; yy += step {
		for xx := x; xx < x+w; xx += step {
			total++
			if r.DarkAt(xx, yy) {
				dark++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(dark) / float64(total)
}

// brightRatioRect is the complement of darkRatioRect against the stricter
// bright threshold, used when checking that an area is empty.
func (r *Raster) brightRatioRect(x, y, w, h, step int) float64 {
	if step < 1 {
		step = 1
	}
	bright, total := 0, 0
	for yy := y; yy < y+h; yy += step {
		for xx := x; xx < x+w; xx += step {
			total++
			if r.BrightnessAt(xx, yy) > brightThreshold {
				bright++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bright) / float64(total)
}

// borderDarkRatio walks the perimeter of a rectangle and returns the fraction
// of dark perimeter pixels.
func (r *Raster) borderDarkRatio(x, y, w, h int) float64 {
	if w < 2 || h < 2 {
		return 0
	}
	dark, total := 0, 0
	for xx := x; xx < x+w; xx++ {
		total += 2
		if r.DarkAt(xx, y) {
			dark++
		}
		if r.DarkAt(xx, y+h-1) {
			dark++
		}
	}
	for yy := y + 1; yy < y+h-1; yy++ {
		total += 2
		if r.DarkAt(x, yy) {
			dark++
		}
		if r.DarkAt(x+w-1, yy) {
			dark++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(dark) / float64(total)
}
