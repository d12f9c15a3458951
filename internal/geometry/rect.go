package geometry

import "math"

// Rect is an axis-aligned rectangle. Coordinates are either pixels (detector
// output) or page-relative fractions in [0,1] (annotations); the two spaces
// are never mixed within a single operation.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect constructs a Rect, swapping coordinates so width/height are non-negative.
func NewRect(x1, y1, x2, y2 float64) Rect {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Area returns the rectangle's area, 0 for degenerate rectangles.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Empty reports whether the rectangle has no positive extent.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Valid reports whether all coordinates are finite and extents non-negative.
func (r Rect) Valid() bool {
	for _, v := range [4]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width >= 0 && r.Height >= 0
}

// Intersect returns the overlapping region of two rectangles. The zero Rect
// is returned when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x1 := math.Max(r.X, o.X)
	y1 := math.Max(r.Y, o.Y)
	x2 := math.Min(r.MaxX(), o.MaxX())
	y2 := math.Min(r.MaxY(), o.MaxY())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Union returns the bounding box covering both rectangles.
func (r Rect) Union(o Rect) Rect {
	x1 := math.Min(r.X, o.X)
	y1 := math.Min(r.Y, o.Y)
	x2 := math.Max(r.MaxX(), o.MaxX())
	y2 := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// IoU computes intersection-over-union. Disjoint or degenerate rectangles
// yield 0. The union area uses inclusion-exclusion to avoid double counting.
func (r Rect) IoU(o Rect) float64 {
	inter := r.Intersect(o).Area()
	if inter <= 0 {
		return 0
	}
	union := r.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// OverlapRatio returns intersection-area / r's own area, the asymmetric
// overlap used by the glyph-suppression filter. Returns 0 for degenerate r.
func (r Rect) OverlapRatio(o Rect) float64 {
	area := r.Area()
	if area <= 0 {
		return 0
	}
	return r.Intersect(o).Area() / area
}

// Contains reports whether o lies entirely within r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.MaxX() <= r.MaxX() && o.MaxY() <= r.MaxY()
}

// HorizontallyAdjacent reports whether r and o overlap vertically and their
// horizontal gap (0 when overlapping) is at most maxGap.
func (r Rect) HorizontallyAdjacent(o Rect, maxGap float64) bool {
	if r.MaxY() <= o.Y || o.MaxY() <= r.Y {
		return false
	}
	gap := math.Max(r.X, o.X) - math.Min(r.MaxX(), o.MaxX())
	return gap <= maxGap
}

// VerticallyAdjacent is the symmetric condition on the vertical axis.
func (r Rect) VerticallyAdjacent(o Rect, maxGap float64) bool {
	if r.MaxX() <= o.X || o.MaxX() <= r.X {
		return false
	}
	gap := math.Max(r.Y, o.Y) - math.Min(r.MaxY(), o.MaxY())
	return gap <= maxGap
}

// Normalize maps a pixel-space rectangle into page-relative [0,1] coordinates
// given the source viewport dimensions. Width/height of the result are not
// clamped above 1; callers may clamp.
func (r Rect) Normalize(pageWidth, pageHeight float64) Rect {
	if pageWidth <= 0 || pageHeight <= 0 {
		return Rect{}
	}
	return Rect{
		X:      r.X / pageWidth,
		Y:      r.Y / pageHeight,
		Width:  r.Width / pageWidth,
		Height: r.Height / pageHeight,
	}
}

// Denormalize maps a page-relative rectangle back into pixel space.
func (r Rect) Denormalize(pageWidth, pageHeight float64) Rect {
	return Rect{
		X:      r.X * pageWidth,
		Y:      r.Y * pageHeight,
		Width:  r.Width * pageWidth,
		Height: r.Height * pageHeight,
	}
}
