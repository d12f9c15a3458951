package detector

import (
	"math"

	"github.com/MeKo-Tech/fieldscan/internal/geometry"
)

const (
	radioGridStep       = 4
	circleSamplePoints  = 16
	minCircleDarkRatio  = 0.6
)

// detectRadioButtons looks for circular outlines by sampling points around
// candidate circumferences at increasing radii. One detection per origin.
func detectRadioButtons(r *Raster, opts Options) []DetectedElement {
	var out []DetectedElement
	minRadius := int(opts.MinRadioSize / 2)
	maxRadius := int(opts.MaxRadioSize / 2)
	if minRadius < 2 {
		minRadius = 2
	}

	for y := 0; y < r.Height(); y += radioGridStep {
		for x := 0; x < r.Width(); x += radioGridStep {
			if elem, ok := radioAt(r, x, y, minRadius, maxRadius); ok {
				out = append(out, elem)
			}
		}
	}
	return out
}

// radioAt tests circles whose bounding square is anchored at (x, y). The
// smallest radius whose circumference is mostly dark wins.
func radioAt(r *Raster, x, y, minRadius, maxRadius int) (DetectedElement, bool) {
	for radius := minRadius; radius <= maxRadius; radius++ {
		cx := x + radius
		cy := y + radius
		if cx+radius > r.Width() || cy+radius > r.Height() {
			break
		}
		ratio := circleDarkRatio(r, cx, cy, radius)
		if ratio <= minCircleDarkRatio {
			continue
		}
		return DetectedElement{
			Type: FieldRadio,
			Rect: geometry.Rect{
				X:      float64(cx - radius),
				Y:      float64(cy - radius),
				Width:  float64(2 * radius),
				Height: float64(2 * radius),
			},
			Confidence: ratio,
		}, true
	}
	return DetectedElement{}, false
}

// circleDarkRatio samples evenly spaced points on a circle's circumference
// and returns the dark fraction.
func circleDarkRatio(r *Raster, cx, cy, radius int) float64 {
	dark := 0
	for i := 0; i < circleSamplePoints; i++ {
		angle := 2 * math.Pi * float64(i) / float64(circleSamplePoints)
		px := cx + int(math.Round(float64(radius)*math.Cos(angle)))
		py := cy + int(math.Round(float64(radius)*math.Sin(angle)))
		if r.DarkAt(px, py) {
			dark++
		}
	}
	return float64(dark) / float64(circleSamplePoints)
}
