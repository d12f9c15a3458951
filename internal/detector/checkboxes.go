package detector

import (
	"github.com/MeKo-Tech/fieldscan/internal/geometry"
)

const (
	checkboxGridStep   = 4
	checkboxSizeStep   = 2
	minCheckboxBorder  = 0.65
)

// detectCheckboxes tests increasing square sizes at grid-sampled origins and
// accepts the smallest square whose perimeter is mostly dark. One detection
// per origin; the first accepted size wins.
func detectCheckboxes(r *Raster, opts Options) []DetectedElement {
	var out []DetectedElement

	for y := 0; y < r.Height(); y += checkboxGridStep {
		for x := 0; x < r.Width(); x += checkboxGridStep {
			// Square borders start with a dark corner; skip empty origins early.
			if !r.DarkAt(x, y) {
				continue
			}
			for size := int(opts.MinCheckboxSize); size <= int(opts.MaxCheckboxSize); size += checkboxSizeStep {
				if x+size > r.Width() || y+size > r.Height() {
					break
				}
				ratio := r.borderDarkRatio(x, y, size, size)
				if ratio <= minCheckboxBorder {
					continue
				}
				out = append(out, DetectedElement{
					Type:       FieldCheckbox,
					Rect:       geometry.Rect{X: float64(x), Y: float64(y), Width: float64(size), Height: float64(size)},
					Confidence: ratio,
				})
				break
			}
		}
	}
	return out
}
