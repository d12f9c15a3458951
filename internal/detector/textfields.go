package detector

import (
	"math"

	"github.com/MeKo-Tech/fieldscan/internal/geometry"
)

const (
	// Fraction of sampled pixels above the bright threshold required in the
	// space directly above an underline.
	minSpaceAboveBright = 0.55
	// Vertical gap between an underline and the field rectangle above it.
	underlineGap = 2
	// Confidence bonus for field rectangles with a plausible aspect ratio.
	aspectBonus    = 0.1
	minFieldAspect = 3.0
	maxFieldAspect = 20.0
)

// detectUnderlineFields scans sampled rows for thin dark underlines with
// empty space above them and emits a text-field rectangle above each line.
func detectUnderlineFields(r *Raster, opts Options) []DetectedElement {
	var out []DetectedElement
	pageHeight := float64(r.Height())
	maxH := opts.maxFieldHeightFor(r.Height())

	fieldHeight := math.Max(opts.MinTextFieldHeight, math.Min(25, 0.025*pageHeight))
	if fieldHeight > maxH {
		fieldHeight = maxH
	}

	for y := 1; y < r.Height(); y += rowScanStep {
		for _, run := range scanRowRuns(r, y) {
			if runThickness(r, run) > maxLineThick {
				continue
			}
			if !isRunTopEdge(r, run) {
				continue
			}
			// The space directly above the line must be mostly empty.
			aboveTop := run.y - 7
			if r.brightRatioRect(run.x0, aboveTop, run.width(), 5, 3) < minSpaceAboveBright {
				continue
			}

			top := float64(run.y) - underlineGap - fieldHeight
			height := fieldHeight
			if top < 0 {
				height += top
				top = 0
			}
			if height <= 0 {
				continue
			}
			rect := geometry.Rect{X: float64(run.x0), Y: top, Width: float64(run.width()), Height: height}
			out = append(out, DetectedElement{
				Type:       FieldText,
				Rect:       rect,
				Confidence: underlineConfidence(r, rect),
			})
		}
	}
	return out
}

// underlineConfidence scores a candidate field area by how empty it is, with
// a bonus for aspect ratios typical of fill-in lines.
func underlineConfidence(r *Raster, rect geometry.Rect) float64 {
	conf := r.brightRatioRect(int(rect.X), int(rect.Y), int(rect.Width), int(rect.Height), 3)
	if rect.Height > 0 {
		aspect := rect.Width / rect.Height
		if aspect >= minFieldAspect && aspect <= maxFieldAspect {
			conf += aspectBonus
		}
	}
	return math.Min(conf, 1.0)
}

// Boxed text field pass parameters.
const (
	minBoxBorderDark  = 0.6
	minBoxInterior    = 0.75
	boxedFieldGridStep = 12
)

var (
	boxedFieldWidths  = []int{60, 100, 150, 220, 300}
	boxedFieldHeights = []int{24, 32, 44, 60}
)

// detectBoxedFields finds bordered (not underlined) text fields by testing
// candidate rectangles for a dark border with a bright interior.
func detectBoxedFields(r *Raster, opts Options) []DetectedElement {
	var out []DetectedElement
	maxH := opts.maxFieldHeightFor(r.Height())

	for y := 0; y < r.Height(); y += boxedFieldGridStep {
		for x := 0; x < r.Width(); x += boxedFieldGridStep {
			if elem, ok := boxedFieldAt(r, x, y, maxH); ok {
				out = append(out, elem)
			}
		}
	}
	return out
}

// boxedFieldAt tests candidate sizes anchored at (x, y); the first accepted
// size wins so one origin yields at most one detection.
func boxedFieldAt(r *Raster, x, y int, maxH float64) (DetectedElement, bool) {
	// A border must start here; skip origins on empty paper.
	if !r.DarkAt(x, y) && !r.DarkAt(x+1, y) && !r.DarkAt(x, y+1) {
		return DetectedElement{}, false
	}
	for _, h := range boxedFieldHeights {
		if float64(h) > maxH {
			break
		}
		for _, w := range boxedFieldWidths {
			if x+w > r.Width() || y+h > r.Height() {
				continue
			}
			border := r.borderDarkRatio(x, y, w, h)
			if border <= minBoxBorderDark {
				continue
			}
			interior := r.brightRatioRect(x+2, y+2, w-4, h-4, 2)
			if interior < minBoxInterior {
				continue
			}
			return DetectedElement{
				Type:       FieldText,
				Rect:       geometry.Rect{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(h)},
				Confidence: math.Min(1.0, 0.5*border+0.5*interior),
			}, true
		}
	}
	return DetectedElement{}, false
}
