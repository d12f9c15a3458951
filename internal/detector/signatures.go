package detector

import (
	"github.com/MeKo-Tech/fieldscan/internal/geometry"
)

const (
	signatureGridStep  = 12
	minSignatureBorder = 0.6
	minSignatureAspect = 3.0
	maxSignatureAspect = 10.0
	minSignatureWidth  = 0.2 // fraction of page width
	maxSignatureWidth  = 0.8
)

// Candidate signature widths as fractions of the page width, and the aspect
// ratios tested for each width.
var (
	signatureWidthFractions = []float64{0.2, 0.3, 0.4, 0.5, 0.65, 0.8}
	signatureAspects        = []float64{4, 6, 8}
)

// detectSignatureAreas looks for wide, low bordered rectangles spanning a
// substantial part of the page width.
func detectSignatureAreas(r *Raster, opts Options) []DetectedElement {
	var out []DetectedElement
	pageWidth := float64(r.Width())
	maxH := opts.maxFieldHeightFor(r.Height())

	for y := 0; y < r.Height(); y += signatureGridStep {
		for x := 0; x < r.Width(); x += signatureGridStep {
			if !r.DarkAt(x, y) {
				continue
			}
			if elem, ok := signatureAt(r, x, y, pageWidth, maxH); ok {
				out = append(out, elem)
			}
		}
	}
	return out
}

// signatureAt tests wide-low rectangle candidates anchored at (x, y). The
// first accepted candidate wins.
func signatureAt(r *Raster, x, y int, pageWidth, maxH float64) (DetectedElement, bool) {
	for _, wf := range signatureWidthFractions {
		if wf < minSignatureWidth || wf > maxSignatureWidth {
			continue
		}
		w := int(wf * pageWidth)
		for _, aspect := range signatureAspects {
			if aspect < minSignatureAspect || aspect > maxSignatureAspect {
				continue
			}
			h := int(float64(w) / aspect)
			if h < 2 || float64(h) > maxH {
				continue
			}
			if x+w > r.Width() || y+h > r.Height() {
				continue
			}
			ratio := r.borderDarkRatio(x, y, w, h)
			if ratio <= minSignatureBorder {
				continue
			}
			return DetectedElement{
				Type:       FieldSignature,
				Rect:       geometry.Rect{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(h)},
				Confidence: ratio,
			}, true
		}
	}
	return DetectedElement{}, false
}
