package eval

import (
	"github.com/MeKo-Tech/fieldscan/internal/detector"
)

// PagePredictionFromElements converts pixel-space detector output into a
// normalized page prediction using the source viewport dimensions. Elements
// with no area after normalization are dropped.
func PagePredictionFromElements(elems []detector.DetectedElement, pageIndex, width, height int) PagePrediction {
	page := PagePrediction{PageIndex: pageIndex, Fields: []FieldPrediction{}}
	for _, e := range elems {
		rect := e.Rect.Normalize(float64(width), float64(height))
		if rect.Empty() {
			continue
		}
		page.Fields = append(page.Fields, FieldPrediction{
			Type:       e.Type,
			Rect:       rect,
			Confidence: e.Confidence,
		})
	}
	return page
}
