package detector

import (
	"math"
	"sort"
)

// mergeConfidencePenalty reflects the uncertainty introduced by replacing
// several detections with their bounding box.
const mergeConfidencePenalty = 0.9

// Glyph-suppression overlap thresholds (intersection-area / detection-area).
const (
	containedOverlapLimit = 0.4
	hardOverlapLimit      = 0.7
)

// applySizeFilter drops elements below type-specific minimum dimensions
// scaled to the page height, along with malformed geometry.
func applySizeFilter(elems []DetectedElement, pageHeight int) []DetectedElement {
	ph := float64(pageHeight)
	out := make([]DetectedElement, 0, len(elems))
	for _, e := range elems {
		if !e.Rect.Valid() || e.Rect.Empty() {
			continue
		}
		if sizeOK(e, ph) {
			out = append(out, e)
		}
	}
	return out
}

func sizeOK(e DetectedElement, pageHeight float64) bool {
	w, h := e.Rect.Width, e.Rect.Height
	switch e.Type {
	case FieldText, FieldBox:
		return h >= math.Max(12, 0.015*pageHeight) && w >= 20
	case FieldCheckbox, FieldRadio, FieldCircle:
		// Roughly square within a 3x aspect tolerance.
		return w >= 4 && h >= 4 && w/h <= 3 && h/w <= 3
	case FieldSignature:
		return h >= math.Max(15, 0.02*pageHeight) && w > h
	case FieldLine, FieldBracket:
		return w >= minRunWidth
	}
	return false
}

// applyTextOverlapFilter suppresses detections that are mostly glyph strokes,
// using known text bounding boxes. Raw pixel heuristics otherwise hallucinate
// boxes and lines inside dense text.
func applyTextOverlapFilter(elems []DetectedElement, textBoxes []TextBox) []DetectedElement {
	if len(textBoxes) == 0 {
		return elems
	}
	out := make([]DetectedElement, 0, len(elems))
	for _, e := range elems {
		if !overlapsText(e, textBoxes) {
			out = append(out, e)
		}
	}
	return out
}

func overlapsText(e DetectedElement, textBoxes []TextBox) bool {
	for _, tb := range textBoxes {
		overlap := e.Rect.OverlapRatio(tb.Rect)
		if overlap > hardOverlapLimit {
			return true
		}
		if overlap > containedOverlapLimit && e.Rect.Contains(tb.Rect) {
			return true
		}
	}
	return false
}

// mergeAdjacent repeatedly unions same-type elements that sit next to each
// other within the merge threshold. The merged rectangle is the bounding box
// of the group; the merged confidence is the group maximum with a mild
// penalty. Input order does not affect the result set.
func mergeAdjacent(elems []DetectedElement, threshold float64) []DetectedElement {
	if len(elems) <= 1 {
		return elems
	}
	work := make([]DetectedElement, len(elems))
	copy(work, elems)
	sortElements(work)

	for {
		merged, changed := mergePass(work, threshold)
		if !changed {
			return merged
		}
		work = merged
	}
}

// mergePass performs one greedy grouping sweep over canonically ordered input.
func mergePass(elems []DetectedElement, threshold float64) ([]DetectedElement, bool) {
	used := make([]bool, len(elems))
	out := make([]DetectedElement, 0, len(elems))
	changed := false

	for i := range elems {
		if used[i] {
			continue
		}
		used[i] = true
		acc := elems[i]
		groupSize := 1

		// Grow the group until no unclaimed neighbor is adjacent to its bbox.
		for grew := true; grew; {
			grew = false
			for j := i + 1; j < len(elems); j++ {
				if used[j] || elems[j].Type != acc.Type {
					continue
				}
				if !acc.Rect.HorizontallyAdjacent(elems[j].Rect, threshold) &&
					!acc.Rect.VerticallyAdjacent(elems[j].Rect, threshold) {
					continue
				}
				used[j] = true
				acc = DetectedElement{
					Type:       acc.Type,
					Rect:       acc.Rect.Union(elems[j].Rect),
					Confidence: math.Max(acc.Confidence, elems[j].Confidence),
				}
				groupSize++
				grew = true
			}
		}
		if groupSize > 1 {
			acc.Confidence *= mergeConfidencePenalty
			changed = true
		}
		out = append(out, acc)
	}
	return out, changed
}

// applyConfidenceFilter drops elements below the confidence threshold.
func applyConfidenceFilter(elems []DetectedElement, threshold float64) []DetectedElement {
	out := make([]DetectedElement, 0, len(elems))
	for _, e := range elems {
		if e.Confidence >= threshold {
			out = append(out, e)
		}
	}
	return out
}

// sortElements orders elements canonically: type order, then reading order.
func sortElements(elems []DetectedElement) {
	sort.SliceStable(elems, func(i, j int) bool {
		a, b := elems[i], elems[j]
		if a.Type != b.Type {
			return a.Type.rank() < b.Type.rank()
		}
		if a.Rect.Y != b.Rect.Y {
			return a.Rect.Y < b.Rect.Y
		}
		return a.Rect.X < b.Rect.X
	})
}
