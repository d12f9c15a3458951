package detector

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/fieldscan/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAdjacent_TouchingElements(t *testing.T) {
	elems := []DetectedElement{
		{Type: FieldText, Rect: geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}, Confidence: 0.8},
		{Type: FieldText, Rect: geometry.Rect{X: 10, Y: 0, Width: 10, Height: 10}, Confidence: 0.6},
	}

	merged := mergeAdjacent(elems, 5)
	require.Len(t, merged, 1)
	assert.Equal(t, geometry.Rect{X: 0, Y: 0, Width: 20, Height: 10}, merged[0].Rect)
	assert.InDelta(t, 0.8*mergeConfidencePenalty, merged[0].Confidence, 1e-9)
}

func TestMergeAdjacent_DifferentTypesStaySeparate(t *testing.T) {
	elems := []DetectedElement{
		{Type: FieldText, Rect: geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}, Confidence: 0.8},
		{Type: FieldLine, Rect: geometry.Rect{X: 10, Y: 0, Width: 50, Height: 3}, Confidence: 0.6},
	}
	assert.Len(t, mergeAdjacent(elems, 5), 2)
}

func TestMergeAdjacent_GapBeyondThreshold(t *testing.T) {
	elems := []DetectedElement{
		{Type: FieldCheckbox, Rect: geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}, Confidence: 0.8},
		{Type: FieldCheckbox, Rect: geometry.Rect{X: 30, Y: 0, Width: 10, Height: 10}, Confidence: 0.7},
	}
	merged := mergeAdjacent(elems, 5)
	assert.Len(t, merged, 2)
	// Confidences untouched when nothing merges.
	for _, e := range merged {
		assert.GreaterOrEqual(t, e.Confidence, 0.7)
	}
}

func TestMergeAdjacent_ChainCollapsesTransitively(t *testing.T) {
	elems := []DetectedElement{
		{Type: FieldText, Rect: geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}, Confidence: 0.5},
		{Type: FieldText, Rect: geometry.Rect{X: 12, Y: 0, Width: 10, Height: 10}, Confidence: 0.9},
		{Type: FieldText, Rect: geometry.Rect{X: 24, Y: 0, Width: 10, Height: 10}, Confidence: 0.7},
	}
	merged := mergeAdjacent(elems, 3)
	require.Len(t, merged, 1)
	assert.Equal(t, geometry.Rect{X: 0, Y: 0, Width: 34, Height: 10}, merged[0].Rect)
	assert.InDelta(t, 0.9*mergeConfidencePenalty, merged[0].Confidence, 1e-9)
}

func TestMergeAdjacent_OrderInsensitive(t *testing.T) {
	a := DetectedElement{Type: FieldText, Rect: geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}, Confidence: 0.5}
	b := DetectedElement{Type: FieldText, Rect: geometry.Rect{X: 11, Y: 2, Width: 10, Height: 10}, Confidence: 0.9}

	m1 := mergeAdjacent([]DetectedElement{a, b}, 2)
	m2 := mergeAdjacent([]DetectedElement{b, a}, 2)
	assert.Equal(t, m1, m2)
}

func TestApplySizeFilter_DropsMalformedGeometry(t *testing.T) {
	elems := []DetectedElement{
		{Type: FieldText, Rect: geometry.Rect{X: 0, Y: 0, Width: 0, Height: 0}, Confidence: 1},
		{Type: FieldText, Rect: geometry.Rect{X: math.NaN(), Y: 0, Width: 100, Height: 20}, Confidence: 1},
		{Type: FieldText, Rect: geometry.Rect{X: 0, Y: 0, Width: 100, Height: math.Inf(1)}, Confidence: 1},
		{Type: FieldText, Rect: geometry.Rect{X: 0, Y: 0, Width: 100, Height: 20}, Confidence: 1},
	}
	out := applySizeFilter(elems, 800)
	require.Len(t, out, 1)
	assert.Equal(t, elems[3], out[0])
}

func TestApplySizeFilter_TypeSpecificMinimums(t *testing.T) {
	pageHeight := 800
	cases := []struct {
		name string
		elem DetectedElement
		keep bool
	}{
		{"text too short", DetectedElement{Type: FieldText, Rect: geometry.Rect{Width: 100, Height: 10}}, false},
		{"text ok", DetectedElement{Type: FieldText, Rect: geometry.Rect{Width: 100, Height: 20}}, true},
		{"text too narrow", DetectedElement{Type: FieldText, Rect: geometry.Rect{Width: 15, Height: 20}}, false},
		{"checkbox square", DetectedElement{Type: FieldCheckbox, Rect: geometry.Rect{Width: 14, Height: 14}}, true},
		{"checkbox stretched", DetectedElement{Type: FieldCheckbox, Rect: geometry.Rect{Width: 40, Height: 10}}, false},
		{"radio square", DetectedElement{Type: FieldRadio, Rect: geometry.Rect{Width: 12, Height: 12}}, true},
		{"signature flat", DetectedElement{Type: FieldSignature, Rect: geometry.Rect{Width: 240, Height: 10}}, false},
		{"signature ok", DetectedElement{Type: FieldSignature, Rect: geometry.Rect{Width: 240, Height: 40}}, true},
		{"line too short", DetectedElement{Type: FieldLine, Rect: geometry.Rect{Width: 30, Height: 3}}, false},
		{"line ok", DetectedElement{Type: FieldLine, Rect: geometry.Rect{Width: 80, Height: 3}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := applySizeFilter([]DetectedElement{tc.elem}, pageHeight)
			if tc.keep {
				assert.Len(t, out, 1)
			} else {
				assert.Empty(t, out)
			}
		})
	}
}

func TestApplyTextOverlapFilter(t *testing.T) {
	textBoxes := []TextBox{
		{Text: "Name", Rect: geometry.Rect{X: 100, Y: 100, Width: 90, Height: 20}},
	}
	inside := DetectedElement{Type: FieldLine, Rect: geometry.Rect{X: 105, Y: 105, Width: 70, Height: 10}}
	swallowing := DetectedElement{Type: FieldText, Rect: geometry.Rect{X: 95, Y: 95, Width: 100, Height: 40}}
	clear := DetectedElement{Type: FieldText, Rect: geometry.Rect{X: 300, Y: 300, Width: 100, Height: 20}}

	out := applyTextOverlapFilter([]DetectedElement{inside, swallowing, clear}, textBoxes)
	// "inside" is fully within the glyph box (overlap 1.0 > 0.7); "swallowing"
	// contains the glyph box with 45% of its own area covered (> 0.4).
	assert.Equal(t, []DetectedElement{clear}, out)
}

func TestApplyTextOverlapFilter_NoBoxesIsNoop(t *testing.T) {
	elems := []DetectedElement{
		{Type: FieldText, Rect: geometry.Rect{X: 0, Y: 0, Width: 100, Height: 20}},
	}
	assert.Equal(t, elems, applyTextOverlapFilter(elems, nil))
}

func TestApplyConfidenceFilter(t *testing.T) {
	elems := []DetectedElement{
		{Type: FieldText, Confidence: 0.2},
		{Type: FieldText, Confidence: 0.5},
		{Type: FieldText, Confidence: 0.9},
	}
	out := applyConfidenceFilter(elems, 0.5)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.5, out[0].Confidence, 1e-9)
	assert.InDelta(t, 0.9, out[1].Confidence, 1e-9)
}

func TestSortElements_CanonicalOrder(t *testing.T) {
	elems := []DetectedElement{
		{Type: FieldLine, Rect: geometry.Rect{Y: 10}},
		{Type: FieldText, Rect: geometry.Rect{Y: 50}},
		{Type: FieldText, Rect: geometry.Rect{Y: 10, X: 20}},
		{Type: FieldText, Rect: geometry.Rect{Y: 10, X: 5}},
	}
	sortElements(elems)
	assert.Equal(t, FieldText, elems[0].Type)
	assert.InDelta(t, 5.0, elems[0].Rect.X, 1e-9)
	assert.InDelta(t, 20.0, elems[1].Rect.X, 1e-9)
	assert.InDelta(t, 50.0, elems[2].Rect.Y, 1e-9)
	assert.Equal(t, FieldLine, elems[3].Type)
}
