package eval

import (
	"testing"

	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagePredictionFromElements(t *testing.T) {
	elems := []detector.DetectedElement{
		{Type: detector.FieldText, Rect: geometry.Rect{X: 100, Y: 200, Width: 300, Height: 40}, Confidence: 0.8},
		{Type: detector.FieldCheckbox, Rect: geometry.Rect{X: 500, Y: 600, Width: 14, Height: 14}, Confidence: 0.9},
	}

	page := PagePredictionFromElements(elems, 3, 1000, 2000)
	assert.Equal(t, 3, page.PageIndex)
	require.Len(t, page.Fields, 2)

	text := page.Fields[0]
	assert.Equal(t, detector.FieldText, text.Type)
	assert.InDelta(t, 0.1, text.Rect.X, 1e-9)
	assert.InDelta(t, 0.1, text.Rect.Y, 1e-9)
	assert.InDelta(t, 0.3, text.Rect.Width, 1e-9)
	assert.InDelta(t, 0.02, text.Rect.Height, 1e-9)
	assert.InDelta(t, 0.8, text.Confidence, 1e-9)
}

func TestPagePredictionFromElements_DropsDegenerate(t *testing.T) {
	elems := []detector.DetectedElement{
		{Type: detector.FieldText, Rect: geometry.Rect{X: 10, Y: 10, Width: 0, Height: 20}, Confidence: 0.8},
	}
	page := PagePredictionFromElements(elems, 0, 1000, 1000)
	assert.Empty(t, page.Fields)
}

func TestPagePredictionFromElements_ZeroViewport(t *testing.T) {
	elems := []detector.DetectedElement{
		{Type: detector.FieldText, Rect: geometry.Rect{X: 10, Y: 10, Width: 100, Height: 20}, Confidence: 0.8},
	}
	page := PagePredictionFromElements(elems, 0, 0, 0)
	assert.Empty(t, page.Fields)
}
