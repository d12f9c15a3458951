package eval

import (
	"testing"

	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioTruth and scenarioPrediction build the canonical mixed-type case:
// one matching text pair, one checkbox with no prediction, one stray text
// prediction.
func scenarioTruth() *DocumentAnnotation {
	return &DocumentAnnotation{
		DocumentID: "doc-1",
		Pages: []PageAnnotation{{
			PageIndex: 0,
			Fields: []FieldAnnotation{
				{Type: detector.FieldText, Rect: geometry.Rect{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.05}},
				{Type: detector.FieldCheckbox, Rect: geometry.Rect{X: 0.6, Y: 0.4, Width: 0.05, Height: 0.05}},
			},
		}},
	}
}

func scenarioPrediction() DetectionOutput {
	return DetectionOutput{
		DocumentID: "doc-1",
		Pages: []PagePrediction{{
			PageIndex: 0,
			Fields: []FieldPrediction{
				{Type: detector.FieldText, Rect: geometry.Rect{X: 0.105, Y: 0.205, Width: 0.29, Height: 0.055}, Confidence: 0.8},
				{Type: detector.FieldText, Rect: geometry.Rect{X: 0.5, Y: 0.5, Width: 0.1, Height: 0.05}, Confidence: 0.4},
			},
		}},
	}
}

func TestEvaluate_MixedScenario(t *testing.T) {
	report := Evaluate(scenarioTruth(), scenarioPrediction(), 0.5)

	require.Len(t, report.Matches, 1)
	assert.Equal(t, detector.FieldText, report.Matches[0].Type)
	assert.Greater(t, report.Matches[0].IoU, 0.5)

	require.Len(t, report.FalsePositives, 1)
	assert.Equal(t, detector.FieldText, report.FalsePositives[0].Field.Type)
	require.Len(t, report.FalseNegatives, 1)
	assert.Equal(t, detector.FieldCheckbox, report.FalseNegatives[0].Field.Type)

	assert.InDelta(t, 0.5, report.Micro.Precision, 1e-9)
	assert.InDelta(t, 0.5, report.Micro.Recall, 1e-9)
	assert.InDelta(t, 0.5, report.Micro.F1, 1e-9)
}

func TestEvaluate_SelfEvaluationIsPerfect(t *testing.T) {
	truth := scenarioTruth()
	pred := DetectionOutput{DocumentID: truth.DocumentID}
	for _, page := range truth.Pages {
		pp := PagePrediction{PageIndex: page.PageIndex}
		for _, f := range page.Fields {
			pp.Fields = append(pp.Fields, FieldPrediction{Type: f.Type, Rect: f.Rect})
		}
		pred.Pages = append(pred.Pages, pp)
	}

	report := Evaluate(truth, pred, 0.5)
	for _, tm := range report.PerType {
		assert.InDelta(t, 1.0, tm.Precision, 1e-9, string(tm.Type))
		assert.InDelta(t, 1.0, tm.Recall, 1e-9, string(tm.Type))
		assert.InDelta(t, 1.0, tm.F1, 1e-9, string(tm.Type))
	}
	assert.InDelta(t, 1.0, report.Micro.F1, 1e-9)
	assert.InDelta(t, 1.0, report.Macro.F1, 1e-9)
	assert.Empty(t, report.FalsePositives)
	assert.Empty(t, report.FalseNegatives)
}

func TestEvaluate_EmptyPredictions(t *testing.T) {
	report := Evaluate(scenarioTruth(), DetectionOutput{DocumentID: "doc-1"}, 0.5)

	for _, tm := range report.PerType {
		assert.Zero(t, tm.Precision, string(tm.Type))
		assert.Zero(t, tm.Recall, string(tm.Type))
		assert.Zero(t, tm.F1, string(tm.Type))
	}
	assert.Len(t, report.FalseNegatives, 2)
	assert.Empty(t, report.FalsePositives)
	assert.Empty(t, report.Matches)
}

func TestEvaluate_NilTruth(t *testing.T) {
	report := Evaluate(nil, scenarioPrediction(), 0.5)

	assert.Empty(t, report.Matches)
	assert.Empty(t, report.FalseNegatives)
	assert.Len(t, report.FalsePositives, 2)
	require.Len(t, report.PerType, 1)
	assert.Zero(t, report.PerType[0].Precision)
	assert.Zero(t, report.PerType[0].Recall)
}

func TestEvaluate_TypesAbsentFromBothNeverScored(t *testing.T) {
	report := Evaluate(scenarioTruth(), scenarioPrediction(), 0.5)
	for _, tm := range report.PerType {
		assert.Contains(t, []detector.FieldType{detector.FieldText, detector.FieldCheckbox}, tm.Type)
	}
	assert.Len(t, report.PerType, 2)
}

func TestEvaluate_DefaultThresholdApplied(t *testing.T) {
	report := Evaluate(scenarioTruth(), scenarioPrediction(), 0)
	assert.InDelta(t, DefaultIoUThreshold, report.IoUThreshold, 1e-9)
}

func TestEvaluate_SummaryPassthrough(t *testing.T) {
	pred := scenarioPrediction()
	pred.Summary = "run at scale 3"
	report := Evaluate(scenarioTruth(), pred, 0.5)
	assert.Equal(t, "run at scale 3", report.Summary)
}

func TestEvaluate_MacroAveragesUnweighted(t *testing.T) {
	report := Evaluate(scenarioTruth(), scenarioPrediction(), 0.5)
	// text: P=0.5, R=1.0; checkbox: P=0, R=0.
	assert.InDelta(t, 0.25, report.Macro.Precision, 1e-9)
	assert.InDelta(t, 0.5, report.Macro.Recall, 1e-9)
}

func TestEvaluate_MultiPage(t *testing.T) {
	truth := &DocumentAnnotation{
		DocumentID: "doc-2",
		Pages: []PageAnnotation{
			{PageIndex: 0, Fields: []FieldAnnotation{{Type: detector.FieldText, Rect: geometry.Rect{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.05}}}},
			{PageIndex: 2, Fields: []FieldAnnotation{{Type: detector.FieldText, Rect: geometry.Rect{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.05}}}},
		},
	}
	pred := DetectionOutput{
		DocumentID: "doc-2",
		Pages: []PagePrediction{
			{PageIndex: 2, Fields: []FieldPrediction{{Type: detector.FieldText, Rect: geometry.Rect{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.05}}}},
		},
	}

	report := Evaluate(truth, pred, 0.5)
	require.Len(t, report.Matches, 1)
	assert.Equal(t, 2, report.Matches[0].PageIndex)
	require.Len(t, report.FalseNegatives, 1)
	assert.Equal(t, 0, report.FalseNegatives[0].PageIndex)
}
