// Package eval scores field-detection output against hand-labeled ground
// truth. Matching is greedy highest-IoU-first per field type and page;
// metrics are aggregated per type and across types (micro and macro).
package eval

import (
	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/geometry"
)

// FieldAnnotation is one hand-labeled ground-truth field. Rect is
// page-relative in [0,1].
type FieldAnnotation struct {
	Type detector.FieldType `json:"type"`
	Rect geometry.Rect      `json:"rect"`
}

// FieldPrediction is one detector output field in the same normalized space.
type FieldPrediction struct {
	Type       detector.FieldType `json:"type"`
	Rect       geometry.Rect      `json:"rect"`
	Confidence float64            `json:"confidence,omitempty"`
}

// PageAnnotation groups ground-truth fields of one page.
type PageAnnotation struct {
	PageIndex int               `json:"pageIndex"`
	Fields    []FieldAnnotation `json:"fields"`
}

// PagePrediction groups predicted fields of one page.
type PagePrediction struct {
	PageIndex int               `json:"pageIndex"`
	Fields    []FieldPrediction `json:"fields"`
}

// DocumentAnnotation is the ground truth for a whole document.
type DocumentAnnotation struct {
	DocumentID string           `json:"documentId"`
	Pages      []PageAnnotation `json:"pages"`
}

// DetectionOutput is a detector's predictions for a whole document, with an
// optional free-form summary from the prediction source.
type DetectionOutput struct {
	DocumentID string           `json:"documentId"`
	Summary    string           `json:"summary,omitempty"`
	Pages      []PagePrediction `json:"pages"`
}

// AnnotationInstance is a ground-truth field paired with its page index,
// the unit the matcher works on.
type AnnotationInstance struct {
	PageIndex int             `json:"pageIndex"`
	Field     FieldAnnotation `json:"field"`
}

// PredictionInstance is a predicted field paired with its page index.
type PredictionInstance struct {
	PageIndex int             `json:"pageIndex"`
	Field     FieldPrediction `json:"field"`
}

// MatchRecord is an accepted truth/prediction pair. Each truth and each
// prediction instance participates in at most one record.
type MatchRecord struct {
	Type       detector.FieldType `json:"type"`
	PageIndex  int                `json:"pageIndex"`
	Truth      FieldAnnotation    `json:"truth"`
	Prediction FieldPrediction    `json:"prediction"`
	IoU        float64            `json:"iou"`
}

// TypeMetrics summarizes matching quality for one field type. Read-only
// after construction.
type TypeMetrics struct {
	Type           detector.FieldType `json:"type"`
	TruePositives  int                `json:"truePositives"`
	FalsePositives int                `json:"falsePositives"`
	FalseNegatives int                `json:"falseNegatives"`
	Precision      float64            `json:"precision"`
	Recall         float64            `json:"recall"`
	F1             float64            `json:"f1"`
}

// AggregateMetrics summarizes quality across all field types.
type AggregateMetrics struct {
	TruePositives  int     `json:"truePositives"`
	FalsePositives int     `json:"falsePositives"`
	FalseNegatives int     `json:"falseNegatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// EvaluationReport is the full evaluation result for one document: the
// per-type metrics table, micro/macro aggregates, and every match and
// unmatched instance for downstream inspection.
type EvaluationReport struct {
	DocumentID     string               `json:"documentId"`
	Summary        string               `json:"summary,omitempty"`
	IoUThreshold   float64              `json:"iouThreshold"`
	PerType        []TypeMetrics        `json:"perType"`
	Micro          AggregateMetrics     `json:"micro"`
	Macro          AggregateMetrics     `json:"macro"`
	Matches        []MatchRecord        `json:"matches"`
	FalsePositives []PredictionInstance `json:"falsePositives"`
	FalseNegatives []AnnotationInstance `json:"falseNegatives"`
}
