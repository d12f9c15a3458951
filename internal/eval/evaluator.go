package eval

import (
	"github.com/MeKo-Tech/fieldscan/internal/detector"
)

// DefaultIoUThreshold is the matching threshold used when none is supplied.
const DefaultIoUThreshold = 0.5

// Evaluate scores a detection output against ground truth. truth may be nil,
// in which case every prediction becomes a false positive. Types absent from
// both documents are never scored. Degenerate input yields zero-valued
// metrics, never an error.
func Evaluate(truth *DocumentAnnotation, prediction DetectionOutput, iouThreshold float64) EvaluationReport {
	if iouThreshold <= 0 {
		iouThreshold = DefaultIoUThreshold
	}

	truths := flattenTruths(truth)
	predictions := flattenPredictions(prediction)

	report := EvaluationReport{
		DocumentID:     prediction.DocumentID,
		Summary:        prediction.Summary,
		IoUThreshold:   iouThreshold,
		PerType:        []TypeMetrics{},
		Matches:        []MatchRecord{},
		FalsePositives: []PredictionInstance{},
		FalseNegatives: []AnnotationInstance{},
	}
	if report.DocumentID == "" && truth != nil {
		report.DocumentID = truth.DocumentID
	}

	for _, ft := range activeTypes(truths, predictions) {
		res := Match(ft, truths, predictions, iouThreshold)
		tm := typeMetrics(ft, len(res.Matches), len(res.FalsePositives), len(res.FalseNegatives))
		report.PerType = append(report.PerType, tm)
		report.Matches = append(report.Matches, res.Matches...)
		report.FalsePositives = append(report.FalsePositives, res.FalsePositives...)
		report.FalseNegatives = append(report.FalseNegatives, res.FalseNegatives...)
	}

	report.Micro = microMetrics(report.PerType)
	report.Macro = macroMetrics(report.PerType)
	return report
}

func flattenTruths(doc *DocumentAnnotation) []AnnotationInstance {
	if doc == nil {
		return nil
	}
	var out []AnnotationInstance
	for _, page := range doc.Pages {
		for _, f := range page.Fields {
			out = append(out, AnnotationInstance{PageIndex: page.PageIndex, Field: f})
		}
	}
	return out
}

func flattenPredictions(doc DetectionOutput) []PredictionInstance {
	var out []PredictionInstance
	for _, page := range doc.Pages {
		for _, f := range page.Fields {
			out = append(out, PredictionInstance{PageIndex: page.PageIndex, Field: f})
		}
	}
	return out
}

// activeTypes returns the union of field types present in either list, in
// canonical type order so reports are deterministic.
func activeTypes(truths []AnnotationInstance, predictions []PredictionInstance) []detector.FieldType {
	present := make(map[detector.FieldType]bool)
	for _, t := range truths {
		present[t.Field.Type] = true
	}
	for _, p := range predictions {
		present[p.Field.Type] = true
	}
	var out []detector.FieldType
	for _, ft := range detector.AllFieldTypes {
		if present[ft] {
			out = append(out, ft)
		}
	}
	return out
}

func typeMetrics(ft detector.FieldType, tp, fp, fn int) TypeMetrics {
	p := safeDiv(float64(tp), float64(tp+fp))
	r := safeDiv(float64(tp), float64(tp+fn))
	return TypeMetrics{
		Type:           ft,
		TruePositives:  tp,
		FalsePositives: fp,
		FalseNegatives: fn,
		Precision:      p,
		Recall:         r,
		F1:             f1Score(p, r),
	}
}

// microMetrics sums raw counts across types before computing rates.
func microMetrics(perType []TypeMetrics) AggregateMetrics {
	var agg AggregateMetrics
	for _, tm := range perType {
		agg.TruePositives += tm.TruePositives
		agg.FalsePositives += tm.FalsePositives
		agg.FalseNegatives += tm.FalseNegatives
	}
	agg.Precision = safeDiv(float64(agg.TruePositives), float64(agg.TruePositives+agg.FalsePositives))
	agg.Recall = safeDiv(float64(agg.TruePositives), float64(agg.TruePositives+agg.FalseNegatives))
	agg.F1 = f1Score(agg.Precision, agg.Recall)
	return agg
}

// macroMetrics averages each type's rates, unweighted over active types.
func macroMetrics(perType []TypeMetrics) AggregateMetrics {
	var agg AggregateMetrics
	for _, tm := range perType {
		agg.TruePositives += tm.TruePositives
		agg.FalsePositives += tm.FalsePositives
		agg.FalseNegatives += tm.FalseNegatives
		agg.Precision += tm.Precision
		agg.Recall += tm.Recall
		agg.F1 += tm.F1
	}
	if n := float64(len(perType)); n > 0 {
		agg.Precision /= n
		agg.Recall /= n
		agg.F1 /= n
	}
	return agg
}

// safeDiv guards the division-by-zero cases in metric computation.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func f1Score(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
