package eval

import (
	"sort"

	"github.com/MeKo-Tech/fieldscan/internal/detector"
)

// MatchResult is the outcome of matching one field type's instances.
type MatchResult struct {
	Matches        []MatchRecord
	FalsePositives []PredictionInstance
	FalseNegatives []AnnotationInstance
}

// candidate is a truth/prediction pair above the IoU threshold.
type candidate struct {
	truthIdx int
	predIdx  int
	iou      float64
}

// Match pairs ground-truth instances against predictions of one field type
// using greedy highest-IoU-first assignment. Pairs must share a page index
// and reach the IoU threshold to be candidates; the sort is stable so ties
// break by encounter order, keeping results deterministic. Greedy assignment
// is not a maximum-weight bipartite matching; in rare dense configurations
// it accepts fewer pairs than an optimal assignment would.
func Match(fieldType detector.FieldType, truths []AnnotationInstance, predictions []PredictionInstance,
	iouThreshold float64,
) MatchResult {
	var candidates []candidate
	for ti, truth := range truths {
		if truth.Field.Type != fieldType {
			continue
		}
		for pi, pred := range predictions {
			if pred.Field.Type != fieldType || pred.PageIndex != truth.PageIndex {
				continue
			}
			iou := truth.Field.Rect.IoU(pred.Field.Rect)
			if iou >= iouThreshold {
				candidates = append(candidates, candidate{truthIdx: ti, predIdx: pi, iou: iou})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].iou > candidates[j].iou
	})

	truthClaimed := make([]bool, len(truths))
	predClaimed := make([]bool, len(predictions))
	result := MatchResult{
		Matches:        []MatchRecord{},
		FalsePositives: []PredictionInstance{},
		FalseNegatives: []AnnotationInstance{},
	}

	for _, c := range candidates {
		if truthClaimed[c.truthIdx] || predClaimed[c.predIdx] {
			continue
		}
		truthClaimed[c.truthIdx] = true
		predClaimed[c.predIdx] = true
		result.Matches = append(result.Matches, MatchRecord{
			Type:       fieldType,
			PageIndex:  truths[c.truthIdx].PageIndex,
			Truth:      truths[c.truthIdx].Field,
			Prediction: predictions[c.predIdx].Field,
			IoU:        c.iou,
		})
	}

	for i, truth := range truths {
		if truth.Field.Type == fieldType && !truthClaimed[i] {
			result.FalseNegatives = append(result.FalseNegatives, truth)
		}
	}
	for i, pred := range predictions {
		if pred.Field.Type == fieldType && !predClaimed[i] {
			result.FalsePositives = append(result.FalsePositives, pred)
		}
	}
	return result
}
