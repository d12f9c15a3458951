package batch

import (
	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
)

// CorpusMetrics rolls per-document counts up to the whole dataset. Counts
// are summed across documents before rates are derived, so large documents
// weigh more than small ones in micro; macro averages the per-type rows.
type CorpusMetrics struct {
	Documents int                   `json:"documents"`
	Failed    int                   `json:"failed"`
	PerType   []eval.TypeMetrics    `json:"perType"`
	Micro     eval.AggregateMetrics `json:"micro"`
	Macro     eval.AggregateMetrics `json:"macro"`
}

// AggregateCorpus sums per-type counts across all successfully evaluated
// documents and recomputes precision, recall and F1 on the pooled counts.
func AggregateCorpus(docs []DocumentResult) CorpusMetrics {
	counts := make(map[detector.FieldType]*eval.TypeMetrics)
	corpus := CorpusMetrics{Documents: len(docs)}

	for _, doc := range docs {
		if doc.Err != nil {
			corpus.Failed++
			continue
		}
		for _, tm := range doc.Report.PerType {
			row, ok := counts[tm.Type]
			if !ok {
				row = &eval.TypeMetrics{Type: tm.Type}
				counts[tm.Type] = row
			}
			row.TruePositives += tm.TruePositives
			row.FalsePositives += tm.FalsePositives
			row.FalseNegatives += tm.FalseNegatives
		}
	}

	for _, ft := range detector.AllFieldTypes {
		row, ok := counts[ft]
		if !ok {
			continue
		}
		row.Precision = safeDiv(row.TruePositives, row.TruePositives+row.FalsePositives)
		row.Recall = safeDiv(row.TruePositives, row.TruePositives+row.FalseNegatives)
		row.F1 = f1Score(row.Precision, row.Recall)
		corpus.PerType = append(corpus.PerType, *row)

		corpus.Micro.TruePositives += row.TruePositives
		corpus.Micro.FalsePositives += row.FalsePositives
		corpus.Micro.FalseNegatives += row.FalseNegatives
	}

	corpus.Micro.Precision = safeDiv(corpus.Micro.TruePositives, corpus.Micro.TruePositives+corpus.Micro.FalsePositives)
	corpus.Micro.Recall = safeDiv(corpus.Micro.TruePositives, corpus.Micro.TruePositives+corpus.Micro.FalseNegatives)
	corpus.Micro.F1 = f1Score(corpus.Micro.Precision, corpus.Micro.Recall)

	if n := len(corpus.PerType); n > 0 {
		var p, r, f float64
		for _, row := range corpus.PerType {
			p += row.Precision
			r += row.Recall
			f += row.F1
		}
		corpus.Macro.TruePositives = corpus.Micro.TruePositives
		corpus.Macro.FalsePositives = corpus.Micro.FalsePositives
		corpus.Macro.FalseNegatives = corpus.Micro.FalseNegatives
		corpus.Macro.Precision = p / float64(n)
		corpus.Macro.Recall = r / float64(n)
		corpus.Macro.F1 = f / float64(n)
	}

	return corpus
}

func safeDiv(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func f1Score(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
