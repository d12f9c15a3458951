package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MeKo-Tech/fieldscan/internal/eval"
)

// formatBatchResults renders a batch result in the given format.
func formatBatchResults(r *Result, format string) (string, error) {
	switch format {
	case eval.FormatJSON:
		bts, err := json.MarshalIndent(batchJSON(r), "", "  ")
		return string(bts), err
	case eval.FormatCSV:
		return formatBatchCSV(r)
	case eval.FormatText, "":
		return formatBatchText(r), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// batchDocumentJSON is the JSON shape for one document in batch output.
// Errors are flattened to strings so the output stays consumable.
type batchDocumentJSON struct {
	Name   string                 `json:"name"`
	Error  string                 `json:"error,omitempty"`
	Report *eval.EvaluationReport `json:"report,omitempty"`
}

type batchResultJSON struct {
	Documents []batchDocumentJSON `json:"documents"`
	Corpus    CorpusMetrics       `json:"corpus"`
}

func batchJSON(r *Result) batchResultJSON {
	out := batchResultJSON{Corpus: r.Corpus}
	for i := range r.Documents {
		doc := batchDocumentJSON{Name: r.Documents[i].Pair.Name}
		if r.Documents[i].Err != nil {
			doc.Error = r.Documents[i].Err.Error()
		} else {
			doc.Report = &r.Documents[i].Report
		}
		out.Documents = append(out.Documents, doc)
	}
	return out
}

func formatBatchText(r *Result) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	p.Fprintf(&b, "Documents: %d (failed: %d)\n\n", r.Corpus.Documents, r.Corpus.Failed)
	p.Fprintf(&b, "%-20s %8s %8s %8s\n", "document", "prec", "recall", "f1")
	for _, doc := range r.Documents {
		if doc.Err != nil {
			p.Fprintf(&b, "%-20s ERROR: %v\n", doc.Pair.Name, doc.Err)
			continue
		}
		p.Fprintf(&b, "%-20s %8.3f %8.3f %8.3f\n", doc.Pair.Name,
			doc.Report.Micro.Precision, doc.Report.Micro.Recall, doc.Report.Micro.F1)
	}

	p.Fprintf(&b, "\nCorpus:\n")
	p.Fprintf(&b, "%-12s %6s %6s %6s %10s %8s %8s\n", "type", "tp", "fp", "fn", "precision", "recall", "f1")
	for _, tm := range r.Corpus.PerType {
		p.Fprintf(&b, "%-12s %6d %6d %6d %10.3f %8.3f %8.3f\n",
			string(tm.Type), tm.TruePositives, tm.FalsePositives, tm.FalseNegatives,
			tm.Precision, tm.Recall, tm.F1)
	}
	p.Fprintf(&b, "\n%-12s %6d %6d %6d %10.3f %8.3f %8.3f\n", "micro",
		r.Corpus.Micro.TruePositives, r.Corpus.Micro.FalsePositives, r.Corpus.Micro.FalseNegatives,
		r.Corpus.Micro.Precision, r.Corpus.Micro.Recall, r.Corpus.Micro.F1)
	p.Fprintf(&b, "%-12s %6s %6s %6s %10.3f %8.3f %8.3f\n", "macro", "", "", "",
		r.Corpus.Macro.Precision, r.Corpus.Macro.Recall, r.Corpus.Macro.F1)
	return b.String()
}

// formatBatchCSV emits one row per document with pooled corpus rows at the
// end, matching the single-document CSV column layout.
func formatBatchCSV(r *Result) (string, error) {
	rows := [][]string{
		{"document", "tp", "fp", "fn", "precision", "recall", "f1"},
	}
	for _, doc := range r.Documents {
		if doc.Err != nil {
			rows = append(rows, []string{doc.Pair.Name, "", "", "", "", "", ""})
			continue
		}
		m := doc.Report.Micro
		rows = append(rows, []string{
			doc.Pair.Name,
			strconv.Itoa(m.TruePositives),
			strconv.Itoa(m.FalsePositives),
			strconv.Itoa(m.FalseNegatives),
			fmt.Sprintf("%.3f", m.Precision),
			fmt.Sprintf("%.3f", m.Recall),
			fmt.Sprintf("%.3f", m.F1),
		})
	}
	rows = append(rows, []string{
		"corpus-micro",
		strconv.Itoa(r.Corpus.Micro.TruePositives),
		strconv.Itoa(r.Corpus.Micro.FalsePositives),
		strconv.Itoa(r.Corpus.Micro.FalseNegatives),
		fmt.Sprintf("%.3f", r.Corpus.Micro.Precision),
		fmt.Sprintf("%.3f", r.Corpus.Micro.Recall),
		fmt.Sprintf("%.3f", r.Corpus.Micro.F1),
	})
	rows = append(rows, []string{
		"corpus-macro", "", "", "",
		fmt.Sprintf("%.3f", r.Corpus.Macro.Precision),
		fmt.Sprintf("%.3f", r.Corpus.Macro.Recall),
		fmt.Sprintf("%.3f", r.Corpus.Macro.F1),
	})

	var out strings.Builder
	writer := csv.NewWriter(&out)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return out.String(), writer.Error()
}
