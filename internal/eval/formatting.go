package eval

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Output format names accepted by FormatReport.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// FormatReport renders an evaluation report in the given format.
func FormatReport(report EvaluationReport, format string) (string, error) {
	switch format {
	case FormatJSON:
		bts, err := json.MarshalIndent(report, "", "  ")
		return string(bts), err
	case FormatCSV:
		return formatReportCSV(report)
	case FormatText, "":
		return formatReportText(report), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatReportText renders a console summary table.
func formatReportText(report EvaluationReport) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	if report.DocumentID != "" {
		p.Fprintf(&b, "Document: %s\n", report.DocumentID)
	}
	p.Fprintf(&b, "IoU threshold: %.2f\n\n", report.IoUThreshold)
	p.Fprintf(&b, "%-12s %6s %6s %6s %10s %8s %8s\n", "type", "tp", "fp", "fn", "precision", "recall", "f1")
	for _, tm := range report.PerType {
		p.Fprintf(&b, "%-12s %6d %6d %6d %10.3f %8.3f %8.3f\n",
			string(tm.Type), tm.TruePositives, tm.FalsePositives, tm.FalseNegatives,
			tm.Precision, tm.Recall, tm.F1)
	}
	p.Fprintf(&b, "\n%-12s %6d %6d %6d %10.3f %8.3f %8.3f\n", "micro",
		report.Micro.TruePositives, report.Micro.FalsePositives, report.Micro.FalseNegatives,
		report.Micro.Precision, report.Micro.Recall, report.Micro.F1)
	p.Fprintf(&b, "%-12s %6s %6s %6s %10.3f %8.3f %8.3f\n", "macro", "", "", "",
		report.Macro.Precision, report.Macro.Recall, report.Macro.F1)
	p.Fprintf(&b, "\nmatches: %d  false positives: %d  false negatives: %d\n",
		len(report.Matches), len(report.FalsePositives), len(report.FalseNegatives))
	if report.Summary != "" {
		p.Fprintf(&b, "summary: %s\n", report.Summary)
	}
	return b.String()
}

// formatReportCSV renders one row per field type plus micro/macro rows.
func formatReportCSV(report EvaluationReport) (string, error) {
	rows := [][]string{
		{"type", "tp", "fp", "fn", "precision", "recall", "f1"},
	}
	for _, tm := range report.PerType {
		rows = append(rows, []string{
			string(tm.Type),
			strconv.Itoa(tm.TruePositives),
			strconv.Itoa(tm.FalsePositives),
			strconv.Itoa(tm.FalseNegatives),
			fmt.Sprintf("%.3f", tm.Precision),
			fmt.Sprintf("%.3f", tm.Recall),
			fmt.Sprintf("%.3f", tm.F1),
		})
	}
	rows = append(rows, []string{
		"micro",
		strconv.Itoa(report.Micro.TruePositives),
		strconv.Itoa(report.Micro.FalsePositives),
		strconv.Itoa(report.Micro.FalseNegatives),
		fmt.Sprintf("%.3f", report.Micro.Precision),
		fmt.Sprintf("%.3f", report.Micro.Recall),
		fmt.Sprintf("%.3f", report.Micro.F1),
	})
	rows = append(rows, []string{
		"macro", "", "", "",
		fmt.Sprintf("%.3f", report.Macro.Precision),
		fmt.Sprintf("%.3f", report.Macro.Recall),
		fmt.Sprintf("%.3f", report.Macro.F1),
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
