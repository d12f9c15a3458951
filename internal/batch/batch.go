// Package batch evaluates whole dataset directories in parallel. Each
// prediction/truth pair is scored independently, then per-type counts are
// rolled up into corpus-level metrics.
package batch

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/MeKo-Tech/fieldscan/internal/dataset"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
)

// Config holds all configuration for a batch evaluation run.
type Config struct {
	// Matching settings
	IoUThreshold float64

	// Parallel processing settings
	Workers         int
	DocumentTimeout time.Duration
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Output settings
	Format     string
	OutputFile string
	Quiet      bool
	ShowStats  bool
}

// DefaultConfig returns a batch configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		IoUThreshold:    eval.DefaultIoUThreshold,
		Workers:         runtime.NumCPU(),
		ContinueOnError: true,
		Format:          "text",
	}
}

func (c *Config) normalize() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.IoUThreshold <= 0 {
		c.IoUThreshold = eval.DefaultIoUThreshold
	}
}

// DocumentResult is the outcome for one dataset pair. Err is set when the
// pair could not be loaded or evaluated.
type DocumentResult struct {
	Pair     dataset.Pair
	Report   eval.EvaluationReport
	Err      error
	Duration time.Duration
}

// Result holds the outcome of a batch run.
type Result struct {
	Documents   []DocumentResult
	Corpus      CorpusMetrics
	Duration    time.Duration
	WorkerCount int
}

// Failed returns the number of documents that could not be evaluated.
func (r *Result) Failed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// FormatResults renders the batch result in the given format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r, format)
}

// SaveResults writes the formatted result to a file or stdout.
func (r *Result) SaveResults(format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stdout, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = fmt.Fprint(os.Stdout, output)
	}

	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(quiet bool) {
	if quiet {
		return
	}
	total := len(r.Documents)
	failed := r.Failed()
	_, _ = fmt.Fprintf(os.Stdout, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(os.Stdout, "  Total documents: %d\n", total)
	_, _ = fmt.Fprintf(os.Stdout, "  Evaluated: %d\n", total-failed)
	_, _ = fmt.Fprintf(os.Stdout, "  Failed: %d\n", failed)
	_, _ = fmt.Fprintf(os.Stdout, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(os.Stdout, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	if total > 0 {
		avg := r.Duration / time.Duration(total)
		_, _ = fmt.Fprintf(os.Stdout, "  Avg per document: %v\n", avg.Round(time.Microsecond))
	}

	if worst := r.WorstDocuments(worstListLimit); len(worst) > 0 {
		_, _ = fmt.Fprintf(os.Stdout, "  Worst documents:\n")
		for _, d := range worst {
			_, _ = fmt.Fprintf(os.Stdout, "    %-20s f1=%.3f\n", d.Pair.Name, d.Report.Micro.F1)
		}
	}
}

// worstListLimit caps the worst-document listing in PrintStats.
const worstListLimit = 3

// WorstDocuments returns up to limit evaluated documents with the lowest
// micro F1, ties broken by name.
func (r *Result) WorstDocuments(limit int) []DocumentResult {
	var evaluated []DocumentResult
	for _, d := range r.Documents {
		if d.Err == nil {
			evaluated = append(evaluated, d)
		}
	}
	sort.SliceStable(evaluated, func(i, j int) bool {
		if evaluated[i].Report.Micro.F1 != evaluated[j].Report.Micro.F1 {
			return evaluated[i].Report.Micro.F1 < evaluated[j].Report.Micro.F1
		}
		return evaluated[i].Pair.Name < evaluated[j].Pair.Name
	})
	if len(evaluated) > limit {
		evaluated = evaluated[:limit]
	}
	return evaluated
}
