package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MeKo-Tech/fieldscan/internal/dataset"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
)

// Progress reports per-document completion during a batch run.
type Progress struct {
	Completed int
	Total     int
	Name      string
	Err       error
}

// ProgressFunc receives progress updates. Callbacks run on worker
// goroutines and must be safe for concurrent use.
type ProgressFunc func(Progress)

// Run discovers all pairs under dir and evaluates them with a worker pool.
// Document order in the result matches discovery order regardless of which
// worker finished first. With ContinueOnError set, per-document failures
// are recorded and the run proceeds; otherwise the first failure cancels
// the remaining work.
func Run(ctx context.Context, dir string, cfg Config, onProgress ProgressFunc) (*Result, error) {
	cfg.normalize()
	start := time.Now()

	pairs, err := dataset.DiscoverPairsFiltered(dir, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("dataset discovery failed: %w", err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no prediction files found in %s", dir)
	}

	slog.Info("starting batch evaluation",
		"documents", len(pairs), "workers", cfg.Workers, "iouThreshold", cfg.IoUThreshold)

	results, err := runPool(ctx, pairs, cfg, onProgress)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Documents:   results,
		Corpus:      AggregateCorpus(results),
		Duration:    time.Since(start),
		WorkerCount: cfg.Workers,
	}
	slog.Info("batch evaluation complete",
		"documents", len(res.Documents), "failed", res.Failed(), "duration", res.Duration)
	return res, nil
}

func runPool(ctx context.Context, pairs []dataset.Pair, cfg Config, onProgress ProgressFunc) ([]DocumentResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	results := make([]DocumentResult, len(pairs))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		firstErr  error
	)

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				dr := evaluateDocument(runCtx, pairs[idx], cfg)
				results[idx] = dr

				mu.Lock()
				completed++
				done := completed
				if dr.Err != nil && firstErr == nil && !cfg.ContinueOnError {
					firstErr = dr.Err
					cancel()
				}
				mu.Unlock()

				if onProgress != nil {
					onProgress(Progress{
						Completed: done,
						Total:     len(pairs),
						Name:      dr.Pair.Name,
						Err:       dr.Err,
					})
				}
			}
		}()
	}

feed:
	for i := range pairs {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("batch evaluation aborted: %w", firstErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func evaluateDocument(ctx context.Context, pair dataset.Pair, cfg Config) DocumentResult {
	start := time.Now()
	dr := DocumentResult{Pair: pair}

	docCtx := ctx
	if cfg.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		docCtx, cancel = context.WithTimeout(ctx, cfg.DocumentTimeout)
		defer cancel()
	}

	truth, pred, err := dataset.LoadPair(pair)
	if err != nil {
		dr.Err = err
		dr.Duration = time.Since(start)
		return dr
	}
	if err := docCtx.Err(); err != nil {
		dr.Err = fmt.Errorf("document %s: %w", pair.Name, err)
		dr.Duration = time.Since(start)
		return dr
	}

	dr.Report = eval.Evaluate(truth, pred, cfg.IoUThreshold)
	dr.Duration = time.Since(start)
	return dr
}
