// Package dataset loads paired prediction and ground-truth documents from
// the file system for batch evaluation. Ground truth lives in *.truth.json
// files, predictions in *.pred.json files sharing the same stem.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MeKo-Tech/fieldscan/internal/eval"
)

const (
	truthSuffix      = ".truth.json"
	predictionSuffix = ".pred.json"
)

// Pair is one dataset entry. TruthPath is empty when no ground-truth file
// exists for the prediction; the evaluator then scores against nil truth.
type Pair struct {
	Name           string
	TruthPath      string
	PredictionPath string
}

// LoadAnnotation reads a ground-truth document from a JSON file.
func LoadAnnotation(path string) (*eval.DocumentAnnotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read annotation %s: %w", path, err)
	}
	var doc eval.DocumentAnnotation
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cannot parse annotation %s: %w", path, err)
	}
	return &doc, nil
}

// LoadPrediction reads a detection output document from a JSON file.
func LoadPrediction(path string) (eval.DetectionOutput, error) {
	var doc eval.DetectionOutput
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("cannot read prediction %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("cannot parse prediction %s: %w", path, err)
	}
	return doc, nil
}

// SaveAnnotation writes a ground-truth document as indented JSON.
func SaveAnnotation(path string, doc *eval.DocumentAnnotation) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode annotation: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write annotation %s: %w", path, err)
	}
	return nil
}

// SavePrediction writes a detection output document as indented JSON.
func SavePrediction(path string, doc eval.DetectionOutput) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode prediction: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write prediction %s: %w", path, err)
	}
	return nil
}

// DiscoverPairs walks a dataset directory and pairs prediction files with
// their ground-truth siblings by stem. Pairs are sorted by name for
// deterministic processing order.
func DiscoverPairs(dir string, recursive bool) ([]Pair, error) {
	return DiscoverPairsFiltered(dir, recursive, nil, nil)
}

// DiscoverPairsFiltered is DiscoverPairs with glob filtering on the pair
// name. Exclude patterns win over include patterns; empty include means
// include everything not excluded.
func DiscoverPairsFiltered(dir string, recursive bool, includePatterns, excludePatterns []string) ([]Pair, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var pairs []Pair
	walkFn := func(path string, entry os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, predictionSuffix) {
			return nil
		}
		stem := strings.TrimSuffix(path, predictionSuffix)
		name := filepath.Base(stem)
		if !shouldIncludePair(name, includePatterns, excludePatterns) {
			return nil
		}
		pair := Pair{
			Name:           name,
			PredictionPath: path,
		}
		truthPath := stem + truthSuffix
		if _, statErr := os.Stat(truthPath); statErr == nil {
			pair.TruthPath = truthPath
		}
		pairs = append(pairs, pair)
		return nil
	}
	if err := filepath.Walk(dir, walkFn); err != nil {
		return nil, err
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs, nil
}

// shouldIncludePair applies exclude patterns first, then include patterns.
func shouldIncludePair(name string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(name, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(name, includePatterns)
}

func matchesAnyPattern(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// LoadPair reads both sides of a pair. The returned annotation is nil when
// the pair has no ground truth.
func LoadPair(pair Pair) (*eval.DocumentAnnotation, eval.DetectionOutput, error) {
	pred, err := LoadPrediction(pair.PredictionPath)
	if err != nil {
		return nil, eval.DetectionOutput{}, err
	}
	if pair.TruthPath == "" {
		return nil, pred, nil
	}
	truth, err := LoadAnnotation(pair.TruthPath)
	if err != nil {
		return nil, eval.DetectionOutput{}, err
	}
	return truth, pred, nil
}
