// Package detector infers form-field locations and types from a rendered
// page's pixel buffer using rule-based raster heuristics. No learned model is
// involved: each field kind has its own scanning pass over pixel intensities,
// and a shared post-processing chain cleans up the union of all passes.
package detector

import (
	"log/slog"
	"sync"
)

// passFunc is one per-type scanning pass. Passes are pure functions over an
// immutable raster view and are independent of one another.
type passFunc func(*Raster, Options) []DetectedElement

// passes lists the per-type scanning passes in canonical fold order. The
// result set is order-insensitive, but folding in a fixed order keeps the
// output deterministic regardless of scheduling.
var passes = []passFunc{
	detectUnderlineFields,
	detectBoxedFields,
	detectCheckboxes,
	detectRadioButtons,
	detectSignatureAreas,
	detectStandaloneLines,
}

// Detector runs the raster field-detection heuristics with a fixed set of
// options. It is stateless between calls and safe for concurrent use.
type Detector struct {
	opts Options
}

// New creates a detector after validating the options.
func New(opts Options) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Detector{opts: opts}, nil
}

// Options returns the detector's configured options.
func (d *Detector) Options() Options { return d.opts }

// Detect runs every per-type pass over the pixel buffer and applies the
// post-processing chain. pixels is a dense RGBA buffer of at least
// width*height*4 bytes; knownTextBoxes may be nil. The result is in pixel
// coordinates of the buffer, canonically ordered. Degenerate input yields an
// empty result, never an error.
func (d *Detector) Detect(pixels []byte, width, height int, knownTextBoxes []TextBox) []DetectedElement {
	r := NewRaster(pixels, width, height)
	if r.Width() == 0 || r.Height() == 0 {
		return []DetectedElement{}
	}

	candidates := runPasses(r, d.opts)
	slog.Debug("raster passes complete",
		"width", width, "height", height, "candidates", len(candidates))

	elems := applySizeFilter(candidates, height)
	elems = applyTextOverlapFilter(elems, knownTextBoxes)
	elems = mergeAdjacent(elems, d.opts.MergeThreshold)
	elems = applyConfidenceFilter(elems, d.opts.ConfidenceThreshold)
	sortElements(elems)

	slog.Debug("detection complete", "elements", len(elems))
	return elems
}

// runPasses executes the passes concurrently and folds their results in the
// fixed pass order. Each pass only reads the shared raster.
func runPasses(r *Raster, opts Options) []DetectedElement {
	results := make([][]DetectedElement, len(passes))
	var wg sync.WaitGroup
	for i, pass := range passes {
		i, pass := i, pass
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = pass(r, opts)
		}()
	}
	wg.Wait()

	var out []DetectedElement
	for _, res := range results {
		out = append(out, res...)
	}
	return out
}
