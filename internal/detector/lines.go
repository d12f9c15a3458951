package detector

import (
	"math"

	"github.com/MeKo-Tech/fieldscan/internal/geometry"
)

// Vertical window scanned for parallel lines. Rows closer than
// parallelSkip belong to the stroke itself and are ignored.
const (
	parallelWindow = 12
	parallelSkip   = 3
)

// detectStandaloneLines finds long thin horizontal runs with no parallel line
// nearby, marking alignment guides rather than text-field underlines.
func detectStandaloneLines(r *Raster, _ Options) []DetectedElement {
	var out []DetectedElement

	for y := 1; y < r.Height(); y += rowScanStep {
		for _, run := range scanRowRuns(r, y) {
			if runThickness(r, run) > maxLineThick {
				continue
			}
			if !isRunTopEdge(r, run) {
				continue
			}
			if hasParallelRun(r, run) {
				continue
			}
			out = append(out, DetectedElement{
				Type: FieldLine,
				Rect: geometry.Rect{
					X:      float64(run.x0),
					Y:      float64(run.y),
					Width:  float64(run.width()),
					Height: float64(maxLineThick),
				},
				Confidence: math.Min(run.density, 1.0),
			})
		}
	}
	return out
}

// hasParallelRun reports whether another mostly-dark segment exists within
// the vertical window above or below the run.
func hasParallelRun(r *Raster, run horizontalRun) bool {
	for dy := parallelSkip; dy <= parallelWindow; dy++ {
		if rowDarkRatio(r, run.y-dy, run.x0, run.x1) >= 0.5 {
			return true
		}
		if rowDarkRatio(r, run.y+dy, run.x0, run.x1) >= 0.5 {
			return true
		}
	}
	return false
}
