package detector

// Run-scanning parameters shared by the underline and standalone-line passes.
const (
	minRunWidth   = 40  // minimum dark run length in pixels
	minRunDensity = 0.7 // minimum fraction of dark pixels inside a run
	maxRunGap     = 2   // bright pixels tolerated inside a run
	maxLineThick  = 3   // maximum stroke thickness still considered a line
	rowScanStep   = 1   // row sampling stride; every row, so top edges are never skipped
)

// horizontalRun is a maximal dark pixel run within a single row.
type horizontalRun struct {
	y       int
	x0, x1  int // inclusive
	density float64
}

func (hr horizontalRun) width() int { return hr.x1 - hr.x0 + 1 }

// scanRowRuns finds dark runs in row y that are at least minRunWidth long
// with at least minRunDensity dark pixels.
func scanRowRuns(r *Raster, y int) []horizontalRun {
	var runs []horizontalRun
	start, lastDark, darkCount := -1, -1, 0

	flush := func() {
		if start < 0 {
			return
		}
		width := lastDark - start + 1
		if width >= minRunWidth {
			density := float64(darkCount) / float64(width)
			if density >= minRunDensity {
				runs = append(runs, horizontalRun{y: y, x0: start, x1: lastDark, density: density})
			}
		}
		start, lastDark, darkCount = -1, -1, 0
	}

	for x := 0; x < r.Width(); x++ {
		if r.DarkAt(x, y) {
			if start < 0 {
				start = x
			}
			lastDark = x
			darkCount++
			continue
		}
		if start >= 0 && x-lastDark > maxRunGap {
			flush()
		}
	}
	flush()
	return runs
}

// runThickness measures how many consecutive rows below the run are still
// mostly dark over the run's extent, including the run's own row.
func runThickness(r *Raster, run horizontalRun) int {
	thickness := 1
	for dy := 1; dy <= maxLineThick+1; dy++ {
		if rowDarkRatio(r, run.y+dy, run.x0, run.x1) < 0.5 {
			break
		}
		thickness++
	}
	return thickness
}

// isRunTopEdge reports whether the row directly above the run is mostly
// bright, so a multi-row stroke is only reported once at its top edge.
func isRunTopEdge(r *Raster, run horizontalRun) bool {
	return rowDarkRatio(r, run.y-1, run.x0, run.x1) < 0.5
}

// rowDarkRatio samples a row segment and returns its dark-pixel fraction.
func rowDarkRatio(r *Raster, y, x0, x1 int) float64 {
	dark, total := 0, 0
	for x := x0; x <= x1; x += 2 {
		total++
		if r.DarkAt(x, y) {
			dark++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(dark) / float64(total)
}
