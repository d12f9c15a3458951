package pdf

import (
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/MeKo-Tech/fieldscan/internal/geometry"
)

// normalizeWidgetRect converts a widget rectangle from PDF user space,
// origin bottom-left with y growing upward, to page-relative top-left
// coordinates in [0,1]. Degenerate media boxes yield a zero rect.
func normalizeWidgetRect(coords [4]float64, mediaBox *types.Rectangle) geometry.Rect {
	pageW := mediaBox.Width()
	pageH := mediaBox.Height()
	if pageW <= 0 || pageH <= 0 {
		return geometry.Rect{}
	}

	llx := math.Min(coords[0], coords[2])
	urx := math.Max(coords[0], coords[2])
	lly := math.Min(coords[1], coords[3])
	ury := math.Max(coords[1], coords[3])

	return geometry.Rect{
		X:      (llx - mediaBox.LL.X) / pageW,
		Y:      (mediaBox.UR.Y - ury) / pageH,
		Width:  (urx - llx) / pageW,
		Height: (ury - lly) / pageH,
	}
}
