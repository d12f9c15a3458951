// Package pdf derives ground-truth annotations from PDFs that carry
// interactive AcroForm fields. Widget annotations are walked per page and
// their rectangles normalized against the page MediaBox, which yields truth
// documents directly comparable with detector output.
package pdf

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
)

// Button field flag bits per the PDF spec.
const (
	flagRadio      = 1 << 15
	flagPushbutton = 1 << 16
)

// ExtractGroundTruth reads a PDF file and returns its AcroForm fields as a
// ground-truth document. The document ID is the file stem.
func ExtractGroundTruth(path string) (*eval.DocumentAnnotation, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from CLI input
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	base := filepath.Base(path)
	docID := strings.TrimSuffix(base, filepath.Ext(base))
	return ExtractGroundTruthFromReader(f, docID)
}

// ExtractGroundTruthFromReader extracts AcroForm fields from a seekable PDF
// stream. A PDF without form fields yields a document with no pages.
func ExtractGroundTruthFromReader(rs io.ReadSeeker, documentID string) (*eval.DocumentAnnotation, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	doc := &eval.DocumentAnnotation{DocumentID: documentID}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		fields, err := extractPageFields(ctx, pageNr)
		if err != nil {
			slog.Warn("skipping page with unreadable annotations",
				"document", documentID, "page", pageNr, "error", err)
			continue
		}
		if len(fields) == 0 {
			continue
		}
		doc.Pages = append(doc.Pages, eval.PageAnnotation{
			PageIndex: pageNr - 1,
			Fields:    fields,
		})
	}
	return doc, nil
}

// extractPageFields walks one page's widget annotations.
func extractPageFields(ctx *model.Context, pageNr int) ([]eval.FieldAnnotation, error) {
	pageDict, _, inh, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve page %d: %w", pageNr, err)
	}
	if pageDict == nil || inh == nil || inh.MediaBox == nil {
		return nil, fmt.Errorf("page %d has no media box", pageNr)
	}

	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return nil, nil
	}
	annots, err := ctx.DereferenceArray(annotsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference annotations: %w", err)
	}

	var fields []eval.FieldAnnotation
	for _, annotObj := range annots {
		annotDict, err := ctx.DereferenceDict(annotObj)
		if err != nil || annotDict == nil {
			continue
		}
		if subtypeName(ctx, annotDict) != "Widget" {
			continue
		}

		ft, flags := fieldTypeAndFlags(ctx, annotDict, 0)
		kind, ok := mapFieldType(ft, flags)
		if !ok {
			continue
		}

		coords, ok := widgetRect(ctx, annotDict)
		if !ok {
			continue
		}
		rect := normalizeWidgetRect(coords, inh.MediaBox)
		if rect.Empty() {
			continue
		}
		fields = append(fields, eval.FieldAnnotation{Type: kind, Rect: rect})
	}
	return fields, nil
}

func subtypeName(ctx *model.Context, dict types.Dict) string {
	obj, found := dict.Find("Subtype")
	if !found {
		return ""
	}
	name, err := ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return name.Value()
}

// fieldTypeAndFlags resolves FT and Ff, following the Parent chain for
// widgets that inherit them. Depth is bounded against cyclic references.
func fieldTypeAndFlags(ctx *model.Context, dict types.Dict, depth int) (string, int) {
	const maxParentDepth = 8
	if depth > maxParentDepth {
		return "", 0
	}

	flags := 0
	if obj, found := dict.Find("Ff"); found {
		if v, err := ctx.DereferenceInteger(obj); err == nil && v != nil {
			flags = int(*v)
		}
	}

	if obj, found := dict.Find("FT"); found {
		if name, err := ctx.DereferenceName(obj, model.V10, nil); err == nil {
			return name.Value(), flags
		}
	}

	if parentObj, found := dict.Find("Parent"); found {
		if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
			ft, parentFlags := fieldTypeAndFlags(ctx, parentDict, depth+1)
			if flags == 0 {
				flags = parentFlags
			}
			return ft, flags
		}
	}
	return "", flags
}

// mapFieldType maps a PDF field type to a detectable field kind. Pushbuttons
// and unknown types have no raster counterpart and are skipped.
func mapFieldType(ft string, flags int) (detector.FieldType, bool) {
	switch ft {
	case "Tx", "Ch":
		return detector.FieldText, true
	case "Sig":
		return detector.FieldSignature, true
	case "Btn":
		if flags&flagPushbutton != 0 {
			return "", false
		}
		if flags&flagRadio != 0 {
			return detector.FieldRadio, true
		}
		return detector.FieldCheckbox, true
	default:
		return "", false
	}
}

// widgetRect reads the annotation Rect as [llx lly urx ury].
func widgetRect(ctx *model.Context, dict types.Dict) ([4]float64, bool) {
	var coords [4]float64

	rectObj, found := dict.Find("Rect")
	if !found {
		return coords, false
	}
	arr, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(arr) != 4 {
		return coords, false
	}
	for i, obj := range arr {
		v, err := ctx.DereferenceNumber(obj)
		if err != nil {
			return coords, false
		}
		coords[i] = v
	}
	return coords, true
}
