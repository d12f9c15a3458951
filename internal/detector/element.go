package detector

import (
	"encoding/json"

	"github.com/MeKo-Tech/fieldscan/internal/geometry"
)

// FieldType identifies the kind of form element a detection represents.
// The set is closed; switch statements over it should handle every constant.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldCheckbox  FieldType = "checkbox"
	FieldRadio     FieldType = "radio"
	FieldSignature FieldType = "signature"
	FieldBox       FieldType = "box"
	FieldLine      FieldType = "line"
	FieldBracket   FieldType = "bracket"
	FieldCircle    FieldType = "circle"
)

// AllFieldTypes lists every field type in canonical order. The order is also
// the sort order for detector output.
var AllFieldTypes = []FieldType{
	FieldText,
	FieldCheckbox,
	FieldRadio,
	FieldSignature,
	FieldBox,
	FieldLine,
	FieldBracket,
	FieldCircle,
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	for _, k := range AllFieldTypes {
		if t == k {
			return true
		}
	}
	return false
}

// rank returns the canonical ordering index, len(AllFieldTypes) for unknown types.
func (t FieldType) rank() int {
	for i, k := range AllFieldTypes {
		if t == k {
			return i
		}
	}
	return len(AllFieldTypes)
}

// DetectedElement is one detected form element in pixel coordinates of the
// source buffer. Elements are immutable once emitted; merging produces a new
// element rather than mutating the inputs.
type DetectedElement struct {
	Type       FieldType     `json:"type"`
	Rect       geometry.Rect `json:"rect"`
	Confidence float64       `json:"confidence"`
}

// TextBox is a known text bounding box supplied by a layout-extraction step,
// in the same pixel space as the buffer. Used only to suppress false
// positives inside glyphs.
type TextBox struct {
	Text string        `json:"text"`
	Rect geometry.Rect `json:"rect"`
}

// DetectionJSON is a serializable representation of a page's detections.
type DetectionJSON struct {
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Elements []DetectedElement `json:"elements"`
}

// ElementsToJSON converts elements to indented JSON with the source buffer
// dimensions, for report files and the CLI.
func ElementsToJSON(elems []DetectedElement, width, height int) ([]byte, error) {
	out := DetectionJSON{Width: width, Height: height, Elements: elems}
	if out.Elements == nil {
		out.Elements = []DetectedElement{}
	}
	return json.MarshalIndent(out, "", "  ")
}

// ElementsFromJSON parses a detection JSON document.
func ElementsFromJSON(data []byte) (DetectionJSON, error) {
	var res DetectionJSON
	err := json.Unmarshal(data, &res)
	return res, err
}
