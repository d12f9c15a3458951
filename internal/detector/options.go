package detector

import (
	"errors"
	"fmt"
)

// referenceScale is the render scale the default pixel constants were tuned
// at. OptionsForScale rescales them for other rasterization resolutions.
const referenceScale = 3.0

// Options holds the tunable thresholds for a detection run. All distances are
// in pixels of the input buffer except ConfidenceThreshold.
type Options struct {
	MinTextFieldHeight  float64 `mapstructure:"min_text_field_height"  yaml:"min_text_field_height"  json:"min_text_field_height"`
	MaxFieldHeight      float64 `mapstructure:"max_field_height"       yaml:"max_field_height"       json:"max_field_height"`
	MinCheckboxSize     float64 `mapstructure:"min_checkbox_size"      yaml:"min_checkbox_size"      json:"min_checkbox_size"`
	MaxCheckboxSize     float64 `mapstructure:"max_checkbox_size"      yaml:"max_checkbox_size"      json:"max_checkbox_size"`
	MinRadioSize        float64 `mapstructure:"min_radio_size"         yaml:"min_radio_size"         json:"min_radio_size"`
	MaxRadioSize        float64 `mapstructure:"max_radio_size"         yaml:"max_radio_size"         json:"max_radio_size"`
	MergeThreshold      float64 `mapstructure:"merge_threshold"        yaml:"merge_threshold"        json:"merge_threshold"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"   yaml:"confidence_threshold"   json:"confidence_threshold"`
}

// DefaultOptions returns the thresholds tuned for pages rendered at 3x scale.
func DefaultOptions() Options {
	return Options{
		MinTextFieldHeight:  20,
		MaxFieldHeight:      120,
		MinCheckboxSize:     8,
		MaxCheckboxSize:     20,
		MinRadioSize:        8,
		MaxRadioSize:        16,
		MergeThreshold:      10,
		ConfidenceThreshold: 0.3,
	}
}

// OptionsForScale returns defaults with every pixel distance rescaled from
// the reference render scale to the given one, so detection quality holds
// across rasterization resolutions.
func OptionsForScale(scale float64) Options {
	opts := DefaultOptions()
	if scale <= 0 {
		return opts
	}
	f := scale / referenceScale
	opts.MinTextFieldHeight *= f
	opts.MaxFieldHeight *= f
	opts.MinCheckboxSize *= f
	opts.MaxCheckboxSize *= f
	opts.MinRadioSize *= f
	opts.MaxRadioSize *= f
	opts.MergeThreshold *= f
	return opts
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MinTextFieldHeight <= 0 || o.MaxFieldHeight <= 0 {
		return errors.New("text field height bounds must be positive")
	}
	if o.MinCheckboxSize <= 0 || o.MaxCheckboxSize < o.MinCheckboxSize {
		return fmt.Errorf("invalid checkbox size range [%g, %g]", o.MinCheckboxSize, o.MaxCheckboxSize)
	}
	if o.MinRadioSize <= 0 || o.MaxRadioSize < o.MinRadioSize {
		return fmt.Errorf("invalid radio size range [%g, %g]", o.MinRadioSize, o.MaxRadioSize)
	}
	if o.MergeThreshold < 0 {
		return errors.New("merge threshold must be non-negative")
	}
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold %g outside [0,1]", o.ConfidenceThreshold)
	}
	return nil
}

// maxFieldHeightFor re-derives the effective max field height for a page;
// capped at half the page so a degenerate threshold cannot swallow the page.
func (o Options) maxFieldHeightFor(pageHeight int) float64 {
	limit := 0.5 * float64(pageHeight)
	if o.MaxFieldHeight < limit {
		return o.MaxFieldHeight
	}
	return limit
}
