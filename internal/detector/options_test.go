package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions_Valid(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())
}

func TestOptionsForScale_RescalesPixelDistances(t *testing.T) {
	opts := OptionsForScale(6)
	def := DefaultOptions()
	assert.InDelta(t, def.MinCheckboxSize*2, opts.MinCheckboxSize, 1e-9)
	assert.InDelta(t, def.MaxRadioSize*2, opts.MaxRadioSize, 1e-9)
	assert.InDelta(t, def.MergeThreshold*2, opts.MergeThreshold, 1e-9)
	// Confidence is scale-independent.
	assert.InDelta(t, def.ConfidenceThreshold, opts.ConfidenceThreshold, 1e-9)
}

func TestOptionsForScale_ReferenceScaleIsIdentity(t *testing.T) {
	assert.Equal(t, DefaultOptions(), OptionsForScale(referenceScale))
}

func TestOptionsForScale_NonPositiveScaleFallsBack(t *testing.T) {
	assert.Equal(t, DefaultOptions(), OptionsForScale(0))
	assert.Equal(t, DefaultOptions(), OptionsForScale(-2))
}

func TestOptions_ValidateRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero text height", func(o *Options) { o.MinTextFieldHeight = 0 }},
		{"inverted checkbox range", func(o *Options) { o.MinCheckboxSize = 30 }},
		{"inverted radio range", func(o *Options) { o.MaxRadioSize = 1 }},
		{"negative merge threshold", func(o *Options) { o.MergeThreshold = -1 }},
		{"confidence above one", func(o *Options) { o.ConfidenceThreshold = 1.01 }},
		{"negative confidence", func(o *Options) { o.ConfidenceThreshold = -0.1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.mutate(&opts)
			assert.Error(t, opts.Validate())
		})
	}
}

func TestMaxFieldHeightFor_CappedAtHalfPage(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxFieldHeight = 500
	assert.InDelta(t, 100.0, opts.maxFieldHeightFor(200), 1e-9)
	assert.InDelta(t, 500.0, opts.maxFieldHeightFor(2000), 1e-9)
}

func TestFieldType_Valid(t *testing.T) {
	for _, ft := range AllFieldTypes {
		assert.True(t, ft.Valid(), string(ft))
	}
	assert.False(t, FieldType("stamp").Valid())
}
