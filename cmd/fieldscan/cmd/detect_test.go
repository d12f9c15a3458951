package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/fieldscan/internal/dataset"
	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/testutil"
)

func writeCheckboxPage(t *testing.T, dir string) string {
	t.Helper()

	page := testutil.NewFormPage(600, 800)
	page.DrawCheckbox(200, 300, 14)
	return page.SavePNG(t, dir, "page.png")
}

func TestDetectCommand_TextOutput(t *testing.T) {
	imgPath := writeCheckboxPage(t, t.TempDir())

	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"detect", imgPath})
	require.NoError(t, err)

	assert.Contains(t, output, "1 element(s) in 600x800")
	assert.Contains(t, output, string(detector.FieldCheckbox))
}

func TestDetectCommand_WritesPrediction(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeCheckboxPage(t, dir)

	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"detect", imgPath, "--pred"})
	require.NoError(t, err)

	predPath := filepath.Join(dir, "page.pred.json")
	assert.Contains(t, output, predPath)

	pred, err := dataset.LoadPrediction(predPath)
	require.NoError(t, err)
	require.Len(t, pred.Pages, 1)
	require.Len(t, pred.Pages[0].Fields, 1)
	assert.Equal(t, detector.FieldCheckbox, pred.Pages[0].Fields[0].Type)
	assert.InDelta(t, 200.0/600.0, pred.Pages[0].Fields[0].Rect.X, 0.02)

	require.NoError(t, detectCmd.Flags().Set("pred", "false"))
}

func TestDetectCommand_CSVOutput(t *testing.T) {
	imgPath := writeCheckboxPage(t, t.TempDir())

	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"detect", imgPath, "--format", "csv"})
	require.NoError(t, err)

	assert.Contains(t, output, "file,type,x,y,width,height,confidence")
	assert.Contains(t, output, string(detector.FieldCheckbox))

	require.NoError(t, detectCmd.Flags().Set("format", "text"))
}

func TestDetectCommand_NoInput(t *testing.T) {
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"detect"})
	require.Error(t, err)
}

func TestDetectCommand_MissingFile(t *testing.T) {
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"detect", "no-such-image.png"})
	require.Error(t, err)
}

func TestDetectCommand_InvalidFormat(t *testing.T) {
	imgPath := writeCheckboxPage(t, t.TempDir())

	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"detect", imgPath, "--format", "xml"})
	require.Error(t, err)

	require.NoError(t, detectCmd.Flags().Set("format", "text"))
}
