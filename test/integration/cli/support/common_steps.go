package support

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MeKo-Tech/fieldscan/cmd/fieldscan/cmd"
	"github.com/MeKo-Tech/fieldscan/internal/dataset"
	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
	"github.com/MeKo-Tech/fieldscan/internal/geometry"
	"github.com/MeKo-Tech/fieldscan/internal/testutil"
)

// RegisterCommonSteps wires the shared step definitions.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a page image "([^"]*)" with a checkbox at (\d+),(\d+) size (\d+)$`, testCtx.createCheckboxImage)
	sc.Step(`^an annotation pair "([^"]*)" where the prediction matches the truth$`, testCtx.createMatchingPair)
	sc.Step(`^I run fieldscan with "([^"]*)"$`, testCtx.runFieldscan)
	sc.Step(`^the command succeeds$`, testCtx.commandSucceeds)
	sc.Step(`^the command fails$`, testCtx.commandFails)
	sc.Step(`^the output contains "([^"]*)"$`, testCtx.outputContains)
	sc.Step(`^the file "([^"]*)" exists$`, testCtx.fileExists)
}

func (testCtx *TestContext) createCheckboxImage(name string, x, y, size int) error {
	page := testutil.NewFormPage(600, 800)
	page.DrawCheckbox(x, y, size)

	path := filepath.Join(testCtx.TempDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, page.Image()); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

func (testCtx *TestContext) createMatchingPair(name string) error {
	fields := []eval.FieldAnnotation{
		{Type: detector.FieldText, Rect: geometry.Rect{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.05}},
		{Type: detector.FieldCheckbox, Rect: geometry.Rect{X: 0.5, Y: 0.5, Width: 0.04, Height: 0.04}},
	}
	truth := &eval.DocumentAnnotation{
		DocumentID: name,
		Pages:      []eval.PageAnnotation{{PageIndex: 0, Fields: fields}},
	}

	predFields := make([]eval.FieldPrediction, len(fields))
	for i, f := range fields {
		predFields[i] = eval.FieldPrediction{Type: f.Type, Rect: f.Rect, Confidence: 0.9}
	}
	pred := eval.DetectionOutput{
		DocumentID: name,
		Pages:      []eval.PagePrediction{{PageIndex: 0, Fields: predFields}},
	}

	if err := dataset.SaveAnnotation(filepath.Join(testCtx.TempDir, name+".truth.json"), truth); err != nil {
		return err
	}
	return dataset.SavePrediction(filepath.Join(testCtx.TempDir, name+".pred.json"), pred)
}

func (testCtx *TestContext) runFieldscan(commandLine string) error {
	if err := os.Chdir(testCtx.TempDir); err != nil {
		return fmt.Errorf("failed to enter scenario directory: %w", err)
	}

	args := splitArgs(commandLine)
	testCtx.LastCommand = commandLine

	output, err := runCaptured(func(out io.Writer) error {
		root := cmd.GetRootCommand()
		resetCommandFlags(root)
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(args)
		return root.Execute()
	})

	testCtx.LastOutput = output
	testCtx.LastError = err
	return nil
}

// resetCommandFlags restores every changed flag to its default so flag
// values do not leak between in-process executions.
func resetCommandFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetCommandFlags(sub)
	}
}

func (testCtx *TestContext) commandSucceeds() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("expected %q to succeed, got: %w\noutput:\n%s",
			testCtx.LastCommand, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) commandFails() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected %q to fail, but it succeeded\noutput:\n%s",
			testCtx.LastCommand, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) outputContains(expected string) error {
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output of %q does not contain %q\noutput:\n%s",
			testCtx.LastCommand, expected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) fileExists(name string) error {
	path := filepath.Join(testCtx.TempDir, name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("expected file %s to exist: %w", path, err)
	}
	return nil
}
