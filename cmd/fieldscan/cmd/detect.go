package cmd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/fieldscan/internal/dataset"
	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
)

const (
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
	outputFormatText = "text"
)

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect [images...]",
	Short: "Detect form fields in rendered page images",
	Long: `Run the raster field-detection heuristics on one or more page images.

Supported formats: PNG, JPEG, BMP, TIFF

Each input page yields the detected elements in buffer pixel coordinates.
With --pred, a normalized prediction document (*.pred.json) is written next
to each input for later evaluation.

Examples:
  fieldscan detect page.png
  fieldscan detect scans/*.png --format json --output results.json
  fieldscan detect page.png --scale 2.0 --pred`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()

		opts := cfg.Detector
		if cmd.Flags().Changed("scale") {
			scale, _ := cmd.Flags().GetFloat64("scale")
			opts = detector.OptionsForScale(scale)
		}
		if cmd.Flags().Changed("confidence") {
			opts.ConfidenceThreshold, _ = cmd.Flags().GetFloat64("confidence")
		}
		if cmd.Flags().Changed("merge-threshold") {
			opts.MergeThreshold, _ = cmd.Flags().GetFloat64("merge-threshold")
		}

		det, err := detector.New(opts)
		if err != nil {
			return fmt.Errorf("invalid detector options: %w", err)
		}

		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}
		switch format {
		case outputFormatText, outputFormatJSON, outputFormatCSV:
		default:
			return fmt.Errorf("invalid output format: %s (must be one of: text, json, csv)", format)
		}

		outputFile := cfg.Output.File
		if cmd.Flags().Changed("output") {
			outputFile, _ = cmd.Flags().GetString("output")
		}
		writePred, _ := cmd.Flags().GetBool("pred")

		var out strings.Builder
		for _, path := range args {
			if err := detectOne(cmd, det, path, format, writePred, &out); err != nil {
				return err
			}
		}

		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(out.String()), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			cmd.Printf("Results written to %s\n", outputFile)
			return nil
		}
		cmd.Print(out.String())
		return nil
	},
}

func detectOne(cmd *cobra.Command, det *detector.Detector, path, format string, writePred bool, out *strings.Builder) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	pixels, width, height := rgbaPixels(img)
	elems := det.Detect(pixels, width, height, nil)

	switch format {
	case outputFormatJSON:
		data, err := detector.ElementsToJSON(elems, width, height)
		if err != nil {
			return fmt.Errorf("failed to encode detections for %s: %w", path, err)
		}
		out.Write(data)
		out.WriteString("\n")
	case outputFormatCSV:
		if err := writeElementsCSV(out, path, elems); err != nil {
			return err
		}
	default:
		fmt.Fprintf(out, "%s: %d element(s) in %dx%d\n", path, len(elems), width, height)
		for _, el := range elems {
			fmt.Fprintf(out, "  %-10s (%.0f,%.0f %.0fx%.0f) conf=%.2f\n",
				string(el.Type), el.Rect.X, el.Rect.Y, el.Rect.Width, el.Rect.Height, el.Confidence)
		}
	}

	if writePred {
		stem := strings.TrimSuffix(path, filepath.Ext(path))
		predPath := stem + ".pred.json"
		page := eval.PagePredictionFromElements(elems, 0, width, height)
		doc := eval.DetectionOutput{
			DocumentID: filepath.Base(stem),
			Pages:      []eval.PagePrediction{page},
		}
		if err := dataset.SavePrediction(predPath, doc); err != nil {
			return err
		}
		cmd.Printf("Prediction written to %s\n", predPath)
	}
	return nil
}

// writeElementsCSV emits one row per detected element in pixel coordinates.
func writeElementsCSV(out *strings.Builder, path string, elems []detector.DetectedElement) error {
	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"file", "type", "x", "y", "width", "height", "confidence"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, el := range elems {
		row := []string{
			path,
			string(el.Type),
			fmt.Sprintf("%.1f", el.Rect.X),
			fmt.Sprintf("%.1f", el.Rect.Y),
			fmt.Sprintf("%.1f", el.Rect.Width),
			fmt.Sprintf("%.1f", el.Rect.Height),
			fmt.Sprintf("%.3f", el.Confidence),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// rgbaPixels converts a decoded image to the dense RGBA buffer the detector
// consumes.
func rgbaPixels(img image.Image) ([]byte, int, int) {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return rgba.Pix, rgba.Bounds().Dx(), rgba.Bounds().Dy()
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().StringP("format", "f", "text", "output format (text, json, csv)")
	detectCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
	detectCmd.Flags().Float64("confidence", 0.3, "minimum element confidence (0..1)")
	detectCmd.Flags().Float64("merge-threshold", 10, "adjacency merge distance in pixels")
	detectCmd.Flags().Bool("pred", false, "write a normalized *.pred.json next to each input")
}
