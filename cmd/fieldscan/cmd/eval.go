package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/fieldscan/internal/dataset"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
	"github.com/MeKo-Tech/fieldscan/internal/pdf"
)

// evalCmd represents the eval command.
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score a prediction document against ground truth",
	Long: `Evaluate detected form fields against ground truth using greedy
IoU matching, reporting per-type and aggregate precision, recall and F1.

Ground truth is a *.truth.json annotation document, or a PDF with AcroForm
fields from which the annotations are derived.

Examples:
  fieldscan eval --truth doc.truth.json --pred doc.pred.json
  fieldscan eval --truth form.pdf --pred form.pred.json --iou 0.6
  fieldscan eval --truth doc.truth.json --pred doc.pred.json --format csv`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		truthPath, _ := cmd.Flags().GetString("truth")
		predPath, _ := cmd.Flags().GetString("pred")
		if predPath == "" {
			return fmt.Errorf("no prediction file provided")
		}

		threshold := cfg.Evaluation.IoUThreshold
		if cmd.Flags().Changed("iou") {
			threshold, _ = cmd.Flags().GetFloat64("iou")
		}
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("invalid IoU threshold: %g (must be in (0,1])", threshold)
		}

		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}

		var truth *eval.DocumentAnnotation
		if truthPath != "" {
			var err error
			if strings.EqualFold(filepath.Ext(truthPath), ".pdf") {
				truth, err = pdf.ExtractGroundTruth(truthPath)
			} else {
				truth, err = dataset.LoadAnnotation(truthPath)
			}
			if err != nil {
				return err
			}
		}

		prediction, err := dataset.LoadPrediction(predPath)
		if err != nil {
			return err
		}

		report := eval.Evaluate(truth, prediction, threshold)
		output, err := eval.FormatReport(report, format)
		if err != nil {
			return err
		}

		outputFile := cfg.Output.File
		if cmd.Flags().Changed("output") {
			outputFile, _ = cmd.Flags().GetString("output")
		}
		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			cmd.Printf("Report written to %s\n", outputFile)
			return nil
		}
		cmd.Print(output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringP("truth", "t", "", "ground-truth file (*.truth.json or a PDF with AcroForm fields)")
	evalCmd.Flags().StringP("pred", "p", "", "prediction file (*.pred.json)")
	evalCmd.Flags().Float64("iou", eval.DefaultIoUThreshold, "IoU threshold for a match (0..1]")
	evalCmd.Flags().StringP("format", "f", "text", "output format (text, json, csv)")
	evalCmd.Flags().StringP("output", "o", "", "write report to file instead of stdout")
}
