package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/fieldscan/internal/dataset"
	"github.com/MeKo-Tech/fieldscan/internal/pdf"
)

// annotateCmd represents the annotate command.
var annotateCmd = &cobra.Command{
	Use:   "annotate [pdfs...]",
	Short: "Derive ground-truth annotations from AcroForm PDFs",
	Long: `Extract interactive form fields from PDFs and write them as
*.truth.json annotation documents with page-relative coordinates.

PDFs without AcroForm fields produce annotations with no pages.

Examples:
  fieldscan annotate form.pdf
  fieldscan annotate forms/*.pdf --output-dir dataset/`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		outputDir, _ := cmd.Flags().GetString("output-dir")

		for _, path := range args {
			doc, err := pdf.ExtractGroundTruth(path)
			if err != nil {
				return fmt.Errorf("failed to annotate %s: %w", path, err)
			}

			stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			outPath := stem + ".truth.json"
			if outputDir != "" {
				outPath = filepath.Join(outputDir, outPath)
			} else {
				outPath = filepath.Join(filepath.Dir(path), outPath)
			}

			if err := dataset.SaveAnnotation(outPath, doc); err != nil {
				return err
			}

			fields := 0
			for _, page := range doc.Pages {
				fields += len(page.Fields)
			}
			cmd.Printf("%s: %d field(s) on %d page(s) -> %s\n", path, fields, len(doc.Pages), outPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(annotateCmd)
	annotateCmd.Flags().String("output-dir", "", "directory for *.truth.json files (default: next to each PDF)")
}
