package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/fieldscan/internal/batch"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch [directory]",
	Short: "Evaluate a dataset directory of prediction/truth pairs",
	Long: `Evaluate every *.pred.json in a directory against its *.truth.json
sibling in parallel, then report per-document and corpus-level metrics.

Predictions without a matching truth file are scored as all false positives.

Examples:
  fieldscan batch ./dataset
  fieldscan batch ./dataset --workers 8 --recursive
  fieldscan batch ./dataset --format csv --output corpus.csv`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no dataset directory provided")
		}
		dir := args[0]

		cfg := GetConfig()
		bcfg := batch.Config{
			IoUThreshold:    cfg.Evaluation.IoUThreshold,
			Workers:         cfg.Batch.Workers,
			ContinueOnError: cfg.Batch.ContinueOnError,
			Recursive:       cfg.Batch.Recursive,
			Format:          cfg.Output.Format,
			OutputFile:      cfg.Output.File,
		}
		if cfg.Batch.DocumentTimeoutSec > 0 {
			bcfg.DocumentTimeout = time.Duration(cfg.Batch.DocumentTimeoutSec) * time.Second
		}

		if cmd.Flags().Changed("workers") {
			bcfg.Workers, _ = cmd.Flags().GetInt("workers")
		}
		if cmd.Flags().Changed("iou") {
			bcfg.IoUThreshold, _ = cmd.Flags().GetFloat64("iou")
		}
		if cmd.Flags().Changed("recursive") {
			bcfg.Recursive, _ = cmd.Flags().GetBool("recursive")
		}
		bcfg.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
		bcfg.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
		if cmd.Flags().Changed("continue-on-error") {
			bcfg.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
		}
		if cmd.Flags().Changed("timeout") {
			sec, _ := cmd.Flags().GetInt("timeout")
			bcfg.DocumentTimeout = time.Duration(sec) * time.Second
		}
		if cmd.Flags().Changed("format") {
			bcfg.Format, _ = cmd.Flags().GetString("format")
		}
		if cmd.Flags().Changed("output") {
			bcfg.OutputFile, _ = cmd.Flags().GetString("output")
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		showStats, _ := cmd.Flags().GetBool("stats")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var progress batch.ProgressFunc
		if !quiet {
			progress = func(p batch.Progress) {
				if p.Err != nil {
					fmt.Fprintf(os.Stderr, "[%d/%d] %s: %v\n", p.Completed, p.Total, p.Name, p.Err)
					return
				}
				fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", p.Completed, p.Total, p.Name)
			}
		}

		res, err := batch.Run(ctx, dir, bcfg, progress)
		if err != nil {
			return err
		}

		if err := res.SaveResults(bcfg.Format, bcfg.OutputFile, quiet); err != nil {
			return err
		}
		if showStats {
			res.PrintStats(quiet)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntP("workers", "w", 0, "number of parallel workers (0 = CPU count)")
	batchCmd.Flags().Float64("iou", 0, "IoU threshold for a match (0 = configured default)")
	batchCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().StringSlice("include", nil, "glob patterns of document names to include")
	batchCmd.Flags().StringSlice("exclude", nil, "glob patterns of document names to exclude")
	batchCmd.Flags().Bool("continue-on-error", true, "record per-document failures and keep going")
	batchCmd.Flags().Int("timeout", 0, "per-document timeout in seconds (0 = none)")
	batchCmd.Flags().StringP("format", "f", "text", "output format (text, json, csv)")
	batchCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
	batchCmd.Flags().BoolP("quiet", "q", false, "suppress progress output")
	batchCmd.Flags().Bool("stats", false, "print processing statistics")
}
