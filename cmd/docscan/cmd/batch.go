package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/AinsleeWang/smart-doc-scan/internal/batch"
)

func newBatchCommand(a *app) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch <dir|file>...",
		Short: "Scan whole directories in parallel",
		Long: `Batch discovers images and PDFs in the given directories, scans them on a
pool of workers with a progress bar and prints a summary. Inputs without a
document are reported but do not fail the run.

Examples:
  docscan batch ./inbox
  docscan batch ./inbox --include "*.jpg" --exclude "*_thumb.*" --workers 8
  docscan batch ./inbox --format csv --output-file report.csv --stats`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			bc := a.batchConfig(cmd)
			bc.ContinueOnError = cfg.Batch.ContinueOnError
			bc.ShowProgress = cfg.Batch.ShowProgress
			if cfg.Batch.Workers > 0 {
				bc.Workers = cfg.Batch.Workers
			}
			quiet, _ := cmd.Flags().GetBool("quiet")
			bc.Quiet = quiet

			locale, _ := cmd.Flags().GetString("locale")
			tag, err := language.Parse(locale)
			if err != nil {
				return fmt.Errorf("invalid locale %q: %w", locale, err)
			}

			result, err := batch.ProcessBatch(cmd.Context(), args, bc)
			if result != nil {
				if repErr := a.writeReport(cmd, result); repErr != nil && err == nil {
					err = repErr
				}
				if stats, _ := cmd.Flags().GetBool("stats"); stats && !quiet {
					result.PrintStats(cmd.ErrOrStderr(), tag)
				}
			}
			if err != nil {
				return err
			}
			if failed := result.Failed(); len(failed) > 0 {
				return fmt.Errorf("%d of %d inputs failed", len(failed), len(result.Reports))
			}
			return nil
		},
	}

	fs := batchCmd.Flags()
	addReportFlags(fs)
	addScanOutputFlags(fs)
	fs.BoolP("recursive", "r", true, "descend into subdirectories")
	fs.StringSlice("include", nil, "only scan files whose name matches one of these globs")
	fs.StringSlice("exclude", nil, "skip files whose name matches one of these globs")
	fs.Bool("continue-on-error", true, "keep going after an input fails")
	fs.Bool("progress", true, "show a progress bar")
	fs.BoolP("quiet", "q", false, "suppress progress and statistics")
	fs.Bool("stats", false, "print processing statistics")
	fs.String("locale", "en", "locale for numbers in the statistics, e.g. en or de")
	bindFlag(fs, "recursive", "batch.recursive")
	bindFlag(fs, "include", "batch.include")
	bindFlag(fs, "exclude", "batch.exclude")
	bindFlag(fs, "continue-on-error", "batch.continue_on_error")
	bindFlag(fs, "progress", "batch.show_progress")
	// In batch mode --workers sizes the batch pool.
	_ = fs.SetAnnotation("workers", configKeyAnnotation, []string{"batch.workers"})
	return batchCmd
}
