package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AinsleeWang/smart-doc-scan/internal/batch"
	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
)

// Exit codes of the docscan binary.
const (
	exitFailure    = 1
	exitNoDocument = 2
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if errors.Is(err, docerr.ErrNoDocument) {
		return exitNoDocument
	}
	return exitFailure
}

// addReportFlags registers the flags shared by commands that print reports.
func addReportFlags(fs *pflag.FlagSet) {
	fs.StringP("format", "f", "text", "report format: text, json, yaml or csv")
	fs.StringP("output-file", "o", "", "write the report to this file instead of stdout")
	fs.String("overlay-dir", "", "write detection overlays (outline and numbered corners) to this directory")
	fs.Float64("min-area", 0.01, "smallest accepted document area as a fraction of the image")
	fs.Int("workers", 0, "number of parallel workers (0 = one per CPU)")
	fs.String("debug-dir", "", "write intermediate stage images to this directory")
	bindFlag(fs, "format", "output.format")
	bindFlag(fs, "overlay-dir", "output.overlay_dir")
	bindFlag(fs, "min-area", "detector.min_area_fraction")
	bindFlag(fs, "workers", "pipeline.workers")
}

// addScanOutputFlags registers the flags of commands that write documents.
func addScanOutputFlags(fs *pflag.FlagSet) {
	fs.StringP("output-dir", "d", "data/output", "directory for rectified documents")
	fs.String("image-format", "jpeg", "image format of rectified documents: jpeg or png")
	fs.Int("quality", 95, "JPEG quality (1-100)")
	fs.String("pdf", "", "also bundle every rectified document into this PDF")
	fs.String("pages", "", "pages taken from input PDFs, e.g. 1-3,5 (default all)")
	fs.Bool("no-enhance", false, "write the perspective-corrected page without enhancement")
	bindFlag(fs, "output-dir", "output.dir")
	bindFlag(fs, "image-format", "output.image_format")
	bindFlag(fs, "quality", "output.quality")
	bindFlag(fs, "pdf", "output.pdf")
}

// batchConfig turns the loaded configuration and the command's own flags
// into a batch run description.
func (a *app) batchConfig(cmd *cobra.Command) *batch.Config {
	cfg := a.cfg
	bc := batch.DefaultConfig()
	bc.Pipeline = cfg.ToPipelineConfig()
	bc.Workers = cfg.Pipeline.Workers
	bc.MemoryLimitBytes = bc.Pipeline.Parallel.MemoryLimitBytes
	bc.OutputDir = cfg.Output.Dir
	bc.ImageFormat = cfg.Output.ImageFormat
	bc.Quality = cfg.Output.Quality
	bc.TimestampFormat = cfg.Output.TimestampFormat
	bc.OverlayDir = cfg.Output.OverlayDir
	bc.PDFPath = cfg.Output.PDF
	bc.Recursive = cfg.Batch.Recursive
	bc.IncludePatterns = cfg.Batch.Include
	bc.ExcludePatterns = cfg.Batch.Exclude
	bc.ContinueOnError = true
	bc.ShowProgress = false
	bc.ProgressWriter = cmd.ErrOrStderr()

	if dir, _ := cmd.Flags().GetString("debug-dir"); dir != "" {
		bc.Pipeline.Detector.DebugDir = dir
		bc.Pipeline.Rectify.DebugDir = dir
	}
	if noEnhance, _ := cmd.Flags().GetBool("no-enhance"); noEnhance {
		bc.Pipeline.Rectify.Enhance = false
	}
	if pages, _ := cmd.Flags().GetString("pages"); pages != "" {
		bc.PageRange = pages
	}
	return bc
}

// writeReport prints the formatted reports of result to the --output-file
// or stdout.
func (a *app) writeReport(cmd *cobra.Command, result *batch.Result) error {
	outputFile, _ := cmd.Flags().GetString("output-file")
	return result.SaveResults(cmd.OutOrStdout(), a.cfg.Output.Format, outputFile, false)
}

// missingDocuments returns an error matching docerr.ErrNoDocument when an
// input held no document, or the first failure when one failed.
func missingDocuments(result *batch.Result) error {
	if failed := result.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d inputs failed, first: %s", len(failed), len(result.Reports), failed[0].Error)
	}
	missing := 0
	for _, rep := range result.Reports {
		if rep.Detection.Status == detector.NotFound {
			missing++
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d inputs: %w", missing, len(result.Reports), docerr.ErrNoDocument)
	}
	return nil
}
