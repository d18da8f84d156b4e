package cmd

import (
	"github.com/spf13/cobra"

	"github.com/AinsleeWang/smart-doc-scan/internal/batch"
)

func newScanCommand(a *app) *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan <image|pdf|dir>...",
		Short: "Detect, straighten and enhance documents",
		Long: `Scan detects the document in each input, warps it to a flat rectangle and
enhances it. Results are written to the output directory as
enhanced_<name>_<YYYYmmdd_HHMMSS>.jpg. Pages of input PDFs are scanned one by one.

Exit status is 2 when an input holds no document.

Examples:
  docscan scan photo.jpg
  docscan scan photo.jpg --output-dir scans --image-format png
  docscan scan receipts/*.jpg --pdf receipts.pdf
  docscan scan faxes.pdf --pages 1-3 --no-enhance`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := batch.ProcessBatch(cmd.Context(), args, a.batchConfig(cmd))
			if err != nil {
				return err
			}
			if err := a.writeReport(cmd, result); err != nil {
				return err
			}
			return missingDocuments(result)
		},
	}
	addReportFlags(scanCmd.Flags())
	addScanOutputFlags(scanCmd.Flags())
	return scanCmd
}
