package cmd

import (
	"github.com/spf13/cobra"

	"github.com/AinsleeWang/smart-doc-scan/internal/batch"
)

func newDetectCommand(a *app) *cobra.Command {
	detectCmd := &cobra.Command{
		Use:   "detect <image|pdf|dir>...",
		Short: "Locate the document boundary without rectifying",
		Long: `Detect finds the four corners of the document in each input and prints
them in the chosen report format. Nothing but reports and optional overlays
is written.

Exit status is 2 when an input holds no document.

Examples:
  docscan detect photo.jpg
  docscan detect photo.jpg --format json
  docscan detect photos/ --overlay-dir overlays`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bc := a.batchConfig(cmd)
			bc.DetectOnly = true
			bc.OutputDir = ""
			bc.PDFPath = ""

			result, err := batch.ProcessBatch(cmd.Context(), args, bc)
			if err != nil {
				return err
			}
			if err := a.writeReport(cmd, result); err != nil {
				return err
			}
			return missingDocuments(result)
		},
	}
	addReportFlags(detectCmd.Flags())
	detectCmd.Flags().String("pages", "", "pages taken from input PDFs, e.g. 1-3,5 (default all)")
	return detectCmd
}
