package batch

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
)

// FormatResults renders the per-input reports as text, json, yaml or csv.
func (r *Result) FormatResults(format string) (string, error) {
	return pipeline.FormatReports(r.Reports, format)
}

// SaveResults writes the formatted reports to outputFile, or to w when
// outputFile is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
		}
		return nil
	}
	_, err = fmt.Fprint(w, output)
	return err
}

// PrintStats writes a processing summary to w with numbers grouped the way
// tag expects, e.g. 12,345 for English and 12.345 for German.
func (r *Result) PrintStats(w io.Writer, tag language.Tag) {
	p := message.NewPrinter(tag)
	s := r.Stats
	_, _ = p.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = p.Fprintf(w, "  Total inputs: %d\n", len(r.Inputs))
	_, _ = p.Fprintf(w, "  Documents found: %d\n", s.FoundDocuments)
	_, _ = p.Fprintf(w, "  No document: %d\n", s.ProcessedImages-s.FoundDocuments)
	_, _ = p.Fprintf(w, "  Failed: %d\n", s.FailedImages)
	_, _ = p.Fprintf(w, "  Workers: %d\n", s.WorkerCount)
	_, _ = p.Fprintf(w, "  Duration: %v\n", s.TotalDuration.Round(time.Millisecond))
	_, _ = p.Fprintf(w, "  Avg per image: %v\n", s.AveragePerImage.Round(time.Millisecond))
	_, _ = p.Fprintf(w, "  Throughput: %.1f images/sec\n", s.ThroughputPerSec)
	if r.PDFPath != "" {
		_, _ = p.Fprintf(w, "  PDF: %s\n", r.PDFPath)
	}
}
