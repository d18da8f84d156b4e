package batch

import (
	"io"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Core scanning settings
	Pipeline   pipeline.Config
	DetectOnly bool // locate documents without rectifying them

	// Output settings
	OutputDir       string // rectified pages, skipped when empty
	ImageFormat     string // jpeg or png
	Quality         int
	TimestampFormat string
	OverlayDir      string // detection overlays, skipped when empty
	PDFPath         string // bundle every rectified page into one PDF
	PageRange       string // pages taken from input PDFs ("" means all)

	// Parallel processing settings
	Workers          int
	MemoryLimitBytes uint64

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Error handling
	ContinueOnError bool

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ProgressInterval time.Duration
	ProgressWriter   io.Writer // defaults to stderr

	// Now stamps output names; defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the settings docscan uses without flags or config files.
func DefaultConfig() *Config {
	return &Config{
		Pipeline:         pipeline.DefaultConfig(),
		ImageFormat:      "jpeg",
		Quality:          95,
		TimestampFormat:  DefaultTimestampFormat,
		Recursive:        true,
		ContinueOnError:  true,
		ShowProgress:     true,
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Result holds the result of batch processing.
type Result struct {
	Inputs      []string              // input labels, one per report
	Reports     []pipeline.ScanReport // in input order
	Stats       pipeline.ParallelStats
	PDFPath     string // written bundle, empty when none was produced
	Duration    time.Duration
	WorkerCount int
}

// Failed returns the reports whose input could not be processed.
func (r *Result) Failed() []pipeline.ScanReport {
	var out []pipeline.ScanReport
	for _, rep := range r.Reports {
		if rep.Error != "" {
			out = append(out, rep)
		}
	}
	return out
}
