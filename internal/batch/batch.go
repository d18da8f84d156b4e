// Package batch scans many images and PDFs in one run: it discovers inputs,
// fans them out over the pipeline's worker pool, writes timestamped outputs
// and summarises the run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/pdf"
	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
)

// ErrNoInputs is returned when discovery finds nothing to scan.
var ErrNoInputs = errors.New("no image files found")

// ProcessBatch scans every image and PDF page found under paths. Unless
// ContinueOnError is set the run stops at the first failed input and that
// failure is returned alongside the partial result.
func ProcessBatch(ctx context.Context, paths []string, config *Config) (*Result, error) {
	files, err := discoverInputs(paths, config.Recursive, newInputFilter(config.IncludePatterns, config.ExcludePatterns))
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoInputs
	}

	inputs, err := expandInputs(files, config.PageRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	pl, err := buildPipeline(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build scan pipeline: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	parallel := pl.Config().Parallel
	parallel.ProgressCallback = progressCallback(config)
	var firstErr error
	parallel.ErrorHandler = func(_ int, err error) {
		slog.Warn("Input failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
		if !config.ContinueOnError {
			cancel()
		}
	}

	proc := newProcessor(pl, config, inputs)
	start := time.Now()
	_, runErr := pipeline.ForEach(runCtx, len(inputs), parallel, proc.process)
	duration := time.Since(start)

	result := &Result{
		Reports:     proc.reports,
		Duration:    duration,
		WorkerCount: parallel.MaxWorkers,
	}
	for i, in := range inputs {
		result.Inputs = append(result.Inputs, in.label)
		if result.Reports[i].File == "" {
			// Never started because the run was cancelled.
			result.Reports[i].File = in.label
			if runErr != nil {
				result.Reports[i].Error = runErr.Error()
			}
		}
	}
	result.Stats = pipeline.CalculateParallelStats(proc.results, duration, parallel.MaxWorkers)

	if firstErr != nil && !config.ContinueOnError {
		return result, firstErr
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if config.PDFPath != "" {
		docs := proc.documents()
		if len(docs) == 0 {
			slog.Warn("No documents found, PDF not written", "pdf", config.PDFPath)
		} else {
			if err := pdf.WriteDocumentFile(config.PDFPath, docs...); err != nil {
				return result, fmt.Errorf("failed to write PDF: %w", err)
			}
			result.PDFPath = config.PDFPath
		}
	}

	slog.Info("Batch finished",
		"inputs", len(inputs),
		"found", result.Stats.FoundDocuments,
		"failed", result.Stats.FailedImages,
		"duration", duration)
	return result, nil
}
