package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
)

// ParallelConfig holds configuration for parallel processing.
type ParallelConfig struct {
	MaxWorkers       int              // Number of parallel workers (0 = runtime.NumCPU())
	MemoryLimitBytes uint64           // Heap size above which a worker forces a GC before its next job (0 = no limit)
	ProgressCallback ProgressCallback // Optional progress reporting
	ErrorHandler     func(int, error) // Optional per-item error handler
}

// DefaultParallelConfig returns sensible defaults for parallel processing.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		MaxWorkers: runtime.NumCPU(),
	}
}

// job is a single unit of work handed to a worker.
type job struct {
	index int
}

// jobResult is the outcome of one job.
type jobResult struct {
	index int
	err   error
}

// ForEach calls fn for every index in [0, n) on a pool of workers and returns
// the per-index errors. Items never started because ctx was cancelled carry
// ctx.Err(). The second return value is ctx.Err() after the run.
func ForEach(ctx context.Context, n int, config ParallelConfig, fn func(ctx context.Context, index int) error) ([]error, error) {
	errs := make([]error, n)
	if n == 0 {
		return errs, ctx.Err()
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	workers := min(config.MaxWorkers, n)

	if config.ProgressCallback != nil {
		config.ProgressCallback.OnStart(n)
		defer config.ProgressCallback.OnComplete()
	}

	jobs := make(chan job, n)
	results := make(chan jobResult, n)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go worker(ctx, jobs, results, &wg, config, fn)
	}

	go func() {
		defer close(jobs)
		for i := range n {
			select {
			case jobs <- job{index: i}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	done := make([]bool, n)
	processed := 0
	for r := range results {
		errs[r.index] = r.err
		done[r.index] = true
		processed++
		if r.err != nil {
			if config.ProgressCallback != nil {
				config.ProgressCallback.OnError(r.index, r.err)
			}
			if config.ErrorHandler != nil {
				config.ErrorHandler(r.index, r.err)
			}
		}
		if config.ProgressCallback != nil {
			config.ProgressCallback.OnProgress(processed, n)
		}
	}

	if err := ctx.Err(); err != nil {
		for i := range errs {
			if !done[i] {
				errs[i] = err
			}
		}
		return errs, err
	}
	return errs, nil
}

// worker processes jobs until the channel closes or ctx is cancelled.
func worker(
	ctx context.Context,
	jobs <-chan job,
	results chan<- jobResult,
	wg *sync.WaitGroup,
	config ParallelConfig,
	fn func(ctx context.Context, index int) error,
) {
	defer wg.Done()

	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if config.MemoryLimitBytes > 0 {
				relieveMemoryPressure(config.MemoryLimitBytes)
			}

			err := fn(ctx, j.index)

			select {
			case results <- jobResult{index: j.index, err: err}:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// relieveMemoryPressure forces a collection when the heap is above limit.
func relieveMemoryPressure(limit uint64) {
	if s := GetMemStats(); s.AllocBytes > limit {
		slog.Debug("Heap above limit, forcing GC", "alloc", s.AllocBytes, "limit", limit)
		runtime.GC()
	}
}

// ScanBatch scans images in parallel. Results are returned in input order.
// A missing document is not an error here: its slot holds the NotFound
// result. Failed slots are nil and the first failure is returned.
func (p *Pipeline) ScanBatch(ctx context.Context, images []image.Image, config ParallelConfig) ([]*ScanResult, error) {
	if len(images) == 0 {
		return nil, docerr.InvalidInput("pipeline.ScanBatch", "no images provided")
	}
	if p == nil || p.Detector == nil || p.Rectifier == nil {
		return nil, docerr.InvalidInput("pipeline.ScanBatch", "pipeline not initialized")
	}

	results := make([]*ScanResult, len(images))
	errs, err := ForEach(ctx, len(images), config, func(ctx context.Context, i int) error {
		res, err := p.Scan(ctx, images[i])
		if err != nil && !errors.Is(err, docerr.ErrNoDocument) {
			return err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, e := range errs {
		if e != nil {
			return results, fmt.Errorf("image %d: %w", i, e)
		}
	}
	return results, nil
}

// ParallelStats holds statistics about parallel processing performance.
type ParallelStats struct {
	TotalImages      int           `json:"total_images"`
	ProcessedImages  int           `json:"processed_images"`
	FoundDocuments   int           `json:"found_documents"`
	FailedImages     int           `json:"failed_images"`
	WorkerCount      int           `json:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns"`
	AveragePerImage  time.Duration `json:"average_per_image_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// CalculateParallelStats calculates performance statistics for a batch run.
// A nil result counts as a failure.
func CalculateParallelStats(results []*ScanResult, duration time.Duration, workerCount int) ParallelStats {
	stats := ParallelStats{
		TotalImages:   len(results),
		WorkerCount:   workerCount,
		TotalDuration: duration,
	}
	for _, r := range results {
		switch {
		case r == nil:
			stats.FailedImages++
		case r.Found():
			stats.FoundDocuments++
			stats.ProcessedImages++
		default:
			stats.ProcessedImages++
		}
	}
	if stats.ProcessedImages > 0 && duration > 0 {
		stats.AveragePerImage = duration / time.Duration(stats.ProcessedImages)
		stats.ThroughputPerSec = float64(stats.ProcessedImages) / duration.Seconds()
	}
	return stats
}
