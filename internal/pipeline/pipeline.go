// Package pipeline chains document detection and rectification and runs the
// chain over many images with a bounded worker pool.
package pipeline

import (
	"fmt"
	"runtime"

	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
	"github.com/AinsleeWang/smart-doc-scan/internal/rectify"
)

// Config holds configuration for the scan pipeline and its components.
type Config struct {
	Detector detector.Config
	Rectify  rectify.Config
	Parallel ParallelConfig
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Detector: detector.DefaultConfig(),
		Rectify:  rectify.DefaultConfig(),
		Parallel: DefaultParallelConfig(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithDetectorConfig replaces the detector configuration.
func (b *Builder) WithDetectorConfig(cfg detector.Config) *Builder {
	b.cfg.Detector = cfg
	return b
}

// WithRectifyConfig replaces the rectifier configuration.
func (b *Builder) WithRectifyConfig(cfg rectify.Config) *Builder {
	b.cfg.Rectify = cfg
	return b
}

// WithEnhancement toggles the post-warp enhancement chain.
func (b *Builder) WithEnhancement(enabled bool) *Builder {
	b.cfg.Rectify.Enhance = enabled
	return b
}

// WithMinAreaFraction sets the smallest page area accepted, as a fraction of
// the image area.
func (b *Builder) WithMinAreaFraction(f float64) *Builder {
	if f > 0 {
		b.cfg.Detector.MinAreaFraction = f
	}
	return b
}

// WithDebugDir makes both stages dump diagnostic PNGs into dir.
func (b *Builder) WithDebugDir(dir string) *Builder {
	b.cfg.Detector.DebugDir = dir
	b.cfg.Rectify.DebugDir = dir
	return b
}

// WithParallelWorkers sets the number of parallel workers.
func (b *Builder) WithParallelWorkers(workers int) *Builder {
	if workers > 0 {
		b.cfg.Parallel.MaxWorkers = workers
	}
	return b
}

// WithMemoryLimit sets the heap size above which workers pause for a GC.
func (b *Builder) WithMemoryLimit(bytes uint64) *Builder {
	b.cfg.Parallel.MemoryLimitBytes = bytes
	return b
}

// WithProgressCallback sets the progress callback for batch runs.
func (b *Builder) WithProgressCallback(callback ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = callback
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks the component configurations.
func (b *Builder) Validate() error {
	if err := b.cfg.Detector.Validate(); err != nil {
		return err
	}
	if err := b.cfg.Rectify.Validate(); err != nil {
		return err
	}
	if b.cfg.Parallel.MaxWorkers < 0 {
		return fmt.Errorf("parallel workers must be >= 0, got %d", b.cfg.Parallel.MaxWorkers)
	}
	return nil
}

// Pipeline wires together the detector and the rectifier.
type Pipeline struct {
	cfg       Config
	Detector  *detector.Detector
	Rectifier *rectify.Rectifier
	profiler  Profiler
}

// Build initializes the pipeline components.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	det, err := detector.New(b.cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("init detector: %w", err)
	}
	rx, err := rectify.New(b.cfg.Rectify)
	if err != nil {
		return nil, fmt.Errorf("init rectifier: %w", err)
	}
	if b.cfg.Parallel.MaxWorkers == 0 {
		b.cfg.Parallel.MaxWorkers = runtime.NumCPU()
	}
	return &Pipeline{cfg: b.cfg, Detector: det, Rectifier: rx}, nil
}

// New builds a pipeline from cfg.
func New(cfg Config) (*Pipeline, error) {
	return NewBuilder().WithConfig(cfg).Build()
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Stats returns cumulative counters for every scan run on p.
func (p *Pipeline) Stats() ProfileSnapshot { return p.profiler.Snapshot() }

// Info returns a map with key pipeline properties.
func (p *Pipeline) Info() map[string]any {
	d, r := p.cfg.Detector, p.cfg.Rectify
	return map[string]any{
		"detector": map[string]any{
			"clahe_clip_limit":  d.ClaheClipLimit,
			"clahe_tile_grid":   d.ClaheTileGrid,
			"blur_kernel":       d.BlurKernelSize,
			"canny_ratios":      []float64{d.CannyLowerRatio, d.CannyUpperRatio},
			"dilate_kernel":     d.DilateKernelSize,
			"dilate_iterations": d.DilateIterations,
			"min_area_fraction": d.MinAreaFraction,
			"approx_epsilon":    d.ApproxEpsilonFraction,
			"debug_dir_enabled": d.DebugDir != "",
		},
		"rectify": map[string]any{
			"enhance":          r.Enhance,
			"clahe_clip_limit": r.ClaheClipLimit,
			"clahe_tile_grid":  r.ClaheTileGrid,
			"threshold_block":  r.ThresholdBlockSize,
			"threshold_c":      r.ThresholdC,
			"denoise_h":        r.DenoiseH,
		},
		"parallel": map[string]any{
			"max_workers":           p.cfg.Parallel.MaxWorkers,
			"memory_limit_bytes":    p.cfg.Parallel.MemoryLimitBytes,
			"has_progress_callback": p.cfg.Parallel.ProgressCallback != nil,
		},
		"stats":  p.profiler.Snapshot(),
		"memory": GetMemStats(),
	}
}
