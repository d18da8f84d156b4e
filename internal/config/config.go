// Package config loads docscan settings from files, the environment and flags
// and converts them into the configurations of the individual components.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
	"github.com/AinsleeWang/smart-doc-scan/internal/logging"
	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
	"github.com/AinsleeWang/smart-doc-scan/internal/rectify"
	"github.com/AinsleeWang/smart-doc-scan/internal/server"
)

const infoLevel = "info"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	rx := rectify.DefaultConfig()
	srv := server.DefaultConfig()
	logOpts := logging.DefaultOptions()

	return Config{
		LogLevel: infoLevel,
		Log: LogConfig{
			Format:     logOpts.Format,
			MaxSizeMB:  logOpts.MaxSizeMB,
			MaxBackups: logOpts.MaxBackups,
			MaxAgeDays: logOpts.MaxAgeDays,
		},
		Detector: DetectorConfig{
			ClaheClipLimit:        det.ClaheClipLimit,
			ClaheTileGrid:         det.ClaheTileGrid,
			BlurKernelSize:        det.BlurKernelSize,
			CannyLowerRatio:       det.CannyLowerRatio,
			CannyUpperRatio:       det.CannyUpperRatio,
			DilateKernelSize:      det.DilateKernelSize,
			DilateIterations:      det.DilateIterations,
			MinAreaFraction:       det.MinAreaFraction,
			ApproxEpsilonFraction: det.ApproxEpsilonFraction,
		},
		Rectify: RectifyConfig{
			Enhance:               rx.Enhance,
			ClaheClipLimit:        rx.ClaheClipLimit,
			ClaheTileGrid:         rx.ClaheTileGrid,
			BlurKernelSize:        rx.BlurKernelSize,
			ThresholdBlockSize:    rx.ThresholdBlockSize,
			ThresholdC:            rx.ThresholdC,
			SharpenCenter:         rx.SharpenCenter,
			SharpenNeighbor:       rx.SharpenNeighbor,
			DenoiseH:              rx.DenoiseH,
			DenoiseHColor:         rx.DenoiseHColor,
			DenoiseTemplateWindow: rx.DenoiseTemplateWindow,
			DenoiseSearchWindow:   rx.DenoiseSearchWindow,
		},
		Pipeline: PipelineConfig{
			Workers:     0, // one per CPU
			MemoryLimit: "auto",
		},
		Output: OutputConfig{
			Format:          "text",
			ImageFormat:     "jpeg",
			Dir:             "data/output",
			Quality:         95,
			TimestampFormat: "20060102_150405",
		},
		Server: ServerConfig{
			Host:            srv.Host,
			Port:            srv.Port,
			CORSOrigin:      srv.CORSOrigin,
			MaxUploadMB:     int(srv.MaxUploadMB),
			TimeoutSec:      srv.TimeoutSec,
			ShutdownTimeout: srv.ShutdownTimeoutSec,
			DefaultFormat:   srv.DefaultFormat,
			JPEGQuality:     srv.JPEGQuality,
			MaxBatchItems:   srv.MaxBatchItems,
			RateLimit: RateLimitConfig{
				Enabled:           srv.RateLimit.Enabled,
				RequestsPerMinute: srv.RateLimit.RequestsPerMinute,
				RequestsPerHour:   srv.RateLimit.RequestsPerHour,
				MaxRequestsPerDay: srv.RateLimit.MaxRequestsPerDay,
				MaxDataPerDay:     "100MB",
			},
		},
		Batch: BatchConfig{
			Workers:         0,
			Recursive:       true,
			ContinueOnError: true,
			ShowProgress:    true,
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	validLogFormats := []string{"json", "text", "logfmt"}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.Log.Format, strings.Join(validLogFormats, ", "))
	}

	validFormats := []string{"text", "json", "yaml", "csv"}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	validImageFormats := []string{"jpeg", "jpg", "png"}
	if !slices.Contains(validImageFormats, strings.ToLower(c.Output.ImageFormat)) {
		return fmt.Errorf("invalid image format: %s (must be one of: %s)", c.Output.ImageFormat, strings.Join(validImageFormats, ", "))
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("invalid output quality: %d (must be between 1 and 100)", c.Output.Quality)
	}

	if err := c.ToDetectorConfig().Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if err := c.ToRectifyConfig().Validate(); err != nil {
		return fmt.Errorf("rectify: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	validServerFormats := []string{"png", "jpeg", "jpg", "pdf", "json"}
	if !slices.Contains(validServerFormats, c.Server.DefaultFormat) {
		return fmt.Errorf("invalid server default format: %s (must be one of: %s)",
			c.Server.DefaultFormat, strings.Join(validServerFormats, ", "))
	}
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("invalid pipeline workers: %d (must be >= 0)", c.Pipeline.Workers)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("invalid batch workers: %d (must be >= 0)", c.Batch.Workers)
	}

	if err := validateMemoryLimit(c.Pipeline.MemoryLimit); err != nil {
		return fmt.Errorf("invalid pipeline memory limit: %w", err)
	}
	if err := validateMemoryLimit(c.Server.RateLimit.MaxDataPerDay); err != nil {
		return fmt.Errorf("invalid rate limit data quota: %w", err)
	}

	return nil
}

// ToDetectorConfig converts to detector.Config.
func (c *Config) ToDetectorConfig() detector.Config {
	d := c.Detector
	return detector.Config{
		ClaheClipLimit:        d.ClaheClipLimit,
		ClaheTileGrid:         d.ClaheTileGrid,
		BlurKernelSize:        d.BlurKernelSize,
		CannyLowerRatio:       d.CannyLowerRatio,
		CannyUpperRatio:       d.CannyUpperRatio,
		DilateKernelSize:      d.DilateKernelSize,
		DilateIterations:      d.DilateIterations,
		MinAreaFraction:       d.MinAreaFraction,
		ApproxEpsilonFraction: d.ApproxEpsilonFraction,
		DebugDir:              d.DebugDir,
	}
}

// ToRectifyConfig converts to rectify.Config.
func (c *Config) ToRectifyConfig() rectify.Config {
	r := c.Rectify
	return rectify.Config{
		Enhance:               r.Enhance,
		ClaheClipLimit:        r.ClaheClipLimit,
		ClaheTileGrid:         r.ClaheTileGrid,
		BlurKernelSize:        r.BlurKernelSize,
		ThresholdBlockSize:    r.ThresholdBlockSize,
		ThresholdC:            r.ThresholdC,
		SharpenCenter:         r.SharpenCenter,
		SharpenNeighbor:       r.SharpenNeighbor,
		DenoiseH:              r.DenoiseH,
		DenoiseHColor:         r.DenoiseHColor,
		DenoiseTemplateWindow: r.DenoiseTemplateWindow,
		DenoiseSearchWindow:   r.DenoiseSearchWindow,
		DebugDir:              r.DebugDir,
	}
}

// ToParallelConfig converts to pipeline.ParallelConfig. workers overrides the
// configured pool size when positive.
func (c *Config) ToParallelConfig(workers int) pipeline.ParallelConfig {
	cfg := pipeline.DefaultParallelConfig()
	if c.Pipeline.Workers > 0 {
		cfg.MaxWorkers = c.Pipeline.Workers
	}
	if workers > 0 {
		cfg.MaxWorkers = workers
	}
	// Validate has already rejected malformed limits.
	cfg.MemoryLimitBytes, _ = ParseByteSize(c.Pipeline.MemoryLimit)
	return cfg
}

// ToPipelineConfig converts the config to the pipeline configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	return pipeline.Config{
		Detector: c.ToDetectorConfig(),
		Rectify:  c.ToRectifyConfig(),
		Parallel: c.ToParallelConfig(0),
	}
}

// ToServerConfig converts to server.Config.
func (c *Config) ToServerConfig() server.Config {
	s := c.Server
	dataPerDay, _ := ParseByteSize(s.RateLimit.MaxDataPerDay)
	return server.Config{
		Host:               s.Host,
		Port:               s.Port,
		CORSOrigin:         s.CORSOrigin,
		MaxUploadMB:        int64(s.MaxUploadMB),
		TimeoutSec:         s.TimeoutSec,
		ShutdownTimeoutSec: s.ShutdownTimeout,
		DefaultFormat:      s.DefaultFormat,
		JPEGQuality:        s.JPEGQuality,
		MaxBatchItems:      s.MaxBatchItems,
		Pipeline:           c.ToPipelineConfig(),
		RateLimit: server.RateLimitConfig{
			Enabled:           s.RateLimit.Enabled,
			RequestsPerMinute: s.RateLimit.RequestsPerMinute,
			RequestsPerHour:   s.RateLimit.RequestsPerHour,
			MaxRequestsPerDay: s.RateLimit.MaxRequestsPerDay,
			MaxDataPerDay:     int64(dataPerDay),
		},
	}
}

// ToLoggingOptions converts to logging.Options. Verbose forces debug level.
func (c *Config) ToLoggingOptions() logging.Options {
	opts := logging.DefaultOptions()
	opts.Level = c.LogLevel
	if c.Verbose {
		opts.Level = "debug"
	}
	if c.Log.Format != "" {
		opts.Format = c.Log.Format
	}
	opts.File = c.Log.File
	if c.Log.MaxSizeMB > 0 {
		opts.MaxSizeMB = c.Log.MaxSizeMB
	}
	if c.Log.MaxBackups > 0 {
		opts.MaxBackups = c.Log.MaxBackups
	}
	if c.Log.MaxAgeDays > 0 {
		opts.MaxAgeDays = c.Log.MaxAgeDays
	}
	opts.Compress = c.Log.Compress
	return opts
}

var byteUnits = []struct {
	suffix string
	factor float64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseByteSize parses sizes such as "512MB" or "1.5GB". Empty and "auto"
// mean no limit and yield 0.
func ParseByteSize(s string) (uint64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "AUTO" {
		return 0, nil
	}
	for _, u := range byteUnits {
		num, ok := strings.CutSuffix(s, u.suffix)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in size %q", s)
		}
		if v < 0 {
			return 0, fmt.Errorf("size must not be negative: %q", s)
		}
		return uint64(v * u.factor), nil
	}
	return 0, errors.New("size must end with one of: B, KB, MB, GB")
}

// validateMemoryLimit validates size strings such as "1GB" or "512MB".
func validateMemoryLimit(limit string) error {
	_, err := ParseByteSize(limit)
	return err
}
