//nolint:lll
package config

// Config represents the complete configuration of docscan. It covers every
// command (detect, scan, batch, serve) and is loaded from configuration
// files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string    `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool      `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	Log      LogConfig `mapstructure:"log" yaml:"log" json:"log"`

	// Boundary detection
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`

	// Perspective correction and enhancement
	Rectify RectifyConfig `mapstructure:"rectify" yaml:"rectify" json:"rectify"`

	// Worker pool shared by batch and multi-image scans
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// LogConfig selects the log format and an optional rotating file.
type LogConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress" json:"compress"`
}

// DetectorConfig contains boundary detection settings.
type DetectorConfig struct {
	ClaheClipLimit        float64 `mapstructure:"clahe_clip_limit" yaml:"clahe_clip_limit" json:"clahe_clip_limit"`
	ClaheTileGrid         int     `mapstructure:"clahe_tile_grid" yaml:"clahe_tile_grid" json:"clahe_tile_grid"`
	BlurKernelSize        int     `mapstructure:"blur_kernel_size" yaml:"blur_kernel_size" json:"blur_kernel_size"`
	CannyLowerRatio       float64 `mapstructure:"canny_lower_ratio" yaml:"canny_lower_ratio" json:"canny_lower_ratio"`
	CannyUpperRatio       float64 `mapstructure:"canny_upper_ratio" yaml:"canny_upper_ratio" json:"canny_upper_ratio"`
	DilateKernelSize      int     `mapstructure:"dilate_kernel_size" yaml:"dilate_kernel_size" json:"dilate_kernel_size"`
	DilateIterations      int     `mapstructure:"dilate_iterations" yaml:"dilate_iterations" json:"dilate_iterations"`
	MinAreaFraction       float64 `mapstructure:"min_area_fraction" yaml:"min_area_fraction" json:"min_area_fraction"`
	ApproxEpsilonFraction float64 `mapstructure:"approx_epsilon_fraction" yaml:"approx_epsilon_fraction" json:"approx_epsilon_fraction"`
	DebugDir              string  `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// RectifyConfig contains warp and enhancement settings.
type RectifyConfig struct {
	Enhance               bool    `mapstructure:"enhance" yaml:"enhance" json:"enhance"`
	ClaheClipLimit        float64 `mapstructure:"clahe_clip_limit" yaml:"clahe_clip_limit" json:"clahe_clip_limit"`
	ClaheTileGrid         int     `mapstructure:"clahe_tile_grid" yaml:"clahe_tile_grid" json:"clahe_tile_grid"`
	BlurKernelSize        int     `mapstructure:"blur_kernel_size" yaml:"blur_kernel_size" json:"blur_kernel_size"`
	ThresholdBlockSize    int     `mapstructure:"threshold_block_size" yaml:"threshold_block_size" json:"threshold_block_size"`
	ThresholdC            float64 `mapstructure:"threshold_c" yaml:"threshold_c" json:"threshold_c"`
	SharpenCenter         float64 `mapstructure:"sharpen_center" yaml:"sharpen_center" json:"sharpen_center"`
	SharpenNeighbor       float64 `mapstructure:"sharpen_neighbor" yaml:"sharpen_neighbor" json:"sharpen_neighbor"`
	DenoiseH              float64 `mapstructure:"denoise_h" yaml:"denoise_h" json:"denoise_h"`
	DenoiseHColor         float64 `mapstructure:"denoise_h_color" yaml:"denoise_h_color" json:"denoise_h_color"`
	DenoiseTemplateWindow int     `mapstructure:"denoise_template_window" yaml:"denoise_template_window" json:"denoise_template_window"`
	DenoiseSearchWindow   int     `mapstructure:"denoise_search_window" yaml:"denoise_search_window" json:"denoise_search_window"`
	DebugDir              string  `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// PipelineConfig contains worker pool settings.
type PipelineConfig struct {
	Workers     int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"` // e.g. "512MB", "auto"
}

// OutputConfig contains output naming and formatting settings.
type OutputConfig struct {
	Format          string `mapstructure:"format" yaml:"format" json:"format"`                   // report format: text, json, yaml, csv
	ImageFormat     string `mapstructure:"image_format" yaml:"image_format" json:"image_format"` // jpeg or png
	Dir             string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Quality         int    `mapstructure:"quality" yaml:"quality" json:"quality"`
	OverlayDir      string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
	PDF             string `mapstructure:"pdf" yaml:"pdf" json:"pdf"`
	TimestampFormat string `mapstructure:"timestamp_format" yaml:"timestamp_format" json:"timestamp_format"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int             `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	DefaultFormat   string          `mapstructure:"default_format" yaml:"default_format" json:"default_format"`
	JPEGQuality     int             `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
	MaxBatchItems   int             `mapstructure:"max_batch_items" yaml:"max_batch_items" json:"max_batch_items"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client request limits and daily quotas.
type RateLimitConfig struct {
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int    `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int    `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDay     string `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"` // e.g. "100MB"
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include         []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude         []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	ShowProgress    bool     `mapstructure:"show_progress" yaml:"show_progress" json:"show_progress"`
}
