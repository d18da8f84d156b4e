package server

import (
	"context"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
)

// scanner is the part of the pipeline the handlers depend on.
type scanner interface {
	Detect(ctx context.Context, img image.Image) (*pipeline.ScanResult, error)
	Scan(ctx context.Context, img image.Image) (*pipeline.ScanResult, error)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline      scanner
	corsOrigin    string
	maxUploadMB   int64
	timeoutSec    int
	defaultFormat string
	jpegQuality   int
	maxBatchItems int
	rateLimiter   *RateLimiter
}

// RateLimitConfig holds per-client limits. Zero disables a single limit.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64 // bytes
}

// Config holds server configuration.
type Config struct {
	Host               string
	Port               int
	CORSOrigin         string
	MaxUploadMB        int64
	TimeoutSec         int
	ShutdownTimeoutSec int
	DefaultFormat      string // png, jpeg, pdf or json for /v1/scan
	JPEGQuality        int
	MaxBatchItems      int
	Pipeline           pipeline.Config
	RateLimit          RateLimitConfig
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Host:               "localhost",
		Port:               8080,
		CORSOrigin:         "*",
		MaxUploadMB:        50,
		TimeoutSec:         30,
		ShutdownTimeoutSec: 10,
		DefaultFormat:      formatPNG,
		JPEGQuality:        90,
		MaxBatchItems:      10,
		Pipeline:           pipeline.DefaultConfig(),
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			RequestsPerHour:   1000,
			MaxRequestsPerDay: 5000,
			MaxDataPerDay:     100 * 1024 * 1024,
		},
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ScanResponse wraps one scan report for JSON responses.
type ScanResponse struct {
	Success bool                 `json:"success"`
	Result  *pipeline.ScanReport `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
	Kind    string               `json:"kind,omitempty"`
}

// NewServer builds the pipeline from config and returns a ready server.
func NewServer(config Config) (*Server, error) {
	pl, err := pipeline.NewBuilder().WithConfig(config.Pipeline).Build()
	if err != nil {
		return nil, err
	}
	return newServer(pl, config), nil
}

func newServer(p scanner, config Config) *Server {
	s := &Server{
		pipeline:      p,
		corsOrigin:    config.CORSOrigin,
		maxUploadMB:   config.MaxUploadMB,
		timeoutSec:    config.TimeoutSec,
		defaultFormat: config.DefaultFormat,
		jpegQuality:   config.JPEGQuality,
		maxBatchItems: config.MaxBatchItems,
	}
	if s.maxUploadMB <= 0 {
		s.maxUploadMB = 50
	}
	if s.defaultFormat == "" {
		s.defaultFormat = formatPNG
	}
	if s.jpegQuality <= 0 {
		s.jpegQuality = 90
	}
	if s.maxBatchItems <= 0 {
		s.maxBatchItems = 10
	}
	if rl := config.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxDataPerDay)
	}
	return s
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/v1/detect", s.corsMiddleware(s.rateLimitMiddleware(s.detectHandler)))
	mux.HandleFunc("/v1/scan", s.corsMiddleware(s.rateLimitMiddleware(s.scanHandler)))
	mux.HandleFunc("/v1/scan/pdf", s.corsMiddleware(s.rateLimitMiddleware(s.scanPDFHandler)))
	mux.HandleFunc("/v1/batch", s.corsMiddleware(s.rateLimitMiddleware(s.batchHandler)))
	mux.HandleFunc("/v1/ws/scan", s.rateLimitMiddleware(s.scanWebSocketHandler))
	mux.Handle("/metrics", metricsHandler())
}

// Handler returns a mux with every route installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

// requestContext bounds a handler's work by the configured timeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeoutSec <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), secondsDuration(s.timeoutSec))
}

// RunMaintenance drops idle rate limiter clients every interval until ctx is
// done. It returns at once when rate limiting is off.
func (s *Server) RunMaintenance(ctx context.Context, interval time.Duration) {
	if s.rateLimiter == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.rateLimiter.Cleanup(24 * time.Hour); n > 0 {
				slog.Debug("Dropped idle rate limit clients", "count", n)
			}
		}
	}
}
