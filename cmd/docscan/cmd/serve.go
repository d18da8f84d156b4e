package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AinsleeWang/smart-doc-scan/internal/server"
)

// maintenanceInterval is how often idle rate-limit clients are dropped.
const maintenanceInterval = 10 * time.Minute

func newServeCommand(a *app) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP scanning API",
		Long: `Start an HTTP server that exposes the scanner.

Endpoints:
  GET  /health       health check
  POST /v1/detect    multipart "image", JSON corners
  POST /v1/scan      multipart "image", PNG, JPEG, PDF or JSON per "format"
  POST /v1/scan/pdf  multipart "pdf", every page scanned
  POST /v1/batch     JSON list of base64 images
  GET  /v1/ws/scan   websocket streaming scan
  GET  /metrics      Prometheus metrics

Examples:
  docscan serve
  docscan serve --host 0.0.0.0 --port 3000
  docscan serve --rate-limit-enabled --requests-per-minute 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.ToServerConfig()
			srv, err := server.NewServer(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}
			return runServer(cmd.Context(), srv, cfg)
		},
	}

	fs := serveCmd.Flags()
	fs.StringP("host", "H", "localhost", "server host")
	fs.IntP("port", "p", 8080, "server port")
	fs.String("cors-origin", "*", "CORS allowed origins")
	fs.Int("max-upload-size", 50, "maximum upload size in MB")
	fs.Int("timeout", 30, "request timeout in seconds")
	fs.Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	fs.String("default-format", "png", "response format of /v1/scan: png, jpeg, pdf or json")
	fs.Bool("rate-limit-enabled", false, "enable per-client rate limiting")
	fs.Int("requests-per-minute", 60, "maximum requests per minute per client")
	fs.Int("requests-per-hour", 1000, "maximum requests per hour per client")
	fs.Int("max-requests-per-day", 5000, "maximum requests per day per client")
	fs.String("max-data-per-day", "100MB", "maximum upload volume per day per client")
	bindFlag(fs, "host", "server.host")
	bindFlag(fs, "port", "server.port")
	bindFlag(fs, "cors-origin", "server.cors_origin")
	bindFlag(fs, "max-upload-size", "server.max_upload_mb")
	bindFlag(fs, "timeout", "server.timeout_sec")
	bindFlag(fs, "shutdown-timeout", "server.shutdown_timeout")
	bindFlag(fs, "default-format", "server.default_format")
	bindFlag(fs, "rate-limit-enabled", "server.rate_limit.enabled")
	bindFlag(fs, "requests-per-minute", "server.rate_limit.requests_per_minute")
	bindFlag(fs, "requests-per-hour", "server.rate_limit.requests_per_hour")
	bindFlag(fs, "max-requests-per-day", "server.rate_limit.max_requests_per_day")
	bindFlag(fs, "max-data-per-day", "server.rate_limit.max_data_per_day")
	return serveCmd
}

// runServer serves until ctx is cancelled, then drains in-flight requests
// for at most the configured shutdown timeout.
func runServer(ctx context.Context, srv *server.Server, cfg server.Config) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		// Websocket sessions and PDF batches outlive single requests.
		WriteTimeout: 2 * timeout,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go srv.RunMaintenance(ctx, maintenanceInterval)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting scan server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Shutdown requested", "reason", context.Cause(ctx))
	}

	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	slog.Info("Graceful shutdown completed")
	return nil
}
