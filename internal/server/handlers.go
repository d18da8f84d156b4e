package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
	"github.com/AinsleeWang/smart-doc-scan/internal/version"
)

const (
	formatPNG  = "png"
	formatJPEG = "jpeg"
	formatPDF  = "pdf"
	formatJSON = "json"
)

func secondsDuration(sec int) time.Duration { return time.Duration(sec) * time.Second }

// normalizeFormat maps user supplied output names onto the supported set.
// It returns "" for anything unknown.
func normalizeFormat(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return formatPNG
	case "jpg", "jpeg":
		return formatJPEG
	case "pdf":
		return formatPDF
	case "json":
		return formatJSON
	}
	return ""
}

// requestedFormat reads the format from the form or query, falling back to
// the server default.
func (s *Server) requestedFormat(r *http.Request) (string, bool) {
	raw := r.FormValue("format")
	if raw == "" {
		raw = r.URL.Query().Get("format")
	}
	if raw == "" {
		return s.defaultFormat, true
	}
	f := normalizeFormat(raw)
	return f, f != ""
}

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode health response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ScanResponse{Success: false, Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to write error response", "error", err)
	}
}

// writeScanError reports a pipeline failure with the status its kind maps to.
// A missing document still carries the detection report.
func (s *Server) writeScanError(w http.ResponseWriter, err error, res *pipeline.ScanResult, file string) {
	status := docerr.StatusCode(err)
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	response := ScanResponse{
		Success: false,
		Error:   err.Error(),
		Kind:    string(docerr.KindOf(err)),
	}
	if res != nil {
		rep := res.Report(file)
		response.Result = &rep
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
		slog.Error("Failed to write scan error response", "error", encErr)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
