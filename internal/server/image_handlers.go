package server

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

// detectHandler locates the document and answers with its corners, or with
// the annotated overlay when overlay=1.
func (s *Server) detectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, filename, err := s.parseImageRequest(w, r)
	if err != nil {
		scanRequestsTotal.WithLabelValues("detect", outcomeError).Inc()
		return // error already written
	}
	if s.pipeline == nil {
		s.writeErrorResponse(w, "Scan pipeline not initialized", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	start := time.Now()
	res, err := s.pipeline.Detect(ctx, img)
	observeScan("detect", res, err, time.Since(start))
	if err != nil {
		s.writeScanError(w, err, res, filename)
		return
	}

	if wantsOverlay(r) {
		s.writeImage(w, detector.DrawDetection(img, res.Detection), formatPNG)
		return
	}
	if !res.Found() {
		s.writeScanError(w, docerr.NoDocument("server.detect"), res, filename)
		return
	}

	rep := res.Report(filename)
	writeJSON(w, ScanResponse{Success: true, Result: &rep})
}

// scanHandler detects, rectifies and enhances the uploaded page. The body is
// the page as PNG, JPEG or a one-page PDF, or the report for format=json.
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, filename, err := s.parseImageRequest(w, r)
	if err != nil {
		scanRequestsTotal.WithLabelValues("scan", outcomeError).Inc()
		return
	}
	format, ok := s.requestedFormat(r)
	if !ok {
		s.writeErrorResponse(w, "Unsupported format (use png, jpeg, pdf or json)", http.StatusBadRequest)
		return
	}
	if s.pipeline == nil {
		s.writeErrorResponse(w, "Scan pipeline not initialized", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	start := time.Now()
	res, err := s.pipeline.Scan(ctx, img)
	observeScan("scan", res, err, time.Since(start))

	if wantsOverlay(r) && res != nil {
		s.writeImage(w, detector.DrawDetection(img, res.Detection), formatPNG)
		return
	}
	if err != nil {
		s.writeScanError(w, err, res, filename)
		return
	}

	setDocumentHeaders(w, res)
	if format == formatJSON {
		rep := res.Report(filename)
		writeJSON(w, ScanResponse{Success: true, Result: &rep})
		return
	}
	s.writeImage(w, res.Document, format)
}

// parseImageRequest reads and decodes the multipart "image" field. On error
// the response has already been written.
func (s *Server) parseImageRequest(w http.ResponseWriter, r *http.Request) (image.Image, string, error) {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		s.handleFormParseError(w, err)
		return nil, "", err
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return nil, "", err
	}
	defer func() { _ = file.Close() }()

	if header.Size > limit {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return nil, "", fmt.Errorf("upload of %d bytes exceeds limit", header.Size)
	}
	uploadSizeBytes.Observe(float64(header.Size))

	img, err := utils.DecodeImage(file)
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return nil, "", err
	}
	return img, header.Filename, nil
}

// handleFormParseError distinguishes oversized bodies from malformed forms.
func (s *Server) handleFormParseError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
}

func wantsOverlay(r *http.Request) bool {
	v := r.FormValue("overlay")
	if v == "" {
		v = r.URL.Query().Get("overlay")
	}
	on, _ := strconv.ParseBool(v)
	return on
}

// setDocumentHeaders exposes the output geometry next to binary bodies.
func setDocumentHeaders(w http.ResponseWriter, res *pipeline.ScanResult) {
	if res == nil || res.Document == nil {
		return
	}
	b := res.Document.Bounds()
	w.Header().Set("X-Document-Width", strconv.Itoa(b.Dx()))
	w.Header().Set("X-Document-Height", strconv.Itoa(b.Dy()))
	corners := make([]string, len(res.Corners))
	for i, p := range res.Corners {
		corners[i] = fmt.Sprintf("%d,%d", int(p.X), int(p.Y))
	}
	w.Header().Set("X-Document-Corners", strings.Join(corners, ";"))
}

// writeImage encodes img in format into the response.
func (s *Server) writeImage(w http.ResponseWriter, img image.Image, format string) {
	payload, err := s.encodeBinary(img, format)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("encoding %s failed: %v", format, err), http.StatusInternalServerError)
		return
	}
	contentType := "image/png"
	switch format {
	case formatJPEG:
		contentType = "image/jpeg"
	case formatPDF:
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	_, _ = w.Write(payload)
}

// observeScan records request outcome, latency and detected area.
func observeScan(kind string, res *pipeline.ScanResult, err error, d time.Duration) {
	outcome := outcomeFound
	switch {
	case errors.Is(err, docerr.ErrNoDocument), err == nil && !res.Found():
		outcome = outcomeNotFound
	case err != nil:
		outcome = outcomeError
	}
	countScan(kind, outcome, d)
	if res.Found() {
		documentAreaRatio.Observe(res.Detection.AreaRatio())
	}
}
