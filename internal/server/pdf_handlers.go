package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/pdf"
	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
)

// PageReport is the scan outcome of one raster extracted from a PDF.
type PageReport struct {
	Page   int                 `json:"page"`
	Index  int                 `json:"index"`
	Report pipeline.ScanReport `json:"report"`
}

// PDFScanResponse is the JSON body of /v1/scan/pdf.
type PDFScanResponse struct {
	Success bool         `json:"success"`
	Pages   []PageReport `json:"pages"`
	Found   int          `json:"found"`
	Error   string       `json:"error,omitempty"`
}

// scanPDFHandler rectifies every page image of an uploaded PDF and answers
// with a new PDF of the rectified pages, or with per-page reports for
// format=json. Pages without a document are left out of the output PDF.
func (s *Server) scanPDFHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path, pageRange, err := s.parsePDFRequest(w, r)
	if err != nil {
		scanRequestsTotal.WithLabelValues("pdf", outcomeError).Inc()
		return
	}
	defer func() { _ = os.Remove(path) }()

	format := normalizeFormat(r.FormValue("format"))
	if format == "" {
		format = formatPDF
	}
	if format != formatPDF && format != formatJSON {
		s.writeErrorResponse(w, "Unsupported format (use pdf or json)", http.StatusBadRequest)
		return
	}
	if s.pipeline == nil {
		s.writeErrorResponse(w, "Scan pipeline not initialized", http.StatusServiceUnavailable)
		return
	}

	pages, err := pdf.ExtractImages(path, pageRange)
	if err != nil {
		scanRequestsTotal.WithLabelValues("pdf", outcomeError).Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Failed to read PDF: %v", err), http.StatusBadRequest)
		return
	}
	if len(pages) == 0 {
		s.writeErrorResponse(w, "PDF contains no page images", http.StatusUnprocessableEntity)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	start := time.Now()
	results := make([]*pipeline.ScanResult, len(pages))
	errs, err := pipeline.ForEach(ctx, len(pages), pipeline.DefaultParallelConfig(),
		func(ctx context.Context, i int) error {
			res, err := s.pipeline.Scan(ctx, pages[i].Image)
			results[i] = res
			if errors.Is(err, docerr.ErrNoDocument) {
				return nil
			}
			return err
		})
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusGatewayTimeout)
		return
	}

	response := PDFScanResponse{Pages: make([]PageReport, len(pages))}
	var documents []image.Image
	for i, pi := range pages {
		rep := results[i].Report(fmt.Sprintf("page-%d-%d", pi.Page, pi.Index))
		if errs[i] != nil {
			rep.Error = errs[i].Error()
		}
		if results[i].Found() && results[i].Document != nil {
			documents = append(documents, results[i].Document)
			response.Found++
		}
		response.Pages[i] = PageReport{Page: pi.Page, Index: pi.Index, Report: rep}
	}
	response.Success = response.Found > 0
	if !response.Success {
		countScan("pdf", outcomeNotFound, time.Since(start))
		response.Error = docerr.ErrNoDocument.Error()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(w, response)
		return
	}
	countScan("pdf", outcomeFound, time.Since(start))

	if format == formatJSON {
		writeJSON(w, response)
		return
	}

	var buf bytes.Buffer
	if err := pdf.WriteDocument(&buf, documents...); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to assemble PDF: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Document-Pages", strconv.Itoa(len(documents)))
	_, _ = w.Write(buf.Bytes())
}

// parsePDFRequest stores the multipart "pdf" field in a temporary file, as the
// PDF reader works on paths. The caller removes the file.
func (s *Server) parsePDFRequest(w http.ResponseWriter, r *http.Request) (string, string, error) {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		s.handleFormParseError(w, err)
		return "", "", err
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		s.writeErrorResponse(w, "No PDF file provided", http.StatusBadRequest)
		return "", "", err
	}
	defer func() { _ = file.Close() }()

	if header.Size > limit {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return "", "", fmt.Errorf("upload of %d bytes exceeds limit", header.Size)
	}
	uploadSizeBytes.Observe(float64(header.Size))

	tmp, err := os.CreateTemp("", "docscan-upload-*.pdf")
	if err != nil {
		s.writeErrorResponse(w, "Failed to buffer upload", http.StatusInternalServerError)
		return "", "", err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		s.writeErrorResponse(w, "Failed to read PDF data", http.StatusInternalServerError)
		return "", "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		s.writeErrorResponse(w, "Failed to buffer upload", http.StatusInternalServerError)
		return "", "", err
	}
	return tmp.Name(), r.FormValue("pages"), nil
}
