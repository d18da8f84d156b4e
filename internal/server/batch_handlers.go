package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
	"github.com/disintegration/imaging"
)

// BatchScanRequest is the JSON body of /v1/batch.
type BatchScanRequest struct {
	Images []BatchImageRequest `json:"images"`
	// Include the rectified pages as base64 PNG in the response.
	IncludeImages bool `json:"include_images,omitempty"`
}

// BatchImageRequest represents a single image in a batch request.
type BatchImageRequest struct {
	Name string `json:"name"`
	Data []byte `json:"data"` // base64 in JSON
}

// BatchScanResponse represents the response for batch processing.
type BatchScanResponse struct {
	Success bool                   `json:"success"`
	Results []BatchScanResult      `json:"results,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Summary BatchProcessingSummary `json:"summary"`
}

// BatchScanResult represents a single result in batch processing.
type BatchScanResult struct {
	Name     string               `json:"name"`
	Success  bool                 `json:"success"`
	Report   *pipeline.ScanReport `json:"report,omitempty"`
	Image    string               `json:"image,omitempty"` // base64 PNG
	Error    string               `json:"error,omitempty"`
	Duration float64              `json:"duration_seconds"`
}

// BatchProcessingSummary provides summary statistics for batch processing.
type BatchProcessingSummary struct {
	TotalItems    int     `json:"total_items"`
	Found         int     `json:"found"`
	NotFound      int     `json:"not_found"`
	Failed        int     `json:"failed"`
	TotalDuration float64 `json:"total_duration_seconds"`
	AvgItemTime   float64 `json:"avg_item_time_seconds"`
}

// batchHandler scans several base64 encoded images in one request.
func (s *Server) batchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	var req BatchScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, "Request too large", http.StatusRequestEntityTooLarge)
			return
		}
		s.writeErrorResponse(w, fmt.Sprintf("Failed to parse JSON request: %v", err), http.StatusBadRequest)
		return
	}

	if len(req.Images) == 0 {
		s.writeErrorResponse(w, "No images provided in batch request", http.StatusBadRequest)
		return
	}
	if len(req.Images) > s.maxBatchItems {
		s.writeErrorResponse(w, fmt.Sprintf("Batch size too large (maximum %d items)", s.maxBatchItems),
			http.StatusBadRequest)
		return
	}
	if s.pipeline == nil {
		s.writeErrorResponse(w, "Scan pipeline not initialized", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	start := time.Now()
	results, summary := s.processBatchRequest(ctx, req)
	totalDuration := time.Since(start)

	summary.TotalDuration = totalDuration.Seconds()
	if summary.TotalItems > 0 {
		summary.AvgItemTime = summary.TotalDuration / float64(summary.TotalItems)
	}
	scanProcessingDuration.WithLabelValues("batch").Observe(totalDuration.Seconds())

	writeJSON(w, BatchScanResponse{
		Success: summary.Failed == 0,
		Results: results,
		Summary: summary,
	})
}

// processBatchRequest scans every item on the worker pool. Results keep the
// request order.
func (s *Server) processBatchRequest(ctx context.Context, req BatchScanRequest) ([]BatchScanResult, BatchProcessingSummary) {
	results := make([]BatchScanResult, len(req.Images))
	summary := BatchProcessingSummary{TotalItems: len(req.Images)}

	errs, _ := pipeline.ForEach(ctx, len(req.Images), pipeline.DefaultParallelConfig(),
		func(ctx context.Context, i int) error {
			start := time.Now()
			results[i] = s.processBatchImage(ctx, req.Images[i], req.IncludeImages)
			results[i].Duration = time.Since(start).Seconds()
			if results[i].Error != "" {
				return errors.New(results[i].Error)
			}
			return nil
		})

	for i := range results {
		switch {
		case errs[i] != nil:
			results[i].Name = req.Images[i].Name
			results[i].Error = errs[i].Error()
			summary.Failed++
		case results[i].Success:
			summary.Found++
		default:
			summary.NotFound++
		}
	}
	return results, summary
}

// processBatchImage decodes and scans one item. A missing document is a
// completed item with Success false and no error.
func (s *Server) processBatchImage(ctx context.Context, item BatchImageRequest, includeImage bool) BatchScanResult {
	start := time.Now()
	result := BatchScanResult{Name: item.Name}

	if len(item.Data) == 0 {
		result.Error = "no image data provided"
		return result
	}
	img, err := utils.DecodeImage(bytes.NewReader(item.Data))
	if err != nil {
		result.Error = fmt.Sprintf("failed to decode image: %v", err)
		return result
	}

	res, err := s.pipeline.Scan(ctx, img)
	observeScan("batch", res, err, time.Since(start))
	if res != nil {
		rep := res.Report(item.Name)
		result.Report = &rep
	}
	switch {
	case errors.Is(err, docerr.ErrNoDocument):
		return result
	case err != nil:
		result.Error = err.Error()
		return result
	}

	result.Success = true
	if includeImage && res.Document != nil {
		var buf bytes.Buffer
		if err := utils.EncodeImage(&buf, res.Document, imaging.PNG, 0); err == nil {
			result.Image = base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	return result
}
