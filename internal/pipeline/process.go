package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/rectify"
)

// Timings records how long each stage of one scan took.
type Timings struct {
	DetectionNs int64 `json:"detection_ns"`
	RectifyNs   int64 `json:"rectify_ns"`
	TotalNs     int64 `json:"total_ns"`
}

// ScanResult is the per-image output of the pipeline.
type ScanResult struct {
	Detection detector.Result
	// Document is the final page: enhanced, or the plain warp when
	// enhancement is disabled. Nil when no document was found.
	Document *image.NRGBA
	Warped   *image.NRGBA
	// Corners holds the detected corners in tl, tr, br, bl order.
	Corners rectify.Quad
	Timings Timings
}

// Found reports whether a document was located.
func (r *ScanResult) Found() bool { return r != nil && r.Detection.Found() }

// Detect runs only the boundary detector.
func (p *Pipeline) Detect(ctx context.Context, img image.Image) (*ScanResult, error) {
	if p == nil || p.Detector == nil {
		return nil, docerr.InvalidInput("pipeline.Detect", "pipeline not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	det, err := p.Detector.Detect(img)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start).Nanoseconds()
	p.profiler.Record(elapsed, 0, det.Found())
	return &ScanResult{
		Detection: det,
		Timings:   Timings{DetectionNs: elapsed, TotalNs: elapsed},
	}, nil
}

// Scan detects the document in img and rectifies it.
//
// When no document is found the returned error matches docerr.ErrNoDocument
// and the result still carries the NotFound detection.
func (p *Pipeline) Scan(ctx context.Context, img image.Image) (*ScanResult, error) {
	if p == nil || p.Detector == nil || p.Rectifier == nil {
		return nil, docerr.InvalidInput("pipeline.Scan", "pipeline not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	total := time.Now()

	start := time.Now()
	det, err := p.Detector.Detect(img)
	if err != nil {
		return nil, err
	}
	res := &ScanResult{Detection: det}
	res.Timings.DetectionNs = time.Since(start).Nanoseconds()

	if !det.Found() {
		res.Timings.TotalNs = time.Since(total).Nanoseconds()
		p.profiler.Record(res.Timings.DetectionNs, 0, false)
		slog.Debug("No document found", "contours", det.ContourCount, "width", det.ImageWidth, "height", det.ImageHeight)
		return res, docerr.NoDocument("pipeline.Scan")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	rx, err := p.Rectifier.Rectify(img, det.Quad())
	if err != nil {
		p.profiler.Record(res.Timings.DetectionNs, time.Since(start).Nanoseconds(), true)
		return res, err
	}
	res.Timings.RectifyNs = time.Since(start).Nanoseconds()
	res.Timings.TotalNs = time.Since(total).Nanoseconds()
	res.Document = rx.Image
	res.Warped = rx.Warped
	res.Corners = rx.Corners
	p.profiler.Record(res.Timings.DetectionNs, res.Timings.RectifyNs, true)

	slog.Debug("Document scanned",
		"source", det.Source.String(),
		"width", rx.Width,
		"height", rx.Height,
		"detection", time.Duration(res.Timings.DetectionNs),
		"rectify", time.Duration(res.Timings.RectifyNs))
	return res, nil
}

// ScanImages scans images sequentially. The first error aborts the run; a
// missing document is recorded in its result, not treated as an error.
func (p *Pipeline) ScanImages(ctx context.Context, images []image.Image) ([]*ScanResult, error) {
	out := make([]*ScanResult, len(images))
	for i, img := range images {
		res, err := p.Scan(ctx, img)
		if err != nil && !errors.Is(err, docerr.ErrNoDocument) {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}
