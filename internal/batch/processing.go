package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/pdf"
	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

// input is one raster to scan: an image file, or a page image taken from a PDF.
type input struct {
	label string // shown in reports
	name  string // base for output names
	img   image.Image
	path  string // loaded lazily when img is nil
}

// expandInputs turns discovered files into scan inputs. Image files are
// loaded later by the worker that scans them; PDFs are opened here so their
// pages can be spread over the workers.
func expandInputs(files []string, pageRange string) ([]input, error) {
	inputs := make([]input, 0, len(files))
	for _, f := range files {
		if !isPDF(f) {
			inputs = append(inputs, input{label: f, name: f, path: f})
			continue
		}
		pages, err := pdf.ExtractImages(f, pageRange)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if len(pages) == 0 {
			slog.Warn("PDF contains no page images", "file", f)
		}
		stem := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		for _, p := range pages {
			inputs = append(inputs, input{
				label: fmt.Sprintf("%s#page-%d-%d", f, p.Page, p.Index),
				name:  fmt.Sprintf("%s_p%d_%d", stem, p.Page, p.Index),
				img:   p.Image,
			})
		}
	}
	return inputs, nil
}

// loadAndValidateImage loads an image and validates it meets constraints.
func loadAndValidateImage(path string) (image.Image, error) {
	if !utils.IsSupportedImage(path) {
		return nil, docerr.InvalidInput("batch.load", "unsupported image format: %s", path)
	}

	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if err := utils.ValidateImageConstraints(img, utils.DefaultImageConstraints()); err != nil {
		return nil, docerr.InvalidInput("batch.load", "%s: %v", path, err)
	}
	return img, nil
}

// processor scans inputs into per-index slots, so workers never share state.
type processor struct {
	pl      *pipeline.Pipeline
	cfg     *Config
	inputs  []input
	results []*pipeline.ScanResult
	reports []pipeline.ScanReport
}

func newProcessor(pl *pipeline.Pipeline, cfg *Config, inputs []input) *processor {
	return &processor{
		pl:      pl,
		cfg:     cfg,
		inputs:  inputs,
		results: make([]*pipeline.ScanResult, len(inputs)),
		reports: make([]pipeline.ScanReport, len(inputs)),
	}
}

// process handles inputs[i]. A page without a document is a result, not a
// failure.
func (p *processor) process(ctx context.Context, i int) error {
	in := p.inputs[i]
	err := p.processSingleImage(ctx, i, in)
	if err != nil {
		p.reports[i] = pipeline.ScanReport{File: in.label, Error: err.Error()}
		return fmt.Errorf("%s: %w", in.label, err)
	}
	return nil
}

// processSingleImage runs detection, and unless DetectOnly is set the
// rectifier, then writes the requested artefacts.
func (p *processor) processSingleImage(ctx context.Context, i int, in input) error {
	img := in.img
	if img == nil {
		var err error
		if img, err = loadAndValidateImage(in.path); err != nil {
			return err
		}
	}

	var res *pipeline.ScanResult
	var err error
	if p.cfg.DetectOnly {
		res, err = p.pl.Detect(ctx, img)
	} else {
		res, err = p.pl.Scan(ctx, img)
	}
	if err != nil && !errors.Is(err, docerr.ErrNoDocument) {
		return err
	}

	rep := res.Report(in.label)
	if p.cfg.OverlayDir != "" {
		if err := generateAndSaveOverlay(img, res.Detection, p.cfg.OverlayDir, in.name); err != nil {
			return err
		}
	}
	if res.Document != nil && p.cfg.OutputDir != "" {
		out, err := writeDocument(p.cfg.OutputDir, in.name, res.Document, p.cfg)
		if err != nil {
			return err
		}
		rep.Output = out
		slog.Debug("Wrote rectified document", "input", in.label, "output", out)
	}

	// Pages are kept for the PDF bundle only.
	if p.cfg.PDFPath == "" {
		res.Document = nil
	}
	res.Warped = nil
	p.results[i] = res
	p.reports[i] = rep
	return nil
}

// generateAndSaveOverlay draws the detection onto img and saves it as PNG.
func generateAndSaveOverlay(img image.Image, det detector.Result, dir, name string) error {
	ov := detector.DrawDetection(img, det)
	if err := utils.SaveImage(overlayPath(dir, name), ov, 0); err != nil {
		return fmt.Errorf("save overlay: %w", err)
	}
	return nil
}

// documents returns the rectified pages in input order.
func (p *processor) documents() []image.Image {
	var docs []image.Image
	for _, r := range p.results {
		if r != nil && r.Document != nil {
			docs = append(docs, r.Document)
		}
	}
	return docs
}
