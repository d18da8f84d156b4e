// Package detector locates the four corners of a document in a photograph
// using classical edge and contour analysis.
package detector

import (
	"image"
	"log/slog"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/imgproc"
)

// Detector runs the boundary detection pipeline. It holds no state between
// calls and is safe for concurrent use.
type Detector struct {
	cfg Config
}

// Analysis exposes every intermediate raster of one detection run.
type Analysis struct {
	Gray      *image.Gray
	Equalized *image.Gray
	Blurred   *image.Gray
	Edges     *image.Gray
	Dilated   *image.Gray
	Median    float64
	Contours  [][]image.Point // relative to the image origin
	Result    Result
}

// New creates a detector after validating cfg.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("Initializing detector",
		"clahe_clip", cfg.ClaheClipLimit,
		"clahe_grid", cfg.ClaheTileGrid,
		"blur_kernel", cfg.BlurKernelSize,
		"min_area_fraction", cfg.MinAreaFraction)
	return &Detector{cfg: cfg}, nil
}

// Config returns the configuration the detector was built with.
func (d *Detector) Config() Config { return d.cfg }

// Detect finds the document quadrilateral in img. A missing document is a
// NotFound result, not an error. Corners are in img's coordinate space.
func (d *Detector) Detect(img image.Image) (Result, error) {
	a, err := d.Analyze(img)
	if err != nil {
		return Result{}, err
	}
	return a.Result, nil
}

// Analyze runs the pipeline and keeps every intermediate stage.
func (d *Detector) Analyze(img image.Image) (*Analysis, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	start := time.Now()
	cfg := d.cfg
	a := &Analysis{}

	a.Gray = imgproc.ToGray(img)
	a.Equalized = imgproc.CLAHE(a.Gray, cfg.ClaheTileGrid, cfg.ClaheTileGrid, cfg.ClaheClipLimit)
	a.Blurred = imgproc.GaussianBlur(a.Equalized, cfg.BlurKernelSize)
	a.Median = imgproc.Median(a.Blurred)
	lower, upper := cannyThresholds(a.Median, cfg)
	a.Edges = imgproc.Canny(a.Blurred, lower, upper)
	a.Dilated = imgproc.Dilate(a.Edges, cfg.DilateKernelSize, cfg.DilateIterations)
	a.Contours = externalContours(a.Dilated)

	w, h := a.Gray.Rect.Dx(), a.Gray.Rect.Dy()
	res := selectDocument(a.Contours, w, h, cfg)
	res.LowerThreshold, res.UpperThreshold = lower, upper
	if res.Found() {
		off := img.Bounds().Min
		for i := range res.Corners {
			res.Corners[i] = res.Corners[i].Add(off)
		}
	}
	a.Result = res

	if cfg.DebugDir != "" {
		if err := dumpContoursPNG(cfg.DebugDir, img, a.Contours); err != nil {
			slog.Warn("Failed to write contour overlay", "dir", cfg.DebugDir, "error", err)
		}
	}

	slog.Debug("Boundary detection finished",
		"status", res.Status,
		"source", res.Source,
		"contours", len(a.Contours),
		"median", a.Median,
		"canny_lower", lower,
		"canny_upper", upper,
		"area_ratio", res.AreaRatio(),
		"duration", time.Since(start))
	return a, nil
}

func validateImage(img image.Image) error {
	const op = "detector.Detect"
	if img == nil {
		return docerr.InvalidInput(op, "nil image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return docerr.InvalidInput(op, "empty image %dx%d", b.Dx(), b.Dy())
	}
	return nil
}
