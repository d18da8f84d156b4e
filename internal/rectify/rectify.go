// Package rectify maps a detected document quadrilateral onto an upright
// rectangle and cleans the result up for reading.
package rectify

import (
	"image"
	"log/slog"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

// Rectifier performs perspective correction followed by optional enhancement.
// It is stateless between calls and safe for concurrent use.
type Rectifier struct {
	cfg Config
}

// Result carries the rectified page and the geometry used to produce it.
type Result struct {
	Image     *image.NRGBA // enhanced page, or the warp when enhancement is off
	Warped    *image.NRGBA
	Corners   Quad // ordered source corners in image coordinates
	Width     int
	Height    int
	Transform Homography // source to destination, relative to the image origin
}

// New creates a rectifier after validating cfg.
func New(cfg Config) (*Rectifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Rectifier{cfg: cfg}, nil
}

// Config returns the configuration the rectifier was built with.
func (r *Rectifier) Config() Config { return r.cfg }

// Rectify warps the region bounded by corners into a WxH raster and, when
// enabled, enhances it.
func (r *Rectifier) Rectify(img image.Image, corners []image.Point) (*Result, error) {
	res, err := r.Warp(img, corners)
	if err != nil {
		return nil, err
	}
	res.Image = res.Warped
	if r.cfg.Enhance {
		res.Image = r.Enhance(res.Warped)
	}
	return res, nil
}

// Warp performs only the perspective correction.
func (r *Rectifier) Warp(img image.Image, corners []image.Point) (*Result, error) {
	const op = "rectify.Warp"
	if img == nil {
		return nil, docerr.InvalidInput(op, "nil image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, docerr.InvalidInput(op, "empty image %dx%d", b.Dx(), b.Dy())
	}
	start := time.Now()

	q, err := OrderCorners(corners)
	if err != nil {
		return nil, err
	}
	w, h := TargetSize(q)
	if err := checkQuad(q, w, h); err != nil {
		return nil, err
	}

	local := q
	origin := utils.Pt(b.Min)
	for i := range local {
		local[i] = utils.Point{X: q[i].X - origin.X, Y: q[i].Y - origin.Y}
	}
	fwd, err := PerspectiveTransform(local, Destination(w, h))
	if err != nil {
		return nil, err
	}
	inv, err := fwd.Inverse()
	if err != nil {
		return nil, err
	}

	if r.cfg.DebugDir != "" {
		if err := dumpOverlayPNG(r.cfg.DebugDir, img, q[:]); err != nil {
			slog.Warn("Failed to write rectify overlay", "dir", r.cfg.DebugDir, "error", err)
		}
	}

	warped := warpPerspective(img, inv, w, h)

	if r.cfg.DebugDir != "" {
		if err := dumpComparePNG(r.cfg.DebugDir, img, q[:], warped); err != nil {
			slog.Warn("Failed to write rectify comparison", "dir", r.cfg.DebugDir, "error", err)
		}
	}

	slog.Debug("Perspective correction finished",
		"width", w, "height", h, "duration", time.Since(start))
	return &Result{Warped: warped, Corners: q, Width: w, Height: h, Transform: fwd}, nil
}
