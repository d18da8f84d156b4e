package detector

import (
	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
)

// Config holds the tunables of the boundary detection pipeline.
type Config struct {
	ClaheClipLimit        float64 // contrast limit per CLAHE tile
	ClaheTileGrid         int     // CLAHE tiles per axis
	BlurKernelSize        int     // odd Gaussian kernel size
	CannyLowerRatio       float64 // lower hysteresis threshold as a fraction of the median
	CannyUpperRatio       float64 // upper hysteresis threshold as a fraction of the median
	DilateKernelSize      int     // square structuring element size
	DilateIterations      int
	MinAreaFraction       float64 // smallest accepted contour area relative to the image
	ApproxEpsilonFraction float64 // Douglas-Peucker tolerance relative to the perimeter
	// Debug dumping
	DebugDir string // if non-empty, writes a contour overlay PNG per call
}

// DefaultConfig returns the tuned defaults of the detector.
func DefaultConfig() Config {
	return Config{
		ClaheClipLimit:        2.0,
		ClaheTileGrid:         8,
		BlurKernelSize:        5,
		CannyLowerRatio:       0.67,
		CannyUpperRatio:       1.33,
		DilateKernelSize:      5,
		DilateIterations:      2,
		MinAreaFraction:       0.01,
		ApproxEpsilonFraction: 0.02,
	}
}

// Validate reports configuration values the pipeline cannot run with.
func (c Config) Validate() error {
	const op = "detector.Config.Validate"
	switch {
	case c.ClaheClipLimit <= 0:
		return docerr.InvalidInput(op, "clahe clip limit must be positive, got %v", c.ClaheClipLimit)
	case c.ClaheTileGrid < 1:
		return docerr.InvalidInput(op, "clahe tile grid must be at least 1, got %d", c.ClaheTileGrid)
	case c.BlurKernelSize < 1 || c.BlurKernelSize%2 == 0:
		return docerr.InvalidInput(op, "blur kernel size must be odd and positive, got %d", c.BlurKernelSize)
	case c.CannyLowerRatio < 0 || c.CannyUpperRatio < 0:
		return docerr.InvalidInput(op, "canny ratios must be non-negative")
	case c.DilateKernelSize < 1:
		return docerr.InvalidInput(op, "dilate kernel size must be positive, got %d", c.DilateKernelSize)
	case c.DilateIterations < 0:
		return docerr.InvalidInput(op, "dilate iterations must be non-negative, got %d", c.DilateIterations)
	case c.MinAreaFraction < 0 || c.MinAreaFraction > 1:
		return docerr.InvalidInput(op, "min area fraction must be within [0,1], got %v", c.MinAreaFraction)
	case c.ApproxEpsilonFraction <= 0:
		return docerr.InvalidInput(op, "approximation epsilon must be positive, got %v", c.ApproxEpsilonFraction)
	}
	return nil
}
