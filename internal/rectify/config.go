package rectify

import (
	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
)

// Config holds configuration for perspective correction and enhancement.
type Config struct {
	Enhance               bool    // run the enhancement chain after warping
	ClaheClipLimit        float64 // contrast limit per CLAHE tile
	ClaheTileGrid         int     // CLAHE tiles per axis
	BlurKernelSize        int     // odd Gaussian kernel size
	ThresholdBlockSize    int     // odd neighbourhood of the adaptive threshold
	ThresholdC            float64 // constant subtracted from the weighted mean
	SharpenCenter         float64
	SharpenNeighbor       float64
	DenoiseH              float64 // luminance filter strength
	DenoiseHColor         float64 // chrominance filter strength
	DenoiseTemplateWindow int     // odd patch size
	DenoiseSearchWindow   int     // odd search area size
	// Debug dumping
	DebugDir string // if non-empty, writes overlay and comparison PNGs here
}

// DefaultConfig returns the tuned defaults for rectification.
func DefaultConfig() Config {
	return Config{
		Enhance:               true,
		ClaheClipLimit:        1.5,
		ClaheTileGrid:         16,
		BlurKernelSize:        3,
		ThresholdBlockSize:    21,
		ThresholdC:            10,
		SharpenCenter:         5,
		SharpenNeighbor:       -0.5,
		DenoiseH:              10,
		DenoiseHColor:         10,
		DenoiseTemplateWindow: 7,
		DenoiseSearchWindow:   21,
	}
}

// Validate reports configuration values the enhancement chain cannot run with.
func (c Config) Validate() error {
	const op = "rectify.Config.Validate"
	odd := func(v int) bool { return v > 0 && v%2 == 1 }
	switch {
	case c.ClaheClipLimit <= 0:
		return docerr.InvalidInput(op, "clahe clip limit must be positive, got %v", c.ClaheClipLimit)
	case c.ClaheTileGrid < 1:
		return docerr.InvalidInput(op, "clahe tile grid must be at least 1, got %d", c.ClaheTileGrid)
	case !odd(c.BlurKernelSize):
		return docerr.InvalidInput(op, "blur kernel size must be odd and positive, got %d", c.BlurKernelSize)
	case !odd(c.ThresholdBlockSize) || c.ThresholdBlockSize < 3:
		return docerr.InvalidInput(op, "threshold block size must be odd and at least 3, got %d", c.ThresholdBlockSize)
	case c.DenoiseH < 0 || c.DenoiseHColor < 0:
		return docerr.InvalidInput(op, "denoise strengths must be non-negative")
	case !odd(c.DenoiseTemplateWindow) || !odd(c.DenoiseSearchWindow):
		return docerr.InvalidInput(op, "denoise windows must be odd and positive, got %d and %d",
			c.DenoiseTemplateWindow, c.DenoiseSearchWindow)
	}
	return nil
}
