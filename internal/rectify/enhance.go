package rectify

import (
	"image"
	"log/slog"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/imgproc"
)

// Stages holds every intermediate raster of the enhancement chain.
type Stages struct {
	Gray      *image.Gray
	Equalized *image.Gray
	Blurred   *image.Gray
	Binary    *image.Gray
	Sharpened *image.NRGBA
	Denoised  *image.NRGBA
}

// Enhance turns a warped page into a clean, high-contrast scan.
func (r *Rectifier) Enhance(img image.Image) *image.NRGBA {
	return r.EnhanceStages(img).Denoised
}

// EnhanceStages runs the enhancement chain and keeps each intermediate.
func (r *Rectifier) EnhanceStages(img image.Image) Stages {
	cfg := r.cfg
	start := time.Now()
	var s Stages
	s.Gray = imgproc.ToGray(img)
	s.Equalized = imgproc.CLAHE(s.Gray, cfg.ClaheTileGrid, cfg.ClaheTileGrid, cfg.ClaheClipLimit)
	s.Blurred = imgproc.GaussianBlur(s.Equalized, cfg.BlurKernelSize)
	s.Binary = imgproc.AdaptiveThresholdGaussian(s.Blurred, cfg.ThresholdBlockSize, cfg.ThresholdC)
	s.Sharpened = imgproc.Sharpen(imgproc.GrayToNRGBA(s.Binary), cfg.SharpenCenter, cfg.SharpenNeighbor)
	denoiseStart := time.Now()
	s.Denoised = imgproc.DenoiseColored(s.Sharpened, cfg.DenoiseH, cfg.DenoiseHColor,
		cfg.DenoiseTemplateWindow, cfg.DenoiseSearchWindow)

	slog.Debug("Enhancement finished",
		"width", s.Gray.Rect.Dx(),
		"height", s.Gray.Rect.Dy(),
		"denoise", time.Since(denoiseStart),
		"duration", time.Since(start))
	return s
}
