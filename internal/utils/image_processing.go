package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ErrEmptyImage is returned for nil images and images without pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// ImageConstraints bounds the dimensions accepted from callers.
// A zero Max disables that limit.
type ImageConstraints struct {
	MaxWidth  int
	MaxHeight int
	MinWidth  int
	MinHeight int
}

// DefaultImageConstraints accepts anything from 1x1 up to 12000x12000 pixels.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MaxWidth:  12000,
		MaxHeight: 12000,
		MinWidth:  1,
		MinHeight: 1,
	}
}

// ValidateImageConstraints checks img against constraints.
func ValidateImageConstraints(img image.Image, constraints ImageConstraints) error {
	if img == nil {
		return &ImageProcessingError{Operation: "validate", Err: ErrEmptyImage}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return &ImageProcessingError{Operation: "validate", Err: ErrEmptyImage}
	}
	if w < constraints.MinWidth || h < constraints.MinHeight {
		return &ImageProcessingError{
			Operation: "validate",
			Err: fmt.Errorf("image too small: %dx%d < %dx%d",
				w, h, constraints.MinWidth, constraints.MinHeight),
		}
	}
	if (constraints.MaxWidth > 0 && w > constraints.MaxWidth) ||
		(constraints.MaxHeight > 0 && h > constraints.MaxHeight) {
		return &ImageProcessingError{
			Operation: "validate",
			Err: fmt.Errorf("image too large: %dx%d > %dx%d",
				w, h, constraints.MaxWidth, constraints.MaxHeight),
		}
	}
	return nil
}

// FitWithin scales img down with Lanczos resampling so that it fits inside
// maxW x maxH while keeping its aspect ratio. Smaller images are returned as is.
func FitWithin(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if maxW <= 0 || maxH <= 0 || (b.Dx() <= maxW && b.Dy() <= maxH) {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}
