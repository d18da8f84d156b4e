package imgproc

import (
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

// SharpenKernel returns a 3x3 kernel with the given centre weight and the
// same weight on all eight neighbours.
func SharpenKernel(center, neighbor float64) *convolution.Kernel {
	return &convolution.Kernel{
		Matrix: []float64{
			neighbor, neighbor, neighbor,
			neighbor, center, neighbor,
			neighbor, neighbor, neighbor,
		},
		Width:  3,
		Height: 3,
	}
}

// Sharpen convolves every colour channel with SharpenKernel(center, neighbor)
// and rounds to the nearest 8-bit value. Alpha is preserved.
func Sharpen(img image.Image, center, neighbor float64) *image.NRGBA {
	out := convolution.Convolve(img, SharpenKernel(center, neighbor), &convolution.Options{
		Bias:      0.5,
		Wrap:      false,
		KeepAlpha: true,
	})
	return imaging.Clone(out)
}
