package imgproc

import (
	"image"
	"math"
)

// AdaptiveThresholdGaussian binarizes g against a Gaussian-weighted local mean
// over a blockSize x blockSize neighbourhood. A pixel becomes 255 when it is
// brighter than mean - c, and 0 otherwise.
func AdaptiveThresholdGaussian(g *image.Gray, blockSize int, c float64) *image.Gray {
	src := cloneGray(g)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	mean := SeparableFilter(src, GaussianKernel(blockSize, 0), BorderReplicate)
	delta := int(math.Ceil(c))
	for i, v := range src.Pix {
		if int(v)-int(mean.Pix[i]) > -delta {
			dst.Pix[i] = 255
		}
	}
	return dst
}
