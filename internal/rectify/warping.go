package rectify

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
)

// warpPerspective resamples src into a dstW x dstH raster. inv maps
// destination pixel coordinates back into src pixel coordinates relative to
// the src origin. Samples falling outside src read as black.
func warpPerspective(src image.Image, inv Homography, dstW, dstH int) *image.NRGBA {
	if src == nil || dstW <= 0 || dstH <= 0 {
		return nil
	}
	s := imaging.Clone(src)
	out := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))

	parallel.Line(dstH, func(start, end int) {
		for y := start; y < end; y++ {
			di := y * out.Stride
			for x := range dstW {
				px := out.Pix[di : di+4 : di+4]
				if sx, sy, ok := inv.Apply(float64(x), float64(y)); ok {
					bilinearSample(s, sx, sy, px)
				}
				px[3] = 0xff
				di += 4
			}
		}
	})
	return out
}

// bilinearSample writes the interpolated RGB at (x, y) into px. Neighbours
// outside src contribute black.
func bilinearSample(src *image.NRGBA, x, y float64, px []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if x <= -1 || y <= -1 || x >= float64(w) || y >= float64(h) {
		return
	}
	x0f, y0f := math.Floor(x), math.Floor(y)
	fx, fy := x-x0f, y-y0f
	x0, y0 := int(x0f), int(y0f)

	var acc [3]float64
	weights := [4]float64{(1 - fx) * (1 - fy), fx * (1 - fy), (1 - fx) * fy, fx * fy}
	for k, off := range [4]image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		cx, cy := x0+off.X, y0+off.Y
		if weights[k] == 0 || cx < 0 || cy < 0 || cx >= w || cy >= h {
			continue
		}
		i := cy*src.Stride + cx*4
		acc[0] += weights[k] * float64(src.Pix[i])
		acc[1] += weights[k] * float64(src.Pix[i+1])
		acc[2] += weights[k] * float64(src.Pix[i+2])
	}
	for c := range 3 {
		px[c] = uint8(math.Min(255, acc[c]+0.5))
	}
}
