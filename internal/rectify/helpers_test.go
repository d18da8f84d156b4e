package rectify

import (
	"image"
	"image/color"
	"image/draw"
)

// gradientImage returns an opaque image whose red and green channels encode
// the pixel coordinates.
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / max(w-1, 1)), G: uint8(y * 255 / max(h-1, 1)), B: 128, A: 255})
		}
	}
	return img
}

// pageImage returns a black scene holding a white page with a dark bar.
func pageImage(w, h int, page, bar image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(img, page, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, bar, image.NewUniform(color.Gray{Y: 20}), image.Point{}, draw.Src)
	return img
}

func rectCorners(r image.Rectangle) []image.Point {
	return []image.Point{r.Min, {r.Max.X, r.Min.Y}, r.Max, {r.Min.X, r.Max.Y}}
}
