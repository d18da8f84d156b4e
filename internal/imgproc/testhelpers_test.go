package imgproc

import (
	"image"
	"image/color"
)

func uniformGray(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

// grayWithRect paints [x0,x1)x[y0,y1) with fg over bg.
func grayWithRect(w, h, x0, y0, x1, y1 int, bg, fg uint8) *image.Gray {
	g := uniformGray(w, h, bg)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g.SetGray(x, y, color.Gray{Y: fg})
		}
	}
	return g
}

func countValue(g *image.Gray, v uint8) int {
	n := 0
	for _, p := range g.Pix {
		if p == v {
			n++
		}
	}
	return n
}
