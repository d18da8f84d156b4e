package imgproc

import "image"

// MorphOp is a morphological operation on a gray raster.
type MorphOp int

const (
	MorphDilate MorphOp = iota
	MorphErode
	MorphClose
	MorphOpen
)

// Morphology applies op with a size x size rectangular structuring element,
// repeated iterations times. Samples outside the image never win, so borders
// neither grow nor shrink artificially.
func Morphology(g *image.Gray, op MorphOp, size, iterations int) *image.Gray {
	out := cloneGray(g)
	if size <= 1 || iterations <= 0 {
		return out
	}
	for range iterations {
		switch op {
		case MorphDilate:
			out = rankFilter(out, size, true)
		case MorphErode:
			out = rankFilter(out, size, false)
		case MorphClose:
			out = rankFilter(rankFilter(out, size, true), size, false)
		case MorphOpen:
			out = rankFilter(rankFilter(out, size, false), size, true)
		}
	}
	return out
}

// Dilate grows bright regions.
func Dilate(g *image.Gray, size, iterations int) *image.Gray {
	return Morphology(g, MorphDilate, size, iterations)
}

// Erode shrinks bright regions.
func Erode(g *image.Gray, size, iterations int) *image.Gray {
	return Morphology(g, MorphErode, size, iterations)
}

// rankFilter computes the max (or min) over a square window as two 1-D passes.
func rankFilter(g *image.Gray, size int, takeMax bool) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	before := (size - 1) / 2
	after := size - 1 - before
	better := func(a, b uint8) bool {
		if takeMax {
			return a > b
		}
		return a < b
	}

	tmp := make([]uint8, w*h)
	for y := range h {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for x := range w {
			v := row[x]
			for nx := max(0, x-before); nx <= min(w-1, x+after); nx++ {
				if better(row[nx], v) {
					v = row[nx]
				}
			}
			tmp[y*w+x] = v
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			v := tmp[y*w+x]
			for ny := max(0, y-before); ny <= min(h-1, y+after); ny++ {
				if better(tmp[ny*w+x], v) {
					v = tmp[ny*w+x]
				}
			}
			dst.Pix[y*w+x] = v
		}
	}
	return dst
}
