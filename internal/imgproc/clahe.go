package imgproc

import (
	"image"
	"math"
)

const histSize = 256

// CLAHE applies contrast limited adaptive histogram equalization over a
// tilesX x tilesY grid. A clipLimit <= 0 disables clipping. When the image
// does not divide evenly into tiles the histograms are gathered over a
// reflect-101 padded copy, while interpolation runs over the original pixels.
func CLAHE(src *image.Gray, tilesX, tilesY int, clipLimit float64) *image.Gray {
	g := cloneGray(src)
	w, h := g.Rect.Dx(), g.Rect.Dy()
	if w == 0 || h == 0 || tilesX <= 0 || tilesY <= 0 {
		return g
	}

	lutSrc, lw := g.Pix, w
	if w%tilesX != 0 || h%tilesY != 0 {
		lutSrc, lw, _ = padReflect101(g, tilesX-w%tilesX, tilesY-h%tilesY)
	}
	tw := lw / tilesX
	th := (len(lutSrc) / lw) / tilesY
	luts := buildTileLUTs(lutSrc, lw, tilesX, tilesY, tw, th, clipLimit)

	dst := image.NewGray(image.Rect(0, 0, w, h))
	invTW := float32(1) / float32(tw)
	invTH := float32(1) / float32(th)

	// Horizontal tile neighbours and weights are the same for every row.
	tx1s := make([]int, w)
	tx2s := make([]int, w)
	xas := make([]float32, w)
	for x := range w {
		txf := float32(x)*invTW - 0.5
		tx1 := int(math.Floor(float64(txf)))
		xas[x] = txf - float32(tx1)
		tx1s[x] = max(tx1, 0)
		tx2s[x] = min(tx1+1, tilesX-1)
	}

	for y := range h {
		tyf := float32(y)*invTH - 0.5
		ty1 := int(math.Floor(float64(tyf)))
		ya := tyf - float32(ty1)
		ya1 := 1 - ya
		ty2 := min(ty1+1, tilesY-1)
		ty1 = max(ty1, 0)
		row1 := luts[ty1*tilesX : (ty1+1)*tilesX]
		row2 := luts[ty2*tilesX : (ty2+1)*tilesX]

		si := y * g.Stride
		di := y * dst.Stride
		for x := range w {
			v := g.Pix[si+x]
			xa := xas[x]
			xa1 := 1 - xa
			top := float32(row1[tx1s[x]][v])*xa1 + float32(row1[tx2s[x]][v])*xa
			bot := float32(row2[tx1s[x]][v])*xa1 + float32(row2[tx2s[x]][v])*xa
			dst.Pix[di+x] = saturateRound(float64(top*ya1 + bot*ya))
		}
	}
	return dst
}

// buildTileLUTs computes one clipped, equalized lookup table per tile.
func buildTileLUTs(pix []uint8, stride, tilesX, tilesY, tw, th int, clipLimit float64) [][histSize]uint8 {
	area := tw * th
	lutScale := float32(histSize-1) / float32(area)
	limit := 0
	if clipLimit > 0 {
		limit = max(int(clipLimit*float64(area)/histSize), 1)
	}

	luts := make([][histSize]uint8, tilesX*tilesY)
	var hist [histSize]int
	for ty := range tilesY {
		for tx := range tilesX {
			clear(hist[:])
			for y := ty * th; y < (ty+1)*th; y++ {
				row := pix[y*stride+tx*tw : y*stride+(tx+1)*tw]
				for _, v := range row {
					hist[v]++
				}
			}
			if limit > 0 {
				clipHistogram(&hist, limit)
			}
			lut := &luts[ty*tilesX+tx]
			sum := 0
			for i := range histSize {
				sum += hist[i]
				lut[i] = saturateRound(float64(float32(sum) * lutScale))
			}
		}
	}
	return luts
}

// clipHistogram caps every bin at limit and spreads the excess evenly, handing
// the remainder out one count at a time at a fixed stride.
func clipHistogram(hist *[histSize]int, limit int) {
	clipped := 0
	for i := range histSize {
		if hist[i] > limit {
			clipped += hist[i] - limit
			hist[i] = limit
		}
	}
	batch := clipped / histSize
	residual := clipped - batch*histSize
	for i := range histSize {
		hist[i] += batch
	}
	if residual != 0 {
		step := max(histSize/residual, 1)
		for i := 0; i < histSize && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}
}

// padReflect101 extends g to the right and bottom, returning the packed pixels
// and the padded dimensions.
func padReflect101(g *image.Gray, padX, padY int) ([]uint8, int, int) {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	pw, ph := w+padX, h+padY
	out := make([]uint8, pw*ph)
	for y := range ph {
		sy := reflect101(y, h)
		srow := g.Pix[sy*g.Stride:]
		drow := out[y*pw : (y+1)*pw]
		copy(drow, srow[:w])
		for x := w; x < pw; x++ {
			drow[x] = srow[reflect101(x, w)]
		}
	}
	return out, pw, ph
}

// saturateRound rounds half to even and clamps to the 8-bit range.
func saturateRound(v float64) uint8 {
	r := math.RoundToEven(v)
	if r <= 0 {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return uint8(r)
}
