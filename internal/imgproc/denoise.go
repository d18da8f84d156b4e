package imgproc

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/AinsleeWang/smart-doc-scan/internal/mempool"
)

// Patch weights below this value are treated as zero.
const nlmWeightThreshold = 0.001

// DenoiseColored removes noise with non-local means in Lab space. Lightness is
// filtered with strength h and the two chroma channels jointly with hColor.
// templateWindow and searchWindow are odd window sizes in pixels.
func DenoiseColored(img image.Image, h, hColor float64, templateWindow, searchWindow int) *image.NRGBA {
	src := imaging.Clone(img)
	w, ht := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || ht == 0 {
		return src
	}
	n := w * ht
	light := make([]float32, n)
	chromaA := make([]float32, n)
	chromaB := make([]float32, n)

	parallel.Line(ht, func(start, end int) {
		for y := start; y < end; y++ {
			for x := range w {
				i := y*src.Stride + x*4
				c := colorful.LinearRgb(
					float64(src.Pix[i])/255,
					float64(src.Pix[i+1])/255,
					float64(src.Pix[i+2])/255,
				)
				l, a, b := c.Lab()
				j := y*w + x
				light[j] = float32(math.Round(l * 255))
				chromaA[j] = float32(math.Round(a * 100))
				chromaB[j] = float32(math.Round(b * 100))
			}
		}
	})

	planes := NLMeans([][]float32{light}, w, ht, h, templateWindow, searchWindow)
	light = planes[0]
	planes = NLMeans([][]float32{chromaA, chromaB}, w, ht, hColor, templateWindow, searchWindow)
	chromaA, chromaB = planes[0], planes[1]

	dst := image.NewNRGBA(image.Rect(0, 0, w, ht))
	parallel.Line(ht, func(start, end int) {
		for y := start; y < end; y++ {
			for x := range w {
				j := y*w + x
				r, g, b := colorful.Lab(
					float64(light[j])/255,
					float64(chromaA[j])/100,
					float64(chromaB[j])/100,
				).LinearRgb()
				i := y*dst.Stride + x*4
				dst.Pix[i] = clampUint8(r * 255)
				dst.Pix[i+1] = clampUint8(g * 255)
				dst.Pix[i+2] = clampUint8(b * 255)
				dst.Pix[i+3] = src.Pix[y*src.Stride+x*4+3]
			}
		}
	})
	return dst
}

// NLMeans filters a group of equally sized planes jointly: patch distances are
// summed over all planes and every plane is averaged with the same weights.
// Plane values are expected on an integer 8-bit scale. The returned planes are
// rounded to integers. Constant groups are returned unchanged.
func NLMeans(planes [][]float32, w, h int, strength float64, templateWindow, searchWindow int) [][]float32 {
	if len(planes) == 0 || isConstant(planes) || strength <= 0 {
		return planes
	}
	cn := len(planes)
	tr := max(templateWindow/2, 0)
	sr := max(searchWindow/2, 0)
	tSize := 2*tr + 1
	pad := tr + sr
	pw, ph := w+2*pad, h+2*pad

	padded := make([][]float32, cn)
	for c, p := range planes {
		padded[c] = mempool.GetFloat32(pw * ph)
		defer mempool.PutFloat32(padded[c])
		for y := range ph {
			sy := reflect101(y-pad, h)
			for x := range pw {
				padded[c][y*pw+x] = p[sy*w+reflect101(x-pad, w)]
			}
		}
	}

	lut := nlmWeightTable(strength, tSize*tSize*cn)

	// Patch differences cover every template position around an output pixel.
	dw, dh := w+2*tr, h+2*tr
	iw := dw + 1
	integral := make([]float64, iw*(dh+1))

	acc := make([][]float64, cn)
	for c := range acc {
		acc[c] = make([]float64, w*h)
	}
	wsum := make([]float64, w*h)

	for oy := -sr; oy <= sr; oy++ {
		for ox := -sr; ox <= sr; ox++ {
			fillDiffIntegral(integral, padded, pw, dw, dh, sr, ox, oy)
			parallel.Line(h, func(start, end int) {
				for y := start; y < end; y++ {
					r0 := y * iw
					r1 := (y + tSize) * iw
					for x := range w {
						ssd := integral[r1+x+tSize] - integral[r0+x+tSize] - integral[r1+x] + integral[r0+x]
						k := int(ssd)
						if k >= len(lut) {
							continue
						}
						wt := lut[k]
						j := y*w + x
						si := (y+pad+oy)*pw + x + pad + ox
						for c := range cn {
							acc[c][j] += wt * float64(padded[c][si])
						}
						wsum[j] += wt
					}
				}
			})
		}
	}

	out := make([][]float32, cn)
	for c := range cn {
		out[c] = make([]float32, w*h)
		for j := range out[c] {
			out[c][j] = float32(math.Round(acc[c][j] / wsum[j]))
		}
	}
	return out
}

// fillDiffIntegral writes the summed-area table of squared differences between
// the padded planes and their copy shifted by (ox, oy).
func fillDiffIntegral(integral []float64, padded [][]float32, pw, dw, dh, sr, ox, oy int) {
	iw := dw + 1
	parallel.Line(dh, func(start, end int) {
		for y := start; y < end; y++ {
			row := integral[(y+1)*iw:]
			row[0] = 0
			base := (y + sr) * pw
			shifted := (y + sr + oy) * pw
			run := 0.0
			for x := range dw {
				d := 0.0
				for _, p := range padded {
					v := float64(p[base+x+sr] - p[shifted+x+sr+ox])
					d += v * v
				}
				run += d
				row[x+1] = run
			}
		}
	})
	for x := range iw {
		integral[x] = 0
	}
	parallel.Line(iw, func(start, end int) {
		for y := 1; y <= dh; y++ {
			cur := integral[y*iw:]
			prev := integral[(y-1)*iw:]
			for x := start; x < end; x++ {
				cur[x] += prev[x]
			}
		}
	})
}

// nlmWeightTable maps an integer patch SSD to exp(-ssd/(norm*h^2)), truncated
// where the weight drops below nlmWeightThreshold.
func nlmWeightTable(h float64, norm int) []float64 {
	h2 := h * h * float64(norm)
	limit := int(math.Ceil(-math.Log(nlmWeightThreshold) * h2))
	lut := make([]float64, 0, limit+1)
	for k := 0; k <= limit; k++ {
		wt := math.Exp(-float64(k) / h2)
		if wt < nlmWeightThreshold {
			break
		}
		lut = append(lut, wt)
	}
	return lut
}

func isConstant(planes [][]float32) bool {
	for _, p := range planes {
		for _, v := range p {
			if v != p[0] {
				return false
			}
		}
	}
	return true
}
