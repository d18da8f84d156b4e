package imgproc

import (
	"image"

	"github.com/disintegration/imaging"
)

// Fixed-point BT.601 luma weights scaled by 1<<14.
const (
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaShift = 14
)

// ToGray converts any image to 8-bit luma. Alpha is ignored.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return cloneGray(g)
	}
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		si := y * src.Stride
		di := y * dst.Stride
		for x := range w {
			r := int(src.Pix[si])
			g := int(src.Pix[si+1])
			b := int(src.Pix[si+2])
			dst.Pix[di+x] = uint8((r*lumaR + g*lumaG + b*lumaB + 1<<(lumaShift-1)) >> lumaShift)
			si += 4
		}
	}
	return dst
}

// GrayToNRGBA replicates the gray plane into three opaque colour channels.
func GrayToNRGBA(g *image.Gray) *image.NRGBA {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		si := g.PixOffset(g.Rect.Min.X, g.Rect.Min.Y+y)
		di := y * dst.Stride
		for x := range w {
			v := g.Pix[si+x]
			dst.Pix[di] = v
			dst.Pix[di+1] = v
			dst.Pix[di+2] = v
			dst.Pix[di+3] = 0xff
			di += 4
		}
	}
	return dst
}

// Median returns the median intensity of g. For an even pixel count it is the
// mean of the two middle values.
func Median(g *image.Gray) float64 {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	n := w * h
	if n == 0 {
		return 0
	}
	var hist [256]int
	for y := range h {
		row := g.Pix[g.PixOffset(g.Rect.Min.X, g.Rect.Min.Y+y):]
		for x := range w {
			hist[row[x]]++
		}
	}
	lo := nthValue(&hist, (n-1)/2)
	if n%2 == 1 {
		return float64(lo)
	}
	hi := nthValue(&hist, n/2)
	return (float64(lo) + float64(hi)) / 2
}

// nthValue returns the k-th smallest value (0-based) described by hist.
func nthValue(hist *[256]int, k int) int {
	seen := 0
	for v, c := range hist {
		seen += c
		if seen > k {
			return v
		}
	}
	return 255
}

func cloneGray(g *image.Gray) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], g.Pix[g.PixOffset(g.Rect.Min.X, g.Rect.Min.Y+y):])
	}
	return dst
}

// reflect101 maps an out-of-range index into [0,n) mirroring around the edge
// pixels without repeating them (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// replicate clamps an index into [0,n).
func replicate(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clampUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
