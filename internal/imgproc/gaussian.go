package imgproc

import (
	"image"
	"math"

	"github.com/AinsleeWang/smart-doc-scan/internal/mempool"
)

// BorderMode selects how samples outside the image are synthesised.
type BorderMode int

const (
	BorderReflect101 BorderMode = iota
	BorderReplicate
)

// Small odd kernels use fixed binomial-like weights when no sigma is given.
var smallGaussianTab = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// GaussianKernel returns normalized 1-D weights of length ksize. A sigma <= 0
// is derived from the size as 0.3*((ksize-1)*0.5-1)+0.8.
func GaussianKernel(ksize int, sigma float64) []float64 {
	if ksize < 1 || ksize%2 == 0 {
		ksize = max(1, ksize|1)
	}
	if sigma <= 0 {
		if tab, ok := smallGaussianTab[ksize]; ok {
			return append([]float64(nil), tab...)
		}
		sigma = 0.3*(float64(ksize-1)*0.5-1) + 0.8
	}
	k := make([]float64, ksize)
	scale := -0.5 / (sigma * sigma)
	sum := 0.0
	for i := range ksize {
		x := float64(i - (ksize-1)/2)
		k[i] = math.Exp(scale * x * x)
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianBlur smooths g with a ksize x ksize Gaussian and reflect-101 borders.
func GaussianBlur(g *image.Gray, ksize int) *image.Gray {
	return SeparableFilter(g, GaussianKernel(ksize, 0), BorderReflect101)
}

// SeparableFilter convolves g with k along rows then columns.
func SeparableFilter(g *image.Gray, k []float64, border BorderMode) *image.Gray {
	src := cloneGray(g)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	r := len(k) / 2
	index := reflect101
	if border == BorderReplicate {
		index = replicate
	}

	tmp := mempool.GetFloat32(w * h)
	defer mempool.PutFloat32(tmp)

	xs := make([]int, w+2*r)
	for i := range xs {
		xs[i] = index(i-r, w)
	}
	for y := range h {
		row := src.Pix[y*w : (y+1)*w]
		out := tmp[y*w : (y+1)*w]
		for x := range w {
			acc := 0.0
			for i, kv := range k {
				acc += kv * float64(row[xs[x+i]])
			}
			out[x] = float32(acc)
		}
	}

	for y := range h {
		drow := dst.Pix[y*w : (y+1)*w]
		for x := range w {
			acc := 0.0
			for i, kv := range k {
				acc += kv * float64(tmp[index(y+i-r, h)*w+x])
			}
			drow[x] = saturateRound(acc)
		}
	}
	return dst
}
