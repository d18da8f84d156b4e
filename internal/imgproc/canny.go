package imgproc

import (
	"image"
	"math"
)

// tan(22.5deg) in 15-bit fixed point.
const (
	cannyShift = 15
	cannyTG22  = 13573
)

// Edge map states during hysteresis.
const (
	edgeNone = iota
	edgeWeak
	edgeStrong
)

// Canny runs Canny edge detection with 3x3 Sobel gradients and the L1 gradient
// norm |gx|+|gy|. Pixels above high seed edges; pixels above low that survive
// non-maximum suppression join an edge when 8-connected to a seed. The result
// is 255 on edges and 0 elsewhere.
func Canny(g *image.Gray, low, high float64) *image.Gray {
	src := cloneGray(g)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	if low > high {
		low, high = high, low
	}
	lo := int(math.Floor(low))
	hi := int(math.Floor(high))

	dx, dy, mag := sobel(src)
	magAt := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	state := make([]uint8, w*h)
	stack := make([]int, 0, 1024)
	for y := range h {
		for x := range w {
			i := y*w + x
			m := mag[i]
			if m <= lo || !isLocalMax(dx[i], dy[i], m, x, y, magAt) {
				continue
			}
			if m > hi {
				state[i] = edgeStrong
				stack = append(stack, i)
			} else {
				state[i] = edgeWeak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			if ny < 0 || ny >= h {
				continue
			}
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || nx >= w {
					continue
				}
				j := ny*w + nx
				if state[j] == edgeWeak {
					state[j] = edgeStrong
					stack = append(stack, j)
				}
			}
		}
	}

	for i, s := range state {
		if s == edgeStrong {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// isLocalMax performs non-maximum suppression along the quantised gradient
// direction. Ties are broken toward the later neighbour so plateaus keep one
// pixel.
func isLocalMax(gx, gy, m, x, y int, magAt func(int, int) int) bool {
	ax := abs(gx)
	ay := abs(gy) << cannyShift
	tg22x := ax * cannyTG22
	if ay < tg22x {
		return m > magAt(x-1, y) && m >= magAt(x+1, y)
	}
	tg67x := tg22x + ax<<(cannyShift+1)
	if ay > tg67x {
		return m > magAt(x, y-1) && m >= magAt(x, y+1)
	}
	s := 1
	if (gx ^ gy) < 0 {
		s = -1
	}
	return m > magAt(x-s, y-1) && m >= magAt(x+s, y+1)
}

// sobel returns the x and y derivatives and their L1 magnitude, replicating
// edge pixels at the border.
func sobel(g *image.Gray) ([]int, []int, []int) {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	dx := make([]int, w*h)
	dy := make([]int, w*h)
	mag := make([]int, w*h)
	px := func(x, y int) int {
		return int(g.Pix[replicate(y, h)*g.Stride+replicate(x, w)])
	}
	for y := range h {
		for x := range w {
			tl, tc, tr := px(x-1, y-1), px(x, y-1), px(x+1, y-1)
			ml, mr := px(x-1, y), px(x+1, y)
			bl, bc, br := px(x-1, y+1), px(x, y+1), px(x+1, y+1)
			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)
			i := y*w + x
			dx[i] = gx
			dy[i] = gy
			mag[i] = abs(gx) + abs(gy)
		}
	}
	return dx, dy, mag
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
