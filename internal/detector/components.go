package detector

import (
	"image"

	"github.com/AinsleeWang/smart-doc-scan/internal/mempool"
)

// compStats represents the bounding box and size of a connected component.
type compStats struct {
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
	outer bool // touches the background that reaches the image border
}

// 8-neighbourhood offsets, clockwise from east.
var (
	ndx = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	ndy = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// binarize marks every non-zero pixel of the edge map as foreground.
func binarize(g *image.Gray) ([]bool, int, int) {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	mask := mempool.GetBool(w * h)
	for y := range h {
		row := g.Pix[g.PixOffset(g.Rect.Min.X, g.Rect.Min.Y+y):]
		for x := range w {
			mask[y*w+x] = row[x] != 0
		}
	}
	return mask, w, h
}

// connectedComponents labels 8-connected foreground components. Labels start
// at 1; background pixels keep label 0.
func connectedComponents(mask []bool, w, h int) ([]compStats, []int) {
	labels := make([]int, w*h)
	var comps []compStats
	queue := make([]int, 0, 256)

	for start, fg := range mask {
		if !fg || labels[start] != 0 {
			continue
		}
		label := len(comps) + 1
		sx, sy := start%w, start/w
		st := compStats{minX: sx, minY: sy, maxX: sx, maxY: sy}
		labels[start] = label
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			ci := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			cx, cy := ci%w, ci/w
			st.count++
			st.minX, st.maxX = min(st.minX, cx), max(st.maxX, cx)
			st.minY, st.maxY = min(st.minY, cy), max(st.maxY, cy)
			for k := range 8 {
				nx, ny := cx+ndx[k], cy+ndy[k]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				ni := ny*w + nx
				if mask[ni] && labels[ni] == 0 {
					labels[ni] = label
					queue = append(queue, ni)
				}
			}
		}
		comps = append(comps, st)
	}
	return comps, labels
}

// markOuterComponents flags components that border the outer background:
// background reachable from outside the image through 4-connected steps.
// Components nested inside another component's hole stay unflagged.
func markOuterComponents(comps []compStats, labels []int, w, h int) {
	outside := mempool.GetBool(w * h)
	defer mempool.PutBool(outside)
	queue := make([]int, 0, 2*(w+h))

	touch := func(x, y int) {
		if l := labels[y*w+x]; l != 0 {
			comps[l-1].outer = true
		}
	}
	seed := func(x, y int) {
		i := y*w + x
		if labels[i] != 0 {
			comps[labels[i]-1].outer = true
			return
		}
		if !outside[i] {
			outside[i] = true
			queue = append(queue, i)
		}
	}
	for x := range w {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := range h {
		seed(0, y)
		seed(w-1, y)
	}

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for len(queue) > 0 {
		ci := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		cx, cy := ci%w, ci/w
		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if labels[ni] != 0 {
				touch(nx, ny)
				continue
			}
			if !outside[ni] {
				outside[ni] = true
				queue = append(queue, ni)
			}
		}
	}
}

// externalContours returns the outer boundary of every component that is not
// nested inside another one.
func externalContours(edges *image.Gray) [][]image.Point {
	mask, w, h := binarize(edges)
	defer mempool.PutBool(mask)
	if w == 0 || h == 0 {
		return nil
	}
	comps, labels := connectedComponents(mask, w, h)
	markOuterComponents(comps, labels, w, h)

	contours := make([][]image.Point, 0, len(comps))
	for i, c := range comps {
		if !c.outer {
			continue
		}
		if poly := traceContourMoore(labels, w, h, i+1, c); len(poly) > 0 {
			contours = append(contours, poly)
		}
	}
	return contours
}
