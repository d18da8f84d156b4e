package detector

import "image"

// traceContourMoore extracts the outer boundary of the labeled component using
// Moore-neighbour tracing. Runs of collinear boundary pixels are compressed to
// their end points.
func traceContourMoore(labels []int, w, h, label int, st compStats) []image.Point {
	if label <= 0 || len(labels) != w*h {
		return nil
	}
	sx, sy := findStartingPixel(labels, w, label, st)
	if sx < 0 {
		return nil
	}

	pts := make([]image.Point, 0, 64)
	add := func(p image.Point) {
		n := len(pts)
		if n > 0 && pts[n-1] == p {
			return
		}
		if n >= 2 && continuesRun(pts[n-2], pts[n-1], p) {
			pts = pts[:n-1]
		}
		pts = append(pts, p)
	}

	start := image.Pt(sx, sy)
	// The raster scan guarantees the west neighbour is background.
	second, back, ok := nextBoundaryPixel(labels, w, h, label, start, image.Pt(sx-1, sy))
	if !ok {
		return []image.Point{start}
	}
	add(start)

	// Stop once the walk leaves the start pixel the same way it first did.
	cur := second
	for steps := 0; steps < 4*w*h+8; steps++ {
		next, nb, _ := nextBoundaryPixel(labels, w, h, label, cur, back)
		if cur == start && next == second {
			break
		}
		add(cur)
		cur, back = next, nb
	}

	if n := len(pts); n >= 3 && continuesRun(pts[n-2], pts[n-1], pts[0]) {
		pts = pts[:n-1]
	}
	if n := len(pts); n >= 3 && continuesRun(pts[n-1], pts[0], pts[1]) {
		pts = pts[1:]
	}
	return pts
}

// continuesRun reports whether a -> b -> c keeps heading in one direction.
func continuesRun(a, b, c image.Point) bool {
	ux, uy := b.X-a.X, b.Y-a.Y
	vx, vy := c.X-b.X, c.Y-b.Y
	return ux*vy-uy*vx == 0 && ux*vx+uy*vy > 0
}

// findStartingPixel returns the first pixel of the component in raster order.
func findStartingPixel(labels []int, w, label int, st compStats) (int, int) {
	for y := st.minY; y <= st.maxY; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if labels[y*w+x] == label {
				return x, y
			}
		}
	}
	return -1, -1
}

// nextBoundaryPixel scans the 8-neighbourhood of cur clockwise, starting just
// after the backtrack pixel, and returns the first component pixel together
// with the background pixel examined right before it.
func nextBoundaryPixel(labels []int, w, h, label int, cur, back image.Point) (image.Point, image.Point, bool) {
	isLabel := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == label
	}
	dir := 0
	for i := range 8 {
		if ndx[i] == back.X-cur.X && ndy[i] == back.Y-cur.Y {
			dir = i
			break
		}
	}
	prev := back
	for k := 1; k <= 8; k++ {
		i := (dir + k) % 8
		p := image.Pt(cur.X+ndx[i], cur.Y+ndy[i])
		if isLabel(p.X, p.Y) {
			return p, prev, true
		}
		prev = p
	}
	return image.Point{}, back, false
}
