package utils

import (
	"cmp"
	"iter"
	"math"
	"slices"
)

// ContourArea returns the unsigned area enclosed by a closed polygon.
func ContourArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	prev := pts[len(pts)-1]
	for _, p := range pts {
		sum += prev.X*p.Y - p.X*prev.Y
		prev = p
	}
	return math.Abs(sum) / 2
}

// ArcLength returns the perimeter of a polygon, including the closing edge
// when closed is set.
func ArcLength(pts []Point, closed bool) float64 {
	if len(pts) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += Dist(pts[i-1], pts[i])
	}
	if closed {
		total += Dist(pts[len(pts)-1], pts[0])
	}
	return total
}

// ApproxPolyDP simplifies a closed polygon with the Douglas-Peucker algorithm.
// The ring is split at two mutually distant vertices, each half is reduced
// independently, and a final sweep drops vertices lying within epsilon/sqrt(2)
// of the chord joining their neighbours.
func ApproxPolyDP(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n <= 2 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}

	// Three rounds of farthest-point hopping find a long chord.
	start := 0
	far, d2 := farthestFrom(pts, start)
	for range 2 {
		start = far
		far, d2 = farthestFrom(pts, start)
	}
	if d2 <= epsilon*epsilon {
		return []Point{pts[start]}
	}

	ring := make([]Point, 0, n+1)
	for i := range n + 1 {
		ring = append(ring, pts[(start+i)%n])
	}
	split := (far - start + n) % n
	keep := make([]bool, len(ring))
	keep[0], keep[split], keep[n] = true, true, true
	dpSimplify(ring, 0, split, epsilon, keep)
	dpSimplify(ring, split, n, epsilon, keep)

	out := make([]Point, 0, 8)
	for i := range n {
		if keep[i] {
			out = append(out, ring[i])
		}
	}
	return dropNearCollinear(out, epsilon)
}

func farthestFrom(pts []Point, from int) (int, float64) {
	idx, best := from, 0.0
	o := pts[from]
	for i, p := range pts {
		dx, dy := p.X-o.X, p.Y-o.Y
		if d := dx*dx + dy*dy; d > best {
			idx, best = i, d
		}
	}
	return idx, best
}

// dpSimplify marks the vertices of pts[start:end+1] that survive reduction.
func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a, b := pts[start], pts[end]
	for i := start + 1; i < end; i++ {
		if d := lineDistance(pts[i], a, b); d > maxDist {
			maxDist, index = d, i
		}
	}
	if maxDist > eps {
		keep[index] = true
		dpSimplify(pts, start, index, eps, keep)
		dpSimplify(pts, index, end, eps, keep)
	}
}

// lineDistance is the distance from p to the infinite line through a and b.
func lineDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs((p.X-a.X)*vy-(p.Y-a.Y)*vx) / math.Hypot(vx, vy)
}

// dropNearCollinear removes vertices that sit almost on the chord between the
// previous kept vertex and the next one, pointing the same way along it.
// Axis-parallel chords are left alone.
func dropNearCollinear(poly []Point, eps float64) []Point {
	if len(poly) <= 3 {
		return poly
	}
	out := make([]Point, 0, len(poly))
	prev := poly[len(poly)-1]
	remaining := len(poly)
	for i, p := range poly {
		next := poly[(i+1)%len(poly)]
		dx, dy := next.X-prev.X, next.Y-prev.Y
		cross := math.Abs((p.X-prev.X)*dy - (p.Y-prev.Y)*dx)
		inner := (p.X-prev.X)*(next.X-p.X) + (p.Y-prev.Y)*(next.Y-p.Y)
		if remaining > 3 && dx != 0 && dy != 0 && inner >= 0 &&
			cross*cross <= 0.5*eps*eps*(dx*dx+dy*dy) {
			remaining--
			continue
		}
		out = append(out, p)
		prev = p
	}
	return out
}

// ConvexHull computes the convex hull of a set of points using the
// monotone chain algorithm. Returns the hull in CCW order without
// duplicating the first point at the end.
func ConvexHull(pts []Point) []Point {
	p := slices.Clone(pts)
	slices.SortFunc(p, func(a, b Point) int {
		if c := cmp.Compare(a.X, b.X); c != 0 {
			return c
		}
		return cmp.Compare(a.Y, b.Y)
	})
	p = slices.Compact(p)
	if len(p) <= 2 {
		return p
	}
	lower := halfHull(slices.Values(p), len(p))
	upper := halfHull(reversed(p), len(p))
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	return append(hull, upper[:len(upper)-1]...)
}

func halfHull(seq iter.Seq[Point], n int) []Point {
	h := make([]Point, 0, n)
	for pt := range seq {
		for len(h) >= 2 && cross(h[len(h)-2], h[len(h)-1], pt) <= 0 {
			h = h[:len(h)-1]
		}
		h = append(h, pt)
	}
	return h
}

func reversed(p []Point) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for i := len(p) - 1; i >= 0; i-- {
			if !yield(p[i]) {
				return
			}
		}
	}
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// MinimumAreaRectangle returns the 4 corners of the smallest rotated
// rectangle enclosing pts, found by trying every hull edge as an orientation.
// Degenerate inputs yield a zero-width or zero-height rectangle.
func MinimumAreaRectangle(pts []Point) []Point {
	hull := ConvexHull(pts)
	switch len(hull) {
	case 0:
		return nil
	case 1:
		return []Point{hull[0], hull[0], hull[0], hull[0]}
	case 2:
		return []Point{hull[0], hull[1], hull[1], hull[0]}
	}

	bestArea := math.Inf(1)
	var u, v Point
	var minS, maxS, minT, maxT float64
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		l := Dist(a, b)
		if l == 0 {
			continue
		}
		eu := Point{X: (b.X - a.X) / l, Y: (b.Y - a.Y) / l}
		ev := Point{X: -eu.Y, Y: eu.X}
		s0, s1 := math.Inf(1), math.Inf(-1)
		t0, t1 := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			s := p.X*eu.X + p.Y*eu.Y
			t := p.X*ev.X + p.Y*ev.Y
			s0, s1 = math.Min(s0, s), math.Max(s1, s)
			t0, t1 = math.Min(t0, t), math.Max(t1, t)
		}
		if area := (s1 - s0) * (t1 - t0); area < bestArea {
			bestArea = area
			u, v = eu, ev
			minS, maxS, minT, maxT = s0, s1, t0, t1
		}
	}
	corner := func(s, t float64) Point {
		return Point{X: u.X*s + v.X*t, Y: u.Y*s + v.Y*t}
	}
	return []Point{corner(minS, minT), corner(maxS, minT), corner(maxS, maxT), corner(minS, maxT)}
}
