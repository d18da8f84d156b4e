package rectify

import (
	"image"
	"math"

	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

// Quad holds four corners ordered top-left, top-right, bottom-right,
// bottom-left.
type Quad [4]utils.Point

// Corner indices within a Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// minTriangleRatio bounds the area of any corner triangle relative to the
// square of its longest side. Smaller values count as collinear.
const minTriangleRatio = 1e-4

// OrderCorners assigns roles by coordinate sums and differences: top-left has
// the smallest x+y, bottom-right the largest, top-right the smallest y-x and
// bottom-left the largest. Ties go to the earliest point. A point may take
// more than one role for strongly rotated inputs.
func OrderCorners(pts []image.Point) (Quad, error) {
	if len(pts) != 4 {
		return Quad{}, docerr.InvalidInput("rectify.OrderCorners", "expected 4 corners, got %d", len(pts))
	}
	tl, br, tr, bl := 0, 0, 0, 0
	for i, p := range pts {
		s, d := p.X+p.Y, p.Y-p.X
		if s < pts[tl].X+pts[tl].Y {
			tl = i
		}
		if s > pts[br].X+pts[br].Y {
			br = i
		}
		if d < pts[tr].Y-pts[tr].X {
			tr = i
		}
		if d > pts[bl].Y-pts[bl].X {
			bl = i
		}
	}
	return Quad{utils.Pt(pts[tl]), utils.Pt(pts[tr]), utils.Pt(pts[br]), utils.Pt(pts[bl])}, nil
}

// TargetSize returns the output raster size: the longer of each pair of
// opposite edges, rounded.
func TargetSize(q Quad) (int, int) {
	w := math.Max(utils.Dist(q[BottomRight], q[BottomLeft]), utils.Dist(q[TopRight], q[TopLeft]))
	h := math.Max(utils.Dist(q[TopRight], q[BottomRight]), utils.Dist(q[TopLeft], q[BottomLeft]))
	return int(math.Round(w)), int(math.Round(h))
}

// Destination returns the corners of a w x h raster in Quad order.
func Destination(w, h int) Quad {
	return Quad{
		{X: 0, Y: 0},
		{X: float64(w - 1), Y: 0},
		{X: float64(w - 1), Y: float64(h - 1)},
		{X: 0, Y: float64(h - 1)},
	}
}

// cornerNames names the Quad roles for error messages.
var cornerNames = [4]string{"top-left", "top-right", "bottom-right", "bottom-left"}

// checkQuad rejects corner sets whose perspective mapping is ill defined.
// Coincident corners are reported first: near 45 degrees of rotation the
// sum/difference ordering gives one input point two roles, and the
// resulting target size alone would not show why.
func checkQuad(q Quad, w, h int) error {
	const op = "rectify.checkQuad"
	for i := range q {
		for j := i + 1; j < len(q); j++ {
			if q[i] == q[j] {
				return docerr.Degenerate(op, "corner ordering gave (%g,%g) both the %s and %s roles (target size %dx%d)",
					q[i].X, q[i].Y, cornerNames[i], cornerNames[j], w, h)
			}
		}
	}
	if w < 1 || h < 1 {
		return docerr.Degenerate(op, "target size %dx%d", w, h)
	}
	triples := [4][3]int{{0, 1, 2}, {1, 2, 3}, {2, 3, 0}, {3, 0, 1}}
	for _, t := range triples {
		a, b, c := q[t[0]], q[t[1]], q[t[2]]
		area := math.Abs((b.X-a.X)*(c.Y-a.Y)-(b.Y-a.Y)*(c.X-a.X)) / 2
		longest := math.Max(utils.Dist(a, b), math.Max(utils.Dist(b, c), utils.Dist(a, c)))
		if area < minTriangleRatio*longest*longest {
			return docerr.Degenerate(op, "corners %v are collinear", t)
		}
	}
	return nil
}
