package rectify

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

// Homography is a row-major 3x3 projective transform.
type Homography [9]float64

// PerspectiveTransform computes the homography mapping p[i] onto q[i].
func PerspectiveTransform(p, q Quad) (Homography, error) {
	const op = "rectify.PerspectiveTransform"
	// 8x8 system A*h = b for the unknowns h00..h21 with h22 fixed to 1.
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := range 4 {
		X, Y := p[i].X, p[i].Y
		x, y := q[i].X, q[i].Y
		r := 2 * i
		// x' = (h00 X + h01 Y + h02)/(h20 X + h21 Y + 1)
		a.SetRow(r, []float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x})
		b.SetVec(r, x)
		// y' = (h10 X + h11 Y + h12)/(h20 X + h21 Y + 1)
		a.SetRow(r+1, []float64{0, 0, 0, X, Y, 1, -X * y, -Y * y})
		b.SetVec(r+1, y)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); !usable(err) {
		return Homography{}, docerr.Degenerate(op, "singular system: %v", err)
	}
	var H Homography
	for i := range 8 {
		H[i] = h.AtVec(i)
	}
	H[8] = 1
	if !H.finite() {
		return Homography{}, docerr.Degenerate(op, "non-finite transform")
	}
	return H, nil
}

// Inverse returns the transform undoing h.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, h[:])); !usable(err) {
		return Homography{}, docerr.Degenerate("rectify.Homography.Inverse", "singular matrix: %v", err)
	}
	var out Homography
	for i := range 9 {
		out[i] = inv.At(i/3, i%3)
	}
	if out[8] != 0 {
		s := 1 / out[8]
		for i := range out {
			out[i] *= s
		}
	}
	if !out.finite() {
		return Homography{}, docerr.Degenerate("rectify.Homography.Inverse", "non-finite transform")
	}
	return out, nil
}

// Apply maps (x, y). ok is false when the point maps to infinity.
func (h Homography) Apply(x, y float64) (float64, float64, bool) {
	denom := h[6]*x + h[7]*y + h[8]
	if denom == 0 {
		return 0, 0, false
	}
	return (h[0]*x + h[1]*y + h[2]) / denom, (h[3]*x + h[4]*y + h[5]) / denom, true
}

// ApplyPoint maps p, returning ok=false at infinity.
func (h Homography) ApplyPoint(p utils.Point) (utils.Point, bool) {
	x, y, ok := h.Apply(p.X, p.Y)
	return utils.Point{X: x, Y: y}, ok
}

func (h Homography) finite() bool {
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// usable accepts a solver result unless it failed outright. Finite
// ill-conditioning is tolerated.
func usable(err error) bool {
	if err == nil {
		return true
	}
	var cond mat.Condition
	return errors.As(err, &cond) && !math.IsInf(float64(cond), 0) && !math.IsNaN(float64(cond))
}
