package utils

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Pt converts an integer pixel coordinate to a Point.
func Pt(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// Points converts integer pixel coordinates to Points.
func Points(pts []image.Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Pt(p)
	}
	return out
}

// Trunc drops the fractional part of both coordinates, rounding toward zero.
func (p Point) Trunc() image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// Round rounds both coordinates to the nearest integer.
func (p Point) Round() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// BoundingBox returns the smallest Box containing pts.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	b := Box{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// ClampPoint limits p to the pixel grid of bounds.
func ClampPoint(p image.Point, bounds image.Rectangle) image.Point {
	return image.Pt(
		clampInt(p.X, bounds.Min.X, bounds.Max.X-1),
		clampInt(p.Y, bounds.Min.Y, bounds.Max.Y-1),
	)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
