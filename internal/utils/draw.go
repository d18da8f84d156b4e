package utils

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"slices"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawPolygon draws connected line segments and closes the polygon.
func DrawPolygon(dst draw.Image, pts []image.Point, col color.Color, thickness int) {
	if len(pts) < 2 {
		return
	}
	for i := range pts {
		DrawLine(dst, pts[i], pts[(i+1)%len(pts)], col, thickness)
	}
}

// DrawRect draws an axis-aligned rectangle outline into dst, growing inward
// by thickness pixels.
func DrawRect(dst draw.Image, rect image.Rectangle, col color.Color, thickness int) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := range max(thickness, 1) {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, rect.Min.Y+t, col)
			dst.Set(x, rect.Max.Y-1-t, col)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(rect.Min.X+t, y, col)
			dst.Set(rect.Max.X-1-t, y, col)
		}
	}
}

// DrawLine draws a line between two points using Bresenham's algorithm.
func DrawLine(dst draw.Image, a, b image.Point, col color.Color, thickness int) {
	x0, y0 := a.X, a.Y
	dx := abs(b.X - x0)
	dy := -abs(b.Y - y0)
	sx, sy := sign(b.X-x0), sign(b.Y-y0)
	err := dx + dy
	for {
		drawThickPoint(dst, x0, y0, col, thickness)
		if x0 == b.X && y0 == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// FillCircle paints a solid disc of radius r centred on c.
func FillCircle(dst draw.Image, c image.Point, r int, col color.Color) {
	b := dst.Bounds()
	for y := c.Y - r; y <= c.Y+r; y++ {
		for x := c.X - r; x <= c.X+r; x++ {
			dx, dy := x-c.X, y-c.Y
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(b) {
				dst.Set(x, y, col)
			}
		}
	}
}

// DrawLabel writes text with its baseline starting at p using a fixed 7x13 font.
func DrawLabel(dst draw.Image, p image.Point, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(p.X, p.Y),
	}
	d.DrawString(text)
}

// FillPolygon paints the interior of a simple polygon using even-odd scanlines
// sampled at pixel centres.
func FillPolygon(dst draw.Image, pts []Point, col color.Color) {
	if len(pts) < 3 {
		return
	}
	b := dst.Bounds()
	box := BoundingBox(pts)
	y0 := max(b.Min.Y, int(math.Floor(box.MinY)))
	y1 := min(b.Max.Y-1, int(math.Ceil(box.MaxY)))
	xs := make([]float64, 0, 8)
	for y := y0; y <= y1; y++ {
		cy := float64(y) + 0.5
		xs = xs[:0]
		prev := pts[len(pts)-1]
		for _, p := range pts {
			if (prev.Y <= cy) != (p.Y <= cy) {
				xs = append(xs, prev.X+(cy-prev.Y)*(p.X-prev.X)/(p.Y-prev.Y))
			}
			prev = p
		}
		slices.Sort(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			from := max(b.Min.X, int(math.Ceil(xs[i]-0.5)))
			to := min(b.Max.X-1, int(math.Ceil(xs[i+1]-0.5))-1)
			for x := from; x <= to; x++ {
				dst.Set(x, y, col)
			}
		}
	}
}

func drawThickPoint(dst draw.Image, x, y int, col color.Color, thickness int) {
	r := (max(thickness, 1) - 1) / 2
	b := dst.Bounds()
	for yy := y - r; yy <= y+r; yy++ {
		for xx := x - r; xx <= x+r; xx++ {
			if image.Pt(xx, yy).In(b) {
				dst.Set(xx, yy, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
