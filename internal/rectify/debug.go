package rectify

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

func roundQuad(quad []utils.Point) []image.Point {
	pts := make([]image.Point, len(quad))
	for i, p := range quad {
		pts[i] = p.Round()
	}
	return pts
}

func writePNG(dir, prefix string, img image.Image) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.png", prefix, time.Now().UnixNano()))
	f, err := os.Create(path) //nolint:gosec // G304: path is constructed from timestamp in debug directory
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return png.Encode(f, img)
}

func dumpOverlayPNG(dir string, src image.Image, quad []utils.Point) error {
	b := src.Bounds()
	canvas := image.NewNRGBA(b)
	draw.Draw(canvas, b, src, b.Min, draw.Src)
	utils.DrawPolygon(canvas, roundQuad(quad), color.NRGBA{255, 0, 0, 255}, 2)
	return writePNG(dir, "rect_overlay", canvas)
}

func dumpComparePNG(dir string, src image.Image, srcQuad []utils.Point, dst image.Image) error {
	sb := src.Bounds()
	db := dst.Bounds()
	gap := 10
	outW := sb.Dx() + gap + db.Dx()
	outH := max(sb.Dy(), db.Dy())
	canvas := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	// source on the left, destination on the right
	draw.Draw(canvas, image.Rect(0, 0, sb.Dx(), sb.Dy()), src, sb.Min, draw.Src)
	xoff := sb.Dx() + gap
	draw.Draw(canvas, image.Rect(xoff, 0, xoff+db.Dx(), db.Dy()), dst, db.Min, draw.Src)

	quad := make([]utils.Point, len(srcQuad))
	for i, p := range srcQuad {
		quad[i] = utils.Point{X: p.X - float64(sb.Min.X), Y: p.Y - float64(sb.Min.Y)}
	}
	utils.DrawPolygon(canvas, roundQuad(quad), color.NRGBA{255, 0, 0, 255}, 2)
	utils.DrawRect(canvas, image.Rect(xoff, 0, xoff+db.Dx(), db.Dy()), color.NRGBA{0, 255, 0, 255}, 2)
	return writePNG(dir, "rect_compare", canvas)
}
