package detector

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

var (
	contourColor = color.NRGBA{0, 255, 0, 255}
	cornerColor  = color.NRGBA{255, 0, 0, 255}
	labelColor   = color.NRGBA{255, 255, 255, 255}
)

const (
	contourThickness = 2
	quadThickness    = 3
	cornerRadius     = 10
)

func cloneNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	canvas := image.NewNRGBA(b)
	draw.Draw(canvas, b, src, b.Min, draw.Src)
	return canvas
}

// DrawContours returns a copy of img with every contour outlined in green.
// Contours are relative to the image origin.
func DrawContours(img image.Image, contours [][]image.Point) *image.NRGBA {
	canvas := cloneNRGBA(img)
	off := img.Bounds().Min
	for _, c := range contours {
		pts := make([]image.Point, len(c))
		for i, p := range c {
			pts[i] = p.Add(off)
		}
		if len(pts) == 1 {
			utils.DrawLine(canvas, pts[0], pts[0], contourColor, contourThickness)
			continue
		}
		utils.DrawPolygon(canvas, pts, contourColor, contourThickness)
	}
	return canvas
}

// DrawDetection returns a copy of img with the detected quadrilateral, filled
// corner markers and their indices. Without a detection it is a plain copy.
func DrawDetection(img image.Image, res Result) *image.NRGBA {
	canvas := cloneNRGBA(img)
	if !res.Found() {
		return canvas
	}
	utils.DrawPolygon(canvas, res.Corners[:], contourColor, quadThickness)
	for i, p := range res.Corners {
		utils.FillCircle(canvas, p, cornerRadius, cornerColor)
		utils.DrawLabel(canvas, p.Add(image.Pt(cornerRadius+2, -cornerRadius)), strconv.Itoa(i), labelColor)
	}
	return canvas
}

func dumpContoursPNG(dir string, src image.Image, contours [][]image.Point) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("detect_contours_%d.png", time.Now().UnixNano()))
	f, err := os.Create(path) //nolint:gosec // G304: path is constructed from timestamp in debug directory
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return png.Encode(f, DrawContours(src, contours))
}
