package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
	PhotoSize  = ImageSize{1000, 800}
)

// SceneConfig describes a synthetic photograph of a single page.
type SceneConfig struct {
	Size       ImageSize
	Background color.Color
	Paper      color.Color
	Ink        color.Color
	// Corners of the page, clockwise from top-left. Nil means no page.
	Corners []image.Point
	// Lines of text drawn near the top of the page bounding box.
	Text []string
}

// DefaultSceneConfig returns a 1000x800 scene with an axis-aligned white page
// spanning (100,100)-(900,700) on black.
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		Size:       PhotoSize,
		Background: color.Black,
		Paper:      color.White,
		Ink:        color.Black,
		Corners:    RectCorners(image.Rect(100, 100, 900, 700)),
	}
}

// RectCorners lists r's corners clockwise from top-left, inclusive of the
// last pixel row and column.
func RectCorners(r image.Rectangle) []image.Point {
	return []image.Point{
		{r.Min.X, r.Min.Y},
		{r.Max.X - 1, r.Min.Y},
		{r.Max.X - 1, r.Max.Y - 1},
		{r.Min.X, r.Max.Y - 1},
	}
}

// RotatedCorners returns the corners of a w x h page centred on c and rotated
// by deg degrees.
func RotatedCorners(c image.Point, w, h int, deg float64) []image.Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	hw, hh := float64(w)/2, float64(h)/2
	offsets := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	out := make([]image.Point, 4)
	for i, o := range offsets {
		x := o[0]*cos - o[1]*sin
		y := o[0]*sin + o[1]*cos
		out[i] = image.Pt(c.X+int(math.Round(x)), c.Y+int(math.Round(y)))
	}
	return out
}

// GenerateScene renders cfg into a fresh NRGBA image.
func GenerateScene(cfg SceneConfig) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cfg.Size.Width, cfg.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)
	if len(cfg.Corners) < 3 {
		return img
	}

	poly := make([]utils.Point, len(cfg.Corners))
	for i, p := range cfg.Corners {
		// Extend by half a pixel so the inclusive corner pixels are covered.
		poly[i] = utils.Point{X: float64(p.X) + 0.5, Y: float64(p.Y) + 0.5}
	}
	center := utils.Point{}
	for _, p := range poly {
		center.X += p.X / float64(len(poly))
		center.Y += p.Y / float64(len(poly))
	}
	for i, p := range poly {
		poly[i] = utils.Point{X: p.X + sign(p.X-center.X)*0.5, Y: p.Y + sign(p.Y-center.Y)*0.5}
	}
	utils.FillPolygon(img, poly, cfg.Paper)

	if len(cfg.Text) > 0 {
		drawText(img, utils.BoundingBox(poly), cfg.Text, cfg.Ink)
	}
	return img
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func drawText(img draw.Image, box utils.Box, lines []string, ink color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: &image.Uniform{ink}, Face: face}
	lineHeight := face.Metrics().Height.Ceil() + 4
	x := int(box.MinX+(box.MaxX-box.MinX)*0.15) + 1
	y := int(box.MinY+(box.MaxY-box.MinY)*0.15) + lineHeight
	for _, line := range lines {
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
		y += lineHeight
	}
}

// CreateTestImage creates a uniform image with the given colour.
func CreateTestImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// CreateDocumentImage is a shortcut for a page at r on a black background.
func CreateDocumentImage(width, height int, r image.Rectangle) *image.NRGBA {
	cfg := DefaultSceneConfig()
	cfg.Size = ImageSize{width, height}
	cfg.Corners = RectCorners(r)
	return GenerateScene(cfg)
}

// AddNoise flips pixels on a deterministic lattice to imitate sensor speckle.
// level is the approximate fraction of affected pixels.
func AddNoise(img *image.NRGBA, level float64) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	if level <= 0 {
		return out
	}
	period := max(int(math.Round(1/level)), 1)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if (x*31+y*17)%period != 0 {
				continue
			}
			i := out.PixOffset(x, y)
			out.Pix[i] = 255 - out.Pix[i]
			out.Pix[i+1] = 255 - out.Pix[i+1]
			out.Pix[i+2] = 255 - out.Pix[i+2]
		}
	}
	return out
}

// WriteImage saves img under dir/name (format from the extension) and
// returns the full path.
func WriteImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, utils.SaveImage(path, img, 95), "Failed to save %s", path)
	return path
}

// CompareImages reports whether the mean per-channel difference between two
// equally sized images is at most tolerance (0..1).
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return false
	}
	if b1.Empty() {
		return true
	}
	var total float64
	for y := 0; y < b1.Dy(); y++ {
		for x := 0; x < b1.Dx(); x++ {
			r1, g1, bl1, a1 := img1.At(b1.Min.X+x, b1.Min.Y+y).RGBA()
			r2, g2, bl2, a2 := img2.At(b2.Min.X+x, b2.Min.Y+y).RGBA()
			total += math.Abs(float64(r1)-float64(r2)) + math.Abs(float64(g1)-float64(g2)) +
				math.Abs(float64(bl1)-float64(bl2)) + math.Abs(float64(a1)-float64(a2))
		}
	}
	mean := total / float64(4*b1.Dx()*b1.Dy()) / 65535
	return mean <= tolerance
}
