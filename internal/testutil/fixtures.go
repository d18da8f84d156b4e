package testutil

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Point is a JSON friendly pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SceneFixture pairs a generated scene with the detection it should produce.
type SceneFixture struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Corners     []Point `json:"corners,omitempty"`
	ExpectFound bool    `json:"expect_found"`
}

// Scene renders the fixture.
func (f SceneFixture) Scene() *image.NRGBA {
	cfg := DefaultSceneConfig()
	cfg.Size = ImageSize{f.Width, f.Height}
	cfg.Corners = nil
	for _, p := range f.Corners {
		cfg.Corners = append(cfg.Corners, image.Pt(p.X, p.Y))
	}
	return GenerateScene(cfg)
}

// ImagePoints returns the expected corners as image points.
func (f SceneFixture) ImagePoints() []image.Point {
	out := make([]image.Point, len(f.Corners))
	for i, p := range f.Corners {
		out[i] = image.Pt(p.X, p.Y)
	}
	return out
}

func toPoints(pts []image.Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{p.X, p.Y}
	}
	return out
}

// StandardScenes returns the fixtures shared by the package and CLI tests.
func StandardScenes() []SceneFixture {
	return []SceneFixture{
		{
			Name:        "axis_aligned",
			Description: "white page (100,100)-(900,700) on a black 1000x800 background",
			Width:       1000, Height: 800,
			Corners:     toPoints(RectCorners(image.Rect(100, 100, 900, 700))),
			ExpectFound: true,
		},
		{
			Name:        "rotated",
			Description: "500x350 page rotated 12 degrees in a 800x600 frame",
			Width:       800, Height: 600,
			Corners:     toPoints(RotatedCorners(image.Pt(400, 300), 500, 350, 12)),
			ExpectFound: true,
		},
		{
			Name:        "perspective",
			Description: "trapezoid as seen from below the page",
			Width:       800, Height: 600,
			Corners:     []Point{{220, 90}, {580, 90}, {700, 520}, {100, 520}},
			ExpectFound: true,
		},
		{
			Name:        "tiny",
			Description: "page smaller than one percent of the frame",
			Width:       400, Height: 400,
			Corners:     toPoints(RectCorners(image.Rect(10, 10, 45, 45))),
			ExpectFound: false,
		},
		{
			Name:        "uniform",
			Description: "no page at all",
			Width:       300, Height: 200,
			ExpectFound: false,
		},
	}
}

// WriteSceneFiles renders every standard scene into dir as PNG and returns
// the written paths in fixture order.
func WriteSceneFiles(t *testing.T, dir string) []string {
	t.Helper()
	scenes := StandardScenes()
	paths := make([]string, 0, len(scenes))
	for _, s := range scenes {
		paths = append(paths, WriteImage(t, dir, s.Name+".png", s.Scene()))
	}
	return paths
}

// SaveFixture writes f as JSON next to the scene images.
func SaveFixture(t *testing.T, dir string, f SceneFixture) string {
	t.Helper()
	data, err := json.MarshalIndent(f, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, f.Name+".json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// LoadFixture reads a fixture written by SaveFixture.
func LoadFixture(t *testing.T, path string) SceneFixture {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // G304: test fixture path
	require.NoError(t, err, "Failed to read fixture file: %s", path)
	var f SceneFixture
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

// Gray returns a uniform colour of the given intensity.
func Gray(v uint8) color.Color { return color.NRGBA{v, v, v, 255} }
