package detector

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
)

// documentImage returns a black canvas with a white rectangle covering doc.
func documentImage(w, h int, doc image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(img, doc, image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := New(DefaultConfig())
	require.NoError(t, err)
	return d
}

func nearestCorner(corners [4]image.Point, want image.Point) (image.Point, float64) {
	best, bestD := corners[0], -1.0
	for _, c := range corners {
		dx, dy := float64(c.X-want.X), float64(c.Y-want.Y)
		if d := dx*dx + dy*dy; bestD < 0 || d < bestD {
			best, bestD = c, d
		}
	}
	return best, bestD
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlurKernelSize = 4
	_, err := New(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, docerr.ErrInvalidInput)
}

func TestDetect_InvalidInput(t *testing.T) {
	d := newTestDetector(t)

	_, err := d.Detect(nil)
	assert.ErrorIs(t, err, docerr.ErrInvalidInput)

	_, err = d.Detect(image.NewNRGBA(image.Rect(0, 0, 0, 10)))
	assert.ErrorIs(t, err, docerr.ErrInvalidInput)
}

func TestDetect_UniformImageNotFound(t *testing.T) {
	d := newTestDetector(t)
	img := image.NewNRGBA(image.Rect(0, 0, 200, 150))
	draw.Draw(img, img.Rect, image.NewUniform(color.Gray{Y: 128}), image.Point{}, draw.Src)

	res, err := d.Detect(img)
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Zero(t, res.ContourCount)
}

func TestDetect_EndToEndRectangle(t *testing.T) {
	d := newTestDetector(t)
	doc := image.Rect(100, 100, 900, 700)
	res, err := d.Detect(documentImage(1000, 800, doc))
	require.NoError(t, err)
	require.True(t, res.Found())

	for _, want := range []image.Point{{100, 100}, {900, 100}, {900, 700}, {100, 700}} {
		got, d2 := nearestCorner(res.Corners, want)
		assert.LessOrEqual(t, d2, 100.0, "corner %v too far from %v", got, want)
	}
	assert.InDelta(t, 0.6, res.AreaRatio(), 0.03)
}

func TestDetect_TinyDocumentNotFound(t *testing.T) {
	d := newTestDetector(t)
	res, err := d.Detect(documentImage(400, 300, image.Rect(200, 150, 206, 155)))
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Positive(t, res.ContourCount)
	assert.Less(t, res.AreaRatio(), 0.01)
}

func TestDetect_Deterministic(t *testing.T) {
	d := newTestDetector(t)
	img := documentImage(240, 180, image.Rect(30, 20, 200, 160))

	first, err := d.Detect(img)
	require.NoError(t, err)
	for range 3 {
		again, err := d.Detect(img)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDetect_OffsetBounds(t *testing.T) {
	d := newTestDetector(t)
	base := documentImage(240, 180, image.Rect(30, 20, 200, 160))
	shifted := image.NewNRGBA(image.Rect(50, 40, 290, 220))
	draw.Draw(shifted, shifted.Rect, base, image.Point{}, draw.Src)

	a, err := d.Detect(base)
	require.NoError(t, err)
	b, err := d.Detect(shifted)
	require.NoError(t, err)
	require.True(t, a.Found())
	require.True(t, b.Found())
	for i := range a.Corners {
		assert.Equal(t, a.Corners[i].Add(image.Pt(50, 40)), b.Corners[i])
	}
}

func TestAnalyze_Intermediates(t *testing.T) {
	d := newTestDetector(t)
	a, err := d.Analyze(documentImage(160, 120, image.Rect(20, 20, 140, 100)))
	require.NoError(t, err)

	for _, g := range []*image.Gray{a.Gray, a.Equalized, a.Blurred, a.Edges, a.Dilated} {
		require.NotNil(t, g)
		assert.Equal(t, image.Rect(0, 0, 160, 120), g.Rect)
	}
	assert.NotEmpty(t, a.Contours)
	assert.True(t, a.Result.Found())
	assert.Equal(t, len(a.Contours), a.Result.ContourCount)
}

func TestAnalyze_DebugDirWritesOverlay(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DebugDir = dir
	d, err := New(cfg)
	require.NoError(t, err)

	_, err = d.Detect(documentImage(120, 90, image.Rect(10, 10, 110, 80)))
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "detect_contours_*.png"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	info, err := os.Stat(matches[0])
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

// TestDetect_FoundHasCornersInBoundsProperty checks that every detection of a
// random bright rectangle reports four corners inside the image.
func TestDetect_FoundHasCornersInBoundsProperty(t *testing.T) {
	d := newTestDetector(t)
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 15
	properties := gopter.NewProperties(params)

	properties.Property("found implies four in-bounds corners", prop.ForAll(
		func(x0, y0, rw, rh int) bool {
			img := documentImage(120, 100, image.Rect(x0, y0, x0+rw, y0+rh))
			res, err := d.Detect(img)
			if err != nil {
				return false
			}
			if !res.Found() {
				return true
			}
			if len(res.Quad()) != 4 {
				return false
			}
			for _, p := range res.Corners {
				if !p.In(img.Rect) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 60),
		gen.IntRange(0, 50),
		gen.IntRange(4, 60),
		gen.IntRange(4, 50),
	))

	properties.TestingRun(t)
}
