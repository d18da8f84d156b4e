package imgproc

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipHistogramPreservesMass(t *testing.T) {
	var hist [histSize]int
	hist[0] = 500
	hist[10] = 300
	hist[255] = 224
	clipHistogram(&hist, 40)

	total := 0
	for _, v := range hist {
		total += v
	}
	assert.Equal(t, 1024, total)
	for i, v := range hist {
		assert.LessOrEqual(t, v, 40+4, "bin %d", i)
	}
}

func TestCLAHE_UniformImage(t *testing.T) {
	out := CLAHE(uniformGray(64, 64, 90), 8, 8, 2.0)
	require.Equal(t, image.Rect(0, 0, 64, 64), out.Bounds())
	first := out.Pix[0]
	for _, v := range out.Pix {
		assert.Equal(t, first, v)
	}
}

func TestCLAHE_IncreasesLocalContrast(t *testing.T) {
	g := uniformGray(80, 80, 100)
	for y := range 80 {
		for x := range 80 {
			if (x/4+y/4)%2 == 0 {
				g.Pix[y*80+x] = 110
			}
		}
	}
	out := CLAHE(g, 4, 4, 2.0)
	in := int(g.Pix[4]) - int(g.Pix[0])
	got := int(out.Pix[4]) - int(out.Pix[0])
	assert.Greater(t, abs(got), abs(in))
}

func TestCLAHE_NonDivisibleSizes(t *testing.T) {
	for _, sz := range [][2]int{{37, 23}, {3, 5}, {16, 9}, {1, 1}} {
		g := grayWithRect(sz[0], sz[1], 0, 0, sz[0]/2, sz[1], 20, 200)
		out := CLAHE(g, 8, 8, 2.0)
		assert.Equal(t, image.Rect(0, 0, sz[0], sz[1]), out.Bounds())
	}
}

func TestCLAHE_Deterministic(t *testing.T) {
	g := grayWithRect(50, 40, 10, 5, 30, 35, 30, 180)
	assert.Equal(t, CLAHE(g, 16, 16, 1.5).Pix, CLAHE(g, 16, 16, 1.5).Pix)
}
