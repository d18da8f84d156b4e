package imgproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanny_UniformHasNoEdges(t *testing.T) {
	out := Canny(uniformGray(32, 32, 128), 10, 30)
	assert.Equal(t, 0, countValue(out, 255))
}

func TestCanny_VerticalStep(t *testing.T) {
	g := grayWithRect(40, 30, 20, 0, 40, 30, 0, 255)
	out := Canny(g, 50, 150)

	for y := 2; y < 28; y++ {
		edges := 0
		for x := range 40 {
			if out.Pix[y*40+x] == 255 {
				edges++
				assert.InDelta(t, 19.5, float64(x), 1.0, "row %d", y)
			}
		}
		assert.Equal(t, 1, edges, "row %d should carry one thin edge", y)
	}
}

func TestCanny_HysteresisDropsIsolatedWeakEdges(t *testing.T) {
	g := grayWithRect(40, 30, 20, 0, 40, 30, 100, 110)
	assert.Equal(t, 0, countValue(Canny(g, 10, 1000), 255))
	assert.Positive(t, countValue(Canny(g, 10, 30), 255))
}

func TestCanny_SwappedThresholds(t *testing.T) {
	g := grayWithRect(30, 30, 10, 10, 20, 20, 0, 255)
	assert.Equal(t, Canny(g, 50, 150).Pix, Canny(g, 150, 50).Pix)
}
