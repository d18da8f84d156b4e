package rectify

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identity = Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}

func TestWarpPerspective_InvalidArguments(t *testing.T) {
	assert.Nil(t, warpPerspective(nil, identity, 10, 10))
	src := gradientImage(8, 8)
	assert.Nil(t, warpPerspective(src, identity, 0, 10))
	assert.Nil(t, warpPerspective(src, identity, 10, 0))
}

func TestWarpPerspective_IdentityCopies(t *testing.T) {
	src := gradientImage(17, 9)
	out := warpPerspective(src, identity, 17, 9)
	require.NotNil(t, out)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestWarpPerspective_Translation(t *testing.T) {
	src := gradientImage(20, 20)
	shift := Homography{1, 0, 5, 0, 1, 3, 0, 0, 1}
	out := warpPerspective(src, shift, 10, 10)
	require.NotNil(t, out)
	assert.Equal(t, src.NRGBAAt(5, 3), out.NRGBAAt(0, 0))
	assert.Equal(t, src.NRGBAAt(14, 12), out.NRGBAAt(9, 9))
}

func TestWarpPerspective_OutsideIsBlack(t *testing.T) {
	src := gradientImage(10, 10)
	shift := Homography{1, 0, -20, 0, 1, 0, 0, 0, 1}
	out := warpPerspective(src, shift, 5, 5)
	for i := 0; i < len(out.Pix); i += 4 {
		assert.Equal(t, []uint8{0, 0, 0, 255}, out.Pix[i:i+4])
	}
}

func TestWarpPerspective_IgnoresSourceOrigin(t *testing.T) {
	base := gradientImage(12, 12)
	shifted := &image.NRGBA{Pix: base.Pix, Stride: base.Stride, Rect: image.Rect(40, 40, 52, 52)}
	assert.Equal(t, warpPerspective(base, identity, 12, 12).Pix, warpPerspective(shifted, identity, 12, 12).Pix)
}

func TestBilinearSample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Pix = []uint8{0, 100, 200, 255, 100, 200, 0, 255}
	px := make([]uint8, 4)

	bilinearSample(src, 0.5, 0, px)
	assert.Equal(t, []uint8{50, 150, 100}, px[:3])

	// Half the neighbours fall outside and read as black.
	clear(px)
	bilinearSample(src, 1.5, 0, px)
	assert.Equal(t, []uint8{50, 100, 0}, px[:3])

	clear(px)
	bilinearSample(src, -3, 0, px)
	assert.Equal(t, []uint8{0, 0, 0}, px[:3])
}
