package batch

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AinsleeWang/smart-doc-scan/internal/testutil"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

var fixedTime = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func TestOutputName(t *testing.T) {
	assert.Equal(t, "enhanced_receipt_20240506_070809.jpg",
		OutputName("/data/in/receipt.png", fixedTime, DefaultTimestampFormat, "jpg"))
	assert.Equal(t, "enhanced_a.b_20240506_070809.png",
		OutputName("a.b.tiff", fixedTime, DefaultTimestampFormat, ".png"))
}

func TestFormatExtension(t *testing.T) {
	_, ext, err := formatExtension("jpeg")
	require.NoError(t, err)
	assert.Equal(t, "jpg", ext)

	_, ext, err = formatExtension("PNG")
	require.NoError(t, err)
	assert.Equal(t, "png", ext)

	_, _, err = formatExtension("gif")
	assert.Error(t, err)
	_, _, err = formatExtension("nope")
	assert.Error(t, err)
}

func TestWriteDocument_NamesAndCollisions(t *testing.T) {
	dir := filepath.Join(testutil.CreateTempDir(t), "out")
	cfg := DefaultConfig()
	cfg.ImageFormat = "png"
	cfg.TimestampFormat = ""
	cfg.Now = func() time.Time { return fixedTime }
	img := testutil.CreateTestImage(30, 20, testutil.Gray(200))

	first, err := writeDocument(dir, "scans/page.jpg", img, cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "enhanced_page_20240506_070809.png"), first)

	second, err := writeDocument(dir, "other/page.jpg", img, cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "enhanced_page_20240506_070809_1.png"), second)

	loaded, _, err := utils.LoadImage(second)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 20), loaded.Bounds())
}

func TestWriteDocument_BadFormatLeavesNoFile(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	cfg := DefaultConfig()
	cfg.ImageFormat = "gif"

	_, err := writeDocument(dir, "x.png", testutil.CreateTestImage(4, 4, testutil.Gray(0)), cfg)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOverlayPath(t *testing.T) {
	assert.Equal(t, filepath.Join("ov", "doc_overlay.png"), overlayPath("ov", "in/doc.jpeg"))
}
