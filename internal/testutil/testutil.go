package testutil

import (
	"image"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

// CreateTempDir returns a scratch directory removed with the test.
func CreateTempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// FileExists reports whether anything is present at path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// OutputNames lists the regular files in dir whose base name matches
// pattern, sorted.
func OutputNames(t *testing.T, dir, pattern string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err, "read %s", dir)

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		require.NoError(t, err, "bad pattern %q", pattern)
		if ok {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

// ReadScan decodes an image written by a scan and returns it with its size.
func ReadScan(t *testing.T, path string) (image.Image, image.Point) {
	t.Helper()
	img, meta, err := utils.LoadImage(path)
	require.NoError(t, err, "decode %s", path)
	return img, image.Pt(meta.Width, meta.Height)
}
