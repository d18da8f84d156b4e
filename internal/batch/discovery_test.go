package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AinsleeWang/smart-doc-scan/internal/testutil"
)

func touch(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
}

func TestDiscoverInputs_EmptyArgs(t *testing.T) {
	files, err := discoverInputs([]string{}, false, newInputFilter([]string{"*.png"}, nil))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverInputs_SingleFiles(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	png := filepath.Join(dir, "test.png")
	txt := filepath.Join(dir, "test.txt")
	touch(t, png, txt)

	// Explicit files are kept even with an unknown extension.
	files, err := discoverInputs([]string{png, txt, png}, false, newInputFilter(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{png, txt}, files)
}

func TestDiscoverInputs_DirectoryFiltersExtensions(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	touch(t,
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "scan.pdf"),
		filepath.Join(dir, "notes.txt"),
	)

	files, err := discoverInputs([]string{dir}, false, newInputFilter(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "scan.pdf"),
	}, files)
}

func TestDiscoverInputs_Recursion(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	root := filepath.Join(dir, "root.png")
	sub := filepath.Join(dir, "sub", "inner.png")
	hidden := filepath.Join(dir, ".cache", "thumb.png")
	touch(t, root, sub, hidden)

	files, err := discoverInputs([]string{dir}, true, newInputFilter(nil, nil))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root, sub}, files)

	files, err = discoverInputs([]string{dir}, false, newInputFilter(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{root}, files)
}

func TestDiscoverInputs_Patterns(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	keep := filepath.Join(dir, "receipt_01.jpg")
	skip := filepath.Join(dir, "receipt_01_overlay.jpg")
	other := filepath.Join(dir, "photo.png")
	touch(t, keep, skip, other)

	files, err := discoverInputs([]string{dir}, false, newInputFilter([]string{"receipt_*"}, []string{"*_overlay.*"}))
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, files)
}

func TestDiscoverInputs_MissingPath(t *testing.T) {
	_, err := discoverInputs([]string{"/nonexistent/file.png"}, false, newInputFilter(nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestInputFilter(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		include []string
		exclude []string
		want    bool
	}{
		{"no patterns", "a/b.png", nil, nil, true},
		{"include hit", "a/b.png", []string{"*.png"}, nil, true},
		{"include miss", "a/b.jpg", []string{"*.png"}, nil, false},
		{"exclude wins", "a/b.png", []string{"*.png"}, []string{"b.*"}, false},
		{"case insensitive", "a/B.JPG", []string{"*.jpg"}, nil, true},
		{"bad pattern never matches", "a/b.png", []string{"["}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newInputFilter(tt.include, tt.exclude).accepts(tt.path))
		})
	}
}
