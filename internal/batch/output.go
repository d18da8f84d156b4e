package batch

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

// OutputPrefix starts every rectified file name.
const OutputPrefix = "enhanced_"

// DefaultTimestampFormat renders as YYYYmmdd_HHMMSS.
const DefaultTimestampFormat = "20060102_150405"

// maxNameAttempts bounds the numbered suffixes tried for a taken name.
const maxNameAttempts = 1000

// OutputName returns enhanced_<stem>_<timestamp>.<ext> for the input path.
func OutputName(input string, ts time.Time, layout, ext string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s%s_%s.%s", OutputPrefix, stem, ts.Format(layout), strings.TrimPrefix(ext, "."))
}

// formatExtension maps an image format name to the encoder and file extension.
func formatExtension(name string) (imaging.Format, string, error) {
	f, err := utils.ParseFormat(name)
	if err != nil {
		return 0, "", err
	}
	switch f {
	case imaging.JPEG:
		return f, "jpg", nil
	case imaging.PNG:
		return f, "png", nil
	}
	return 0, "", fmt.Errorf("unsupported output format %q (use jpeg or png)", name)
}

// createUnique creates path, or path with _1, _2, ... before the extension
// when it is taken. Inputs with the same base name scanned within one second
// would otherwise overwrite each other.
func createUnique(path string) (*os.File, string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	candidate := path
	for i := 1; i <= maxNameAttempts; i++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // user chosen output dir
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	return nil, "", fmt.Errorf("no free file name for %s", path)
}

// writeDocument encodes img into dir under a fresh timestamped name and
// returns the path written.
func writeDocument(dir, input string, img image.Image, cfg *Config) (string, error) {
	format, ext, err := formatExtension(cfg.ImageFormat)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	layout := cfg.TimestampFormat
	if layout == "" {
		layout = DefaultTimestampFormat
	}
	name := OutputName(input, cfg.now(), layout, ext)
	f, path, err := createUnique(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	if err := utils.EncodeImage(f, img, format, cfg.Quality); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// overlayPath returns <dir>/<stem>_overlay.png for the input.
func overlayPath(dir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+"_overlay.png")
}

func (c *Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
