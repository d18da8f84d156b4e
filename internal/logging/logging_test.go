package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	h, closer, err := NewHandler(Options{Level: "warn", Format: "json", Writer: &buf})
	require.NoError(t, err)
	defer func() { _ = closer.Close() }()

	logger := slog.New(h)
	logger.Info("hidden")
	logger.Warn("shown", "contours", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.InDelta(t, 3, rec["contours"], 0)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewHandler_Text(t *testing.T) {
	for _, format := range []string{"text", "logfmt"} {
		var buf bytes.Buffer
		h, _, err := NewHandler(Options{Level: "debug", Format: format, Writer: &buf})
		require.NoError(t, err, format)

		slog.New(h).Debug("stage finished", "stage", "canny")
		assert.Contains(t, buf.String(), "stage finished", format)
		assert.Contains(t, buf.String(), "canny", format)
	}
}

func TestNewHandler_FileRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "docscan.log")
	h, closer, err := NewHandler(Options{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	slog.New(h).Info("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNewHandler_Errors(t *testing.T) {
	_, _, err := NewHandler(Options{Level: "nope"})
	require.Error(t, err)
	_, _, err = NewHandler(Options{Format: "xml"})
	require.Error(t, err)
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	closeFn, err := Setup(Options{Level: "info", Format: "json", Writer: &buf})
	require.NoError(t, err)
	slog.Info("default logger")
	require.NoError(t, closeFn())
	assert.Contains(t, buf.String(), "default logger")
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "info", opts.Level)
	assert.Equal(t, "json", opts.Format)
	assert.Positive(t, opts.MaxSizeMB)
}
