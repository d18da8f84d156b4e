package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/testutil"
	"github.com/AinsleeWang/smart-doc-scan/internal/version"
)

// run executes a fresh command tree from an empty working directory.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writePage(t *testing.T, dir string) string {
	t.Helper()
	return testutil.WriteImage(t, dir, "page.png", testutil.CreateDocumentImage(320, 240, image.Rect(40, 30, 280, 210)))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitNoDocument, ExitCode(fmt.Errorf("2 of 3 inputs: %w", docerr.ErrNoDocument)))
	assert.Equal(t, exitNoDocument, ExitCode(docerr.NoDocument("detect")))
	assert.Equal(t, exitFailure, ExitCode(errors.New("boom")))
}

func TestRootCommandListsSubcommands(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"detect", "scan", "batch", "serve", "config", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.Get().String()+"\n", out)

	out, _, err = run(t, "version", "--json")
	require.NoError(t, err)
	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	page := writePage(t, dir)
	blank := testutil.WriteImage(t, dir, "blank.png", testutil.CreateTestImage(200, 200, testutil.Gray(0)))

	out, _, err := run(t, "detect", page, "--format", "json")
	require.NoError(t, err)
	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "found", rep["detection"].(map[string]any)["status"])

	_, _, err = run(t, "detect", blank)
	require.Error(t, err)
	assert.ErrorIs(t, err, docerr.ErrNoDocument)
	assert.Equal(t, exitNoDocument, ExitCode(err))
}

func TestScanCommandWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	page := writePage(t, dir)
	outDir := filepath.Join(dir, "out")
	bundle := filepath.Join(dir, "bundle.pdf")

	_, _, err := run(t, "scan", page, "--output-dir", outDir, "--image-format", "png", "--pdf", bundle)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(outDir, "enhanced_page_*.png"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.True(t, testutil.FileExists(bundle))
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	page := writePage(t, dir)
	cfgPath := filepath.Join(dir, "docscan.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("detector:\n  min_area_fraction: 0.9\n"), 0o600))

	_, _, err := run(t, "detect", page, "--config", cfgPath)
	assert.ErrorIs(t, err, docerr.ErrNoDocument, "config file threshold should reject the page")

	_, _, err = run(t, "detect", page, "--config", cfgPath, "--min-area", "0.01")
	assert.NoError(t, err)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("DOCSCAN_OUTPUT_FORMAT", "csv")
	page := writePage(t, t.TempDir())

	out, _, err := run(t, "detect", page)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2, "header plus one row")
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docscan.yaml")

	out, _, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.True(t, testutil.FileExists(path))

	_, _, err = run(t, "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, _, err = run(t, "config", "show", "--config", path, "--format", "json")
	require.NoError(t, err)
	body := out[strings.Index(out, "{"):]
	var shown map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &shown))
	assert.Contains(t, shown, "detector")

	_, _, err = run(t, "config", "show", "--format", "toml")
	assert.Error(t, err)
}

func TestInvalidConfigurationIsRejected(t *testing.T) {
	dir := t.TempDir()
	page := writePage(t, dir)
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  quality: 0\n"), 0o600))

	_, _, err := run(t, "detect", page, "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
