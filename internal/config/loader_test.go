package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// clearDocscanEnvVars unsets every DOCSCAN_ variable for the duration of the test.
func clearDocscanEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		name, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(name, EnvPrefix+"_") {
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
}

// newTestLoader returns a loader on a private viper instance, run from an
// empty working directory.
func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	clearDocscanEnvVars(t)
	t.Chdir(t.TempDir())
	return NewLoaderWithViper(viper.New())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil || loader.v == nil {
		t.Fatal("NewLoader() returned no viper instance")
	}
	if loader.GetViper() != viper.GetViper() {
		t.Error("NewLoader() should share the global viper instance")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	loader := newTestLoader(t)

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	def := DefaultConfig()
	if cfg.LogLevel != def.LogLevel {
		t.Errorf("Expected default log level %q, got %q", def.LogLevel, cfg.LogLevel)
	}
	if cfg.ToDetectorConfig() != def.ToDetectorConfig() {
		t.Errorf("Detector defaults not applied: %+v", cfg.Detector)
	}
	if cfg.ToRectifyConfig() != def.ToRectifyConfig() {
		t.Errorf("Rectify defaults not applied: %+v", cfg.Rectify)
	}
	if cfg.Server.RateLimit.MaxDataPerDay != "100MB" {
		t.Errorf("Nested default missing, got %q", cfg.Server.RateLimit.MaxDataPerDay)
	}
	if loader.GetConfigFileUsed() != "" {
		t.Errorf("No config file expected, got %q", loader.GetConfigFileUsed())
	}
}

// TestLoadWithValidYAMLFile tests loading from a valid YAML file.
func TestLoadWithValidYAMLFile(t *testing.T) {
	loader := newTestLoader(t)
	path := writeFile(t, "docscan.yaml", `
log_level: debug
detector:
  blur_kernel_size: 7
  min_area_fraction: 0.05
rectify:
  enhance: false
server:
  port: 9000
batch:
  include: ["*.jpg"]
`)

	cfg, err := loader.LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.Detector.BlurKernelSize != 7 || cfg.Detector.MinAreaFraction != 0.05 {
		t.Errorf("Detector values not loaded: %+v", cfg.Detector)
	}
	// Unset siblings keep their defaults.
	if cfg.Detector.DilateIterations != 2 {
		t.Errorf("Expected default dilate iterations 2, got %d", cfg.Detector.DilateIterations)
	}
	if cfg.Rectify.Enhance {
		t.Error("Expected enhance to be disabled")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if len(cfg.Batch.Include) != 1 || cfg.Batch.Include[0] != "*.jpg" {
		t.Errorf("Unexpected include patterns: %v", cfg.Batch.Include)
	}
	if loader.GetConfigFileUsed() != path {
		t.Errorf("Expected config file %q, got %q", path, loader.GetConfigFileUsed())
	}
}

// TestLoadDiscoversConfigInWorkingDirectory tests the search path lookup.
func TestLoadDiscoversConfigInWorkingDirectory(t *testing.T) {
	loader := newTestLoader(t)
	if err := os.WriteFile("docscan.yaml", []byte("server:\n  port: 7070\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected port 7070, got %d", cfg.Server.Port)
	}
}

// TestLoadLegacyEdgeDetectionSection tests JSON configs that keep detector
// settings under edge_detection.
func TestLoadLegacyEdgeDetectionSection(t *testing.T) {
	loader := newTestLoader(t)
	path := writeFile(t, "config.json", `{
  "edge_detection": {"blur_kernel_size": 9, "dilate_iterations": 3},
  "detector": {"dilate_iterations": 1}
}`)

	cfg, err := loader.LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.Detector.BlurKernelSize != 9 {
		t.Errorf("edge_detection value not applied, got %d", cfg.Detector.BlurKernelSize)
	}
	if cfg.Detector.DilateIterations != 1 {
		t.Errorf("detector section should win over edge_detection, got %d", cfg.Detector.DilateIterations)
	}
}

// TestLoadEnvironmentOverrides tests DOCSCAN_ variables.
func TestLoadEnvironmentOverrides(t *testing.T) {
	loader := newTestLoader(t)
	path := writeFile(t, "docscan.yaml", "detector:\n  blur_kernel_size: 7\n")

	t.Setenv("DOCSCAN_DETECTOR_BLUR_KERNEL_SIZE", "3")
	t.Setenv("DOCSCAN_SERVER_RATE_LIMIT_ENABLED", "true")
	t.Setenv("DOCSCAN_LOG_LEVEL", "warn")

	cfg, err := loader.LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.Detector.BlurKernelSize != 3 {
		t.Errorf("Environment should override file, got %d", cfg.Detector.BlurKernelSize)
	}
	if !cfg.Server.RateLimit.Enabled {
		t.Error("Expected rate limit enabled from environment")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level warn, got %q", cfg.LogLevel)
	}
}

// TestLoadValidationFailure tests that invalid values are rejected unless
// validation is skipped.
func TestLoadValidationFailure(t *testing.T) {
	path := writeFile(t, "docscan.yaml", "detector:\n  blur_kernel_size: 4\n")

	if _, err := newTestLoader(t).LoadWithFile(path); err == nil {
		t.Fatal("LoadWithFile() expected validation error")
	} else if !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("Unexpected error: %v", err)
	}

	cfg, err := newTestLoader(t).LoadWithFileWithoutValidation(path)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.Detector.BlurKernelSize != 4 {
		t.Errorf("Expected raw value 4, got %d", cfg.Detector.BlurKernelSize)
	}
}

func TestLoadWithFileErrors(t *testing.T) {
	if _, err := newTestLoader(t).LoadWithFile("/does/not/exist.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}

	path := writeFile(t, "docscan.yaml", "detector: [unclosed\n")
	if _, err := newTestLoader(t).LoadWithFile(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestLoaderAccessors(t *testing.T) {
	loader := newTestLoader(t)
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}

	loader.Set("output.dir", "/tmp/out")
	if got := loader.GetString("output.dir"); got != "/tmp/out" {
		t.Errorf("GetString() = %q", got)
	}
	if got := loader.Get("server.port"); got != 8080 {
		t.Errorf("Get() = %v", got)
	}
	settings := loader.GetResolvedConfig()
	if _, ok := settings["detector"]; !ok {
		t.Error("Resolved config lacks detector section")
	}
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	if err := GenerateDefaultConfigFile(path); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("generated file is not valid YAML: %v", err)
	}
	if cfg.Detector.BlurKernelSize != 5 || cfg.Rectify.ThresholdBlockSize != 21 {
		t.Errorf("Generated file lacks defaults: %+v", cfg.Detector)
	}

	// The generated file loads back cleanly.
	loaded, err := newTestLoader(t).LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile(generated) error: %v", err)
	}
	if loaded.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", loaded.Server.Port)
	}
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()

	if paths[0] != "." {
		t.Errorf("Working directory should be searched first, got %v", paths)
	}
	want := []string{"/etc/docscan", filepath.Join("/xdg", "docscan")}
	for _, w := range want {
		found := false
		for _, p := range paths {
			if p == w {
				found = true
			}
		}
		if !found {
			t.Errorf("Search paths %v lack %q", paths, w)
		}
	}
}
