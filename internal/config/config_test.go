package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/netlens/netlens/internal/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.TestDuration != 10*time.Second {
		t.Errorf("test duration = %v, want 10s", cfg.TestDuration)
	}
	if cfg.UpdateInterval != 500*time.Millisecond {
		t.Errorf("update interval = %v, want 500ms", cfg.UpdateInterval)
	}
	if cfg.MaxDataPoints != 20 {
		t.Errorf("max data points = %d, want 20", cfg.MaxDataPoints)
	}
	if cfg.MaxSaneMbps != 1000 {
		t.Errorf("max sane mbps = %v, want 1000", cfg.MaxSaneMbps)
	}
	if len(cfg.Resolvers) != 3 {
		t.Errorf("resolvers = %d, want 3", len(cfg.Resolvers))
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("NETLENS_TEST_DURATION", "5s")
	t.Setenv("NETLENS_UPDATE_INTERVAL", "250ms")
	t.Setenv("NETLENS_MAX_DATA_POINTS", "40")
	t.Setenv("NETLENS_MAX_SANE_MBPS", "500")
	t.Setenv("NETLENS_PROBE_BASE_URL", "http://localhost:9999")
	t.Setenv("NETLENS_PORT", "9091")

	cfg := config.DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.TestDuration != 5*time.Second {
		t.Errorf("test duration = %v, want 5s", cfg.TestDuration)
	}
	if cfg.UpdateInterval != 250*time.Millisecond {
		t.Errorf("update interval = %v, want 250ms", cfg.UpdateInterval)
	}
	if cfg.MaxDataPoints != 40 {
		t.Errorf("max data points = %d, want 40", cfg.MaxDataPoints)
	}
	if cfg.MaxSaneMbps != 500 {
		t.Errorf("max sane mbps = %v, want 500", cfg.MaxSaneMbps)
	}
	if cfg.ProbeBaseURL != "http://localhost:9999" {
		t.Errorf("probe base URL = %q", cfg.ProbeBaseURL)
	}
	if cfg.Port != "9091" {
		t.Errorf("port = %q, want 9091", cfg.Port)
	}
}

func TestLoadFromEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"NETLENS_TEST_DURATION", "not-a-duration"},
		{"NETLENS_TEST_DURATION", "-3s"},
		{"NETLENS_UPDATE_INTERVAL", "0s"},
		{"NETLENS_MAX_DATA_POINTS", "zero"},
		{"NETLENS_MAX_DATA_POINTS", "-1"},
		{"NETLENS_MAX_SANE_MBPS", "-5"},
		{"NETLENS_PORT", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := config.DefaultConfig()
			err := cfg.LoadFromEnv()
			if err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name the variable %s", err, tt.key)
			}
		})
	}
}

func TestValidateRejectsBrokenConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero duration", func(c *config.Config) { c.TestDuration = 0 }},
		{"zero interval", func(c *config.Config) { c.UpdateInterval = 0 }},
		{"zero data points", func(c *config.Config) { c.MaxDataPoints = 0 }},
		{"inverted download range", func(c *config.Config) { c.DownloadBytesMax = c.DownloadBytesMin }},
		{"inverted upload range", func(c *config.Config) { c.UploadBytesMax = c.UploadBytesMin - 1 }},
		{"no resolvers", func(c *config.Config) { c.Resolvers = nil }},
		{"no probe base", func(c *config.Config) { c.ProbeBaseURL = "" }},
		{"port out of range", func(c *config.Config) { c.Port = "70000" }},
		{"zero trials", func(c *config.Config) { c.LatencyTrials = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigFileMerge(t *testing.T) {
	file := &config.ConfigFile{
		TestDuration:   "7s",
		UpdateInterval: "300ms",
		MaxDataPoints:  30,
		ProbeBaseURL:   "http://probe.local",
	}

	cfg := config.DefaultConfig()
	if err := file.Merge(cfg); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if cfg.TestDuration != 7*time.Second {
		t.Errorf("test duration = %v, want 7s", cfg.TestDuration)
	}
	if cfg.UpdateInterval != 300*time.Millisecond {
		t.Errorf("update interval = %v, want 300ms", cfg.UpdateInterval)
	}
	if cfg.MaxDataPoints != 30 {
		t.Errorf("max data points = %d, want 30", cfg.MaxDataPoints)
	}
	if cfg.ProbeBaseURL != "http://probe.local" {
		t.Errorf("probe base URL = %q", cfg.ProbeBaseURL)
	}
	// Untouched fields keep their defaults.
	if cfg.MaxSaneMbps != 1000 {
		t.Errorf("max sane mbps = %v, want default 1000", cfg.MaxSaneMbps)
	}
}

func TestConfigFileMergeRejectsBadDuration(t *testing.T) {
	file := &config.ConfigFile{TestDuration: "fast"}
	cfg := config.DefaultConfig()
	if err := file.Merge(cfg); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestNilConfigFileMergeIsNoop(t *testing.T) {
	var file *config.ConfigFile
	cfg := config.DefaultConfig()
	if err := file.Merge(cfg); err != nil {
		t.Fatalf("nil merge: %v", err)
	}
	if cfg.TestDuration != 10*time.Second {
		t.Errorf("test duration changed by nil merge: %v", cfg.TestDuration)
	}
}

func TestLoadFileReadsYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	appDir := filepath.Join(dir, "netlens")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "test_duration: 8s\nport: \"9100\"\nresolvers:\n  - name: Local\n    url: \"http://localhost/dns?name=%s&type=%s\"\n"
	if err := os.WriteFile(filepath.Join(appDir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := config.LoadFile()
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if file == nil {
		t.Fatal("LoadFile returned nil for an existing file")
	}

	cfg := config.DefaultConfig()
	if err := file.Merge(cfg); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if cfg.TestDuration != 8*time.Second {
		t.Errorf("test duration = %v, want 8s", cfg.TestDuration)
	}
	if cfg.Port != "9100" {
		t.Errorf("port = %q, want 9100", cfg.Port)
	}
	if len(cfg.Resolvers) != 1 || cfg.Resolvers[0].Name != "Local" {
		t.Errorf("resolvers = %+v, want the single file-provided resolver", cfg.Resolvers)
	}
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	file, err := config.LoadFile()
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if file != nil {
		t.Fatalf("LoadFile = %+v, want nil for a missing file", file)
	}
}
