package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfigFile_YAML(t *testing.T) {
	p := writeConfig(t, "quoracook.yaml", `
input: ./archive
output: ./cooked
site: https://www.quora.com
images:
  delay: 0.25
  noDownload: true
  timeout: 30s
origin:
  timestamp: 1422748800000
  timezone: 0
cache:
  dir: .quoracook-cache
  maxAge: 24h
`)
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := Config{InputDir: DefaultInputDir, OutputDir: DefaultOutputDir, SiteOrigin: DefaultSiteOrigin}
	ApplyFileConfig(&cfg, fc)
	if cfg.InputDir != "./archive" || cfg.OutputDir != "./cooked" || cfg.SiteOrigin != "https://www.quora.com" {
		t.Fatalf("paths not applied: %+v", cfg)
	}
	if cfg.Delay != 250*time.Millisecond || !cfg.NoDownload || cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("image settings not applied: %+v", cfg)
	}
	// A zero timezone in the file is still an explicit value.
	if !cfg.OriginTimestampSet || !cfg.OriginTimezoneSet || cfg.OriginTimezoneMinutes != 0 {
		t.Fatalf("origin not applied: %+v", cfg)
	}
	if cfg.CacheDir != ".quoracook-cache" || cfg.CacheMaxAge != 24*time.Hour {
		t.Fatalf("cache not applied: %+v", cfg)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	p := writeConfig(t, "quoracook.json", `{"input":"in","images":{"attempts":4}}`)
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := Config{InputDir: "explicit", MaxAttempts: DefaultMaxAttempts}
	ApplyFileConfig(&cfg, fc)
	if cfg.InputDir != "explicit" {
		t.Fatalf("file overrode explicit flag: %q", cfg.InputDir)
	}
	if cfg.MaxAttempts != 4 {
		t.Fatalf("MaxAttempts = %d", cfg.MaxAttempts)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	p := writeConfig(t, "broken.conf", "input: [unterminated\n")
	if _, err := LoadConfigFile(p); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateConfig(t *testing.T) {
	ok := Config{InputDir: "in", OutputDir: "out"}
	if err := ValidateConfig(ok); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, bad := range []Config{
		{OutputDir: "out"},
		{InputDir: "in", OutputDir: " "},
		{InputDir: "in", OutputDir: "out", Delay: -time.Second},
	} {
		if err := ValidateConfig(bad); err == nil {
			t.Fatalf("expected error for %+v", bad)
		}
	}
}
