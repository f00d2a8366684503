// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "iqspect.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.STFT.Overlap != DefaultOverlap || cfg.STFT.PlanMode != DefaultPlanMode {
		t.Errorf("defaults not applied: %+v", cfg.STFT)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeTempConfig(t, `
log_level: debug
stft:
  fft_size: 1024
  overlap: 4
  workers: 3
  wait_mode: spin
  plan_mode: estimate
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.STFT.FFTSize != 1024 || cfg.STFT.Overlap != 4 || cfg.STFT.Workers != 3 {
		t.Errorf("stft settings not loaded: %+v", cfg.STFT)
	}
	if cfg.STFT.WaitMode != "spin" || cfg.STFT.PlanMode != "estimate" {
		t.Errorf("mode knobs not loaded: %+v", cfg.STFT)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("IQSPECT_WORKERS", "7")
	t.Setenv("IQSPECT_WAIT_MODE", "spin")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.STFT.Workers != 7 {
		t.Errorf("workers = %d, want env override 7", cfg.STFT.Workers)
	}
	if cfg.STFT.WaitMode != "spin" {
		t.Errorf("wait mode = %q, want env override spin", cfg.STFT.WaitMode)
	}
}
