package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
image:
  width: 64
  height: 32
tracer:
  samples: 8
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.GetWidth() != 64 || cfg.GetHeight() != 32 {
		t.Errorf("Expected 64x32, got %dx%d", cfg.GetWidth(), cfg.GetHeight())
	}
	if cfg.Tracer.Samples != 8 {
		t.Errorf("Expected 8 samples, got %d", cfg.Tracer.Samples)
	}
	// Untouched sections keep their defaults
	if cfg.Tracer.MaxDepth != 50 {
		t.Errorf("Expected default max depth 50, got %d", cfg.Tracer.MaxDepth)
	}
	if cfg.GetHandshakeTimeout() != 5*time.Second {
		t.Errorf("Expected 5s handshake timeout, got %s", cfg.GetHandshakeTimeout())
	}
	if GlobalConfig != cfg {
		t.Error("Expected GlobalConfig to be set")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "tracer:\n  samples: 0\n")
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}

	path = writeConfig(t, "image: [not, a, map]\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected a parse error")
	}
}

func TestMustLoadConfigPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected MustLoadConfig to panic")
		}
	}()
	MustLoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvWidth, "320")
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvHandshakeTimeout, "250")

	cfg, err := LoadConfig(writeConfig(t, "image:\n  width: 10\n  height: 5\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.GetWidth() != 320 {
		t.Errorf("Expected env width 320, got %d", cfg.GetWidth())
	}
	if cfg.GetHeight() != 5 {
		t.Errorf("Expected file height 5, got %d", cfg.GetHeight())
	}
	if cfg.GetWorkerCount() != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.GetWorkerCount())
	}
	if cfg.GetHandshakeTimeout() != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %s", cfg.GetHandshakeTimeout())
	}
}

func TestEnvOverrideMalformed(t *testing.T) {
	t.Setenv(EnvSamples, "lots")
	cfg := Default()
	if err := cfg.ApplyEnv(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(EnvHeight+"=77\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// Registers cleanup that restores the variable after godotenv sets it
	t.Setenv(EnvHeight, "")
	os.Unsetenv(EnvHeight)

	if err := LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.GetHeight() != 77 {
		t.Errorf("Expected height 77 from .env, got %d", cfg.GetHeight())
	}
}

func TestGetters(t *testing.T) {
	cfg := &Config{}
	if cfg.GetWorkerCount() != runtime.NumCPU() {
		t.Errorf("Expected NumCPU workers, got %d", cfg.GetWorkerCount())
	}
	if cfg.GetScale() != 1 {
		t.Errorf("Expected scale 1, got %d", cfg.GetScale())
	}
	if cfg.GetPartialFrameEvery() != 10 {
		t.Errorf("Expected cadence 10, got %d", cfg.GetPartialFrameEvery())
	}
	if cfg.GetWindowTitle() == "" {
		t.Error("Expected a default window title")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"negative width":   func(c *Config) { c.Image.Width = -1 },
		"negative workers": func(c *Config) { c.Workers.Count = -2 },
		"negative timeout": func(c *Config) { c.Workers.HandshakeTimeoutMs = -1 },
		"zero depth":       func(c *Config) { c.Tracer.MaxDepth = 0 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}
