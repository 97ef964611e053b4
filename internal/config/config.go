package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the YAML values
const (
	EnvWidth            = "RAYROWS_WIDTH"
	EnvHeight           = "RAYROWS_HEIGHT"
	EnvWorkers          = "RAYROWS_WORKERS"
	EnvSamples          = "RAYROWS_SAMPLES"
	EnvHandshakeTimeout = "RAYROWS_HANDSHAKE_TIMEOUT_MS"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds all render configuration values
type Config struct {
	Display DisplayConfig `yaml:"display"`
	Image   ImageConfig   `yaml:"image"`
	Workers WorkersConfig `yaml:"workers"`
	Tracer  TracerConfig  `yaml:"tracer"`
	Scene   SceneConfig   `yaml:"scene"`
}

type DisplayConfig struct {
	WindowTitle       string `yaml:"window_title"`
	Scale             int    `yaml:"scale"`
	Resizable         bool   `yaml:"resizable"`
	PartialFrameEvery int    `yaml:"partial_frame_every"` // rows between viewer updates
}

type ImageConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type WorkersConfig struct {
	Count              int `yaml:"count"` // 0 uses one worker per CPU
	HandshakeTimeoutMs int `yaml:"handshake_timeout_ms"`
}

type TracerConfig struct {
	Samples  int    `yaml:"samples"`
	MaxDepth int    `yaml:"max_depth"`
	Seed     uint64 `yaml:"seed"`
}

type SceneConfig struct {
	File string `yaml:"file"` // empty generates a random scene
	Seed uint64 `yaml:"seed"`
}

// GlobalConfig is the most recently loaded configuration
var GlobalConfig *Config

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			WindowTitle:       "Ray Rows",
			Scale:             4,
			Resizable:         true,
			PartialFrameEvery: 10,
		},
		Image: ImageConfig{
			Width:  200,
			Height: 100,
		},
		Workers: WorkersConfig{
			HandshakeTimeoutMs: 5000,
		},
		Tracer: TracerConfig{
			Samples:  100,
			MaxDepth: 50,
		},
	}
}

// LoadEnv reads a .env file into the process environment. Variables that
// are already set win.
func LoadEnv(filename string) error {
	return godotenv.Load(filename)
}

// LoadConfig loads configuration from a YAML file on top of the defaults,
// then applies environment overrides
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Set global config for easy access
	GlobalConfig = config

	return config, nil
}

// MustLoadConfig loads configuration and panics on error
func MustLoadConfig(filename string) *Config {
	config, err := LoadConfig(filename)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return config
}

// ApplyEnv overrides values from RAYROWS_* environment variables
func (c *Config) ApplyEnv() error {
	overrides := []struct {
		key string
		dst *int
	}{
		{EnvWidth, &c.Image.Width},
		{EnvHeight, &c.Image.Height},
		{EnvWorkers, &c.Workers.Count},
		{EnvSamples, &c.Tracer.Samples},
		{EnvHandshakeTimeout, &c.Workers.HandshakeTimeoutMs},
	}
	for _, o := range overrides {
		v := os.Getenv(o.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, o.key, v)
		}
		*o.dst = n
	}
	return nil
}

// Validate rejects values no render can use
func (c *Config) Validate() error {
	switch {
	case c.Image.Width < 0 || c.Image.Height < 0:
		return fmt.Errorf("%w: negative image size %dx%d", ErrInvalidConfig, c.Image.Width, c.Image.Height)
	case c.Workers.Count < 0:
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidConfig, c.Workers.Count)
	case c.Workers.HandshakeTimeoutMs < 0:
		return fmt.Errorf("%w: negative handshake timeout %d", ErrInvalidConfig, c.Workers.HandshakeTimeoutMs)
	case c.Tracer.Samples <= 0:
		return fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidConfig, c.Tracer.Samples)
	case c.Tracer.MaxDepth <= 0:
		return fmt.Errorf("%w: max_depth must be positive, got %d", ErrInvalidConfig, c.Tracer.MaxDepth)
	}
	return nil
}

// Helper methods for common conversions

func (c *Config) GetWidth() int {
	return c.Image.Width
}

func (c *Config) GetHeight() int {
	return c.Image.Height
}

// GetWorkerCount resolves a zero count to the number of CPUs
func (c *Config) GetWorkerCount() int {
	if c.Workers.Count <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers.Count
}

func (c *Config) GetHandshakeTimeout() time.Duration {
	return time.Duration(c.Workers.HandshakeTimeoutMs) * time.Millisecond
}

func (c *Config) GetPartialFrameEvery() int {
	if c.Display.PartialFrameEvery <= 0 {
		return 10
	}
	return c.Display.PartialFrameEvery
}

func (c *Config) GetScale() int {
	if c.Display.Scale <= 0 {
		return 1
	}
	return c.Display.Scale
}

func (c *Config) GetWindowTitle() string {
	if c.Display.WindowTitle == "" {
		return "Ray Rows"
	}
	return c.Display.WindowTitle
}
