// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/framecast/pkg/ports"
	"github.com/user/framecast/pkg/recorder"
)

// Config represents the full configuration for a recording session.
type Config struct {
	// Output
	OutputPath string `yaml:"output"`

	// Frame geometry
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format string `yaml:"format"` // bgrx, rgba or rgb

	// Timing
	FPS       float64 `yaml:"fps"`
	DurationS float64 `yaml:"duration_s"`

	// Handoff
	PoolDepth    int `yaml:"pool_depth"`
	MapTimeoutMs int `yaml:"map_timeout_ms"`

	// Encoding
	Quality int `yaml:"quality"` // CRF 0-63, lower is better
	Bitrate int `yaml:"bitrate"` // kbps, 0 = unconstrained

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`

	// Logging
	LogLevel string `yaml:"log_level"`
	Quiet    bool   `yaml:"quiet"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Width:        640,
		Height:       360,
		Format:       "rgba",
		FPS:          30.0,
		DurationS:    5.0,
		PoolDepth:    5,
		MapTimeoutMs: 500,
		Quality:      25,
		DebugDir:     "./debug",
		LogLevel:     "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string, fs ports.FileSystem) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// RecorderOptions converts the config to recorder session options.
func (c Config) RecorderOptions() recorder.Options {
	return recorder.Options{
		Format:     ports.ParsePixelFormat(c.Format),
		Width:      c.Width,
		Height:     c.Height,
		FrameRate:  c.FPS,
		PoolDepth:  c.PoolDepth,
		MapTimeout: time.Duration(c.MapTimeoutMs) * time.Millisecond,
	}
}

// PipelineConfig converts the config to encode pipeline parameters.
func (c Config) PipelineConfig() ports.PipelineConfig {
	return ports.PipelineConfig{
		Format:     ports.ParsePixelFormat(c.Format),
		Width:      c.Width,
		Height:     c.Height,
		FrameRate:  c.FPS,
		OutputPath: c.OutputPath,
		Quality:    c.Quality,
		Bitrate:    c.Bitrate,
	}
}
