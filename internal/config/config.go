// Package config loads the service configuration: embedded defaults,
// optionally overlaid by a YAML file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mariolpantunes/optviewer/internal/objective"
	"github.com/mariolpantunes/optviewer/internal/stream"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Run     RunConfig     `yaml:"run"`
	Bounds  BoundsConfig  `yaml:"bounds"`
	Surface SurfaceConfig `yaml:"surface"`
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	AssetsDir    string        `yaml:"assets_dir"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	PingInterval time.Duration `yaml:"ping_interval"`
}

// RunConfig holds the defaults of an optimization request
type RunConfig struct {
	Algorithm   string        `yaml:"algorithm"`
	Function    string        `yaml:"function"`
	Initializer string        `yaml:"initializer"`
	Epochs      int           `yaml:"epochs"`
	PopSize     int           `yaml:"pop_size"`
	Sleep       time.Duration `yaml:"sleep"`
	Threshold   float64       `yaml:"threshold"`
	Seed        int64         `yaml:"seed"`
}

// BoundsConfig is the search box shared by the surface, previews and runs
type BoundsConfig struct {
	Lower []float64 `yaml:"lower"`
	Upper []float64 `yaml:"upper"`
}

// SurfaceConfig controls the plotted objective surface
type SurfaceConfig struct {
	Resolution int `yaml:"resolution"` // grid points per axis
}

// Default returns the embedded defaults
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: invalid embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail deep inside a request
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("server.cache_ttl must not be negative, got %s", c.Server.CacheTTL))
	}
	if c.Run.Epochs < 1 {
		errs = append(errs, fmt.Errorf("run.epochs must be positive, got %d", c.Run.Epochs))
	}
	if c.Run.PopSize < 1 {
		errs = append(errs, fmt.Errorf("run.pop_size must be positive, got %d", c.Run.PopSize))
	}
	if c.Run.Sleep < 0 {
		errs = append(errs, fmt.Errorf("run.sleep must not be negative, got %s", c.Run.Sleep))
	}
	if err := c.SearchBounds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bounds: %w", err))
	} else if d := len(c.Bounds.Lower); d != 2 {
		errs = append(errs, fmt.Errorf("bounds must be two-dimensional, got %d dimensions", d))
	}
	if c.Surface.Resolution < 2 {
		errs = append(errs, fmt.Errorf("surface.resolution must be at least 2, got %d", c.Surface.Resolution))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SearchBounds returns a copy of the configured bounds
func (c *Config) SearchBounds() objective.Bounds {
	return objective.Bounds{
		Lower: append([]float64(nil), c.Bounds.Lower...),
		Upper: append([]float64(nil), c.Bounds.Upper...),
	}
}

// Request returns the default optimization request
func (c *Config) Request() stream.Request {
	return stream.Request{
		Algorithm:   c.Run.Algorithm,
		Function:    c.Run.Function,
		Initializer: c.Run.Initializer,
		Epochs:      c.Run.Epochs,
		PopSize:     c.Run.PopSize,
		Sleep:       c.Run.Sleep,
		Threshold:   c.Run.Threshold,
		Bounds:      c.SearchBounds(),
		Seed:        c.Run.Seed,
	}
}

// Encode writes the configuration as YAML
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return enc.Close()
}
