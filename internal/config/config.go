// Package config holds all meshforge configuration: defaults, YAML
// loading, and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all meshforge configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Refinement engine settings
	Refine RefineConfig `yaml:"refine"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// RefineConfig configures the refinement engine.
type RefineConfig struct {
	// Number of parallel workers. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// Quality threshold in degrees: triangles with a smaller minimum
	// angle are refined.
	MinAngle float64 `yaml:"min_angle"`

	// Upper bound on tasks processed in one run; zero means unlimited.
	// A safety valve against runaway refinement on degenerate input.
	MaxTasks int64 `yaml:"max_tasks"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty means stderr
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "meshforge",
		Version: "1.0.0",

		Refine: RefineConfig{
			Workers:  runtime.GOMAXPROCS(0),
			MinAngle: 30.0,
			MaxTasks: 0,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MESHFORGE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Refine.Workers = n
		}
	}
	if v := os.Getenv("MESHFORGE_MIN_ANGLE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Refine.MinAngle = f
		}
	}
	if v := os.Getenv("MESHFORGE_MAX_TASKS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			c.Refine.MaxTasks = n
		}
	}
	if v := os.Getenv("MESHFORGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MESHFORGE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Refine.Workers < 0 {
		return fmt.Errorf("refine.workers must not be negative")
	}
	if c.Refine.MinAngle <= 0 || c.Refine.MinAngle >= 60 {
		return fmt.Errorf("refine.min_angle must be in (0, 60), got %g", c.Refine.MinAngle)
	}
	if c.Refine.MaxTasks < 0 {
		return fmt.Errorf("refine.max_tasks must not be negative")
	}
	return nil
}
