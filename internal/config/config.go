package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/idbranch/pkg/frontend"
	"github.com/l3aro/idbranch/pkg/idcheck"
)

// OutputFormat selects how diagnostics are printed
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// DirName is the per-user and per-project configuration directory.
const DirName = ".idbranch"

// Config holds all configuration for idbranch
type Config struct {
	// IDFunctions is merged over the built-in OpenCL work-item queries.
	// A name mapped to false disables a built-in.
	IDFunctions map[string]bool `yaml:"id_functions,omitempty" env:"IDBRANCH_ID_FUNCTIONS"`

	// Extensions of files picked up when walking directories
	Extensions []string `yaml:"extensions"`

	// Qualifiers are blanked before parsing
	Qualifiers []string `yaml:"qualifiers"`

	Output OutputFormat `yaml:"output" env:"IDBRANCH_OUTPUT"`

	// Jobs bounds parallel file analysis, 0 means GOMAXPROCS
	Jobs int `yaml:"jobs" env:"IDBRANCH_JOBS"`

	// Result cache
	Cache     bool   `yaml:"cache" env:"IDBRANCH_CACHE"`
	CachePath string `yaml:"cache_path" env:"IDBRANCH_CACHE_PATH"`

	// Logging
	Verbose bool `yaml:"verbose" env:"IDBRANCH_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Extensions: []string{".cl", ".clh", ".c", ".h"},
		Qualifiers: frontend.DefaultQualifiers(),
		Output:     OutputText,
		Jobs:       0,
		Cache:      true,
		CachePath:  filepath.Join(DirName, "cache.msgpack"),
		Verbose:    false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.idbranch/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DirName, "config.yaml")
	}
	return filepath.Join(home, DirName, "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.idbranch/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(DirName, "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.idbranch/config.yaml)
// 3. Global config (~/.idbranch/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		if err := cfg.merge(path, false); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.merge(path, true); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// merge overlays the YAML file at path onto c. ID-function overrides
// accumulate across files instead of replacing each other.
func (c *Config) merge(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	prev := c.IDFunctions
	c.IDFunctions = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if prev != nil {
		merged := maps.Clone(prev)
		maps.Copy(merged, c.IDFunctions)
		c.IDFunctions = merged
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := env.Str("IDBRANCH_ID_FUNCTIONS"); v != "" {
		overrides := ParseIDFunctionList(v)
		if cfg.IDFunctions == nil {
			cfg.IDFunctions = overrides
		} else {
			maps.Copy(cfg.IDFunctions, overrides)
		}
	}
	if v := env.Str("IDBRANCH_OUTPUT"); v != "" {
		cfg.Output = OutputFormat(strings.ToLower(v))
	}
	if env.Has("IDBRANCH_JOBS") {
		if i := env.Int("IDBRANCH_JOBS", -1); i >= 0 {
			cfg.Jobs = i
		}
	}
	if env.Has("IDBRANCH_CACHE") {
		cfg.Cache = env.Bool("IDBRANCH_CACHE")
	}
	if v := env.Str("IDBRANCH_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if env.Has("IDBRANCH_VERBOSE") {
		cfg.Verbose = env.Bool("IDBRANCH_VERBOSE")
	}
}

// ParseIDFunctionList reads a comma separated list of names. A leading
// '-' disables the name instead of adding it.
func ParseIDFunctionList(s string) map[string]bool {
	out := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		enabled := true
		if strings.HasPrefix(name, "-") {
			enabled = false
			name = strings.TrimSpace(name[1:])
		}
		if name != "" {
			out[name] = enabled
		}
	}
	return out
}

// EffectiveIDFunctions returns the built-in set with the configured
// overrides applied.
func (c *Config) EffectiveIDFunctions() idcheck.IDFunctions {
	return idcheck.DefaultIDFunctions().Merge(c.IDFunctions)
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON:
		// Valid
	default:
		return fmt.Errorf("invalid output: %s (must be 'text' or 'json')", c.Output)
	}

	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be non-negative")
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must not be empty")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid extension %q (must start with '.')", ext)
		}
	}

	if len(c.EffectiveIDFunctions()) == 0 {
		return fmt.Errorf("id_functions disables every identifier function")
	}

	if c.Cache && c.CachePath == "" {
		return fmt.Errorf("cache_path is required when cache is enabled")
	}

	return nil
}
