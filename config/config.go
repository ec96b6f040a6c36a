// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given explicitly.
const DefaultPath = "tlgen.yaml"

// Output format names accepted in output.formats.
const (
	FormatGo         = "go"
	FormatDescriptor = "descriptor"
)

// Config is the root configuration structure.
type Config struct {
	Schema   SchemaConfig   `yaml:"schema"`
	Output   OutputConfig   `yaml:"output"`
	Generate GenerateConfig `yaml:"generate"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SchemaConfig lists the schema files to compile.
type SchemaConfig struct {
	Files []string `yaml:"files"`
}

// OutputConfig configures where and how artifacts are written.
type OutputConfig struct {
	Dir            string   `yaml:"dir"`
	Package        string   `yaml:"package"`
	WireImport     string   `yaml:"wire_import"`
	Formats        []string `yaml:"formats"` // "go", "descriptor"
	DescriptorFile string   `yaml:"descriptor_file"`
}

// GenerateConfig configures the compilation pipeline.
type GenerateConfig struct {
	Workers int  `yaml:"workers"`
	Strict  bool `yaml:"strict"` // any diagnostic fails the run
}

// WatchConfig configures the watch daemon.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
	Listen   string        `yaml:"listen"` // status server address, empty = disabled
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // expose /metrics on the status server
}

// WantsFormat reports whether the named output format is requested.
func (c *Config) WantsFormat(name string) bool {
	for _, f := range c.Output.Formats {
		if f == name {
			return true
		}
	}
	return false
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables
// and defaults. Useful when no config file is present.
//
// Environment variables:
//
//	TLGEN_SCHEMA_FILES     - Comma-separated schema file paths
//	TLGEN_OUTPUT_DIR       - Output directory (default: tl)
//	TLGEN_OUTPUT_PACKAGE   - Generated package name (default: tl)
//	TLGEN_OUTPUT_FORMATS   - Comma-separated formats: go, descriptor
//	TLGEN_GENERATE_WORKERS - Parallel generation workers (default: NumCPU)
//	TLGEN_GENERATE_STRICT  - Fail the run on any diagnostic (default: false)
//	TLGEN_WATCH_DEBOUNCE   - Watch debounce interval (default: 300ms)
//	TLGEN_WATCH_LISTEN     - Status server address (default: disabled)
//	TLGEN_LOG_LEVEL        - Log level: debug, info, warn, error (default: info)
//	TLGEN_LOG_FORMAT       - Log format: json or console (default: console)
//	TLGEN_METRICS_ENABLED  - Expose /metrics endpoint (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables plus defaults when the file does not exist.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// Validate checks the configuration after programmatic changes, for
// callers that merge flag values over a loaded config.
func (c *Config) Validate() error {
	return validate(c)
}

// applyEnvOverrides applies TLGEN_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Schema configuration
	if v := os.Getenv("TLGEN_SCHEMA_FILES"); v != "" {
		cfg.Schema.Files = splitList(v)
	}

	// Output configuration
	if v := os.Getenv("TLGEN_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("TLGEN_OUTPUT_PACKAGE"); v != "" {
		cfg.Output.Package = v
	}
	if v := os.Getenv("TLGEN_OUTPUT_WIRE_IMPORT"); v != "" {
		cfg.Output.WireImport = v
	}
	if v := os.Getenv("TLGEN_OUTPUT_FORMATS"); v != "" {
		cfg.Output.Formats = splitList(v)
	}
	if v := os.Getenv("TLGEN_OUTPUT_DESCRIPTOR_FILE"); v != "" {
		cfg.Output.DescriptorFile = v
	}

	// Generate configuration
	if v := os.Getenv("TLGEN_GENERATE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generate.Workers = n
		}
	}
	if v := os.Getenv("TLGEN_GENERATE_STRICT"); v != "" {
		cfg.Generate.Strict = parseBool(v)
	}

	// Watch configuration
	if v := os.Getenv("TLGEN_WATCH_ENABLED"); v != "" {
		cfg.Watch.Enabled = parseBool(v)
	}
	if v := os.Getenv("TLGEN_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Watch.Debounce = d
		}
	}
	if v := os.Getenv("TLGEN_WATCH_LISTEN"); v != "" {
		cfg.Watch.Listen = v
	}

	// Logging configuration
	if v := os.Getenv("TLGEN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TLGEN_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("TLGEN_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "tl"
	}
	if cfg.Output.Package == "" {
		cfg.Output.Package = "tl"
	}
	if cfg.Output.WireImport == "" {
		cfg.Output.WireImport = "github.com/IbnNafis007/tlgen/pkg/wire"
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{FormatGo}
	}
	if cfg.Output.DescriptorFile == "" {
		cfg.Output.DescriptorFile = "descriptor.json"
	}

	if cfg.Generate.Workers == 0 {
		cfg.Generate.Workers = defaultWorkers()
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// defaultWorkers sizes the generation pool to the machine.
func defaultWorkers() int {
	return runtime.NumCPU()
}

func validate(cfg *Config) error {
	// Schema file presence is checked at compile time: the CLI may
	// supply files as arguments after the config is loaded.

	if !validPackageName(cfg.Output.Package) {
		return fmt.Errorf("output.package %q is not a valid package name", cfg.Output.Package)
	}

	validFormats := map[string]bool{FormatGo: true, FormatDescriptor: true}
	for _, f := range cfg.Output.Formats {
		if !validFormats[f] {
			return fmt.Errorf("output.formats entry must be 'go' or 'descriptor', got %q", f)
		}
	}

	if cfg.Generate.Workers < 1 {
		return fmt.Errorf("generate.workers must be at least 1, got %d", cfg.Generate.Workers)
	}

	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", cfg.Watch.Debounce)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}

// validPackageName reports whether name is usable as a Go package name.
func validPackageName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
