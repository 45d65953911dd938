package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/webvfs/internal/util"
	"github.com/brettbedarf/webvfs/scan"
)

// LogVerbosity is the user facing log level, 1 (errors only) to 5 (trace)
type LogVerbosity = int

const (
	ErrorVerbose LogVerbosity = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl    = util.InfoLevel
	DefaultHTTPAddr  = ":8080"
	DefaultIndexFile = "index.html"

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0
)

// Config contains runtime configuration values for serving provider trees.
type Config struct {
	MountOptions

	LogLvl util.LogLevel `validate:"gte=0,lte=4"` // Internal log level (Default Info)

	ScanSkipPaths    []string // Virtual path prefixes left out of listings and serving
	ScanSkipPatterns []string // Doublestar globs left out of listings and serving

	HTTPAddr  string `validate:"required"`            // Listen address of the HTTP server (Default ":8080")
	IndexFile string `validate:"required,excludes=/"` // File served for directory requests (Default "index.html")

	// Sources are the raw provider source documents, each with at least a "type".
	// See the providers package for the built-in types.
	Sources []map[string]any `validate:"dive,required"`

	// NOTE: Low-level FUSE config (strongly recommend defaults unless you really know what you're doing):

	AttrTimeout  float64 `validate:"gte=0"` // Attribute cache timeout in seconds (Default 1.0)
	EntryTimeout float64 `validate:"gte=0"` // Directory entry cache timeout in seconds (Default 1.0)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is a [LogVerbosity], clamped to 1..5
	LogLvl           *int             `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	ScanSkipPaths    []string         `yaml:"scan_skip_paths,omitempty" json:"scan_skip_paths,omitempty"`
	ScanSkipPatterns []string         `yaml:"scan_skip_patterns,omitempty" json:"scan_skip_patterns,omitempty"`
	HTTPAddr         *string          `yaml:"http_addr,omitempty" json:"http_addr,omitempty"`
	IndexFile        *string          `yaml:"index_file,omitempty" json:"index_file,omitempty"`
	Sources          []map[string]any `yaml:"sources,omitempty" json:"sources,omitempty"`
	AttrTimeout      *float64         `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty"`
	EntryTimeout     *float64         `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty"`
	Debug            *bool            `yaml:"debug,omitempty" json:"debug,omitempty"`
	FsName           *string          `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name             *string          `yaml:"name,omitempty" json:"name,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		LogLvl:       DefaultLogLvl,
		HTTPAddr:     DefaultHTTPAddr,
		IndexFile:    DefaultIndexFile,
		AttrTimeout:  DefaultAttrTimeout,
		EntryTimeout: DefaultEntryTimeout,
	}
}

// NewConfig creates a Config from defaults with override applied. A nil override
// gives the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = verbosityToLogLevel(*override.LogLvl)
	}
	if override.ScanSkipPaths != nil {
		c.ScanSkipPaths = override.ScanSkipPaths
	}
	if override.ScanSkipPatterns != nil {
		c.ScanSkipPatterns = override.ScanSkipPatterns
	}
	if override.HTTPAddr != nil {
		c.HTTPAddr = *override.HTTPAddr
	}
	if override.IndexFile != nil {
		c.IndexFile = *override.IndexFile
	}
	if override.Sources != nil {
		c.Sources = override.Sources
	}
	if override.AttrTimeout != nil {
		c.AttrTimeout = *override.AttrTimeout
	}
	if override.EntryTimeout != nil {
		c.EntryTimeout = *override.EntryTimeout
	}
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
}

// verbosityToLogLevel maps CLI style verbosity (5 is most verbose) onto the
// internal log levels (0 is most verbose)
func verbosityToLogLevel(v LogVerbosity) util.LogLevel {
	v = min(max(v, ErrorVerbose), TraceVerbose)
	return TraceVerbose - v
}

var validate = validator.New()

// Validate checks field constraints and that every skip pattern is a valid glob
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.SkipRules().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SkipRules returns the scan skip settings as rules
func (c *Config) SkipRules() scan.SkipRules {
	return scan.SkipRules{Prefixes: c.ScanSkipPaths, Patterns: c.ScanSkipPatterns}
}

// SourceDocs encodes each source as the raw JSON document provider factories decode
func (c *Config) SourceDocs() ([][]byte, error) {
	docs := make([][]byte, 0, len(c.Sources))
	for i, src := range c.Sources {
		raw, err := json.Marshal(src)
		if err != nil {
			return nil, fmt.Errorf("encode source %d: %w", i, err)
		}
		docs = append(docs, raw)
	}
	return docs, nil
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
