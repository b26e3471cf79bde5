package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/nifs/internal/util"
)

// Bytes per MB
const MB = 1024 * 1024

// CLI style log verbosity values accepted by [ConfigOverride.LogLvl]
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// GrowthPolicy controls how a content buffer's capacity grows on write
type GrowthPolicy = string

const (
	// GrowthExact sets capacity to exactly the new size on every growth
	GrowthExact GrowthPolicy = "exact"
	// GrowthAmortized at least doubles capacity on growth
	GrowthAmortized GrowthPolicy = "amortized"
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultFsName = "nifs"
	DefaultName   = "nifs"
	DefaultLogLvl = util.InfoLevel

	// DefaultRootID is the root inode number. Ids below it are reserved for
	// host or built-in nodes.
	DefaultRootID uint64 = 1000

	// DefaultMaxFileSize of 0 means a file is bounded only by memory
	DefaultMaxFileSize int64 = 0

	DefaultGrowthPolicy = GrowthExact

	DefaultReadOnly = false

	// Uses 31 bits (2^31 - 1 = 2,147,483,647) to ensure compatibility with libfuse
	// and avoid signed integer overflow.
	DefaultMaxFH = (1 << 31) - 1

	// DefaultMaxWrite is the maximum write size per FUSE request
	DefaultMaxWrite = 1 * MB

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0

	// DefaultDirectIO bypasses the kernel page cache so every read and write
	// reaches the content store
	DefaultDirectIO = true
)

// Config contains runtime configuration values for the filesystem.
type Config struct {
	MountOptions
	LogLvl util.LogLevel

	RootID       uint64       // Identifier of the root directory; allocation starts above it (Default 1000)
	MaxFileSize  int64        // Largest logical file size in bytes; 0 = unlimited (Default 0)
	GrowthPolicy GrowthPolicy // "exact" or "amortized" (Default "exact")
	ReadOnly     bool         // Host policy that rejects every mutation with permission denied (Default false)

	// NOTE: Low-level FUSE config (strongly recommend defaults unless you really know what you're doing):

	MaxFH        int     // Maximum file handle value for FUSE compatibility (Default 2147483647)
	MaxWrite     int     // Maximum write size per FUSE request (Default 1MB)
	AttrTimeout  float64 // Attribute cache timeout in seconds (Default 1.0)
	EntryTimeout float64 // Directory entry cache timeout in seconds (Default 1.0)
	DirectIO     bool    // Whether to bypass page cache (Default true)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	Debug  *bool   `yaml:"debug,omitempty" json:"debug,omitempty"`
	FsName *string `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name   *string `yaml:"name,omitempty" json:"name,omitempty"`
	// LogLvl is a CLI style verbosity between 1 (error) and 5 (trace); out of range values are clamped
	LogLvl *int `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	RootID *uint64 `yaml:"root_id,omitempty" json:"root_id,omitempty"`
	// MaxFileSize accepts plain byte counts or humanized sizes such as "64MiB"
	MaxFileSize  *string `yaml:"max_file_size,omitempty" json:"max_file_size,omitempty"`
	GrowthPolicy *string `yaml:"growth_policy,omitempty" json:"growth_policy,omitempty"`
	ReadOnly     *bool   `yaml:"read_only,omitempty" json:"read_only,omitempty"`

	MaxFH        *int     `yaml:"max_fh,omitempty" json:"max_fh,omitempty"`
	MaxWrite     *int     `yaml:"max_write,omitempty" json:"max_write,omitempty"`
	AttrTimeout  *float64 `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty"`
	EntryTimeout *float64 `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty"`
	DirectIO     *bool    `yaml:"direct_io,omitempty" json:"direct_io,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		LogLvl:       DefaultLogLvl,
		RootID:       DefaultRootID,
		MaxFileSize:  DefaultMaxFileSize,
		GrowthPolicy: DefaultGrowthPolicy,
		ReadOnly:     DefaultReadOnly,
		MaxFH:        DefaultMaxFH,
		MaxWrite:     DefaultMaxWrite,
		AttrTimeout:  DefaultAttrTimeout,
		EntryTimeout: DefaultEntryTimeout,
		DirectIO:     DefaultDirectIO,
	}
}

// NewConfig returns the defaults with override applied; override may be nil.
// Invalid override values are logged and ignored.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		if err := cfg.Merge(override); err != nil {
			logger := util.GetLogger("Config.NewConfig")
			logger.Warn().Err(err).Msg("Ignoring invalid config override values")
		}
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
// Every valid field is applied even when others are rejected; the returned
// error describes the rejected ones.
func (c *Config) Merge(override *ConfigOverride) error {
	var errs []string

	if override.Debug != nil {
		c.Debug = *override.Debug
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
	if override.LogLvl != nil {
		c.LogLvl = verbosityToLogLevel(*override.LogLvl)
	}
	if override.RootID != nil {
		if *override.RootID == 0 {
			errs = append(errs, "root_id must be non-zero")
		} else {
			c.RootID = *override.RootID
		}
	}
	if override.MaxFileSize != nil {
		size, err := ParseSize(*override.MaxFileSize)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			c.MaxFileSize = size
		}
	}
	if override.GrowthPolicy != nil {
		switch p := strings.ToLower(*override.GrowthPolicy); p {
		case GrowthExact, GrowthAmortized:
			c.GrowthPolicy = p
		default:
			errs = append(errs, fmt.Sprintf("unknown growth_policy %q", *override.GrowthPolicy))
		}
	}
	if override.ReadOnly != nil {
		c.ReadOnly = *override.ReadOnly
	}
	if override.MaxFH != nil {
		c.MaxFH = *override.MaxFH
	}
	if override.MaxWrite != nil {
		c.MaxWrite = *override.MaxWrite
	}
	if override.AttrTimeout != nil {
		c.AttrTimeout = *override.AttrTimeout
	}
	if override.EntryTimeout != nil {
		c.EntryTimeout = *override.EntryTimeout
	}
	if override.DirectIO != nil {
		c.DirectIO = *override.DirectIO
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParseSize parses a byte count such as "4096", "64MiB" or "1 GB".
// An empty string means unlimited (0).
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("size %q too large", s)
	}
	return int64(n), nil
}

// verbosityToLogLevel converts the CLI verbosity (1 = error ... 5 = trace)
// to the internal log level, clamping out of range values
func verbosityToLogLevel(v int) util.LogLevel {
	v = util.Clamp(v, ErrorVerbose, TraceVerbose)
	levels := [...]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return levels[v-1]
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

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
// Unlike [NewConfig], invalid values in the file are returned as an error.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Merge(override); err != nil {
		return nil, err
	}
	return cfg, nil
}
