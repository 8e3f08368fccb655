package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/rra/pkg/analyzer/fdr"
	"github.com/panbanda/rra/pkg/analyzer/lovalue"
	"github.com/panbanda/rra/pkg/stats"
)

const (
	// DefaultFormat is the terminal output format.
	DefaultFormat = "text"

	// DefaultTop is the number of groups shown on the terminal.
	DefaultTop = 20
)

var (
	// ErrInvalidMaxPercentile is returned when max_percentile lies outside [0, 1].
	ErrInvalidMaxPercentile = errors.New("maxPercentile should be within 0.0 and 1.0")

	// ErrInvalidPasses is returned for a negative passes_per_group.
	ErrInvalidPasses = errors.New("passes_per_group must not be negative")

	// ErrInvalidMaxError is returned when cdf_max_error is not positive.
	ErrInvalidMaxError = errors.New("cdf_max_error must be positive")

	// ErrInvalidMaxWeightedItems is returned when max_weighted_items exceeds the hard limit.
	ErrInvalidMaxWeightedItems = fmt.Errorf("max_weighted_items must be between 0 and %d", lovalue.HardMaxWeightedItems)

	// ErrInvalidWorkers is returned for a negative worker count.
	ErrInvalidWorkers = errors.New("workers must not be negative")

	// ErrInvalidFormat is returned for an output format the formatter does not know.
	ErrInvalidFormat = errors.New("unknown output format")

	// ErrInvalidTTL is returned for a negative cache TTL.
	ErrInvalidTTL = errors.New("cache ttl must not be negative")
)

// Config holds all configuration options for rra.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// AnalysisConfig controls the statistics of a run.
type AnalysisConfig struct {
	MaxPercentile    float64 `koanf:"max_percentile" toml:"max_percentile"`
	PassesPerGroup   int     `koanf:"passes_per_group" toml:"passes_per_group"`
	Seed             uint64  `koanf:"seed" toml:"seed"`
	CDFMaxError      float64 `koanf:"cdf_max_error" toml:"cdf_max_error"`
	MaxWeightedItems int     `koanf:"max_weighted_items" toml:"max_weighted_items"` // 0 = hard limit only
	Workers          int     `koanf:"workers" toml:"workers"`                       // 0 = 2x NumCPU
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours, 0 = never expires
}

// OutputConfig controls terminal output.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, tsv, json, yaml, markdown
	Top     int    `koanf:"top" toml:"top"`       // groups shown on the terminal, 0 = all
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MaxPercentile:    lovalue.DefaultMaxPercentile,
			PassesPerGroup:   fdr.DefaultPassesPerGroup,
			Seed:             fdr.DefaultSeed,
			CDFMaxError:      stats.DefaultMaxError,
			MaxWeightedItems: lovalue.DefaultMaxWeightedItems,
			Workers:          0,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".rra/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  DefaultFormat,
			Top:     DefaultTop,
			Color:   true,
			Verbose: false,
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	a := c.Analysis
	if !(a.MaxPercentile >= 0 && a.MaxPercentile <= 1) {
		errs = append(errs, fmt.Errorf("%w (got %g)", ErrInvalidMaxPercentile, a.MaxPercentile))
	}
	if a.PassesPerGroup < 0 {
		errs = append(errs, fmt.Errorf("%w (got %d)", ErrInvalidPasses, a.PassesPerGroup))
	}
	if !(a.CDFMaxError > 0) {
		errs = append(errs, fmt.Errorf("%w (got %g)", ErrInvalidMaxError, a.CDFMaxError))
	}
	if a.MaxWeightedItems < 0 || a.MaxWeightedItems > lovalue.HardMaxWeightedItems {
		errs = append(errs, fmt.Errorf("%w (got %d)", ErrInvalidMaxWeightedItems, a.MaxWeightedItems))
	}
	if a.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w (got %d)", ErrInvalidWorkers, a.Workers))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("%w (got %d)", ErrInvalidTTL, c.Cache.TTL))
	}
	switch strings.ToLower(c.Output.Format) {
	case "", "text", "tsv", "tab", "json", "yaml", "yml", "markdown", "md":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format))
	}
	return errors.Join(errs...)
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// searchPaths lists candidate config files in priority order.
func searchPaths() []string {
	configNames := []string{
		"rra.toml",
		"rra.yaml",
		"rra.yml",
		"rra.json",
		".rra.toml",
		".rra.yaml",
		".rra.yml",
		".rra.json",
	}

	var paths []string
	for _, dir := range []string{".", ".rra"} {
		for _, name := range configNames {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths
}

// LoadResult is a loaded config and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is the file path, or empty when defaults were used.
	Source string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithPath loads the given file instead of searching standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// LoadConfig loads and validates configuration. An explicit path must exist;
// otherwise the first readable standard location wins, falling back to defaults.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	result := &LoadResult{}
	switch {
	case o.path != "":
		cfg, err := Load(o.path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", o.path, err)
		}
		result.Config, result.Source = cfg, o.path
	default:
		for _, path := range searchPaths() {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("loading config %s: %w", path, err)
			}
			result.Config, result.Source = cfg, path
			break
		}
		if result.Config == nil {
			result.Config = DefaultConfig()
		}
	}

	if err := result.Config.Validate(); err != nil {
		return result, fmt.Errorf("invalid config %s: %w", result.sourceName(), err)
	}
	return result, nil
}

func (r *LoadResult) sourceName() string {
	if r.Source == "" {
		return "(defaults)"
	}
	return r.Source
}
