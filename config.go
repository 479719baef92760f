package genpress

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/seiflotfy/genpress/lz"
	"github.com/seiflotfy/genpress/numeric"
	"github.com/seiflotfy/genpress/ppm"
	"github.com/seiflotfy/genpress/tokendict"
)

const (
	// DefaultAlpha weights the error term when no candidate is exact.
	DefaultAlpha = 0.1
	// DefaultMaxLayers caps hierarchical recompression.
	DefaultMaxLayers = 4
	// DefaultSegmentCache is the number of regenerated segments a
	// SegmentReader keeps.
	DefaultSegmentCache = 64
)

// Config holds the tunables of an Engine.
type Config struct {
	Alpha         float64 `yaml:"alpha"`
	MaxPeriod     int     `yaml:"max_period"`
	MaxPolyDegree int     `yaml:"max_poly_degree"`
	PPMOrder      int     `yaml:"ppm_order"`
	LZWindow      int     `yaml:"lz_window"`
	LZMaxMatch    int     `yaml:"lz_max_match"`
	MinTextLength int     `yaml:"min_text_length"`
	MinMatchInput int     `yaml:"min_match_input"`
	Hierarchy     bool    `yaml:"hierarchy"`
	MaxLayers     int     `yaml:"max_layers"`
	SegmentSize   int     `yaml:"segment_size"` // 0 disables automatic segmentation
	SegmentCache  int     `yaml:"segment_cache"`
	Parallelism   int     `yaml:"parallelism"` // <= 0 evaluates sequentially
	Codec         string  `yaml:"codec"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Alpha:         DefaultAlpha,
		MaxPeriod:     numeric.DefaultMaxPeriod,
		MaxPolyDegree: numeric.DefaultMaxDegree,
		PPMOrder:      ppm.DefaultOrder,
		LZWindow:      lz.DefaultWindow,
		LZMaxMatch:    lz.DefaultMaxMatch,
		MinTextLength: tokendict.DefaultMinLength,
		MinMatchInput: lz.DefaultMinInput,
		Hierarchy:     true,
		MaxLayers:     DefaultMaxLayers,
		SegmentCache:  DefaultSegmentCache,
		Codec:         "auto",
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults. A
// missing file yields the defaults. GENPRESS_* environment variables
// override file values.
func LoadConfig(path string) (*Config, error) {
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

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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

func (c *Config) applyEnvOverrides() {
	if v, ok := envInt("GENPRESS_SEGMENT_SIZE"); ok {
		c.SegmentSize = v
	}
	if v, ok := envInt("GENPRESS_PARALLELISM"); ok {
		c.Parallelism = v
	}
	if v := os.Getenv("GENPRESS_CODEC"); v != "" {
		c.Codec = v
	}
	if v := os.Getenv("GENPRESS_HIERARCHY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Hierarchy = b
		}
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Option is a functional option for configuring the engine.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithAlpha sets the error weight used when no candidate is exact.
func WithAlpha(alpha float64) Option {
	return func(c *Config) {
		c.Alpha = alpha
	}
}

// WithMaxPeriod caps the periodic search.
func WithMaxPeriod(p int) Option {
	return func(c *Config) {
		c.MaxPeriod = p
	}
}

// WithMaxPolyDegree caps the polynomial degree.
func WithMaxPolyDegree(d int) Option {
	return func(c *Config) {
		c.MaxPolyDegree = d
	}
}

// WithPPMOrder sets the highest context order of the predictive compressor.
func WithPPMOrder(order int) Option {
	return func(c *Config) {
		c.PPMOrder = order
	}
}

// WithLZWindow sets the match window.
func WithLZWindow(window int) Option {
	return func(c *Config) {
		c.LZWindow = window
	}
}

// WithMinTextLength sets the shortest input the text compressors accept.
func WithMinTextLength(n int) Option {
	return func(c *Config) {
		c.MinTextLength = n
	}
}

// WithHierarchy enables or disables hierarchical recompression.
func WithHierarchy(enabled bool) Option {
	return func(c *Config) {
		c.Hierarchy = enabled
	}
}

// WithMaxLayers caps hierarchical recompression depth.
func WithMaxLayers(n int) Option {
	return func(c *Config) {
		c.MaxLayers = n
	}
}

// WithSegmentSize enables automatic segmentation of inputs longer than n.
func WithSegmentSize(n int) Option {
	return func(c *Config) {
		c.SegmentSize = n
	}
}

// WithParallelism bounds concurrent candidate and segment evaluation.
func WithParallelism(n int) Option {
	return func(c *Config) {
		c.Parallelism = n
	}
}

// WithCodec sets the envelope codec name (none, flate, zstd, lz4, xz, auto).
func WithCodec(name string) Option {
	return func(c *Config) {
		c.Codec = name
	}
}

// WithMinMatchInput sets the shortest input the match compressor accepts.
func WithMinMatchInput(n int) Option {
	return func(c *Config) {
		c.MinMatchInput = n
	}
}
