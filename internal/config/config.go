package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kestreldb/kestrel/internal/errors"
)

// RecursiveSemantic constrains how recursive pattern matching treats repeated
// nodes and relationships.
type RecursiveSemantic string

const (
	// SemanticWalk allows repeated nodes and relationships.
	SemanticWalk RecursiveSemantic = "walk"
	// SemanticTrail forbids repeated relationships.
	SemanticTrail RecursiveSemantic = "trail"
	// SemanticAcyclic forbids repeated nodes.
	SemanticAcyclic RecursiveSemantic = "acyclic"
)

// Config holds the planner-relevant subset of client configuration. It is
// derived once per planning call and passed read-only through the enumerator.
type Config struct {
	// Threads is the parallelism budget at execution time. The planner reads
	// it only as a cost-model input.
	Threads int `yaml:"threads"`

	// TimeoutMS is the planning deadline in milliseconds. Zero disables it.
	TimeoutMS int `yaml:"timeout"`

	// VarLengthExtendMaxDepth bounds recursive extends.
	VarLengthExtendMaxDepth int `yaml:"var_length_extend_max_depth"`

	// EnableSemiMask enables semi-join filter appending in the mapper.
	EnableSemiMask bool `yaml:"enable_semi_mask"`

	// RecursivePatternSemantic constrains recursive extends.
	RecursivePatternSemantic RecursiveSemantic `yaml:"recursive_pattern_semantic"`

	// RecursivePatternFactor scales the cardinality of recursive plans.
	RecursivePatternFactor int `yaml:"recursive_pattern_factor"`

	// EnableZoneMap is recognized but the underlying feature does not exist
	// yet; turning it on fails planning with a FeatureNotSupported error.
	EnableZoneMap bool `yaml:"enable_zone_map"`
}

// DefaultConfig returns the planner defaults.
func DefaultConfig() *Config {
	return &Config{
		Threads:                  1,
		TimeoutMS:                0,
		VarLengthExtendMaxDepth:  30,
		EnableSemiMask:           true,
		RecursivePatternSemantic: SemanticWalk,
		RecursivePatternFactor:   1,
		EnableZoneMap:            false,
	}
}

// Timeout returns the planning deadline as a duration, zero if disabled.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	if c.Threads < 1 {
		return errors.ConfigErrorf("threads must be at least 1, got %d", c.Threads)
	}
	if c.TimeoutMS < 0 {
		return errors.ConfigErrorf("timeout must be non-negative, got %d", c.TimeoutMS)
	}
	if c.VarLengthExtendMaxDepth < 1 {
		return errors.ConfigErrorf("var_length_extend_max_depth must be at least 1, got %d",
			c.VarLengthExtendMaxDepth)
	}
	if c.RecursivePatternFactor < 1 {
		return errors.ConfigErrorf("recursive_pattern_factor must be at least 1, got %d",
			c.RecursivePatternFactor)
	}
	switch c.RecursivePatternSemantic {
	case SemanticWalk, SemanticTrail, SemanticAcyclic:
	default:
		return errors.ConfigErrorf("unknown recursive_pattern_semantic %q",
			c.RecursivePatternSemantic)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, applying defaults for
// unset fields.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
