package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SKILLSCOPE_CONFIG is set
//  3. env (prefix SKILLSCOPE_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SKILLSCOPE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SKILLSCOPE_QUEUE_SIZE -> queue_size (flat keys).
	// Underscores are preserved to match koanf tags on the struct.
	envProvider := env.Provider("SKILLSCOPE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "skillscope_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	inUnit := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidConfig, name, v)
		}
		return nil
	}
	for name, v := range map[string]float64{
		"fuzzy_threshold":    c.FuzzyThreshold,
		"semantic_threshold": c.SemanticThreshold,
		"min_confidence":     c.MinConfidence,
		"decay_loss":         c.DecayLoss,
		"decay_floor":        c.DecayFloor,
		"mandatory_floor":    c.MandatoryFloor,
		"partial_credit":     c.PartialCredit,
	} {
		if err := inUnit(name, v); err != nil {
			return err
		}
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.DecayWindowMonths <= 0 {
		return fmt.Errorf("%w: decay_window_months must be positive", ErrInvalidConfig)
	}
	if c.ReadinessThreshold <= 0 || c.ReadinessThreshold > 100 {
		return fmt.Errorf("%w: readiness_threshold must be within (0,100]", ErrInvalidConfig)
	}
	if c.MinCompatibility < 0 || c.MinCompatibility > 100 {
		return fmt.Errorf("%w: min_compatibility must be within [0,100]", ErrInvalidConfig)
	}
	if c.MatchLimit < 1 {
		return fmt.Errorf("%w: match_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
