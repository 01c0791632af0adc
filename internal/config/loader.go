package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if SUBWAYDEX_CONFIG is set
//  3. env (prefix SUBWAYDEX_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("SUBWAYDEX_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SUBWAYDEX_ADDR, SUBWAYDEX_TEAM_SIZE, ...
	// Map env keys like SUBWAYDEX_TEAM_SIZE -> team_size (flat keys).
	envProvider := env.Provider("SUBWAYDEX_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "subwaydex_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
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
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.TeamSize < 1:
		return fmt.Errorf("%w: team_size must be positive", ErrInvalidConfig)
	case c.SearchLimitDefault < 1 || c.SearchLimitMax < c.SearchLimitDefault:
		return fmt.Errorf("%w: search limits must satisfy 1 <= default <= max", ErrInvalidConfig)
	case c.WarmupWorkers < 1:
		return fmt.Errorf("%w: warmup_workers must be positive", ErrInvalidConfig)
	}
	return nil
}
