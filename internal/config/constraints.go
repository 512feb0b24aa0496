package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
)

// ConstraintsConfig holds the default trading constraint rules applied to
// competitions created without explicit rules.
type ConstraintsConfig struct {
	Defaults competition.Rules `yaml:"defaults"`
}

// DefaultConstraintsConfig returns the built-in constraint defaults.
func DefaultConstraintsConfig() *ConstraintsConfig {
	return &ConstraintsConfig{
		Defaults: competition.Rules{
			MinTradeAmount:        10,
			MaxTradePercentage:    25,
			MaxSlippagePercent:    5,
			RateLimitPerMinute:    60,
			CrossChainTradingType: competition.CrossChainDisallowXParent,
			StartingBalance:       10000,
		},
	}
}

// LoadConstraintsConfig reads a constraints file. Values omitted from the
// file keep their built-in defaults.
func LoadConstraintsConfig(path string) (*ConstraintsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read constraints config: %w", err)
	}

	cfg := DefaultConstraintsConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse constraints config: %w", err)
	}
	if cfg.Defaults.MinTradeAmount < 0 {
		return nil, fmt.Errorf("min_trade_amount cannot be negative")
	}
	if cfg.Defaults.MaxTradePercentage <= 0 || cfg.Defaults.MaxTradePercentage > 100 {
		return nil, fmt.Errorf("max_trade_percentage must be in (0, 100]")
	}
	return cfg, nil
}

// LoadConstraintsConfigOrDefault reads the file when path is set, otherwise
// returns the built-in defaults.
func LoadConstraintsConfigOrDefault(path string) *ConstraintsConfig {
	if path == "" {
		return DefaultConstraintsConfig()
	}
	cfg, err := LoadConstraintsConfig(path)
	if err != nil {
		return DefaultConstraintsConfig()
	}
	return cfg
}
