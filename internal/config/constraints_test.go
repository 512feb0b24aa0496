package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
)

func writeConstraints(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "constraints.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConstraintsConfig(t *testing.T) {
	path := writeConstraints(t, `
defaults:
  min_trade_amount: 50
  max_trade_percentage: 10
  cross_chain_trading_type: disallowAll
  allowed_tokens:
    neo: [NEO, GAS, USDT]
`)

	cfg, err := LoadConstraintsConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Defaults.MinTradeAmount != 50 || cfg.Defaults.MaxTradePercentage != 10 {
		t.Fatalf("overrides not applied: %#v", cfg.Defaults)
	}
	if cfg.Defaults.CrossChainTradingType != competition.CrossChainDisallowAll {
		t.Fatalf("cross-chain type not parsed: %s", cfg.Defaults.CrossChainTradingType)
	}
	// Unset values keep built-in defaults.
	if cfg.Defaults.MaxSlippagePercent != 5 {
		t.Fatalf("default slippage lost: %v", cfg.Defaults.MaxSlippagePercent)
	}
	if len(cfg.Defaults.AllowedTokens["neo"]) != 3 {
		t.Fatalf("allowed tokens not parsed: %#v", cfg.Defaults.AllowedTokens)
	}
}

func TestLoadConstraintsConfigRejectsBadBounds(t *testing.T) {
	path := writeConstraints(t, `
defaults:
  max_trade_percentage: 150
`)
	if _, err := LoadConstraintsConfig(path); err == nil {
		t.Fatal("expected bounds error")
	}
}

func TestLoadConstraintsConfigOrDefault(t *testing.T) {
	cfg := LoadConstraintsConfigOrDefault("")
	if cfg.Defaults.StartingBalance != 10000 {
		t.Fatalf("unexpected defaults: %#v", cfg.Defaults)
	}
	cfg = LoadConstraintsConfigOrDefault("/nonexistent/path.yaml")
	if cfg.Defaults.MinTradeAmount != 10 {
		t.Fatalf("missing file should fall back to defaults: %#v", cfg.Defaults)
	}
}
