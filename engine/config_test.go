package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewCollateralConfigValidation(t *testing.T) {
	if _, err := NewCollateralConfig([]string{"WETH"}, []string{"ETH/USD", "BTC/USD"}); err == nil {
		t.Fatal("expected mismatched-length error")
	}
	if _, err := NewCollateralConfig([]string{"  "}, []string{"ETH/USD"}); err == nil {
		t.Fatal("expected blank-symbol error")
	}
	if _, err := NewCollateralConfig([]string{"WETH"}, []string{" "}); err == nil {
		t.Fatal("expected blank-feed error")
	}
	if _, err := NewCollateralConfig([]string{"WETH", "weth"}, []string{"ETH/USD", "ETH/USD"}); err == nil {
		t.Fatal("expected duplicate error for case-folded symbol")
	}
}

func TestCollateralConfigLookupAndOrder(t *testing.T) {
	cfg, err := NewCollateralConfig([]string{"weth", "WBTC"}, []string{"ETH/USD", "BTC/USD"})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if cfg.Len() != 2 {
		t.Fatalf("len = %d", cfg.Len())
	}
	ct, ok := cfg.Lookup("WeTh")
	if !ok || ct.Symbol != "WETH" || ct.Feed != "ETH/USD" {
		t.Fatalf("lookup = %+v ok=%v", ct, ok)
	}
	if _, ok := cfg.Lookup("DOGE"); ok {
		t.Fatal("unexpected lookup hit")
	}
	types := cfg.Types()
	if types[0].Symbol != "WETH" || types[1].Symbol != "WBTC" {
		t.Fatalf("registration order lost: %+v", types)
	}
	// Returned slice is a copy.
	types[0].Symbol = "XXX"
	if cfg.Types()[0].Symbol != "WETH" {
		t.Fatal("Types leaked internal slice")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.toml")
	body := `
[risk]
LiquidationThresholdPct = 50
LiquidationBonusPct = 10

[[collateral]]
symbol = "WETH"
feed = "ETH/USD"

[[collateral]]
symbol = "WBTC"
feed = "BTC/USD"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Risk.LiquidationThresholdPct != 50 || cfg.Risk.LiquidationBonusPct != 10 {
		t.Fatalf("risk = %+v", cfg.Risk)
	}
	registry, err := cfg.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if registry.Len() != 2 {
		t.Fatalf("registry len = %d", registry.Len())
	}
}

func TestLoadConfigDefaultsAndFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.toml")
	body := `
[[collateral]]
symbol = "WETH"
feed = "ETH/USD"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Risk.LiquidationThresholdPct != 50 {
		t.Fatalf("threshold default = %d", cfg.Risk.LiquidationThresholdPct)
	}
	if cfg.Risk.LiquidationBonusPct != 10 {
		t.Fatalf("bonus default = %d", cfg.Risk.LiquidationBonusPct)
	}

	empty := filepath.Join(dir, "empty.toml")
	if err := os.WriteFile(empty, []byte(""), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(empty); err == nil {
		t.Fatal("expected error for empty collateral list")
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRiskParameterDefaults(t *testing.T) {
	p := RiskParameters{}.withDefaults()
	if p.LiquidationThresholdPct != 50 {
		t.Fatalf("threshold = %d", p.LiquidationThresholdPct)
	}
	if p.LiquidationBonusPct != 10 {
		t.Fatalf("bonus = %d", p.LiquidationBonusPct)
	}

	p = RiskParameters{LiquidationThresholdPct: 120, LiquidationBonusPct: 5}.withDefaults()
	if p.LiquidationThresholdPct != 100 {
		t.Fatalf("threshold clamp = %d", p.LiquidationThresholdPct)
	}
	if p.LiquidationBonusPct != 5 {
		t.Fatalf("explicit bonus overwritten: %d", p.LiquidationBonusPct)
	}
}
