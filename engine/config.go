package engine

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/oracle"
)

// CollateralType describes one allowed deposit asset: an opaque asset symbol
// plus the feed handle queried for its USD price. Exactly one feed handle is
// attached to every registered type.
type CollateralType struct {
	Symbol string `toml:"symbol"`
	Feed   string `toml:"feed"`
}

// CollateralConfig is the immutable registry of allowed collateral types.
// Built once at construction; there is no add or remove at runtime. The
// registration order is preserved because it fixes the summation order when
// valuing an account.
type CollateralConfig struct {
	ordered []CollateralType
	index   map[string]CollateralType
}

// NewCollateralConfig builds the registry from two equal-length lists of
// asset symbols and feed handles. Construction fails on mismatched lengths,
// blank symbols and duplicate registrations.
func NewCollateralConfig(assets, feeds []string) (*CollateralConfig, error) {
	if len(assets) != len(feeds) {
		return nil, fmt.Errorf("dsc engine: %d assets but %d feeds", len(assets), len(feeds))
	}
	cfg := &CollateralConfig{
		ordered: make([]CollateralType, 0, len(assets)),
		index:   make(map[string]CollateralType, len(assets)),
	}
	for i := range assets {
		symbol := oracle.NormalizeSymbol(assets[i])
		feed := strings.TrimSpace(feeds[i])
		if symbol == "" {
			return nil, fmt.Errorf("dsc engine: blank collateral symbol at index %d", i)
		}
		if feed == "" {
			return nil, fmt.Errorf("dsc engine: blank feed handle for %s", symbol)
		}
		if _, exists := cfg.index[symbol]; exists {
			return nil, fmt.Errorf("dsc engine: duplicate collateral %s", symbol)
		}
		ct := CollateralType{Symbol: symbol, Feed: feed}
		cfg.ordered = append(cfg.ordered, ct)
		cfg.index[symbol] = ct
	}
	return cfg, nil
}

// Lookup resolves a collateral type by symbol.
func (c *CollateralConfig) Lookup(symbol string) (CollateralType, bool) {
	if c == nil {
		return CollateralType{}, false
	}
	ct, ok := c.index[oracle.NormalizeSymbol(symbol)]
	return ct, ok
}

// Types returns the registered collateral types in registration order.
func (c *CollateralConfig) Types() []CollateralType {
	if c == nil {
		return nil
	}
	return append([]CollateralType(nil), c.ordered...)
}

// Len reports the number of registered collateral types.
func (c *CollateralConfig) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ordered)
}

// RiskParameters groups the fixed safety limits governing minting and
// liquidation. Percentages are whole percent values, not basis points.
type RiskParameters struct {
	// LiquidationThresholdPct discounts collateral value before the solvency
	// check; 50 means positions must stay at most 50% loan-to-value.
	LiquidationThresholdPct uint64 `toml:"LiquidationThresholdPct"`
	// LiquidationBonusPct is the extra collateral share paid to liquidators
	// on top of the covered debt value.
	LiquidationBonusPct uint64 `toml:"LiquidationBonusPct"`
	// LegacyBurnGuard replicates the original burn-path behaviour where the
	// shared debt-burn helper re-asserts the paying party's health factor.
	// When false the final liquidator assert is the only guard on that path.
	LegacyBurnGuard bool `toml:"LegacyBurnGuard"`
}

// DefaultRiskParameters returns the engine-constant risk limits.
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		LiquidationThresholdPct: 50,
		LiquidationBonusPct:     10,
	}
}

func (p RiskParameters) withDefaults() RiskParameters {
	if p.LiquidationThresholdPct == 0 {
		p.LiquidationThresholdPct = 50
	}
	if p.LiquidationThresholdPct > 100 {
		p.LiquidationThresholdPct = 100
	}
	// A zero bonus would remove the liquidation incentive entirely; an
	// omitted value gets the same treatment as an omitted threshold.
	if p.LiquidationBonusPct == 0 {
		p.LiquidationBonusPct = 10
	}
	return p
}

// FileConfig is the on-disk TOML shape for the engine: the collateral
// registry plus risk parameters.
type FileConfig struct {
	Collateral []CollateralType `toml:"collateral"`
	Risk       RiskParameters   `toml:"risk"`
}

// LoadConfig reads and validates an engine configuration file.
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("decode engine config: %w", err)
	}
	if len(cfg.Collateral) == 0 {
		return FileConfig{}, fmt.Errorf("engine config: at least one collateral entry required")
	}
	cfg.Risk = cfg.Risk.withDefaults()
	return cfg, nil
}

// Registry builds the immutable collateral registry from the file entries.
func (c FileConfig) Registry() (*CollateralConfig, error) {
	assets := make([]string, 0, len(c.Collateral))
	feeds := make([]string, 0, len(c.Collateral))
	for _, entry := range c.Collateral {
		assets = append(assets, entry.Symbol)
		feeds = append(feeds, entry.Feed)
	}
	return NewCollateralConfig(assets, feeds)
}
