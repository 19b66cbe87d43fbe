package oracle

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// FeedDecimals is the fixed precision convention for every price feed consumed
// by the engine. A quote of 2000_00000000 reads as 2000 USD per whole token.
const FeedDecimals uint8 = 8

// ErrUnknownAsset indicates that the feed holds no quote for the requested
// asset symbol.
var ErrUnknownAsset = errors.New("oracle: unknown asset")

// Quote captures a price observation for a single asset along with the
// timestamp reported by the upstream source.
type Quote struct {
	// Price is the USD price of one whole token, expressed with FeedDecimals
	// decimal places. The value is signed: a misbehaving upstream may report
	// zero or negative prices and the engine decides how to treat those.
	Price     *big.Int
	Decimals  uint8
	Timestamp time.Time
}

// Clone returns a deep copy of the quote to prevent accidental mutations.
func (q Quote) Clone() Quote {
	clone := Quote{Decimals: q.Decimals, Timestamp: q.Timestamp}
	if q.Price != nil {
		clone.Price = new(big.Int).Set(q.Price)
	}
	return clone
}

// PriceFeed resolves the latest USD quote for an asset symbol.
type PriceFeed interface {
	LatestPrice(asset string) (Quote, error)
}

// ManualFeed provides an in-memory feed implementation used for tests and
// manual overrides during incident response.
type ManualFeed struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewManualFeed constructs an empty manual feed instance.
func NewManualFeed() *ManualFeed {
	return &ManualFeed{quotes: make(map[string]Quote)}
}

// Set stores the provided price for the asset. The price is interpreted with
// FeedDecimals decimal places.
func (m *ManualFeed) Set(asset string, price *big.Int, ts time.Time) {
	if m == nil || price == nil {
		return
	}
	key := NormalizeSymbol(asset)
	if key == "" {
		return
	}
	m.mu.Lock()
	m.quotes[key] = Quote{
		Price:     new(big.Int).Set(price),
		Decimals:  FeedDecimals,
		Timestamp: ts,
	}
	m.mu.Unlock()
}

// SetDecimal records the supplied decimal USD price for the asset, e.g.
// "2000" or "63950.25". The value is scaled to FeedDecimals places before
// storage and truncated beyond that precision.
func (m *ManualFeed) SetDecimal(asset, price string, ts time.Time) error {
	if m == nil {
		return fmt.Errorf("manual feed not configured")
	}
	trimmed := strings.TrimSpace(price)
	if trimmed == "" {
		return fmt.Errorf("manual feed: price required")
	}
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return fmt.Errorf("manual feed: invalid price %q", price)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(FeedDecimals)), nil)
	scaled := new(big.Rat).Mul(rat, new(big.Rat).SetInt(scale))
	m.Set(asset, new(big.Int).Quo(scaled.Num(), scaled.Denom()), ts)
	return nil
}

// LatestPrice retrieves the stored quote for the asset.
func (m *ManualFeed) LatestPrice(asset string) (Quote, error) {
	if m == nil {
		return Quote{}, fmt.Errorf("manual feed not configured")
	}
	key := NormalizeSymbol(asset)
	m.mu.RLock()
	stored, ok := m.quotes[key]
	m.mu.RUnlock()
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownAsset, key)
	}
	return stored.Clone(), nil
}

// StaticFeed serves a fixed set of quotes. It never changes after
// construction, which makes it convenient for deterministic fixtures.
type StaticFeed map[string]*big.Int

// LatestPrice implements PriceFeed.
func (s StaticFeed) LatestPrice(asset string) (Quote, error) {
	price, ok := s[NormalizeSymbol(asset)]
	if !ok || price == nil {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return Quote{Price: new(big.Int).Set(price), Decimals: FeedDecimals}, nil
}

// NormalizeSymbol canonicalises an asset symbol for map lookups.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
