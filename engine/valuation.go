package engine

import (
	"fmt"
	"math/big"
)

var (
	// precision is the engine's internal 18-decimal fixed point scale.
	precision = big.NewInt(1_000_000_000_000_000_000)
	// feedScale lifts 8-decimal feed prices to the 18-decimal convention.
	feedScale = big.NewInt(10_000_000_000)
	// pctDenominator converts whole-percent risk parameters into ratios.
	pctDenominator = big.NewInt(100)

	// maxHealthFactor is the sentinel for "no debt, always safe": the
	// maximum representable 256-bit value, so zero-debt accounts are never
	// blocked or flagged liquidatable.
	maxHealthFactor = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// priceOf reads the latest feed price for a registered collateral type. A
// non-positive price never propagates into valuation arithmetic.
func (e *Engine) priceOf(ct CollateralType) (*big.Int, error) {
	quote, err := e.feeds.LatestPrice(ct.Feed)
	if err != nil {
		return nil, fmt.Errorf("dsc engine: price feed %s: %w", ct.Feed, err)
	}
	if quote.Price == nil || quote.Price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	return quote.Price, nil
}

// usdValue converts a collateral amount (smallest asset unit) into its USD
// value in 18-decimal fixed point: price * 1e10 * amount / 1e18.
func (e *Engine) usdValue(ct CollateralType, amount *big.Int) (*big.Int, error) {
	price, err := e.priceOf(ct)
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Mul(price, feedScale)
	value.Mul(value, amount)
	return value.Quo(value, precision), nil
}

// tokenAmountFromUsd is the algebraic inverse of usdValue for the same price
// sample, subject to integer-division truncation:
// usd * 1e18 / (price * 1e10).
func (e *Engine) tokenAmountFromUsd(ct CollateralType, usd *big.Int) (*big.Int, error) {
	price, err := e.priceOf(ct)
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Mul(usd, precision)
	return amount.Quo(amount, new(big.Int).Mul(price, feedScale)), nil
}

// collateralValue sums the USD value of every registered collateral type held
// by the account, in registration order.
func (e *Engine) collateralValue(acc *account) (*big.Int, error) {
	total := big.NewInt(0)
	for _, ct := range e.registry.Types() {
		bal := acc.collateral[ct.Symbol]
		if bal == nil || bal.Sign() == 0 {
			continue
		}
		value, err := e.usdValue(ct, bal)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}

// healthFactor computes the solvency metric for the given totals:
// (collateralUsd * thresholdPct / 100) * 1e18 / debt, with zero debt mapped
// to the maximum sentinel.
func (e *Engine) healthFactor(collateralUsd, debt *big.Int) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(maxHealthFactor)
	}
	adjusted := new(big.Int).Mul(collateralUsd, new(big.Int).SetUint64(e.params.LiquidationThresholdPct))
	adjusted.Quo(adjusted, pctDenominator)
	adjusted.Mul(adjusted, precision)
	return adjusted.Quo(adjusted, debt)
}

// accountHealth values the account and computes its health factor.
func (e *Engine) accountHealth(acc *account) (*big.Int, error) {
	collateralUsd, err := e.collateralValue(acc)
	if err != nil {
		return nil, err
	}
	return e.healthFactor(collateralUsd, acc.debt), nil
}

// assertSafe signals a broken health factor when the account sits below the
// 1e18 minimum.
func (e *Engine) assertSafe(acc *account) error {
	hf, err := e.accountHealth(acc)
	if err != nil {
		return err
	}
	if hf.Cmp(precision) < 0 {
		return brokenHealthFactor(hf)
	}
	return nil
}
