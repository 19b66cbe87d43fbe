package engine

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/events"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/oracle"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/token"
)

const moduleName = "dscengine"

// Engine orchestrates every state transition of the stablecoin system: it
// owns the position and debt ledger, values collateral through the configured
// price feeds, gates every mutation on the solvency check and drives the
// external token collaborators.
//
// Operations follow a load / mutate-copy / check / external-call / persist
// sequence: a failing check or collaborator call returns before anything is
// written, so persisted ledger state is all-or-nothing.
type Engine struct {
	state      State
	custody    crypto.Address
	registry   *CollateralConfig
	feeds      oracle.PriceFeed
	dsc        token.DebtToken
	collateral map[string]token.Collateral
	params     RiskParameters
	pauses     PauseView
	emitter    events.Emitter
	inFlight   atomic.Bool
}

// NewEngine constructs an engine over the immutable collateral registry. The
// custody address is the account all pulled tokens are parked under.
func NewEngine(custody crypto.Address, registry *CollateralConfig, feeds oracle.PriceFeed, dsc token.DebtToken, params RiskParameters) *Engine {
	return &Engine{
		custody:    custody,
		registry:   registry,
		feeds:      feeds,
		dsc:        dsc,
		collateral: make(map[string]token.Collateral),
		params:     params.withDefaults(),
		emitter:    events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state State) { e.state = state }

// SetPauses wires the operator pause switches.
func (e *Engine) SetPauses(p PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter wires the event sink. A nil emitter resets to the no-op sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetCollateralToken wires the token capability for a registered collateral
// symbol. Operations touching a symbol without a wired token fail.
func (e *Engine) SetCollateralToken(symbol string, tok token.Collateral) {
	if e == nil || tok == nil {
		return
	}
	e.collateral[oracle.NormalizeSymbol(symbol)] = tok
}

// Custody returns the engine's custody account address.
func (e *Engine) Custody() crypto.Address { return e.custody }

// CollateralTypes returns the registered collateral types in registration order.
func (e *Engine) CollateralTypes() []CollateralType { return e.registry.Types() }

func (e *Engine) collateralToken(symbol string) (token.Collateral, error) {
	tok, ok := e.collateral[symbol]
	if !ok {
		return nil, fmt.Errorf("dsc engine: no token wired for collateral %s", symbol)
	}
	return tok, nil
}

// --- Public operations ---

// DepositCollateral pulls amount of the asset from the caller into engine
// custody and credits the caller's position. Depositing has no solvency
// precondition: it can only help.
func (e *Engine) DepositCollateral(caller crypto.Address, asset string, amount *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	return e.depositLocked(caller, asset, amount)
}

// MintDsc increments the caller's debt, asserts the resulting position is
// safe and then mints the debt token to the caller.
func (e *Engine) MintDsc(caller crypto.Address, amount *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	return e.mintLocked(caller, amount)
}

// DepositCollateralAndMintDsc runs deposit then mint, in that order, as a
// single in-flight operation.
func (e *Engine) DepositCollateralAndMintDsc(caller crypto.Address, asset string, amount, debtAmount *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	if err := e.depositLocked(caller, asset, amount); err != nil {
		return err
	}
	return e.mintLocked(caller, debtAmount)
}

// RedeemCollateral releases amount of the asset from the caller's position
// back to the caller, provided the remaining position stays safe.
func (e *Engine) RedeemCollateral(caller crypto.Address, asset string, amount *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	return e.redeemLocked(caller, asset, amount)
}

// BurnDsc retires amount of the caller's debt, pulling the debt token from
// the caller into custody and burning it.
func (e *Engine) BurnDsc(caller crypto.Address, amount *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	return e.burnLocked(caller, amount)
}

// RedeemCollateralForDsc burns debt and then redeems collateral, in that
// exact order, so the intermediate state is never worse than the final one.
func (e *Engine) RedeemCollateralForDsc(caller crypto.Address, asset string, collateralAmount, debtAmount *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	if err := e.burnLocked(caller, debtAmount); err != nil {
		return err
	}
	return e.redeemLocked(caller, asset, collateralAmount)
}

// Liquidate lets a third party cover debtToCover (USD, 18 decimals) of an
// undercollateralized victim's debt in exchange for the equivalent collateral
// plus the liquidation bonus.
func (e *Engine) Liquidate(liquidator crypto.Address, asset string, victim crypto.Address, debtToCover *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	return e.liquidateLocked(liquidator, asset, victim, debtToCover)
}

// --- Internal operations (reentrancy guard held by the caller) ---

func (e *Engine) depositLocked(caller crypto.Address, asset string, amount *big.Int) error {
	if e.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	ct, ok := e.registry.Lookup(asset)
	if !ok {
		return ErrUnknownCollateral
	}
	tok, err := e.collateralToken(ct.Symbol)
	if err != nil {
		return err
	}

	balance, err := e.state.GetPosition(caller, ct.Symbol)
	if err != nil {
		return err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}

	ok, err = tok.TransferFrom(caller, e.custody, amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if !ok {
		return ErrTransferFailed
	}

	if err := e.state.PutPosition(caller, ct.Symbol, new(big.Int).Add(balance, amount)); err != nil {
		// Ledger write failed after the pull: return the funds rather than
		// holding collateral with no position backing it.
		if refunded, refundErr := tok.Transfer(caller, amount); refundErr != nil || !refunded {
			return fmt.Errorf("persist deposit: %w (refund failed, funds held in custody)", err)
		}
		return err
	}
	e.emitter.Emit(events.CollateralDeposited{Account: caller, Asset: ct.Symbol, Amount: new(big.Int).Set(amount)})
	return nil
}

func (e *Engine) mintLocked(caller crypto.Address, amount *big.Int) error {
	if e.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	acc, err := e.loadAccount(caller)
	if err != nil {
		return err
	}
	acc.debt = new(big.Int).Add(acc.debt, amount)
	if err := e.assertSafe(acc); err != nil {
		return err
	}

	// Record the debt before tokens exist, so a mint can never outrun the
	// ledger; a failed mint rolls the record back.
	if err := e.persistDebt(acc); err != nil {
		return err
	}
	ok, err := e.dsc.Mint(caller, amount)
	if err != nil || !ok {
		acc.debt = new(big.Int).Sub(acc.debt, amount)
		if perr := e.persistDebt(acc); perr != nil {
			return fmt.Errorf("%w: debt rollback failed: %v", ErrMintFailed, perr)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMintFailed, err)
		}
		return ErrMintFailed
	}
	e.emitter.Emit(events.DebtMinted{Account: caller, Amount: new(big.Int).Set(amount)})
	return nil
}

func (e *Engine) redeemLocked(caller crypto.Address, asset string, amount *big.Int) error {
	if e.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	ct, ok := e.registry.Lookup(asset)
	if !ok {
		return ErrUnknownCollateral
	}
	tok, err := e.collateralToken(ct.Symbol)
	if err != nil {
		return err
	}

	acc, err := e.loadAccount(caller)
	if err != nil {
		return err
	}
	balance := acc.collateral[ct.Symbol]
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	acc.collateral[ct.Symbol] = new(big.Int).Sub(balance, amount)
	if err := e.assertSafe(acc); err != nil {
		return err
	}

	ok, err = tok.Transfer(caller, amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if !ok {
		return ErrTransferFailed
	}

	if err := e.persistPosition(acc, ct.Symbol); err != nil {
		return err
	}
	e.emitter.Emit(events.CollateralRedeemed{From: caller, To: caller, Asset: ct.Symbol, Amount: new(big.Int).Set(amount)})
	return nil
}

func (e *Engine) burnLocked(caller crypto.Address, amount *big.Int) error {
	if e.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	acc, err := e.loadAccount(caller)
	if err != nil {
		return err
	}
	if acc.debt.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	acc.debt = new(big.Int).Sub(acc.debt, amount)

	// Burning can only improve health, so this never trips. It is still
	// evaluated: the solvency gate runs after every debt mutation.
	if err := e.assertSafe(acc); err != nil {
		return err
	}

	if err := e.pullAndBurn(caller, amount); err != nil {
		return err
	}

	if err := e.persistDebt(acc); err != nil {
		return err
	}
	e.emitter.Emit(events.DebtBurned{Account: caller, Payer: caller, Amount: new(big.Int).Set(amount)})
	return nil
}

func (e *Engine) liquidateLocked(liquidator crypto.Address, asset string, victim crypto.Address, debtToCover *big.Int) error {
	if e.state == nil {
		return ErrNilState
	}
	if debtToCover == nil || debtToCover.Sign() <= 0 {
		return ErrInvalidAmount
	}
	ct, ok := e.registry.Lookup(asset)
	if !ok {
		return ErrUnknownCollateral
	}
	tok, err := e.collateralToken(ct.Symbol)
	if err != nil {
		return err
	}

	victimAcc, err := e.loadAccount(victim)
	if err != nil {
		return err
	}
	startingHealth, err := e.accountHealth(victimAcc)
	if err != nil {
		return err
	}
	if startingHealth.Cmp(precision) >= 0 {
		return ErrHealthFactorOk
	}

	seized, err := e.tokenAmountFromUsd(ct, debtToCover)
	if err != nil {
		return err
	}
	bonus := new(big.Int).Mul(seized, new(big.Int).SetUint64(e.params.LiquidationBonusPct))
	bonus.Quo(bonus, pctDenominator)
	totalSeized := new(big.Int).Add(seized, bonus)

	// Directional withdraw from the victim's position. No clamping: a victim
	// who cannot cover debt plus bonus in this asset fails the liquidation.
	balance := victimAcc.collateral[ct.Symbol]
	if balance.Cmp(totalSeized) < 0 {
		return ErrInsufficientBalance
	}
	victimAcc.collateral[ct.Symbol] = new(big.Int).Sub(balance, totalSeized)

	if victimAcc.debt.Cmp(debtToCover) < 0 {
		return ErrInsufficientBalance
	}
	victimAcc.debt = new(big.Int).Sub(victimAcc.debt, debtToCover)

	liquidatorAcc := victimAcc
	if !liquidator.Equal(victim) {
		liquidatorAcc, err = e.loadAccount(liquidator)
		if err != nil {
			return err
		}
	}

	// The legacy burn path asserted the paying party's health inside the
	// shared burn helper, before the improvement check. Preserve that
	// precedence when configured.
	if e.params.LegacyBurnGuard {
		if err := e.assertSafe(liquidatorAcc); err != nil {
			return err
		}
	}

	endingHealth, err := e.accountHealth(victimAcc)
	if err != nil {
		return err
	}
	if endingHealth.Cmp(startingHealth) <= 0 {
		return ErrHealthFactorNotImproved
	}

	if err := e.assertSafe(liquidatorAcc); err != nil {
		return err
	}

	// Collect the liquidator's debt tokens before anything leaves custody:
	// a failed pull is an ordinary caller error (no balance, no allowance)
	// and must not strand seized collateral outside the engine.
	ok, err = e.dsc.TransferFrom(liquidator, e.custody, debtToCover)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if !ok {
		return ErrTransferFailed
	}
	ok, err = tok.Transfer(liquidator, totalSeized)
	if err != nil || !ok {
		// Hand the pulled debt tokens back; custody keeps nothing on a
		// failed payout.
		if refunded, refundErr := e.dsc.TransferFrom(e.custody, liquidator, debtToCover); refundErr != nil || !refunded {
			return fmt.Errorf("%w: collateral payout and debt refund both failed", ErrTransferFailed)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		return ErrTransferFailed
	}
	if err := e.dsc.Burn(debtToCover); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	if err := e.persistPosition(victimAcc, ct.Symbol); err != nil {
		return err
	}
	if err := e.persistDebt(victimAcc); err != nil {
		return err
	}
	e.emitter.Emit(events.Liquidated{
		Liquidator:  liquidator,
		Victim:      victim,
		Asset:       ct.Symbol,
		DebtCovered: new(big.Int).Set(debtToCover),
		Seized:      new(big.Int).Set(totalSeized),
	})
	return nil
}

// pullAndBurn moves debt tokens from the payer into custody and retires them.
func (e *Engine) pullAndBurn(payer crypto.Address, amount *big.Int) error {
	ok, err := e.dsc.TransferFrom(payer, e.custody, amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if !ok {
		return ErrTransferFailed
	}
	if err := e.dsc.Burn(amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

// --- Read-only query surface ---

// GetAccountInformation returns the account's outstanding debt and the USD
// value of its collateral.
func (e *Engine) GetAccountInformation(addr crypto.Address) (*big.Int, *big.Int, error) {
	if e == nil || e.state == nil {
		return nil, nil, ErrNilState
	}
	acc, err := e.loadAccount(addr)
	if err != nil {
		return nil, nil, err
	}
	collateralUsd, err := e.collateralValue(acc)
	if err != nil {
		return nil, nil, err
	}
	return acc.debt, collateralUsd, nil
}

// GetAccountCollateralValue sums the USD value of every collateral type held
// by the account, in registration order.
func (e *Engine) GetAccountCollateralValue(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	acc, err := e.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	return e.collateralValue(acc)
}

// GetUsdValue converts a collateral amount to its USD value.
func (e *Engine) GetUsdValue(asset string, amount *big.Int) (*big.Int, error) {
	ct, ok := e.registry.Lookup(asset)
	if !ok {
		return nil, ErrUnknownCollateral
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	return e.usdValue(ct, amount)
}

// GetTokenAmountFromUsd converts a USD amount (18 decimals) into the
// equivalent collateral token quantity.
func (e *Engine) GetTokenAmountFromUsd(asset string, usd *big.Int) (*big.Int, error) {
	ct, ok := e.registry.Lookup(asset)
	if !ok {
		return nil, ErrUnknownCollateral
	}
	if usd == nil {
		usd = big.NewInt(0)
	}
	return e.tokenAmountFromUsd(ct, usd)
}

// GetHealthFactor reports the account's solvency metric. Accounts with zero
// debt report the maximum sentinel and are always safe.
func (e *Engine) GetHealthFactor(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	acc, err := e.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	return e.accountHealth(acc)
}

// GetCollateralBalance reports the deposited amount for one asset.
func (e *Engine) GetCollateralBalance(addr crypto.Address, asset string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	ct, ok := e.registry.Lookup(asset)
	if !ok {
		return nil, ErrUnknownCollateral
	}
	balance, err := e.state.GetPosition(addr, ct.Symbol)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	return new(big.Int).Set(balance), nil
}

// MinHealthFactor returns the safety threshold (1e18).
func MinHealthFactor() *big.Int { return new(big.Int).Set(precision) }

// MaxHealthFactor returns the zero-debt sentinel.
func MaxHealthFactor() *big.Int { return new(big.Int).Set(maxHealthFactor) }
