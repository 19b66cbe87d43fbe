package events

import (
	"math/big"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
)

// Event represents a structured state change emitted by the engine.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while
// discarding all events. It is useful when a component wants to optionally
// expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

const (
	TypeCollateralDeposited = "collateral.deposited"
	TypeCollateralRedeemed  = "collateral.redeemed"
	TypeDebtMinted          = "debt.minted"
	TypeDebtBurned          = "debt.burned"
	TypeLiquidated          = "position.liquidated"
)

// CollateralDeposited is emitted after a deposit lands in engine custody.
type CollateralDeposited struct {
	Account crypto.Address
	Asset   string
	Amount  *big.Int
}

func (CollateralDeposited) EventType() string { return TypeCollateralDeposited }

// CollateralRedeemed is emitted after collateral leaves engine custody. The
// From and To accounts differ during liquidation, where seized collateral is
// routed from the victim's position to the liquidator.
type CollateralRedeemed struct {
	From   crypto.Address
	To     crypto.Address
	Asset  string
	Amount *big.Int
}

func (CollateralRedeemed) EventType() string { return TypeCollateralRedeemed }

// DebtMinted is emitted when new debt tokens are minted against collateral.
type DebtMinted struct {
	Account crypto.Address
	Amount  *big.Int
}

func (DebtMinted) EventType() string { return TypeDebtMinted }

// DebtBurned is emitted when outstanding debt is repaid and burned. Payer is
// the account that funded the burn; it differs from Account when a liquidator
// covers a victim's debt.
type DebtBurned struct {
	Account crypto.Address
	Payer   crypto.Address
	Amount  *big.Int
}

func (DebtBurned) EventType() string { return TypeDebtBurned }

// Liquidated is emitted after a successful liquidation, carrying the covered
// debt and total collateral seized (bonus included).
type Liquidated struct {
	Liquidator  crypto.Address
	Victim      crypto.Address
	Asset       string
	DebtCovered *big.Int
	Seized      *big.Int
}

func (Liquidated) EventType() string { return TypeLiquidated }
