package token

import (
	"math/big"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
)

// DebtToken is the capability the engine holds over the dollar-pegged token it
// mints against collateral. A false return from Mint or TransferFrom is a hard
// failure for the calling operation, never silently ignored.
type DebtToken interface {
	Mint(to crypto.Address, amount *big.Int) (bool, error)
	Burn(amount *big.Int) error
	TransferFrom(from, to crypto.Address, amount *big.Int) (bool, error)
}

// Collateral is the capability the engine holds over a deposit asset. The
// engine pulls funds into custody with TransferFrom and releases them with
// Transfer; both report failure through their boolean return.
type Collateral interface {
	TransferFrom(from, to crypto.Address, amount *big.Int) (bool, error)
	Transfer(to crypto.Address, amount *big.Int) (bool, error)
}
