package token

import "github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"

// NewAsset constructs a plain fungible token used as deposit collateral in
// tests and dev deployments. It shares the StableCoin ledger mechanics; the
// operator is expected to be the engine's custody account so the engine can
// release seized or redeemed collateral with Transfer.
func NewAsset(symbol string, operator crypto.Address) *StableCoin {
	return NewStableCoin(symbol, symbol, operator)
}
