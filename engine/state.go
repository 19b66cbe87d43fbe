package engine

import (
	"math/big"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
)

// State is the persistence layer the engine is wired to. Implementations may
// return nil values for absent entries; the engine normalises those to zero.
// The engine exclusively owns all position and debt state: no other component
// mutates it.
type State interface {
	GetPosition(addr crypto.Address, asset string) (*big.Int, error)
	PutPosition(addr crypto.Address, asset string, amount *big.Int) error
	GetDebt(addr crypto.Address) (*big.Int, error)
	PutDebt(addr crypto.Address, amount *big.Int) error
}

// account is a working copy of a user's full ledger entry. Operations mutate
// the copy, run every check against it and only then persist, so a failing
// check or collaborator call leaves persisted state untouched.
type account struct {
	addr       crypto.Address
	collateral map[string]*big.Int
	debt       *big.Int
}

func (e *Engine) loadAccount(addr crypto.Address) (*account, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	acc := &account{
		addr:       addr,
		collateral: make(map[string]*big.Int, e.registry.Len()),
	}
	for _, ct := range e.registry.Types() {
		bal, err := e.state.GetPosition(addr, ct.Symbol)
		if err != nil {
			return nil, err
		}
		if bal == nil {
			bal = big.NewInt(0)
		}
		acc.collateral[ct.Symbol] = new(big.Int).Set(bal)
	}
	debt, err := e.state.GetDebt(addr)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		debt = big.NewInt(0)
	}
	acc.debt = new(big.Int).Set(debt)
	return acc, nil
}

func (e *Engine) persistPosition(acc *account, asset string) error {
	return e.state.PutPosition(acc.addr, asset, acc.collateral[asset])
}

func (e *Engine) persistDebt(acc *account) error {
	return e.state.PutDebt(acc.addr, acc.debt)
}
