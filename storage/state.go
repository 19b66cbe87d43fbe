package storage

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
)

// Key namespaces for the engine ledger. Position keys carry the asset symbol
// so each (account, asset) pair occupies its own slot.
const (
	positionPrefix = "dsc/position/"
	debtPrefix     = "dsc/debt/"
)

// State persists the engine ledger in a Database. Amounts are stored as
// big.Int bytes; absent keys read back as nil, which the engine treats as
// zero.
type State struct {
	db Database
}

// NewState wraps a Database as an engine ledger store.
func NewState(db Database) *State {
	return &State{db: db}
}

func positionKey(addr crypto.Address, asset string) []byte {
	key := make([]byte, 0, len(positionPrefix)+len(addr.Bytes())+1+len(asset))
	key = append(key, positionPrefix...)
	key = append(key, addr.Bytes()...)
	key = append(key, '/')
	key = append(key, asset...)
	return key
}

func debtKey(addr crypto.Address) []byte {
	key := make([]byte, 0, len(debtPrefix)+len(addr.Bytes()))
	key = append(key, debtPrefix...)
	key = append(key, addr.Bytes()...)
	return key
}

func (s *State) getAmount(key []byte) (*big.Int, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return new(big.Int).SetBytes(raw), nil
}

func (s *State) putAmount(key []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return s.db.Delete(key)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("storage: negative amount for %q", key)
	}
	return s.db.Put(key, amount.Bytes())
}

// GetPosition reads the deposited amount for one (account, asset) pair.
func (s *State) GetPosition(addr crypto.Address, asset string) (*big.Int, error) {
	return s.getAmount(positionKey(addr, asset))
}

// PutPosition writes the deposited amount for one (account, asset) pair.
// Zero amounts delete the slot.
func (s *State) PutPosition(addr crypto.Address, asset string, amount *big.Int) error {
	return s.putAmount(positionKey(addr, asset), amount)
}

// GetDebt reads the account's outstanding minted debt.
func (s *State) GetDebt(addr crypto.Address) (*big.Int, error) {
	return s.getAmount(debtKey(addr))
}

// PutDebt writes the account's outstanding minted debt. Zero deletes the
// slot.
func (s *State) PutDebt(addr crypto.Address, amount *big.Int) error {
	return s.putAmount(debtKey(addr), amount)
}
