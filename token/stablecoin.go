package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
)

var (
	errInvalidAmount       = errors.New("token: amount must be positive")
	errInsufficientBalance = errors.New("token: insufficient balance")
	errInsufficientAllow   = errors.New("token: insufficient allowance")
)

// StableCoin is an owner-gated fungible token. The operator address supplied
// at construction is the only party whose custody Burn and Transfer act on,
// and the spender consulted for allowances during TransferFrom. Handing a
// component the *StableCoin value is handing it the owner capability.
//
// Invariant: the sum of all balances always equals TotalSupply.
type StableCoin struct {
	mu          sync.RWMutex
	name        string
	symbol      string
	operator    crypto.Address
	totalSupply *big.Int
	balances    map[string]*big.Int
	allowances  map[string]map[string]*big.Int
}

// NewStableCoin constructs an empty token ledger operated by the given
// address. In production the operator is the engine's custody account.
func NewStableCoin(name, symbol string, operator crypto.Address) *StableCoin {
	return &StableCoin{
		name:        name,
		symbol:      symbol,
		operator:    operator,
		totalSupply: big.NewInt(0),
		balances:    make(map[string]*big.Int),
		allowances:  make(map[string]map[string]*big.Int),
	}
}

func (s *StableCoin) Name() string   { return s.name }
func (s *StableCoin) Symbol() string { return s.symbol }

func key(addr crypto.Address) string { return string(addr.Bytes()) }

func (s *StableCoin) balanceOf(addr crypto.Address) *big.Int {
	if bal, ok := s.balances[key(addr)]; ok {
		return bal
	}
	return big.NewInt(0)
}

// BalanceOf returns the current balance for the address.
func (s *StableCoin) BalanceOf(addr crypto.Address) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.balanceOf(addr))
}

// TotalSupply returns the outstanding token supply.
func (s *StableCoin) TotalSupply() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.totalSupply)
}

// Mint creates amount new tokens credited to the recipient.
func (s *StableCoin) Mint(to crypto.Address, amount *big.Int) (bool, error) {
	if amount == nil || amount.Sign() <= 0 {
		return false, errInvalidAmount
	}
	if to.IsZero() {
		return false, fmt.Errorf("token: mint to zero address")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[key(to)] = new(big.Int).Add(s.balanceOf(to), amount)
	s.totalSupply = new(big.Int).Add(s.totalSupply, amount)
	return true, nil
}

// Burn destroys amount tokens held by the operator.
func (s *StableCoin) Burn(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.balanceOf(s.operator)
	if held.Cmp(amount) < 0 {
		return errInsufficientBalance
	}
	s.balances[key(s.operator)] = new(big.Int).Sub(held, amount)
	s.totalSupply = new(big.Int).Sub(s.totalSupply, amount)
	return nil
}

// Approve grants the spender permission to move up to amount of the holder's
// balance via TransferFrom.
func (s *StableCoin) Approve(holder, spender crypto.Address, amount *big.Int) {
	if amount == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inner, ok := s.allowances[key(holder)]
	if !ok {
		inner = make(map[string]*big.Int)
		s.allowances[key(holder)] = inner
	}
	inner[key(spender)] = new(big.Int).Set(amount)
}

func (s *StableCoin) allowance(holder, spender crypto.Address) *big.Int {
	if inner, ok := s.allowances[key(holder)]; ok {
		if allowed, ok := inner[key(spender)]; ok {
			return allowed
		}
	}
	return big.NewInt(0)
}

// TransferFrom moves amount from the holder to the recipient, spending the
// operator's allowance. Transfers out of the operator's own balance skip the
// allowance check.
func (s *StableCoin) TransferFrom(from, to crypto.Address, amount *big.Int) (bool, error) {
	if amount == nil || amount.Sign() <= 0 {
		return false, errInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.balanceOf(from)
	if held.Cmp(amount) < 0 {
		return false, errInsufficientBalance
	}
	if !from.Equal(s.operator) {
		allowed := s.allowance(from, s.operator)
		if allowed.Cmp(amount) < 0 {
			return false, errInsufficientAllow
		}
		s.allowances[key(from)][key(s.operator)] = new(big.Int).Sub(allowed, amount)
	}
	s.balances[key(from)] = new(big.Int).Sub(held, amount)
	s.balances[key(to)] = new(big.Int).Add(s.balanceOf(to), amount)
	return true, nil
}

// Transfer moves amount from the operator's balance to the recipient.
func (s *StableCoin) Transfer(to crypto.Address, amount *big.Int) (bool, error) {
	return s.TransferFrom(s.operator, to, amount)
}
