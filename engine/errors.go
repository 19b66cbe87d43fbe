package engine

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrNilState                = errors.New("dsc engine: state not configured")
	ErrInvalidAmount           = errors.New("dsc engine: amount must be positive")
	ErrUnknownCollateral       = errors.New("dsc engine: collateral type not registered")
	ErrInsufficientBalance     = errors.New("dsc engine: insufficient balance")
	ErrHealthFactorOk          = errors.New("dsc engine: position not eligible for liquidation")
	ErrHealthFactorNotImproved = errors.New("dsc engine: liquidation did not improve health factor")
	ErrTransferFailed          = errors.New("dsc engine: token transfer failed")
	ErrMintFailed              = errors.New("dsc engine: debt token mint failed")
	ErrReentrancy              = errors.New("dsc engine: operation already in flight")
	ErrInvalidPrice            = errors.New("dsc engine: price feed returned non-positive price")

	// ErrBrokenHealthFactor is the sentinel wrapped by BrokenHealthFactorError
	// so callers can match with errors.Is without caring about the value.
	ErrBrokenHealthFactor = errors.New("dsc engine: health factor below minimum")
)

// BrokenHealthFactorError reports a solvency gate rejection together with the
// offending health factor (18-decimal fixed point).
type BrokenHealthFactorError struct {
	HealthFactor *big.Int
}

func (e *BrokenHealthFactorError) Error() string {
	return fmt.Sprintf("%s: %s", ErrBrokenHealthFactor, e.HealthFactor)
}

func (e *BrokenHealthFactorError) Unwrap() error { return ErrBrokenHealthFactor }

func brokenHealthFactor(hf *big.Int) error {
	return &BrokenHealthFactorError{HealthFactor: new(big.Int).Set(hf)}
}
