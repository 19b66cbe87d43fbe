package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
)

func addr(t *testing.T, suffix byte) crypto.Address {
	t.Helper()
	raw := make([]byte, 20)
	raw[19] = suffix
	return crypto.MustNewAddress(crypto.AccountPrefix, raw)
}

func TestMintAndSupplyConservation(t *testing.T) {
	operator := addr(t, 0x01)
	alice := addr(t, 0x02)
	bob := addr(t, 0x03)

	coin := NewStableCoin("Decentralized Stable Coin", "DSC", operator)
	if ok, err := coin.Mint(alice, big.NewInt(500)); !ok || err != nil {
		t.Fatalf("mint: ok=%v err=%v", ok, err)
	}
	if ok, err := coin.Mint(bob, big.NewInt(250)); !ok || err != nil {
		t.Fatalf("mint: ok=%v err=%v", ok, err)
	}

	sum := new(big.Int).Add(coin.BalanceOf(alice), coin.BalanceOf(bob))
	if sum.Cmp(coin.TotalSupply()) != 0 {
		t.Fatalf("supply %s != balance sum %s", coin.TotalSupply(), sum)
	}
}

func TestMintRejectsZeroAmountAndZeroAddress(t *testing.T) {
	coin := NewStableCoin("DSC", "DSC", addr(t, 0x01))
	if ok, err := coin.Mint(addr(t, 0x02), big.NewInt(0)); ok || !errors.Is(err, errInvalidAmount) {
		t.Fatalf("expected invalid amount, got ok=%v err=%v", ok, err)
	}
	zero := crypto.MustNewAddress(crypto.AccountPrefix, make([]byte, 20))
	if ok, err := coin.Mint(zero, big.NewInt(1)); ok || err == nil {
		t.Fatalf("expected zero-address rejection, got ok=%v err=%v", ok, err)
	}
}

func TestBurnFromOperatorCustody(t *testing.T) {
	operator := addr(t, 0x01)
	coin := NewStableCoin("DSC", "DSC", operator)
	if _, err := coin.Mint(operator, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := coin.Burn(big.NewInt(60)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if coin.BalanceOf(operator).Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("unexpected operator balance %s", coin.BalanceOf(operator))
	}
	if coin.TotalSupply().Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("unexpected supply %s", coin.TotalSupply())
	}

	if err := coin.Burn(big.NewInt(41)); !errors.Is(err, errInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestTransferFromRequiresAllowance(t *testing.T) {
	operator := addr(t, 0x01)
	alice := addr(t, 0x02)
	coin := NewStableCoin("DSC", "DSC", operator)
	if _, err := coin.Mint(alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if ok, err := coin.TransferFrom(alice, operator, big.NewInt(50)); ok || !errors.Is(err, errInsufficientAllow) {
		t.Fatalf("expected allowance failure, got ok=%v err=%v", ok, err)
	}

	coin.Approve(alice, operator, big.NewInt(50))
	if ok, err := coin.TransferFrom(alice, operator, big.NewInt(50)); !ok || err != nil {
		t.Fatalf("transferFrom: ok=%v err=%v", ok, err)
	}
	if coin.BalanceOf(operator).Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("unexpected operator balance %s", coin.BalanceOf(operator))
	}

	// Allowance is spent.
	if ok, err := coin.TransferFrom(alice, operator, big.NewInt(1)); ok || err == nil {
		t.Fatalf("expected spent allowance failure, got ok=%v err=%v", ok, err)
	}
}

func TestOperatorTransferSkipsAllowance(t *testing.T) {
	operator := addr(t, 0x01)
	alice := addr(t, 0x02)
	coin := NewAsset("WETH", operator)
	if _, err := coin.Mint(operator, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if ok, err := coin.Transfer(alice, big.NewInt(7)); !ok || err != nil {
		t.Fatalf("transfer: ok=%v err=%v", ok, err)
	}
	if coin.BalanceOf(alice).Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("unexpected balance %s", coin.BalanceOf(alice))
	}
	if ok, err := coin.Transfer(alice, big.NewInt(4)); ok || !errors.Is(err, errInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got ok=%v err=%v", ok, err)
	}
}
