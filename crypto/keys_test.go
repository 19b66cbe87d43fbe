package crypto

import (
	"bytes"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, 20)
	raw[0] = 0xAB
	raw[19] = 0x01

	addr := MustNewAddress(AccountPrefix, raw)
	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Prefix() != AccountPrefix {
		t.Fatalf("unexpected prefix %q", decoded.Prefix())
	}
	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Fatalf("decoded bytes mismatch: %x", decoded.Bytes())
	}
}

func TestNewAddressRejectsBadLength(t *testing.T) {
	if _, err := NewAddress(AccountPrefix, []byte{0x01, 0x02}); err == nil {
		t.Fatal("expected error for short address")
	}
}

func TestKeyDerivesAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	if addr.IsZero() {
		t.Fatal("derived address is zero")
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore key: %v", err)
	}
	if !restored.PubKey().Address().Equal(addr) {
		t.Fatal("restored key derives a different address")
	}
}
