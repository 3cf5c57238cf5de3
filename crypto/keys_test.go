package crypto

import (
	"strings"
	"testing"
)

func TestAddressBech32RoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()

	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(PLNPrefix)) {
		t.Fatalf("encoded address %q missing prefix", encoded)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode address: %v", err)
	}
	if !decoded.Equal(addr) {
		t.Fatalf("round trip mismatch: %s != %s", decoded, addr)
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-bech32"); err == nil {
		t.Fatal("garbage address accepted")
	}
}

func TestDeriveAddressDeterministic(t *testing.T) {
	program := ProgramAddress("testnet")

	a := DeriveAddress("lending_pool", 1, program)
	b := DeriveAddress("lending_pool", 1, program)
	if !a.Equal(b) {
		t.Fatal("same inputs derived different addresses")
	}

	if DeriveAddress("lending_pool", 2, program).Equal(a) {
		t.Fatal("different seeds derived the same address")
	}
	if DeriveAddress("loan", 1, program).Equal(a) {
		t.Fatal("different tags derived the same address")
	}
}

func TestDeriveChildAddress(t *testing.T) {
	program := ProgramAddress("testnet")
	pool := DeriveAddress("lending_pool", 1, program)

	first := DeriveChildAddress("loan", pool, 1)
	second := DeriveChildAddress("loan", pool, 2)
	if first.Equal(second) {
		t.Fatal("different indices derived the same address")
	}
	if !DeriveChildAddress("loan", pool, 1).Equal(first) {
		t.Fatal("derivation not deterministic")
	}
}

func TestProgramAddressByNetwork(t *testing.T) {
	if ProgramAddress("mainnet").Equal(ProgramAddress("testnet")) {
		t.Fatal("different networks share a program address")
	}
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore key: %v", err)
	}
	if !restored.PubKey().Address().Equal(key.PubKey().Address()) {
		t.Fatal("restored key derives a different address")
	}
}
