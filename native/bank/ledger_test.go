package bank

import (
	"errors"
	"math"
	"testing"

	"peerlend/core/state"
	"peerlend/crypto"
	"peerlend/storage"
)

func testAddr(b byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	for i := range raw {
		raw[i] = b
	}
	return crypto.NewAddress(crypto.PLNPrefix, raw)
}

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(state.NewManager(storage.NewMemDB()))
}

func balance(t *testing.T, l *Ledger, addr crypto.Address) uint64 {
	t.Helper()
	got, err := l.BalanceOf(addr)
	if err != nil {
		t.Fatalf("balance of %s: %v", addr, err)
	}
	return got
}

func TestMintAndTransfer(t *testing.T) {
	ledger := testLedger(t)
	alice, bob := testAddr(0x01), testAddr(0x02)

	if err := ledger.Mint(alice, 1_000); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(alice, bob, 400); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := balance(t, ledger, alice); got != 600 {
		t.Fatalf("alice balance = %d, want 600", got)
	}
	if got := balance(t, ledger, bob); got != 400 {
		t.Fatalf("bob balance = %d, want 400", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	ledger := testLedger(t)
	alice, bob := testAddr(0x01), testAddr(0x02)

	if err := ledger.Transfer(alice, bob, 1); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestApplyAtomicBatch(t *testing.T) {
	ledger := testLedger(t)
	alice, bob, carol := testAddr(0x01), testAddr(0x02), testAddr(0x03)

	if err := ledger.Mint(alice, 1_000); err != nil {
		t.Fatalf("mint: %v", err)
	}

	// Second movement overdraws, so the first must not land either.
	err := ledger.Apply([]Movement{
		{From: alice, To: bob, Amount: 300},
		{From: carol, To: bob, Amount: 1},
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if got := balance(t, ledger, alice); got != 1_000 {
		t.Fatalf("alice balance = %d, want 1000 after failed batch", got)
	}
	if got := balance(t, ledger, bob); got != 0 {
		t.Fatalf("bob balance = %d, want 0 after failed batch", got)
	}
}

func TestApplyChainedMovements(t *testing.T) {
	ledger := testLedger(t)
	alice, bob, carol := testAddr(0x01), testAddr(0x02), testAddr(0x03)

	if err := ledger.Mint(alice, 500); err != nil {
		t.Fatalf("mint: %v", err)
	}

	// Bob can only forward value he receives within the same batch.
	err := ledger.Apply([]Movement{
		{From: alice, To: bob, Amount: 500},
		{From: bob, To: carol, Amount: 200},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := balance(t, ledger, bob); got != 300 {
		t.Fatalf("bob balance = %d, want 300", got)
	}
	if got := balance(t, ledger, carol); got != 200 {
		t.Fatalf("carol balance = %d, want 200", got)
	}
}

func TestApplySkipsNoopMovements(t *testing.T) {
	ledger := testLedger(t)
	alice := testAddr(0x01)

	if err := ledger.Mint(alice, 100); err != nil {
		t.Fatalf("mint: %v", err)
	}
	err := ledger.Apply([]Movement{
		{From: alice, To: alice, Amount: 50},
		{From: alice, To: testAddr(0x02), Amount: 0},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := balance(t, ledger, alice); got != 100 {
		t.Fatalf("alice balance = %d, want 100", got)
	}
}

func TestMintOverflow(t *testing.T) {
	ledger := testLedger(t)
	alice := testAddr(0x01)

	if err := ledger.Mint(alice, math.MaxUint64); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Mint(alice, 1); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("err = %v, want ErrBalanceOverflow", err)
	}
}
