package bank

import (
	"errors"
	"fmt"
	"math"

	"peerlend/crypto"
)

// The bank ledger is the value-transfer collaborator consumed by the lending
// core: it moves token custody between addresses when the host commits an
// instruction. The core itself only declares movements.

var (
	// ErrInsufficientFunds marks a movement exceeding the source balance.
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	// ErrBalanceOverflow marks a credit that would exceed the 64-bit domain.
	ErrBalanceOverflow = errors.New("bank: balance overflow")
)

// Balances is the subset of state manager functionality the ledger needs.
type Balances interface {
	Balance(addr crypto.Address) (uint64, error)
	SetBalance(addr crypto.Address, balance uint64) error
}

// Movement is one custody transfer between two addresses.
type Movement struct {
	From   crypto.Address
	To     crypto.Address
	Amount uint64
}

// Ledger executes custody movements against the host balance store.
type Ledger struct {
	state Balances
}

// NewLedger constructs a ledger bound to the provided balance store.
func NewLedger(state Balances) *Ledger {
	return &Ledger{state: state}
}

// BalanceOf returns the current balance for an address.
func (l *Ledger) BalanceOf(addr crypto.Address) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, errors.New("bank: ledger not configured")
	}
	return l.state.Balance(addr)
}

// Mint credits freshly issued tokens to an address. Exposed for genesis
// funding and the devnet faucet; a production host gates this behind
// governance.
func (l *Ledger) Mint(addr crypto.Address, amount uint64) error {
	if l == nil || l.state == nil {
		return errors.New("bank: ledger not configured")
	}
	balance, err := l.state.Balance(addr)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	return l.state.SetBalance(addr, balance+amount)
}

// Transfer moves a single amount between two addresses.
func (l *Ledger) Transfer(from, to crypto.Address, amount uint64) error {
	return l.Apply([]Movement{{From: from, To: to, Amount: amount}})
}

// Apply executes a batch of movements atomically: every movement is validated
// against the staged balances before any write happens, so a failing batch
// leaves the store untouched.
func (l *Ledger) Apply(moves []Movement) error {
	if l == nil || l.state == nil {
		return errors.New("bank: ledger not configured")
	}
	if len(moves) == 0 {
		return nil
	}

	staged := make(map[string]uint64)
	load := func(addr crypto.Address) (uint64, error) {
		key := string(addr.Bytes())
		if balance, ok := staged[key]; ok {
			return balance, nil
		}
		balance, err := l.state.Balance(addr)
		if err != nil {
			return 0, err
		}
		staged[key] = balance
		return balance, nil
	}

	for _, move := range moves {
		if move.Amount == 0 || move.From.Equal(move.To) {
			continue
		}
		fromBalance, err := load(move.From)
		if err != nil {
			return err
		}
		if fromBalance < move.Amount {
			return fmt.Errorf("%w: %s needs %d, holds %d", ErrInsufficientFunds, move.From, move.Amount, fromBalance)
		}
		toBalance, err := load(move.To)
		if err != nil {
			return err
		}
		if toBalance > math.MaxUint64-move.Amount {
			return ErrBalanceOverflow
		}
		staged[string(move.From.Bytes())] = fromBalance - move.Amount
		staged[string(move.To.Bytes())] = toBalance + move.Amount
	}

	for key, balance := range staged {
		addr := crypto.NewAddress(crypto.PLNPrefix, []byte(key))
		if err := l.state.SetBalance(addr, balance); err != nil {
			return err
		}
	}
	return nil
}
