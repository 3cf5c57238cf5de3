package lending

import (
	"fmt"

	"peerlend/core/types"
	"peerlend/crypto"
)

// Loan accounts hang off their pool at deterministic addresses derived from
// the pool address and the loan id. The pool record's NextLoanID counter is
// the allocator, so the id-to-record mapping never needs a separate index:
// given a loan id, every party derives the same account address, and the
// record stored there carries the id for cross-checking.

const loanAddressTag = "loan"

// LoanAddress returns the canonical account address for a loan id under the
// given pool.
func LoanAddress(pool crypto.Address, loanID uint64) crypto.Address {
	return crypto.DeriveChildAddress(loanAddressTag, pool, loanID)
}

// Ledger owns the mapping from loan ids to loan records for the duration of
// one instruction. It stores and retrieves; business rules stay in the
// engine.
type Ledger struct{}

// Allocate claims the next loan id from the pool and binds the supplied
// account to it. The account must sit at the derived address for that id and
// must not already hold a record.
func (Ledger) Allocate(pool *LendingPool, poolAddr crypto.Address, acct *types.InstructionAccount) (uint64, error) {
	if pool == nil || acct == nil {
		return 0, ErrInvalidAccountData
	}
	loanID := pool.NextLoanID
	if loanID == 0 {
		return 0, fmt.Errorf("%w: pool loan allocator not initialised", ErrInvalidRecord)
	}
	expected := LoanAddress(poolAddr, loanID)
	if !acct.Address.Equal(expected) {
		return 0, fmt.Errorf("%w: loan account %s does not match derivation for id %d", ErrInvalidAccountData, acct.Address, loanID)
	}
	if len(acct.Data) != 0 {
		return 0, fmt.Errorf("%w: loan account already holds a record", ErrInvalidAccountData)
	}
	next, err := checkedAdd(pool.NextLoanID, 1)
	if err != nil {
		return 0, err
	}
	pool.NextLoanID = next
	return loanID, nil
}

// Resolve loads the loan stored in the supplied account and checks it really
// is the loan the caller named: the record id must match and the account must
// sit at the canonical derived address.
func (Ledger) Resolve(poolAddr crypto.Address, acct *types.InstructionAccount, loanID uint64) (*Loan, error) {
	if acct == nil {
		return nil, ErrLoanNotFound
	}
	loan, ok, err := DecodeLoan(acct.Data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLoanNotFound
	}
	if loan.ID != loanID {
		return nil, fmt.Errorf("%w: account holds loan %d, not %d", ErrLoanNotFound, loan.ID, loanID)
	}
	if !acct.Address.Equal(LoanAddress(poolAddr, loanID)) {
		return nil, fmt.Errorf("%w: loan account address does not match derivation", ErrLoanNotFound)
	}
	return loan, nil
}

// Transition applies a one-way status change. Only active loans move; any
// attempt to mutate a terminal loan fails with ErrLoanNotActive.
func (Ledger) Transition(loan *Loan, to LoanStatus) error {
	if loan == nil {
		return ErrLoanNotFound
	}
	if loan.Status != LoanActive {
		return fmt.Errorf("%w: loan %d is %s", ErrLoanNotActive, loan.ID, loan.Status)
	}
	if !to.Terminal() {
		return fmt.Errorf("%w: invalid transition to %s", ErrLoanNotActive, to)
	}
	loan.Status = to
	return nil
}
