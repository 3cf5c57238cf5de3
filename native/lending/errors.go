package lending

import "errors"

var (
	// ErrDecode marks an instruction buffer whose shape does not match any
	// known lending operation.
	ErrDecode = errors.New("lending: malformed instruction")
	// ErrInvalidAccountData marks an account list that does not satisfy the
	// positional role contract of the decoded instruction.
	ErrInvalidAccountData = errors.New("lending: invalid account data")
	// ErrInvalidAccountOwner marks a record account not owned by the program.
	ErrInvalidAccountOwner = errors.New("lending: invalid account owner")
	// ErrNotWritable marks a mutated role backed by a read-only account.
	ErrNotWritable = errors.New("lending: account not writable")
	// ErrAddressMismatch marks a pool account whose address does not equal
	// the derivation from the supplied seed.
	ErrAddressMismatch = errors.New("lending: derived pool address mismatch")
	// ErrAlreadyInitialized marks a second initialisation of a live pool.
	ErrAlreadyInitialized = errors.New("lending: pool already initialized")
	// ErrInsufficientCollateral marks a borrow below the minimum
	// collateralization ratio.
	ErrInsufficientCollateral = errors.New("lending: insufficient collateral")
	// ErrInsufficientLiquidity marks a borrow that would push total borrows
	// past total deposits.
	ErrInsufficientLiquidity = errors.New("lending: pool has insufficient liquidity")
	// ErrLoanNotFound marks a loan id that does not resolve to the supplied
	// loan account.
	ErrLoanNotFound = errors.New("lending: loan not found")
	// ErrLoanNotActive marks an operation against a repaid or liquidated loan.
	ErrLoanNotActive = errors.New("lending: loan not active")
	// ErrInsufficientRepayment marks a repay below the accrued amount owed.
	ErrInsufficientRepayment = errors.New("lending: repayment below amount owed")
	// ErrLoanNotEligible marks a liquidation of a healthy, current loan.
	ErrLoanNotEligible = errors.New("lending: loan not eligible for liquidation")
	// ErrOracleUnavailable is surfaced when the under-collateralization check
	// cannot run because no price oracle is configured or it failed.
	ErrOracleUnavailable = errors.New("lending: price oracle unavailable")
	// ErrArithmeticOverflow marks a computation exceeding the 64-bit amount
	// domain.
	ErrArithmeticOverflow = errors.New("lending: arithmetic overflow")
	// ErrUnderflow marks pool accounting going negative. It signals a prior
	// invariant violation, not caller misuse.
	ErrUnderflow = errors.New("lending: borrow accounting underflow")
	// ErrInvalidRecord marks a persisted pool or loan record that cannot be
	// decoded.
	ErrInvalidRecord = errors.New("lending: invalid record encoding")
)

// Internal reports whether the error indicates a protocol defect rather than
// caller misuse. Internal errors must be investigated, not retried with
// different inputs.
func Internal(err error) bool {
	return errors.Is(err, ErrUnderflow) || errors.Is(err, ErrArithmeticOverflow)
}
