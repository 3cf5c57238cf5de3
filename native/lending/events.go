package lending

import (
	"encoding/hex"
	"strconv"

	"peerlend/core/types"
	"peerlend/crypto"
)

const (
	EventTypePoolInitialized = "lending.pool.initialized"
	EventTypeDeposited       = "lending.pool.deposited"
	EventTypeLoanCreated     = "lending.loan.created"
	EventTypeLoanRepaid      = "lending.loan.repaid"
	EventTypeLoanLiquidated  = "lending.loan.liquidated"
)

// NewPoolInitializedEvent returns the canonical payload for a freshly created
// pool.
func NewPoolInitializedEvent(poolAddr crypto.Address, pool *LendingPool) *types.Event {
	attrs := poolAttributes(poolAddr, pool)
	return &types.Event{Type: EventTypePoolInitialized, Attributes: attrs}
}

// NewDepositedEvent returns the canonical payload for a pool deposit.
func NewDepositedEvent(poolAddr crypto.Address, pool *LendingPool, depositor crypto.Address, amount uint64) *types.Event {
	attrs := poolAttributes(poolAddr, pool)
	attrs["depositor"] = depositor.String()
	attrs["amount"] = strconv.FormatUint(amount, 10)
	return &types.Event{Type: EventTypeDeposited, Attributes: attrs}
}

// NewLoanCreatedEvent returns the canonical payload for a new borrowing
// position.
func NewLoanCreatedEvent(poolAddr crypto.Address, loan *Loan) *types.Event {
	attrs := loanAttributes(poolAddr, loan)
	return &types.Event{Type: EventTypeLoanCreated, Attributes: attrs}
}

// NewLoanRepaidEvent returns the canonical payload for a fully settled loan.
func NewLoanRepaidEvent(poolAddr crypto.Address, loan *Loan, owed uint64) *types.Event {
	attrs := loanAttributes(poolAddr, loan)
	attrs["owed"] = strconv.FormatUint(owed, 10)
	return &types.Event{Type: EventTypeLoanRepaid, Attributes: attrs}
}

// NewLoanLiquidatedEvent returns the canonical payload for a force-closed
// loan.
func NewLoanLiquidatedEvent(poolAddr crypto.Address, loan *Loan, liquidator crypto.Address, reason string) *types.Event {
	attrs := loanAttributes(poolAddr, loan)
	attrs["liquidator"] = liquidator.String()
	attrs["reason"] = reason
	return &types.Event{Type: EventTypeLoanLiquidated, Attributes: attrs}
}

func poolAttributes(poolAddr crypto.Address, pool *LendingPool) map[string]string {
	attrs := map[string]string{"pool": poolAddr.String()}
	if pool != nil {
		attrs["totalDeposits"] = strconv.FormatUint(pool.TotalDeposits, 10)
		attrs["totalBorrows"] = strconv.FormatUint(pool.TotalBorrows, 10)
		attrs["interestRateBps"] = strconv.FormatUint(uint64(pool.InterestRateBps), 10)
	}
	return attrs
}

func loanAttributes(poolAddr crypto.Address, loan *Loan) map[string]string {
	attrs := map[string]string{"pool": poolAddr.String()}
	if loan != nil {
		attrs["loanId"] = strconv.FormatUint(loan.ID, 10)
		attrs["borrower"] = hex.EncodeToString(loan.Borrower[:])
		attrs["principal"] = strconv.FormatUint(loan.Principal, 10)
		attrs["collateral"] = strconv.FormatUint(loan.Collateral, 10)
		attrs["status"] = loan.Status.String()
	}
	return attrs
}
