package lending

import (
	"fmt"

	"peerlend/core/types"
	nativecommon "peerlend/native/common"
)

// PriceOracle values a loan's posted collateral in principal units. The
// oracle is an external collaborator; the engine only consumes the valuation
// when deciding the under-collateralization branch of liquidation.
type PriceOracle interface {
	CollateralValue(loan *Loan) (uint64, error)
}

// StaticOracle values collateral at a fixed price expressed in basis points
// of face value. It backs the daemon configuration and tests; a production
// deployment plugs in a market feed instead.
type StaticOracle struct {
	PriceBps uint64
}

// CollateralValue implements PriceOracle.
func (o StaticOracle) CollateralValue(loan *Loan) (uint64, error) {
	if loan == nil {
		return 0, ErrLoanNotFound
	}
	return mulDiv(loan.Collateral, o.PriceBps, basisPoints)
}

// Liquidation reasons recorded on the emitted event.
const (
	LiquidationReasonOverdue             = "overdue"
	LiquidationReasonUndercollateralized = "undercollateralized"
)

// LiquidateResult carries the mutated pool, the closed loan, the eligibility
// reason and the collateral movement to the liquidator.
type LiquidateResult struct {
	Pool      *LendingPool
	Loan      *Loan
	Reason    string
	Transfers []Transfer
}

// Liquidate force-closes an eligible loan. A loan is eligible when its term
// has elapsed, or when the oracle values its collateral below the required
// minimum for the outstanding principal. When no oracle is available only
// the overdue condition is evaluable; a liquidation that would need the
// valuation fails with ErrOracleUnavailable instead of silently skipping the
// check.
func (e *Engine) Liquidate(liquidator, borrower, pool, loanAcct *types.InstructionAccount, loanID uint64) (*LiquidateResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if liquidator == nil || borrower == nil || pool == nil || loanAcct == nil {
		return nil, ErrInvalidAccountData
	}
	record, ok, err := DecodePool(pool.Data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: pool not initialised", ErrInvalidAccountData)
	}

	loan, err := e.ledger.Resolve(pool.Address, loanAcct, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != LoanActive {
		return nil, fmt.Errorf("%w: loan %d is %s", ErrLoanNotActive, loan.ID, loan.Status)
	}

	var borrowerBytes [20]byte
	copy(borrowerBytes[:], borrower.Address.Bytes())
	if loan.Borrower != borrowerBytes {
		return nil, fmt.Errorf("%w: borrower account does not match loan record", ErrInvalidAccountData)
	}

	reason, err := e.eligibility(loan)
	if err != nil {
		return nil, err
	}

	outstanding := loan.Outstanding()
	record.TotalBorrows, err = checkedSub(record.TotalBorrows, outstanding)
	if err != nil {
		return nil, fmt.Errorf("%w: pool borrows %d below loan principal %d", ErrUnderflow, record.TotalBorrows, outstanding)
	}

	if err := e.ledger.Transition(loan, LoanLiquidated); err != nil {
		return nil, err
	}

	return &LiquidateResult{
		Pool:   record,
		Loan:   loan,
		Reason: reason,
		Transfers: []Transfer{
			{From: pool.Address, To: liquidator.Address, Amount: loan.Collateral},
		},
	}, nil
}

func (e *Engine) eligibility(loan *Loan) (string, error) {
	if loan.Overdue(e.now()) {
		return LiquidationReasonOverdue, nil
	}
	required, err := RequiredCollateral(loan.Outstanding(), e.params.MinCollateralRatioBps)
	if err != nil {
		return "", err
	}
	if e.oracle == nil {
		return "", fmt.Errorf("%w: cannot evaluate collateral shortfall", ErrOracleUnavailable)
	}
	value, err := e.oracle.CollateralValue(loan)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if value < required {
		return LiquidationReasonUndercollateralized, nil
	}
	return "", fmt.Errorf("%w: loan %d is current and adequately collateralized", ErrLoanNotEligible, loan.ID)
}
