package lending

import (
	"errors"
	"testing"

	"peerlend/core/types"
)

// activeLoan opens a loan through the engine and returns the accounts ready
// for a liquidation attempt.
func activeLoan(t *testing.T, engine *Engine) (liquidator, borrower, poolAcct, loanAcct *types.InstructionAccount) {
	t.Helper()
	programID := testProgramID()
	_, poolAcct = fundedPool(t, engine, programID, 7, 10_000)
	borrower = userAccount(testAddr(0x03))
	liquidator = userAccount(testAddr(0x05))
	loanAcct = loanAccount(t, programID, poolAcct.Address, 1, nil)

	res, err := engine.Borrow(borrower, poolAcct, loanAcct, 1_000, 1_500)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	writePool(t, poolAcct, res.Pool)
	writeLoan(t, loanAcct, res.Loan)
	return liquidator, borrower, poolAcct, loanAcct
}

func TestLiquidateOverdue(t *testing.T) {
	engine := testEngine(t)
	liquidator, borrower, poolAcct, loanAcct := activeLoan(t, engine)

	engine.SetNowFunc(func() int64 { return testNow + DefaultLoanDuration + 1 })

	res, err := engine.Liquidate(liquidator, borrower, poolAcct, loanAcct, 1)
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	if res.Reason != LiquidationReasonOverdue {
		t.Fatalf("reason = %q, want overdue", res.Reason)
	}
	if res.Loan.Status != LoanLiquidated {
		t.Fatalf("loan status = %s, want liquidated", res.Loan.Status)
	}
	if res.Pool.TotalBorrows != 0 {
		t.Fatalf("total borrows = %d, want 0", res.Pool.TotalBorrows)
	}
	if len(res.Transfers) != 1 {
		t.Fatalf("transfers = %d, want 1", len(res.Transfers))
	}
	transfer := res.Transfers[0]
	if !transfer.To.Equal(liquidator.Address) || transfer.Amount != 1_500 {
		t.Fatalf("unexpected collateral seizure %+v", transfer)
	}
}

func TestLiquidateExactlyAtMaturityNotOverdue(t *testing.T) {
	engine := testEngine(t)
	engine.SetOracle(StaticOracle{PriceBps: 10_000})
	liquidator, borrower, poolAcct, loanAcct := activeLoan(t, engine)

	engine.SetNowFunc(func() int64 { return testNow + DefaultLoanDuration })

	if _, err := engine.Liquidate(liquidator, borrower, poolAcct, loanAcct, 1); !errors.Is(err, ErrLoanNotEligible) {
		t.Fatalf("err = %v, want ErrLoanNotEligible", err)
	}
}

func TestLiquidateUndercollateralized(t *testing.T) {
	engine := testEngine(t)
	// Collateral marked down to half face value: 750 against required 1500.
	engine.SetOracle(StaticOracle{PriceBps: 5_000})
	liquidator, borrower, poolAcct, loanAcct := activeLoan(t, engine)

	res, err := engine.Liquidate(liquidator, borrower, poolAcct, loanAcct, 1)
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	if res.Reason != LiquidationReasonUndercollateralized {
		t.Fatalf("reason = %q, want undercollateralized", res.Reason)
	}
}

func TestLiquidateWithoutOracle(t *testing.T) {
	engine := testEngine(t)
	liquidator, borrower, poolAcct, loanAcct := activeLoan(t, engine)

	// Loan is current, so eligibility needs the valuation.
	if _, err := engine.Liquidate(liquidator, borrower, poolAcct, loanAcct, 1); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("err = %v, want ErrOracleUnavailable", err)
	}
}

func TestLiquidateFailingOracle(t *testing.T) {
	engine := testEngine(t)
	engine.SetOracle(failingOracle{})
	liquidator, borrower, poolAcct, loanAcct := activeLoan(t, engine)

	if _, err := engine.Liquidate(liquidator, borrower, poolAcct, loanAcct, 1); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("err = %v, want ErrOracleUnavailable", err)
	}
}

type failingOracle struct{}

func (failingOracle) CollateralValue(*Loan) (uint64, error) {
	return 0, errors.New("feed offline")
}

func TestLiquidateHealthyLoan(t *testing.T) {
	engine := testEngine(t)
	engine.SetOracle(StaticOracle{PriceBps: 10_000})
	liquidator, borrower, poolAcct, loanAcct := activeLoan(t, engine)

	if _, err := engine.Liquidate(liquidator, borrower, poolAcct, loanAcct, 1); !errors.Is(err, ErrLoanNotEligible) {
		t.Fatalf("err = %v, want ErrLoanNotEligible", err)
	}
}

func TestLiquidateBorrowerMismatch(t *testing.T) {
	engine := testEngine(t)
	liquidator, _, poolAcct, loanAcct := activeLoan(t, engine)
	engine.SetNowFunc(func() int64 { return testNow + DefaultLoanDuration + 1 })

	wrongBorrower := userAccount(testAddr(0x09))
	if _, err := engine.Liquidate(liquidator, wrongBorrower, poolAcct, loanAcct, 1); !errors.Is(err, ErrInvalidAccountData) {
		t.Fatalf("err = %v, want ErrInvalidAccountData", err)
	}
}

func TestLiquidateTerminalLoan(t *testing.T) {
	engine := testEngine(t)
	liquidator, borrower, poolAcct, loanAcct := activeLoan(t, engine)
	engine.SetNowFunc(func() int64 { return testNow + DefaultLoanDuration + 1 })

	res, err := engine.Liquidate(liquidator, borrower, poolAcct, loanAcct, 1)
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	writePool(t, poolAcct, res.Pool)
	writeLoan(t, loanAcct, res.Loan)

	if _, err := engine.Liquidate(liquidator, borrower, poolAcct, loanAcct, 1); !errors.Is(err, ErrLoanNotActive) {
		t.Fatalf("err = %v, want ErrLoanNotActive", err)
	}
}
