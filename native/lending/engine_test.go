package lending

import (
	"errors"
	"testing"

	"peerlend/core/types"
	"peerlend/crypto"
	nativecommon "peerlend/native/common"
)

const testNow int64 = 1_700_000_000

func testAddr(b byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	for i := range raw {
		raw[i] = b
	}
	return crypto.NewAddress(crypto.PLNPrefix, raw)
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine(DefaultParams())
	engine.SetNowFunc(func() int64 { return testNow })
	return engine
}

func testProgramID() crypto.Address {
	return testAddr(0xAA)
}

func poolAccount(t *testing.T, programID crypto.Address, seed uint64, pool *LendingPool) *types.InstructionAccount {
	t.Helper()
	acct := &types.InstructionAccount{
		Address:  PoolAddress(seed, programID),
		Owner:    programID,
		Writable: true,
	}
	if pool != nil {
		data, err := EncodePool(pool)
		if err != nil {
			t.Fatalf("encode pool: %v", err)
		}
		acct.Data = data
	}
	return acct
}

func loanAccount(t *testing.T, programID crypto.Address, poolAddr crypto.Address, loanID uint64, loan *Loan) *types.InstructionAccount {
	t.Helper()
	acct := &types.InstructionAccount{
		Address:  LoanAddress(poolAddr, loanID),
		Owner:    programID,
		Writable: true,
	}
	if loan != nil {
		data, err := EncodeLoan(loan)
		if err != nil {
			t.Fatalf("encode loan: %v", err)
		}
		acct.Data = data
	}
	return acct
}

func userAccount(addr crypto.Address) *types.InstructionAccount {
	return &types.InstructionAccount{Address: addr, Signer: true}
}

// fundedPool initialises a pool and seeds it with liquidity through the
// engine's own transitions.
func fundedPool(t *testing.T, engine *Engine, programID crypto.Address, seed, liquidity uint64) (*LendingPool, *types.InstructionAccount) {
	t.Helper()
	acct := poolAccount(t, programID, seed, nil)
	pool, err := engine.InitializePool(programID, seed, acct)
	if err != nil {
		t.Fatalf("initialize pool: %v", err)
	}
	writePool(t, acct, pool)
	if liquidity > 0 {
		res, err := engine.Deposit(userAccount(testAddr(0x01)), acct, liquidity)
		if err != nil {
			t.Fatalf("seed deposit: %v", err)
		}
		pool = res.Pool
		writePool(t, acct, pool)
	}
	return pool, acct
}

func writePool(t *testing.T, acct *types.InstructionAccount, pool *LendingPool) {
	t.Helper()
	data, err := EncodePool(pool)
	if err != nil {
		t.Fatalf("encode pool: %v", err)
	}
	acct.Data = data
}

func writeLoan(t *testing.T, acct *types.InstructionAccount, loan *Loan) {
	t.Helper()
	data, err := EncodeLoan(loan)
	if err != nil {
		t.Fatalf("encode loan: %v", err)
	}
	acct.Data = data
}

func TestInitializePool(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	acct := poolAccount(t, programID, 7, nil)

	pool, err := engine.InitializePool(programID, 7, acct)
	if err != nil {
		t.Fatalf("initialize pool: %v", err)
	}
	if pool.TotalDeposits != 0 || pool.TotalBorrows != 0 {
		t.Fatalf("fresh pool carries balances: %+v", pool)
	}
	if pool.InterestRateBps != DefaultInterestRateBps {
		t.Fatalf("interest rate = %d, want %d", pool.InterestRateBps, DefaultInterestRateBps)
	}
	if pool.NextLoanID != 1 {
		t.Fatalf("next loan id = %d, want 1", pool.NextLoanID)
	}
}

func TestInitializePoolAddressMismatch(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	acct := poolAccount(t, programID, 7, nil)

	if _, err := engine.InitializePool(programID, 8, acct); !errors.Is(err, ErrAddressMismatch) {
		t.Fatalf("err = %v, want ErrAddressMismatch", err)
	}
}

func TestInitializePoolTwice(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	acct := poolAccount(t, programID, 7, nil)

	pool, err := engine.InitializePool(programID, 7, acct)
	if err != nil {
		t.Fatalf("initialize pool: %v", err)
	}
	writePool(t, acct, pool)

	if _, err := engine.InitializePool(programID, 7, acct); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("err = %v, want ErrAlreadyInitialized", err)
	}
}

func TestDeposit(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, acct := fundedPool(t, engine, programID, 7, 0)
	depositor := userAccount(testAddr(0x02))

	res, err := engine.Deposit(depositor, acct, 1_000)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if res.Pool.TotalDeposits != 1_000 {
		t.Fatalf("total deposits = %d, want 1000", res.Pool.TotalDeposits)
	}
	if len(res.Transfers) != 1 {
		t.Fatalf("transfers = %d, want 1", len(res.Transfers))
	}
	transfer := res.Transfers[0]
	if !transfer.From.Equal(depositor.Address) || !transfer.To.Equal(acct.Address) || transfer.Amount != 1_000 {
		t.Fatalf("unexpected transfer %+v", transfer)
	}
}

func TestDepositZeroAmount(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, acct := fundedPool(t, engine, programID, 7, 0)

	if _, err := engine.Deposit(userAccount(testAddr(0x02)), acct, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestDepositUninitializedPool(t *testing.T) {
	engine := testEngine(t)
	acct := poolAccount(t, testProgramID(), 7, nil)

	if _, err := engine.Deposit(userAccount(testAddr(0x02)), acct, 100); !errors.Is(err, ErrInvalidAccountData) {
		t.Fatalf("err = %v, want ErrInvalidAccountData", err)
	}
}

func TestBorrow(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, poolAcct := fundedPool(t, engine, programID, 7, 10_000)
	borrower := userAccount(testAddr(0x03))
	loanAcct := loanAccount(t, programID, poolAcct.Address, 1, nil)

	res, err := engine.Borrow(borrower, poolAcct, loanAcct, 1_000, 1_500)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if res.Pool.TotalBorrows != 1_000 {
		t.Fatalf("total borrows = %d, want 1000", res.Pool.TotalBorrows)
	}
	if res.Pool.NextLoanID != 2 {
		t.Fatalf("next loan id = %d, want 2", res.Pool.NextLoanID)
	}
	loan := res.Loan
	if loan.ID != 1 || loan.Principal != 1_000 || loan.Collateral != 1_500 {
		t.Fatalf("unexpected loan %+v", loan)
	}
	if loan.StartTime != testNow || loan.Duration != DefaultLoanDuration {
		t.Fatalf("unexpected loan schedule %+v", loan)
	}
	if loan.Status != LoanActive {
		t.Fatalf("loan status = %s, want active", loan.Status)
	}
	if len(res.Transfers) != 2 {
		t.Fatalf("transfers = %d, want 2", len(res.Transfers))
	}
	// Collateral locks before principal pays out.
	if res.Transfers[0].Amount != 1_500 || !res.Transfers[0].To.Equal(poolAcct.Address) {
		t.Fatalf("unexpected collateral transfer %+v", res.Transfers[0])
	}
	if res.Transfers[1].Amount != 1_000 || !res.Transfers[1].To.Equal(borrower.Address) {
		t.Fatalf("unexpected principal transfer %+v", res.Transfers[1])
	}
}

func TestBorrowInsufficientCollateral(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, poolAcct := fundedPool(t, engine, programID, 7, 10_000)
	loanAcct := loanAccount(t, programID, poolAcct.Address, 1, nil)

	_, err := engine.Borrow(userAccount(testAddr(0x03)), poolAcct, loanAcct, 1_000, 1_499)
	if !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("err = %v, want ErrInsufficientCollateral", err)
	}
}

func TestBorrowInsufficientLiquidity(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, poolAcct := fundedPool(t, engine, programID, 7, 500)
	loanAcct := loanAccount(t, programID, poolAcct.Address, 1, nil)

	_, err := engine.Borrow(userAccount(testAddr(0x03)), poolAcct, loanAcct, 1_000, 1_500)
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("err = %v, want ErrInsufficientLiquidity", err)
	}
}

func TestBorrowWrongLoanAddress(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, poolAcct := fundedPool(t, engine, programID, 7, 10_000)
	// Account derived for id 2 while the allocator will hand out id 1.
	loanAcct := loanAccount(t, programID, poolAcct.Address, 2, nil)

	_, err := engine.Borrow(userAccount(testAddr(0x03)), poolAcct, loanAcct, 1_000, 1_500)
	if !errors.Is(err, ErrInvalidAccountData) {
		t.Fatalf("err = %v, want ErrInvalidAccountData", err)
	}
}

func TestRepayWithInterest(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, poolAcct := fundedPool(t, engine, programID, 7, 10_000)
	borrower := userAccount(testAddr(0x03))
	loanAcct := loanAccount(t, programID, poolAcct.Address, 1, nil)

	borrowRes, err := engine.Borrow(borrower, poolAcct, loanAcct, 1_000, 1_500)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	writePool(t, poolAcct, borrowRes.Pool)
	writeLoan(t, loanAcct, borrowRes.Loan)

	// A full year at 5% simple interest on 1000 accrues 50.
	engine.SetNowFunc(func() int64 { return testNow + secondsPerYear })

	res, err := engine.Repay(borrower, poolAcct, loanAcct, 1, 1_050)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if res.Owed != 1_050 {
		t.Fatalf("owed = %d, want 1050", res.Owed)
	}
	if res.Pool.TotalBorrows != 0 {
		t.Fatalf("total borrows = %d, want 0", res.Pool.TotalBorrows)
	}
	if res.Loan.Status != LoanRepaid {
		t.Fatalf("loan status = %s, want repaid", res.Loan.Status)
	}
	if len(res.Transfers) != 2 {
		t.Fatalf("transfers = %d, want 2", len(res.Transfers))
	}
	if res.Transfers[0].Amount != 1_050 || !res.Transfers[0].To.Equal(poolAcct.Address) {
		t.Fatalf("unexpected repayment transfer %+v", res.Transfers[0])
	}
	if res.Transfers[1].Amount != 1_500 || !res.Transfers[1].To.Equal(borrower.Address) {
		t.Fatalf("unexpected collateral release %+v", res.Transfers[1])
	}
}

func TestRepayInsufficient(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, poolAcct := fundedPool(t, engine, programID, 7, 10_000)
	borrower := userAccount(testAddr(0x03))
	loanAcct := loanAccount(t, programID, poolAcct.Address, 1, nil)

	res, err := engine.Borrow(borrower, poolAcct, loanAcct, 1_000, 1_500)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	writePool(t, poolAcct, res.Pool)
	writeLoan(t, loanAcct, res.Loan)

	engine.SetNowFunc(func() int64 { return testNow + secondsPerYear })
	if _, err := engine.Repay(borrower, poolAcct, loanAcct, 1, 1_049); !errors.Is(err, ErrInsufficientRepayment) {
		t.Fatalf("err = %v, want ErrInsufficientRepayment", err)
	}
}

func TestRepayByThirdPartyReleasesCollateralToBorrower(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, poolAcct := fundedPool(t, engine, programID, 7, 10_000)
	borrower := userAccount(testAddr(0x03))
	payer := userAccount(testAddr(0x04))
	loanAcct := loanAccount(t, programID, poolAcct.Address, 1, nil)

	res, err := engine.Borrow(borrower, poolAcct, loanAcct, 1_000, 1_500)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	writePool(t, poolAcct, res.Pool)
	writeLoan(t, loanAcct, res.Loan)

	repayRes, err := engine.Repay(payer, poolAcct, loanAcct, 1, 1_000)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if !repayRes.Transfers[0].From.Equal(payer.Address) {
		t.Fatalf("repayment drawn from %s, want payer", repayRes.Transfers[0].From)
	}
	if !repayRes.Transfers[1].To.Equal(borrower.Address) {
		t.Fatalf("collateral released to %s, want borrower", repayRes.Transfers[1].To)
	}
}

func TestRepayTerminalLoan(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, poolAcct := fundedPool(t, engine, programID, 7, 10_000)
	borrower := userAccount(testAddr(0x03))
	loanAcct := loanAccount(t, programID, poolAcct.Address, 1, nil)

	res, err := engine.Borrow(borrower, poolAcct, loanAcct, 1_000, 1_500)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	writePool(t, poolAcct, res.Pool)
	repaid := res.Loan.Clone()
	repaid.Status = LoanRepaid
	writeLoan(t, loanAcct, repaid)

	if _, err := engine.Repay(borrower, poolAcct, loanAcct, 1, 1_050); !errors.Is(err, ErrLoanNotActive) {
		t.Fatalf("err = %v, want ErrLoanNotActive", err)
	}
}

func TestRepayUnknownLoan(t *testing.T) {
	engine := testEngine(t)
	programID := testProgramID()
	_, poolAcct := fundedPool(t, engine, programID, 7, 10_000)
	loanAcct := loanAccount(t, programID, poolAcct.Address, 1, nil)

	if _, err := engine.Repay(userAccount(testAddr(0x03)), poolAcct, loanAcct, 1, 1_000); !errors.Is(err, ErrLoanNotFound) {
		t.Fatalf("err = %v, want ErrLoanNotFound", err)
	}
}

func TestModulePauseBlocksTransitions(t *testing.T) {
	engine := testEngine(t)
	engine.SetPauses(nativecommon.StaticPauses{moduleName: true})
	programID := testProgramID()
	acct := poolAccount(t, programID, 7, nil)

	if _, err := engine.InitializePool(programID, 7, acct); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("err = %v, want ErrModulePaused", err)
	}
	if _, err := engine.Deposit(userAccount(testAddr(0x01)), acct, 10); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("err = %v, want ErrModulePaused", err)
	}
}
