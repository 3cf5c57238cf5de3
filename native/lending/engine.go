package lending

import (
	"errors"
	"fmt"
	"time"

	"peerlend/core/types"
	"peerlend/crypto"
	nativecommon "peerlend/native/common"
)

// ErrInvalidAmount marks a zero amount on an operation that requires value.
var ErrInvalidAmount = errors.New("lending: amount must be positive")

const poolAddressTag = "lending_pool"

// PoolAddress returns the canonical pool account address for a seed under the
// given program identity.
func PoolAddress(seed uint64, programID crypto.Address) crypto.Address {
	return crypto.DeriveAddress(poolAddressTag, seed, programID)
}

// Transfer is a custody movement the host must execute when it commits the
// instruction. The engine only declares transfers; it never moves value
// itself, so a failed instruction leaves no partial movement behind.
type Transfer struct {
	From   crypto.Address
	To     crypto.Address
	Amount uint64
}

// Engine orchestrates the lending state transitions. Every method is a
// single-invocation transition function: it decodes the supplied accounts,
// applies the operation and returns the full replacement records plus the
// custody transfers the host must perform. Nothing is cached between calls.
type Engine struct {
	params Params
	pauses nativecommon.PauseView
	nowFn  func() int64
	oracle PriceOracle
	ledger Ledger
}

// NewEngine constructs an engine with the supplied protocol parameters.
// Zero-valued parameter fields fall back to the protocol defaults.
func NewEngine(params Params) *Engine {
	return &Engine{
		params: params.normalized(),
		nowFn:  func() int64 { return time.Now().Unix() },
	}
}

// Params returns the protocol parameters the engine enforces.
func (e *Engine) Params() Params {
	if e == nil {
		return DefaultParams()
	}
	return e.params
}

// SetPauses wires the governance pause switches.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetNowFunc overrides the clock. The host supplies the authoritative
// timestamp for an invocation; tests use this for determinism.
func (e *Engine) SetNowFunc(now func() int64) {
	if e == nil {
		return
	}
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetOracle wires the collateral price oracle consumed by liquidation. A nil
// oracle disables the under-collateralization branch; liquidation surfaces
// that instead of skipping the check.
func (e *Engine) SetOracle(oracle PriceOracle) {
	if e == nil {
		return
	}
	e.oracle = oracle
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// InitializePool writes a fresh pool record at the address derived from the
// seed and the program identity. Re-initialising a live pool is a caller
// error.
func (e *Engine) InitializePool(programID crypto.Address, seed uint64, pool *types.InstructionAccount) (*LendingPool, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrInvalidAccountData
	}
	expected := PoolAddress(seed, programID)
	if !pool.Address.Equal(expected) {
		return nil, fmt.Errorf("%w: expected %s", ErrAddressMismatch, expected)
	}
	if PoolInitialized(pool.Data) {
		return nil, ErrAlreadyInitialized
	}
	return &LendingPool{
		TotalDeposits:   0,
		TotalBorrows:    0,
		InterestRateBps: e.params.InterestRateBps,
		NextLoanID:      1,
	}, nil
}

// DepositResult carries the mutated pool and the custody movement of the
// deposited liquidity.
type DepositResult struct {
	Pool      *LendingPool
	Transfers []Transfer
}

// Deposit adds liquidity to the pool and moves the amount from the depositor
// into pool custody.
func (e *Engine) Deposit(user, pool *types.InstructionAccount, amount uint64) (*DepositResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if user == nil || pool == nil {
		return nil, ErrInvalidAccountData
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	record, ok, err := DecodePool(pool.Data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: pool not initialised", ErrInvalidAccountData)
	}
	record.TotalDeposits, err = checkedAdd(record.TotalDeposits, amount)
	if err != nil {
		return nil, err
	}
	return &DepositResult{
		Pool: record,
		Transfers: []Transfer{
			{From: user.Address, To: pool.Address, Amount: amount},
		},
	}, nil
}

// BorrowResult carries the mutated pool, the newly created loan and the
// custody movements of collateral and principal.
type BorrowResult struct {
	Pool      *LendingPool
	Loan      *Loan
	Transfers []Transfer
}

// Borrow opens a new loan. The collateral must satisfy the minimum
// collateralization ratio and the pool must retain solvency: total borrows
// never exceed total deposits.
func (e *Engine) Borrow(borrower, pool, loanAcct *types.InstructionAccount, amount, collateralAmount uint64) (*BorrowResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if borrower == nil || pool == nil || loanAcct == nil {
		return nil, ErrInvalidAccountData
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	record, ok, err := DecodePool(pool.Data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: pool not initialised", ErrInvalidAccountData)
	}

	required, err := RequiredCollateral(amount, e.params.MinCollateralRatioBps)
	if err != nil {
		return nil, err
	}
	if collateralAmount < required {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrInsufficientCollateral, required, collateralAmount)
	}

	newBorrows, err := checkedAdd(record.TotalBorrows, amount)
	if err != nil {
		return nil, err
	}
	if newBorrows > record.TotalDeposits {
		return nil, fmt.Errorf("%w: %d borrowed against %d deposited", ErrInsufficientLiquidity, newBorrows, record.TotalDeposits)
	}

	loanID, err := e.ledger.Allocate(record, pool.Address, loanAcct)
	if err != nil {
		return nil, err
	}
	record.TotalBorrows = newBorrows

	var borrowerBytes [20]byte
	copy(borrowerBytes[:], borrower.Address.Bytes())
	loan := &Loan{
		ID:              loanID,
		Borrower:        borrowerBytes,
		Principal:       amount,
		Collateral:      collateralAmount,
		StartTime:       e.now(),
		Duration:        e.params.LoanDurationSeconds,
		InterestRateBps: record.InterestRateBps,
		Status:          LoanActive,
	}

	return &BorrowResult{
		Pool: record,
		Loan: loan,
		Transfers: []Transfer{
			{From: borrower.Address, To: pool.Address, Amount: collateralAmount},
			{From: pool.Address, To: borrower.Address, Amount: amount},
		},
	}, nil
}

// RepayResult carries the mutated pool, the settled loan, the accrued amount
// owed and the custody movements: the owed repayment into the pool and the
// collateral released back to the borrower.
type RepayResult struct {
	Pool      *LendingPool
	Loan      *Loan
	Owed      uint64
	Transfers []Transfer
}

// Repay settles an active loan in full. The payment must cover the accrued
// debt; the pool's exposure drops by the loan's outstanding principal and the
// collateral returns to the borrower.
func (e *Engine) Repay(payer, pool, loanAcct *types.InstructionAccount, loanID, amount uint64) (*RepayResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if payer == nil || pool == nil || loanAcct == nil {
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

	owed, err := AccruedDebt(loan, e.now())
	if err != nil {
		return nil, err
	}
	if amount < owed {
		return nil, fmt.Errorf("%w: owed %d, offered %d", ErrInsufficientRepayment, owed, amount)
	}

	outstanding := loan.Outstanding()
	record.TotalBorrows, err = checkedSub(record.TotalBorrows, outstanding)
	if err != nil {
		// Exposure below the loan's own principal means an earlier
		// transition corrupted the pool accounting.
		return nil, fmt.Errorf("%w: pool borrows %d below loan principal %d", ErrUnderflow, record.TotalBorrows, outstanding)
	}

	if err := e.ledger.Transition(loan, LoanRepaid); err != nil {
		return nil, err
	}

	// Collateral always releases to the loan's borrower, even when a third
	// party covers the debt.
	borrowerAddr := crypto.NewAddress(crypto.PLNPrefix, append([]byte(nil), loan.Borrower[:]...))
	return &RepayResult{
		Pool: record,
		Loan: loan,
		Owed: owed,
		Transfers: []Transfer{
			{From: payer.Address, To: pool.Address, Amount: owed},
			{From: pool.Address, To: borrowerAddr, Amount: loan.Collateral},
		},
	}, nil
}
