package lending

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/rlp"
)

// Records are persisted as RLP with a leading version field. The version
// doubles as the presence marker: an empty buffer is an uninitialised
// account, a non-empty buffer must decode under a known version or the
// record is rejected.

const (
	poolRecordVersion uint8 = 1
	loanRecordVersion uint8 = 1
)

type storedPool struct {
	Version         uint8
	TotalDeposits   uint64
	TotalBorrows    uint64
	InterestRateBps uint32
	NextLoanID      uint64
}

type storedLoan struct {
	Version         uint8
	ID              uint64
	Borrower        [20]byte
	Principal       uint64
	Collateral      uint64
	StartTime       uint64
	Duration        uint64
	InterestRateBps uint32
	Status          uint8
}

// PoolInitialized reports whether the account buffer already carries a pool
// record.
func PoolInitialized(data []byte) bool {
	return len(data) > 0
}

// EncodePool serialises a pool record for write-back.
func EncodePool(pool *LendingPool) ([]byte, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: nil pool", ErrInvalidRecord)
	}
	return rlp.EncodeToBytes(&storedPool{
		Version:         poolRecordVersion,
		TotalDeposits:   pool.TotalDeposits,
		TotalBorrows:    pool.TotalBorrows,
		InterestRateBps: pool.InterestRateBps,
		NextLoanID:      pool.NextLoanID,
	})
}

// DecodePool deserialises a pool record. The second return value is false
// when the buffer is empty, i.e. the account was never initialised.
func DecodePool(data []byte) (*LendingPool, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}
	stored := new(storedPool)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if stored.Version != poolRecordVersion {
		return nil, false, fmt.Errorf("%w: unsupported pool record version %d", ErrInvalidRecord, stored.Version)
	}
	return &LendingPool{
		TotalDeposits:   stored.TotalDeposits,
		TotalBorrows:    stored.TotalBorrows,
		InterestRateBps: stored.InterestRateBps,
		NextLoanID:      stored.NextLoanID,
	}, true, nil
}

// EncodeLoan serialises a loan record for write-back.
func EncodeLoan(loan *Loan) ([]byte, error) {
	if loan == nil {
		return nil, fmt.Errorf("%w: nil loan", ErrInvalidRecord)
	}
	if loan.StartTime < 0 || loan.Duration < 0 {
		return nil, fmt.Errorf("%w: negative loan timestamps", ErrInvalidRecord)
	}
	if !loan.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid loan status %d", ErrInvalidRecord, loan.Status)
	}
	return rlp.EncodeToBytes(&storedLoan{
		Version:         loanRecordVersion,
		ID:              loan.ID,
		Borrower:        loan.Borrower,
		Principal:       loan.Principal,
		Collateral:      loan.Collateral,
		StartTime:       uint64(loan.StartTime),
		Duration:        uint64(loan.Duration),
		InterestRateBps: loan.InterestRateBps,
		Status:          uint8(loan.Status),
	})
}

// DecodeLoan deserialises a loan record. The second return value is false
// when the buffer is empty.
func DecodeLoan(data []byte) (*Loan, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}
	stored := new(storedLoan)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if stored.Version != loanRecordVersion {
		return nil, false, fmt.Errorf("%w: unsupported loan record version %d", ErrInvalidRecord, stored.Version)
	}
	if stored.StartTime > math.MaxInt64 || stored.Duration > math.MaxInt64 {
		return nil, false, fmt.Errorf("%w: loan timestamps out of range", ErrInvalidRecord)
	}
	status := LoanStatus(stored.Status)
	if !status.Valid() {
		return nil, false, fmt.Errorf("%w: invalid loan status %d", ErrInvalidRecord, stored.Status)
	}
	return &Loan{
		ID:              stored.ID,
		Borrower:        stored.Borrower,
		Principal:       stored.Principal,
		Collateral:      stored.Collateral,
		StartTime:       int64(stored.StartTime),
		Duration:        int64(stored.Duration),
		InterestRateBps: stored.InterestRateBps,
		Status:          status,
	}, true, nil
}
