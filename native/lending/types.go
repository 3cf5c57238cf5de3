package lending

import "fmt"

// LoanStatus tracks the lifecycle of a borrowing position. Transitions are
// one-way: Active moves to Repaid or Liquidated and terminal states never
// mutate again.
type LoanStatus uint8

const (
	LoanActive LoanStatus = iota
	LoanRepaid
	LoanLiquidated
)

// Valid reports whether the status value is within the supported range.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanRepaid, LoanLiquidated:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s LoanStatus) Terminal() bool {
	return s == LoanRepaid || s == LoanLiquidated
}

func (s LoanStatus) String() string {
	switch s {
	case LoanActive:
		return "active"
	case LoanRepaid:
		return "repaid"
	case LoanLiquidated:
		return "liquidated"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// LendingPool is the aggregate record for one lending market. NextLoanID is
// the allocator feeding the loan ledger; ids start at 1 so a zero id never
// resolves.
type LendingPool struct {
	TotalDeposits   uint64
	TotalBorrows    uint64
	InterestRateBps uint32
	NextLoanID      uint64
}

// Clone returns a copy callers can mutate without touching the original.
func (p *LendingPool) Clone() *LendingPool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Loan captures a single borrowing position. Borrower holds the raw address
// bytes so the record layout stays fixed.
type Loan struct {
	ID              uint64
	Borrower        [20]byte
	Principal       uint64
	Collateral      uint64
	StartTime       int64
	Duration        int64
	InterestRateBps uint32
	Status          LoanStatus
}

// Clone returns a copy callers can mutate without touching the original.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}

// MaturityTime is the instant after which the loan becomes overdue.
func (l *Loan) MaturityTime() int64 {
	return l.StartTime + l.Duration
}

// Overdue reports whether the loan term has elapsed at the supplied time.
func (l *Loan) Overdue(now int64) bool {
	return now > l.MaturityTime()
}

// Outstanding is the principal still owed to the pool. Terminal loans carry
// no exposure.
func (l *Loan) Outstanding() uint64 {
	if l.Status != LoanActive {
		return 0
	}
	return l.Principal
}
