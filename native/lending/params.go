package lending

const moduleName = "lending"

const (
	basisPoints    = 10_000
	secondsPerYear = 31_536_000
)

const (
	// DefaultInterestRateBps is the borrow rate written into a freshly
	// initialised pool, expressed in basis points (500 = 5.00%).
	DefaultInterestRateBps uint32 = 500
	// DefaultLoanDuration is the fixed loan term in seconds (30 days).
	DefaultLoanDuration int64 = 2_592_000
	// DefaultMinCollateralRatioBps is the minimum collateralization ratio a
	// new loan must satisfy (15000 = 150%).
	DefaultMinCollateralRatioBps uint64 = 15_000
)

// Params groups the protocol constants governing pool initialisation and loan
// creation. Zero-valued fields fall back to the protocol defaults.
type Params struct {
	MinCollateralRatioBps uint64
	InterestRateBps       uint32
	LoanDurationSeconds   int64
}

// DefaultParams returns the protocol defaults.
func DefaultParams() Params {
	return Params{
		MinCollateralRatioBps: DefaultMinCollateralRatioBps,
		InterestRateBps:       DefaultInterestRateBps,
		LoanDurationSeconds:   DefaultLoanDuration,
	}
}

func (p Params) normalized() Params {
	out := p
	if out.MinCollateralRatioBps == 0 {
		out.MinCollateralRatioBps = DefaultMinCollateralRatioBps
	}
	if out.InterestRateBps == 0 {
		out.InterestRateBps = DefaultInterestRateBps
	}
	if out.LoanDurationSeconds <= 0 {
		out.LoanDurationSeconds = DefaultLoanDuration
	}
	return out
}
