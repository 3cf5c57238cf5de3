package lending

import "math/big"

// The collateral validator is a set of pure functions: identical inputs
// always produce identical outputs, so independent re-executions of the same
// instruction agree bit for bit.

// RequiredCollateral returns the minimum collateral for a principal under the
// supplied collateralization ratio: principal * ratioBps / 10_000.
func RequiredCollateral(principal uint64, ratioBps uint64) (uint64, error) {
	return mulDiv(principal, ratioBps, basisPoints)
}

// AccruedDebt returns the full amount owed on a loan at the supplied time
// under simple interest:
//
//	principal + principal * rateBps * elapsed / (10_000 * secondsPerYear)
//
// Elapsed time before the loan start contributes nothing. The computation is
// checked end to end and fails with ErrArithmeticOverflow rather than
// wrapping.
func AccruedDebt(loan *Loan, now int64) (uint64, error) {
	if loan == nil {
		return 0, ErrLoanNotFound
	}
	elapsed := now - loan.StartTime
	if elapsed <= 0 {
		return loan.Principal, nil
	}
	principal := new(big.Int).SetUint64(loan.Principal)
	interest := new(big.Int).Mul(principal, new(big.Int).SetUint64(uint64(loan.InterestRateBps)))
	interest.Mul(interest, big.NewInt(elapsed))
	interest.Quo(interest, big.NewInt(basisPoints*secondsPerYear))
	total := new(big.Int).Add(principal, interest)
	if total.Cmp(maxUint64) > 0 {
		return 0, ErrArithmeticOverflow
	}
	return total.Uint64(), nil
}
