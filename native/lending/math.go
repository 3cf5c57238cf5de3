package lending

import (
	"math"
	"math/big"
)

func checkedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrArithmeticOverflow
	}
	return a + b, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

var maxUint64 = new(big.Int).SetUint64(math.MaxUint64)

// mulDiv computes a*b/den over big integers and fails when the quotient does
// not fit the 64-bit amount domain. Division truncates toward zero, matching
// the integer semantics of the wire format.
func mulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrArithmeticOverflow
	}
	product := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	product.Quo(product, new(big.Int).SetUint64(den))
	if product.Cmp(maxUint64) > 0 {
		return 0, ErrArithmeticOverflow
	}
	return product.Uint64(), nil
}
