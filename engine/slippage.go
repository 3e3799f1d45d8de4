package engine

import (
	"fmt"
	"math/big"
)

// Amounts are EVM words; any intermediate wider than this overflows.
const maxAmountBits = 256

var oneHundred = big.NewInt(100)

// MinOut converts a per-hop slippage tolerance into the minimum acceptable
// swap output: amount - floor(amount * tolerance / 100). The multiplication
// is width-checked before dividing; a product wider than 256 bits fails with
// ErrArithmeticOverflow instead of wrapping.
//
// tolerance 0 means no shortfall is accepted; tolerance 100 accepts any
// nonzero output.
func MinOut(amount *big.Int, tolerancePercent uint64) (*big.Int, error) {
	if tolerancePercent > 100 {
		return nil, fmt.Errorf("%w: slippage tolerance %d above 100", ErrInvalidInput, tolerancePercent)
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount", ErrInvalidInput)
	}

	product := new(big.Int).Mul(amount, new(big.Int).SetUint64(tolerancePercent))
	if product.BitLen() > maxAmountBits {
		return nil, fmt.Errorf("%w: %s * %d exceeds %d bits", ErrArithmeticOverflow, amount, tolerancePercent, maxAmountBits)
	}

	discount := product.Div(product, oneHundred)
	return new(big.Int).Sub(amount, discount), nil
}
