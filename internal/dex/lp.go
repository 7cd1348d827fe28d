package dex

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

// E8 converts whole LP tokens to base units.
const E8 = 100_000_000

var maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// LPBalanceToDecimals converts the backend's floating-point LP balance to
// integer base units: reject NaN, infinities and negatives, scale by 10^8,
// round to nearest (ties away from zero) and require the result to fit u64.
func LPBalanceToDecimals(balance float64) (uint64, *types.Error) {
	if math.IsNaN(balance) || math.IsInf(balance, 0) {
		return 0, types.Postconditionf("LP balance %v is not a finite number", balance)
	}
	if balance < 0 {
		return 0, types.Postconditionf("LP balance %v is negative", balance)
	}

	scaled := decimal.NewFromFloat(balance).Mul(decimal.NewFromInt(E8)).Round(0)
	if scaled.Cmp(maxUint64) > 0 {
		return 0, types.Postconditionf("LP balance %v exceeds the u64 range in base units", balance)
	}
	return scaled.BigInt().Uint64(), nil
}
