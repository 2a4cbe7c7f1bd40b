package amm

import (
	"errors"
	"fmt"
	"math/big"
)

// Errors surfaced by the swap and redeem formulas.
var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrRedeemTooSmall        = errors.New("redeem amount too small")
)

// Fee is 0.3%, applied on the input side as a 997/1000 multiplier.
var (
	feeNumerator   = big.NewInt(997)
	feeDenominator = big.NewInt(1000)
)

// SwapExactInput returns the output amount for a fixed input amount:
//
//	amountOut = floor(amountIn * 997 * reserveOut / (reserveIn * 1000 + amountIn * 997))
//
// The result follows the constant-product curve and must match the
// on-chain accounting bit-exact, so the order of operations is fixed.
func SwapExactInput(reserveIn, reserveOut, amountIn *big.Int) (*big.Int, error) {
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive, got %s", amountIn)
	}

	amountInWithFee := new(big.Int).Mul(amountIn, feeNumerator)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, feeDenominator)
	denominator.Add(denominator, amountInWithFee)

	return numerator.Quo(numerator, denominator), nil
}

// SwapExactOutput returns the input amount required for a fixed output amount:
//
//	amountIn = floor(reserveIn * amountOut * 1000 / ((reserveOut - amountOut) * 997)) + 1
//
// The +1 rounds in the pool's favor so the invariant never decreases.
// Fails with ErrInsufficientLiquidity when amountOut >= reserveOut.
func SwapExactOutput(reserveIn, reserveOut, amountOut *big.Int) (*big.Int, error) {
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("amount out must be positive, got %s", amountOut)
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, feeDenominator)
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, feeNumerator)

	amountIn := numerator.Quo(numerator, denominator)
	return amountIn.Add(amountIn, big.NewInt(1)), nil
}

// ProportionalDeposit returns the token-B amount matching amountA at the
// pool's current ratio: floor(amountA * reserveB / reserveA). For an empty
// pool the ratio is user-defined, so userAmountB is returned unchanged.
// A pool with exactly one empty side has no ratio; direct transfers plus
// sync can put a live pair in that state, so it fails with
// ErrInsufficientLiquidity instead of dividing by zero.
func ProportionalDeposit(reserveA, reserveB, amountA, userAmountB *big.Int) (*big.Int, error) {
	if reserveA.Sign() == 0 && reserveB.Sign() == 0 {
		return new(big.Int).Set(userAmountB), nil
	}
	if reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	amountB := new(big.Int).Mul(amountA, reserveB)
	return amountB.Quo(amountB, reserveA), nil
}

// ProportionalRedeem returns the amounts withdrawn when burning lpAmount
// of the pool's LP supply: floor(lpAmount * reserveX / totalSupply) per side.
// Fails with ErrRedeemTooSmall when either computed amount is zero.
func ProportionalRedeem(lpAmount, totalSupply, reserveA, reserveB *big.Int) (*big.Int, *big.Int, error) {
	if totalSupply.Sign() <= 0 {
		return nil, nil, ErrInsufficientLiquidity
	}

	amountA := new(big.Int).Mul(lpAmount, reserveA)
	amountA.Quo(amountA, totalSupply)
	amountB := new(big.Int).Mul(lpAmount, reserveB)
	amountB.Quo(amountB, totalSupply)

	if amountA.Sign() == 0 || amountB.Sign() == 0 {
		return nil, nil, ErrRedeemTooSmall
	}
	return amountA, amountB, nil
}
