package univ3

import "math/big"

// Q96 = 2^96, the fixed-point scale of sqrt prices.
var Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

func mulDiv(a, b, denominator *big.Int) *big.Int {
	p := new(big.Int).Mul(a, b)
	return p.Div(p, denominator)
}

func mulDivRoundingUp(a, b, denominator *big.Int) *big.Int {
	p := new(big.Int).Mul(a, b)
	return divRoundingUp(p, denominator)
}

func divRoundingUp(x, denominator *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(x, denominator, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func sortRatios(a, b *big.Int) (*big.Int, *big.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// LiquidityForAmount0 computes the liquidity a given amount of token0
// provides over the price range [sqrtRatioA, sqrtRatioB].
func LiquidityForAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0 *big.Int) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	intermediate := mulDiv(a, b, Q96)
	return mulDiv(amount0, intermediate, new(big.Int).Sub(b, a))
}

// LiquidityForAmount1 computes the liquidity a given amount of token1
// provides over the price range [sqrtRatioA, sqrtRatioB].
func LiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1 *big.Int) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	return mulDiv(amount1, Q96, new(big.Int).Sub(b, a))
}

// Amount0ForLiquidity returns the token0 amount backing the liquidity over
// the price range.
func Amount0ForLiquidity(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	shifted := new(big.Int).Lsh(liquidity, 96)
	num := mulDiv(shifted, new(big.Int).Sub(b, a), b)
	return num.Div(num, a)
}

// Amount1ForLiquidity returns the token1 amount backing the liquidity over
// the price range.
func Amount1ForLiquidity(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	return mulDiv(liquidity, new(big.Int).Sub(b, a), Q96)
}

// Amount0ForLiquidityRoundingUp is Amount0ForLiquidity with every
// division rounded up. Used when quoting the amount a deposit must
// supply: the result converts back to at least the requested liquidity.
func Amount0ForLiquidityRoundingUp(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	shifted := new(big.Int).Lsh(liquidity, 96)
	num := mulDivRoundingUp(shifted, new(big.Int).Sub(b, a), b)
	return divRoundingUp(num, a)
}

// Amount1ForLiquidityRoundingUp is Amount1ForLiquidity rounded up.
func Amount1ForLiquidityRoundingUp(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	return mulDivRoundingUp(liquidity, new(big.Int).Sub(b, a), Q96)
}

// AmountsForLiquidity returns the token amounts backing the liquidity over
// the price range, given the current sqrt price.
func AmountsForLiquidity(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) (amount0, amount1 *big.Int) {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	amount0, amount1 = new(big.Int), new(big.Int)

	switch {
	case sqrtRatioX96.Cmp(a) <= 0:
		amount0 = Amount0ForLiquidity(a, b, liquidity)
	case sqrtRatioX96.Cmp(b) < 0:
		amount0 = Amount0ForLiquidity(sqrtRatioX96, b, liquidity)
		amount1 = Amount1ForLiquidity(a, sqrtRatioX96, liquidity)
	default:
		amount1 = Amount1ForLiquidity(a, b, liquidity)
	}
	return amount0, amount1
}
