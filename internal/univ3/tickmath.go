// Package univ3 ports the Uniswap V3 fixed-point pool math needed to price
// ticks and size liquidity. Values follow the on-chain Q64.96 convention.
package univ3

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the minimum tick that may be passed to SqrtRatioAtTick.
	MinTick = -887272
	// MaxTick is the maximum tick that may be passed to SqrtRatioAtTick.
	MaxTick = 887272
)

var (
	// MinSqrtRatio is the sqrt price at MinTick.
	MinSqrtRatio = big.NewInt(4295128739)
	// MaxSqrtRatio is the sqrt price at MaxTick.
	MaxSqrtRatio = mustParseBig("1461446703485210103287273052203988822378723970342")

	ErrTickOutOfBounds      = errors.New("univ3: tick out of bounds")
	ErrSqrtRatioOutOfBounds = errors.New("univ3: sqrt ratio out of bounds")

	one        = uint256.NewInt(1)
	maxUint256 = uint256.MustFromBig(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))

	// sqrt(1.0001^(2^i)) * 2^128 for i = 0..19, preceded by the two seeds
	// and followed by the 32-bit rounding mask.
	ratioConstants = [22]*uint256.Int{
		mustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
		mustFromHex("0x100000000000000000000000000000000"),
		mustFromHex("0xfff97272373d413259a46990580e213a"),
		mustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		mustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		mustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		mustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		mustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		mustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		mustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		mustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		mustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		mustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		mustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		mustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		mustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		mustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		mustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		mustFromHex("0x5d6af8dedb81196699c329225ee604"),
		mustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		mustFromHex("0x48a170391f7dc42444e8fa2"),
		mustFromHex("0xffffffff"),
	}
)

func mustParseBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("univ3: bad big.Int literal")
	}
	return n
}

func mustFromHex(s string) *uint256.Int {
	n, err := uint256.FromHex(s)
	if err != nil {
		panic(err)
	}
	return n
}

// SqrtRatioAtTick calculates sqrt(1.0001^tick) * 2^96.
func SqrtRatioAtTick(tick int) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfBounds
	}

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	ratio := new(uint256.Int)
	if absTick&0x1 != 0 {
		ratio.Set(ratioConstants[0])
	} else {
		ratio.Set(ratioConstants[1])
	}

	for i := 2; i < 21; i++ {
		if absTick&(1<<(i-1)) != 0 {
			ratio.Mul(ratio, ratioConstants[i]).Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Divide by 2^32 rounding up, matching the Solidity cast to Q64.96.
	rem := new(uint256.Int).And(ratio, ratioConstants[21])
	ratio.Rsh(ratio, 32)
	if rem.Sign() > 0 {
		ratio.Add(ratio, one)
	}

	return ratio.ToBig(), nil
}

// TickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= the
// given ratio, found by binary search over the valid tick range.
func TickAtSqrtRatio(sqrtPriceX96 *big.Int) (int, error) {
	if sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtRatioOutOfBounds
	}

	low, high := MinTick, MaxTick
	var tick int

	for low <= high {
		mid := (low + high) / 2
		ratio, err := SqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}

		if ratio.Cmp(sqrtPriceX96) <= 0 {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	return tick, nil
}
